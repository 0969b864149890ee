package domain

// DesignAdvice is one cited recommendation produced by an analysis run.
type DesignAdvice struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	PrincipleSource string `json:"principle_source"`
}

// Visualization is a generated picture of the room after applying one design
// principle. Title names the principle that produced it.
type Visualization struct {
	Title string
	Image RoomImage
}

// WorkflowState names the asynchronous phase in flight.
type WorkflowState string

const (
	StateIdle        WorkflowState = "idle"
	StateCleaning    WorkflowState = "cleaning"
	StateAnalyzing   WorkflowState = "analyzing"
	StateVisualizing WorkflowState = "visualizing"
)
