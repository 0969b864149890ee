package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"roomdesign/internal/domain"
	"roomdesign/internal/infra"
	"roomdesign/internal/metrics"
)

// User-facing messages stored in the snapshot when a phase fails.
const (
	MsgCleanFailed     = "Could not clean the room image. Please try again."
	MsgAnalyzeFailed   = "Could not analyze the room. Please try again."
	MsgVisualizeFailed = "Could not generate visualizations. Please try again."
)

// DefaultVisualizationCount is the batch size requested per run.
const DefaultVisualizationCount = 4

// Generator is the remote generation contract used by the controller.
// *design.Service satisfies it.
type Generator interface {
	Declutter(ctx context.Context, img domain.RoomImage) (domain.RoomImage, error)
	Analyze(ctx context.Context, img domain.RoomImage, category domain.DesignCategory, locale string) ([]domain.DesignAdvice, error)
	Visualize(ctx context.Context, img domain.RoomImage, category domain.DesignCategory, count int) ([]domain.Visualization, error)
}

// Observer is told about every phase change, in order.
type Observer func(state domain.WorkflowState)

// Options configures a Controller.
type Options struct {
	Generator          Generator
	VisualizationCount int
	Logger             *infra.Logger
	Observer           Observer
}

// Controller is the per-session workflow state machine. One phase runs at a
// time; starting another while busy fails with domain.ErrWorkflowBusy.
// Remote calls are made without holding the lock.
type Controller struct {
	gen      Generator
	count    int
	logger   *infra.Logger
	observer Observer

	mu             sync.Mutex
	state          domain.WorkflowState
	original       domain.RoomImage
	cleaned        domain.RoomImage
	cleanMode      bool
	category       domain.DesignCategory
	advice         []domain.DesignAdvice
	visualizations []domain.Visualization
	errMsg         string
}

// VisualizationInfo describes one stored visualization without its bytes.
type VisualizationInfo struct {
	Title    string
	MIMEType string
}

// Snapshot is a copy of the controller state for rendering.
type Snapshot struct {
	State           domain.WorkflowState
	Category        domain.DesignCategory
	CleanMode       bool
	HasImage        bool
	HasCleanedImage bool
	Advice          []domain.DesignAdvice
	Visualizations  []VisualizationInfo
	Error           string
}

// NewController returns an idle controller with the default category selected.
func NewController(opts Options) *Controller {
	count := opts.VisualizationCount
	if count <= 0 {
		count = DefaultVisualizationCount
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &Controller{
		gen:      opts.Generator,
		count:    count,
		logger:   logger,
		observer: opts.Observer,
		state:    domain.StateIdle,
		category: domain.DefaultCategory,
	}
}

// Upload replaces the original image and discards everything derived from
// the previous one.
func (c *Controller) Upload(img domain.RoomImage) error {
	if img.IsZero() {
		return fmt.Errorf("upload: %w", domain.ErrInvalidImage)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != domain.StateIdle {
		return fmt.Errorf("upload: %w", domain.ErrWorkflowBusy)
	}
	c.original = img
	c.cleaned = domain.RoomImage{}
	c.cleanMode = false
	c.advice = nil
	c.visualizations = nil
	c.errMsg = ""
	return nil
}

// EnableCleanMode activates the decluttered image, producing it first when it
// is not cached. A failed declutter leaves clean mode off and records
// MsgCleanFailed. Without an uploaded image it does nothing.
func (c *Controller) EnableCleanMode(ctx context.Context) error {
	c.mu.Lock()
	if c.state != domain.StateIdle {
		c.mu.Unlock()
		return fmt.Errorf("clean: %w", domain.ErrWorkflowBusy)
	}
	if c.original.IsZero() {
		c.mu.Unlock()
		return nil
	}
	if !c.cleaned.IsZero() {
		c.cleanMode = true
		c.mu.Unlock()
		return nil
	}
	original := c.original
	c.state = domain.StateCleaning
	c.errMsg = ""
	c.mu.Unlock()
	c.notify(domain.StateCleaning)

	cleaned, err := c.gen.Declutter(ctx, original)

	c.mu.Lock()
	if err != nil {
		c.cleanMode = false
		c.errMsg = MsgCleanFailed
	} else {
		c.cleaned = cleaned
		c.cleanMode = true
	}
	c.state = domain.StateIdle
	c.mu.Unlock()
	c.notify(domain.StateIdle)

	if err != nil {
		c.logger.Error().Err(err).Str("phase", string(domain.StateCleaning)).Msg("workflow: declutter failed")
		return configurationError(err)
	}
	return nil
}

// DisableCleanMode switches back to the original. The cleaned image stays
// cached so re-enabling is free.
func (c *Controller) DisableCleanMode() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != domain.StateIdle {
		return fmt.Errorf("clean: %w", domain.ErrWorkflowBusy)
	}
	c.cleanMode = false
	return nil
}

// SelectCategory changes the focus of the next run.
func (c *Controller) SelectCategory(category domain.DesignCategory) error {
	if !category.Valid() {
		return fmt.Errorf("select category: %w: %q", domain.ErrInvalidCategory, category)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != domain.StateIdle {
		return fmt.Errorf("select category: %w", domain.ErrWorkflowBusy)
	}
	c.category = category
	return nil
}

// Generate runs analysis and then visualization on the active image. Previous
// results are cleared when the run starts. A visualization failure keeps the
// advice of the same run. Without an active image it does nothing.
//
// Phase failures are recorded in the snapshot and only a missing
// configuration is returned as an error.
func (c *Controller) Generate(ctx context.Context, locale string) error {
	c.mu.Lock()
	if c.state != domain.StateIdle {
		c.mu.Unlock()
		return fmt.Errorf("generate: %w", domain.ErrWorkflowBusy)
	}
	img := c.activeLocked()
	if img.IsZero() {
		c.mu.Unlock()
		return nil
	}
	category := c.category
	c.state = domain.StateAnalyzing
	c.advice = nil
	c.visualizations = nil
	c.errMsg = ""
	c.mu.Unlock()
	c.notify(domain.StateAnalyzing)

	advice, err := c.gen.Analyze(ctx, img, category, locale)
	if err != nil {
		c.fail(MsgAnalyzeFailed)
		c.logger.Error().Err(err).Str("phase", string(domain.StateAnalyzing)).Str("category", string(category)).Msg("workflow: analysis failed")
		return configurationError(err)
	}
	if advice == nil {
		advice = []domain.DesignAdvice{}
	}

	c.mu.Lock()
	c.advice = advice
	c.state = domain.StateVisualizing
	c.mu.Unlock()
	c.notify(domain.StateVisualizing)

	visualizations, err := c.gen.Visualize(ctx, img, category, c.count)
	if err != nil {
		c.fail(MsgVisualizeFailed)
		c.logger.Error().Err(err).Str("phase", string(domain.StateVisualizing)).Str("category", string(category)).Msg("workflow: visualization failed")
		return configurationError(err)
	}

	c.mu.Lock()
	c.visualizations = visualizations
	c.state = domain.StateIdle
	c.mu.Unlock()
	c.notify(domain.StateIdle)

	c.logger.Info().
		Str("category", string(category)).
		Int("advice", len(advice)).
		Int("visualizations", len(visualizations)).
		Msg("workflow: run completed")
	return nil
}

// Snapshot copies the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := Snapshot{
		State:           c.state,
		Category:        c.category,
		CleanMode:       c.cleanMode,
		HasImage:        !c.original.IsZero(),
		HasCleanedImage: !c.cleaned.IsZero(),
		Advice:          copyAdvice(c.advice),
		Visualizations:  make([]VisualizationInfo, 0, len(c.visualizations)),
		Error:           c.errMsg,
	}
	for _, v := range c.visualizations {
		snap.Visualizations = append(snap.Visualizations, VisualizationInfo{Title: v.Title, MIMEType: v.Image.MIMEType})
	}
	return snap
}

// State returns the phase in flight.
func (c *Controller) State() domain.WorkflowState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Original returns the uploaded image, if any.
func (c *Controller) Original() (domain.RoomImage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.original, !c.original.IsZero()
}

// Cleaned returns the cached decluttered image, if any.
func (c *Controller) Cleaned() (domain.RoomImage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cleaned, !c.cleaned.IsZero()
}

// Active returns the image the next run would analyze.
func (c *Controller) Active() (domain.RoomImage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	img := c.activeLocked()
	return img, !img.IsZero()
}

// Visualization returns the i-th stored visualization.
func (c *Controller) Visualization(i int) (domain.Visualization, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.visualizations) {
		return domain.Visualization{}, false
	}
	return c.visualizations[i], true
}

// Visualizations returns a copy of the stored batch.
func (c *Controller) Visualizations() []domain.Visualization {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Visualization(nil), c.visualizations...)
}

// copyAdvice keeps nil (no run yet) distinct from an empty result.
func copyAdvice(advice []domain.DesignAdvice) []domain.DesignAdvice {
	if advice == nil {
		return nil
	}
	out := make([]domain.DesignAdvice, len(advice))
	copy(out, advice)
	return out
}

func (c *Controller) activeLocked() domain.RoomImage {
	if c.cleanMode && !c.cleaned.IsZero() {
		return c.cleaned
	}
	return c.original
}

func (c *Controller) fail(msg string) {
	c.mu.Lock()
	c.errMsg = msg
	c.state = domain.StateIdle
	c.mu.Unlock()
	c.notify(domain.StateIdle)
}

func (c *Controller) notify(state domain.WorkflowState) {
	metrics.WorkflowTransition(string(state))
	if c.observer != nil {
		c.observer(state)
	}
}

func configurationError(err error) error {
	if errors.Is(err, domain.ErrConfiguration) {
		return err
	}
	return nil
}
