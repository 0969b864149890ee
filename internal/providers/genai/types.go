package genai

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Response modalities accepted by image-capable models.
const (
	ModalityText  = "TEXT"
	ModalityImage = "IMAGE"
)

// Content is one turn of a generateContent conversation.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part is either text or an inline binary payload.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// InlineData carries base64 encoded bytes.
type InlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

// Schema is the OpenAPI subset accepted as responseSchema.
type Schema struct {
	Type             string             `json:"type"`
	Description      string             `json:"description,omitempty"`
	Properties       map[string]*Schema `json:"properties,omitempty"`
	Items            *Schema            `json:"items,omitempty"`
	Required         []string           `json:"required,omitempty"`
	PropertyOrdering []string           `json:"propertyOrdering,omitempty"`
}

// GenerationConfig controls the response shape.
type GenerationConfig struct {
	Temperature        *float64 `json:"temperature,omitempty"`
	CandidateCount     int      `json:"candidateCount,omitempty"`
	ResponseMimeType   string   `json:"responseMimeType,omitempty"`
	ResponseSchema     *Schema  `json:"responseSchema,omitempty"`
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

// Request is the generateContent request body.
type Request struct {
	Contents          []Content         `json:"contents"`
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
}

// Candidate is one generated answer.
type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

// PromptFeedback reports prompts blocked before generation.
type PromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

// Response is the generateContent response body.
type Response struct {
	Candidates     []Candidate     `json:"candidates"`
	PromptFeedback *PromptFeedback `json:"promptFeedback,omitempty"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
		Status  string `json:"status,omitempty"`
	} `json:"error"`
}

// TextPart builds a text part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// ImagePart builds an inline image part from raw bytes.
func ImagePart(mimeType string, data []byte) Part {
	return Part{InlineData: &InlineData{
		MimeType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(data),
	}}
}

// UserContent wraps parts in a user turn.
func UserContent(parts ...Part) Content {
	return Content{Role: "user", Parts: parts}
}

// Text returns the first non-empty text part across candidates.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	for _, cand := range r.Candidates {
		for _, part := range cand.Content.Parts {
			if strings.TrimSpace(part.Text) != "" {
				return part.Text
			}
		}
	}
	return ""
}

// FirstImage decodes the first inline image part. ok is false when the
// response carries no image.
func (r *Response) FirstImage() (data []byte, mimeType string, ok bool, err error) {
	if r == nil {
		return nil, "", false, nil
	}
	for _, cand := range r.Candidates {
		for _, part := range cand.Content.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			if !strings.HasPrefix(part.InlineData.MimeType, "image/") && part.InlineData.MimeType != "" {
				continue
			}
			blob, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return nil, "", false, fmt.Errorf("decode inline data: %w", err)
			}
			mime := part.InlineData.MimeType
			if mime == "" {
				mime = "image/png"
			}
			return blob, mime, true, nil
		}
	}
	return nil, "", false, nil
}

// BlockReason explains an empty response when the prompt was filtered.
func (r *Response) BlockReason() string {
	if r == nil {
		return ""
	}
	if r.PromptFeedback != nil && r.PromptFeedback.BlockReason != "" {
		return r.PromptFeedback.BlockReason
	}
	for _, cand := range r.Candidates {
		if cand.FinishReason != "" && cand.FinishReason != "STOP" {
			return cand.FinishReason
		}
	}
	return ""
}
