package design

import (
	"encoding/json"
	"errors"
	"strings"

	"roomdesign/internal/domain"
)

type adviceItem struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	PrincipleSource string `json:"principleSource"`
}

var errMissingAdvice = errors.New("payload has no advice field")

// parseAdvice decodes the structured analysis response. It tolerates code
// fences, surrounding prose and a bare array. Items missing any field are
// dropped.
func parseAdvice(raw string) ([]domain.DesignAdvice, error) {
	cleaned := extractJSONFragment(raw)
	if cleaned == "" {
		return nil, errors.New("empty payload")
	}

	var items []adviceItem
	if strings.HasPrefix(cleaned, "[") {
		if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
			return nil, err
		}
	} else {
		var payload struct {
			Advice *[]adviceItem `json:"advice"`
		}
		if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
			return nil, err
		}
		if payload.Advice == nil {
			return nil, errMissingAdvice
		}
		items = *payload.Advice
	}

	advice := make([]domain.DesignAdvice, 0, len(items))
	for _, item := range items {
		a := domain.DesignAdvice{
			Title:           strings.TrimSpace(item.Title),
			Description:     strings.TrimSpace(item.Description),
			PrincipleSource: strings.TrimSpace(item.PrincipleSource),
		}
		if a.Title == "" || a.Description == "" || a.PrincipleSource == "" {
			continue
		}
		advice = append(advice, a)
	}
	return advice, nil
}

func extractJSONFragment(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	text = trimCodeFence(text)
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "]}")
	if start >= 0 && end >= start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
