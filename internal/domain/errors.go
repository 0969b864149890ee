package domain

import "errors"

var (
	ErrConfiguration   = errors.New("generation service not configured")
	ErrGeneration      = errors.New("generation failed")
	ErrWorkflowBusy    = errors.New("workflow phase already in progress")
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidImage    = errors.New("invalid image")
	ErrInvalidCategory = errors.New("invalid design category")
	ErrNoImage         = errors.New("no room image uploaded")
)
