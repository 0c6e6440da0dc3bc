package services

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// UploadTooLargeError reports a file that crossed the configured limit
// while streaming. Nothing is persisted for it.
type UploadTooLargeError struct {
	Filename string
	Limit    int64
}

func (e *UploadTooLargeError) Error() string {
	return fmt.Sprintf("file too large: %s (max %s)", e.Filename, HumanBytes(e.Limit))
}

// UploadWriteError wraps any failure moving bytes into storage.
type UploadWriteError struct {
	Filename string
	Err      error
}

func (e *UploadWriteError) Error() string {
	return fmt.Sprintf("file write error: %s: %v", e.Filename, e.Err)
}

func (e *UploadWriteError) Unwrap() error { return e.Err }

// ScoringError is returned when the scorer fails. TestID names the stored
// "error" record, or is uuid.Nil when that record could not be written.
type ScoringError struct {
	TestID uuid.UUID
	Err    error
}

func (e *ScoringError) Error() string {
	if e.TestID == uuid.Nil {
		return fmt.Sprintf("scoring failed: %v", e.Err)
	}
	return fmt.Sprintf("scoring failed for test %s: %v", e.TestID, e.Err)
}

func (e *ScoringError) Unwrap() error { return e.Err }

// HumanBytes renders n in decimal units the way limits are configured.
func HumanBytes(n int64) string {
	switch {
	case n >= 1_000_000_000:
		return strconv.FormatFloat(float64(n)/1e9, 'f', -1, 64) + "GB"
	case n >= 1_000_000:
		return strconv.FormatFloat(float64(n)/1e6, 'f', -1, 64) + "MB"
	default:
		return strconv.FormatInt(n, 10) + " bytes"
	}
}
