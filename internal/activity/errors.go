package activity

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidSnapshot is wrapped by every ValidationError so callers can match
// bad input with errors.Is.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// ValidationError describes a snapshot the pipeline refuses to process.
type ValidationError struct {
	StationID string
	Timestamp time.Time
	Reason    string
}

func (e *ValidationError) Error() string {
	if e.StationID == "" {
		return fmt.Sprintf("invalid snapshot: %s", e.Reason)
	}
	if e.Timestamp.IsZero() {
		return fmt.Sprintf("invalid snapshot for station %s: %s", e.StationID, e.Reason)
	}
	return fmt.Sprintf("invalid snapshot for station %s at %s: %s",
		e.StationID, e.Timestamp.Format(time.RFC3339Nano), e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidSnapshot
}
