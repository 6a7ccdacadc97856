package source

import (
	"strings"

	"github.com/google/uuid"
)

// Kind distinguishes how raw bytes are obtained.
type Kind string

const (
	KindLocal  Kind = "local"
	KindRemote Kind = "remote"
)

// Status is the acquisition lifecycle of a data source.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAcquiring Status = "acquiring"
	StatusAcquired  Status = "acquired"
	StatusError     Status = "error"
	StatusCancelled Status = "cancelled"
	StatusMissing   Status = "missing"
)

var statusTransitions = map[Status][]Status{
	StatusPending:   {StatusAcquiring, StatusError, StatusCancelled, StatusMissing},
	StatusAcquiring: {StatusAcquired, StatusError, StatusCancelled},
	StatusAcquired:  {},
	StatusError:     {StatusPending, StatusMissing},
	StatusCancelled: {StatusPending, StatusMissing},
	StatusMissing:   {StatusPending},
}

// CanTransition reports whether moving from one acquisition status to
// another is legal. Error/cancelled/missing return to pending only through
// Retry, which is the sole caller passing StatusPending as target.
func CanTransition(from, to Status) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case StatusPending, StatusAcquiring, StatusAcquired, StatusError, StatusCancelled, StatusMissing:
		return normalized, true
	}
	return "", false
}

// IsTerminal reports whether the status ends the acquisition attempt chain.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusAcquired, StatusError, StatusCancelled, StatusMissing:
		return true
	}
	return false
}

// Data describes a single data source. It is owned exclusively by its media
// item; other packages mutate it only through media.Library actions.
type Data struct {
	ID           string
	Kind         Kind
	Status       Status
	Progress     float64 // 0-100
	ErrorMessage string

	// FilePath is set for local sources and for remote sources once the
	// download landed in the media cache.
	FilePath string
	// ResolvedURL is set for remote sources.
	ResolvedURL string

	// SizeBytes and SuggestedName are inferred during acquisition (local
	// stat, or remote Content-Length / Content-Disposition).
	SizeBytes     int64
	SuggestedName string
}

// NewLocal builds a pending data source for a locally selected file.
func NewLocal(filePath string) *Data {
	return &Data{
		ID:       uuid.NewString(),
		Kind:     KindLocal,
		Status:   StatusPending,
		FilePath: filePath,
	}
}

// NewRemote builds a pending data source for a remote URL.
func NewRemote(url string) *Data {
	return &Data{
		ID:          uuid.NewString(),
		Kind:        KindRemote,
		Status:      StatusPending,
		ResolvedURL: url,
	}
}

// Clone returns a deep copy.
func (d *Data) Clone() *Data {
	if d == nil {
		return nil
	}
	cp := *d
	return &cp
}

// ResetForRetry moves a failed or cancelled source back to pending and
// clears the failure fields. It refuses the reset from any other status.
func (d *Data) ResetForRetry() bool {
	if !CanTransition(d.Status, StatusPending) {
		return false
	}
	d.Status = StatusPending
	d.Progress = 0
	d.ErrorMessage = ""
	return true
}
