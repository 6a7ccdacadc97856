package media

import "strings"

// Status represents the readiness lifecycle of a media item.
type Status string

const (
	StatusPending         Status = "pending"
	StatusAsyncProcessing Status = "asyncprocessing"
	StatusWebAVDecoding   Status = "webavdecoding"
	StatusReady           Status = "ready"
	StatusError           Status = "error"
	StatusCancelled       Status = "cancelled"
	StatusMissing         Status = "missing"
)

var allStatuses = []Status{
	StatusPending,
	StatusAsyncProcessing,
	StatusWebAVDecoding,
	StatusReady,
	StatusError,
	StatusCancelled,
	StatusMissing,
}

// statusTransitions is the adjacency list of legal readiness transitions.
// asyncprocessing covers byte acquisition, webavdecoding covers decode and
// metadata extraction. ready → error exists for revalidation failures on
// project reload; error/cancelled/missing → pending is the explicit retry
// path mirroring the data-source table.
var statusTransitions = map[Status][]Status{
	StatusPending:         {StatusAsyncProcessing, StatusError, StatusCancelled, StatusMissing},
	StatusAsyncProcessing: {StatusWebAVDecoding, StatusError, StatusCancelled},
	StatusWebAVDecoding:   {StatusReady, StatusError, StatusCancelled},
	StatusReady:           {StatusError},
	StatusError:           {StatusPending, StatusMissing},
	StatusCancelled:       {StatusPending, StatusMissing},
	StatusMissing:         {StatusPending},
}

// CanTransition reports whether target is in the adjacency list of from.
func CanTransition(from, to Status) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	for _, status := range allStatuses {
		if status == normalized {
			return normalized, true
		}
	}
	return "", false
}

// IsProcessing reports whether the status reflects in-flight work.
func (s Status) IsProcessing() bool {
	return s == StatusAsyncProcessing || s == StatusWebAVDecoding
}

// IsTerminalFailure reports whether the status ends readiness without a
// usable asset. A sync watcher observing one of these degrades its timeline
// item to error and unsubscribes.
func (s Status) IsTerminalFailure() bool {
	switch s {
	case StatusError, StatusCancelled, StatusMissing:
		return true
	}
	return false
}
