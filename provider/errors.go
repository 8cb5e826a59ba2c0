package provider

import "fmt"

// ValidationError rejects an upload before any byte reaches storage.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// QuotaExceededError means the tenant's tracked usage plus the incoming file
// would pass the ceiling.
type QuotaExceededError struct {
	UsedBytes    int64
	NeededBytes  int64
	CeilingBytes int64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("storage quota exceeded: %d bytes used, %d requested, ceiling %d",
		e.UsedBytes, e.NeededBytes, e.CeilingBytes)
}
