package core

// StepStatus represents the execution status of a flow step
type StepStatus int

const (
	StatusPending StepStatus = iota // Not yet started
	StatusRunning                   // Currently executing
	StatusPassed                    // Completed successfully
	StatusFailed                    // Step failed, flow aborted
	StatusSkipped                   // Not executed because an earlier step failed
	StatusWarned                    // Optional step failed (non-blocking)
)

// String returns the string representation of StepStatus
func (s StepStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	case StatusWarned:
		return "warned"
	default:
		return "unknown"
	}
}

// IsTerminal returns true if the status is a final state
func (s StepStatus) IsTerminal() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusSkipped, StatusWarned:
		return true
	default:
		return false
	}
}

// IsSuccess returns true if the status indicates success (passed or warned)
func (s StepStatus) IsSuccess() bool {
	return s == StatusPassed || s == StatusWarned
}

// ErrorCategory classifies an interaction failure.
type ErrorCategory int

const (
	ErrCategoryNone            ErrorCategory = iota // No error
	ErrCategoryTimeout                              // A wait's condition never held within its budget
	ErrCategoryNotFound                             // Locate failed or scroll-search exhausted its budget
	ErrCategoryStaleElement                         // Element handle no longer maps to a live UI node
	ErrCategoryInvalidArgument                      // Caller error: bad direction, out-of-bounds point, bad locator
	ErrCategoryConnection                           // Automation server unreachable or returned garbage
	ErrCategoryConfig                               // Invalid configuration
)

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryTimeout:
		return "timeout"
	case ErrCategoryNotFound:
		return "not_found"
	case ErrCategoryStaleElement:
		return "stale_element"
	case ErrCategoryInvalidArgument:
		return "invalid_argument"
	case ErrCategoryConnection:
		return "connection"
	case ErrCategoryConfig:
		return "config"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name in JSON reports.
func (s StepStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// MarshalText encodes the category by name in JSON reports.
func (c ErrorCategory) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
