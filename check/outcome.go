package check

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind represents the severity of a check outcome.
type Kind int

const (
	// KindSuccess indicates the check passed.
	KindSuccess Kind = iota
	// KindWarning indicates the check passed with degraded expectations.
	KindWarning
	// KindError indicates the check failed.
	KindError
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindWarning:
		return "warning"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseKind parses a string kind. Unknown strings map to KindError.
func ParseKind(s string) Kind {
	switch s {
	case "success":
		return KindSuccess
	case "warning":
		return KindWarning
	default:
		return KindError
	}
}

// MarshalJSON encodes the kind as its string form.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes the kind from its string form.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*k = ParseKind(s)
	return nil
}

// Request describes a single check to execute.
//
// Contract:
// - Immutability: a Request is not modified after submission.
// - ID is unique within a batch but not enforced globally; an empty ID is
//   assigned a per-batch ordinal identity by the coordinator.
type Request struct {
	// ID identifies this request within its batch.
	ID string `json:"identity,omitempty"`

	// Type is the registry tag of the checker to invoke.
	Type string `json:"check_type"`

	// Config is the check-type-specific configuration. Its shape is
	// validated by the checker, not by the coordinator.
	Config map[string]any `json:"config,omitempty"`
}

// Outcome contains the result of a single check invocation.
//
// Contract:
// - Kind is always set.
// - Elapsed is always >= 0 and is measured inside the invocation boundary,
//   so pool queueing delay is excluded.
// - Immutability: an Outcome is not modified after the invoker returns it.
type Outcome struct {
	// Kind is the severity of the outcome.
	Kind Kind

	// Message provides human-readable context.
	Message string

	// Elapsed is the wall-clock duration of the invocation.
	Elapsed time.Duration

	// Raw contains check-type-specific diagnostic data. It is opaque to
	// the batch engine.
	Raw map[string]any
}

// Success creates a success outcome.
func Success(message string) Outcome {
	return Outcome{Kind: KindSuccess, Message: message}
}

// Warning creates a warning outcome.
func Warning(message string) Outcome {
	return Outcome{Kind: KindWarning, Message: message}
}

// Failure creates an error outcome.
func Failure(message string) Outcome {
	return Outcome{Kind: KindError, Message: message}
}

// Failuref creates an error outcome with a formatted message.
func Failuref(format string, args ...any) Outcome {
	return Outcome{Kind: KindError, Message: fmt.Sprintf(format, args...)}
}

// WithRaw adds diagnostic data to an outcome.
func (o Outcome) WithRaw(raw map[string]any) Outcome {
	o.Raw = raw
	return o
}

// WithElapsed sets the elapsed duration on an outcome.
func (o Outcome) WithElapsed(d time.Duration) Outcome {
	o.Elapsed = d
	return o
}
