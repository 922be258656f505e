package inference

import (
	"errors"
	"fmt"
)

// Kind classifies a failed inference call.
type Kind string

const (
	KindTransport Kind = "transport" // network failure, timeout, remote 5xx
	KindAuth      Kind = "auth"      // rejected credentials (401/403)
	KindQuota     Kind = "quota"     // rate limit / quota exhausted (429)
	KindMalformed Kind = "malformed" // undecodable or empty response body
)

// Transient reports whether a retry could plausibly succeed.
func (k Kind) Transient() bool {
	return k == KindTransport || k == KindQuota
}

// Error is a classified inference failure. The message is safe to log;
// callers surfacing errors to users should report only the Kind.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the classification from err, defaulting to transport
// for unclassified failures.
func KindOf(err error) Kind {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return KindTransport
}
