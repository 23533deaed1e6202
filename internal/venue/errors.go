package venue

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies venue call failures so callers can tell a transient
// network blip from a hard exchange rejection.
type Kind int

const (
	KindUnknown Kind = iota
	KindRateLimited
	KindNetwork
	KindInsufficientFunds
	KindExchange
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindNetwork:
		return "network"
	case KindInsufficientFunds:
		return "insufficient_funds"
	case KindExchange:
		return "exchange"
	default:
		return "unknown"
	}
}

// Error is a classified venue failure. Every adapter call that can fail
// returns one of these so the core never has to inspect transport
// details.
type Error struct {
	Kind Kind
	Op   string // adapter operation, e.g. "createOrder"
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("venue %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// E tags err with an explicit kind.
func E(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Classify wraps err, inferring the kind from standard error types.
// Adapters call this on every outbound failure; errors already tagged
// pass through unchanged.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var ve *Error
	if errors.As(err, &ve) {
		return err
	}
	kind := KindUnknown
	var ne net.Error
	switch {
	case errors.As(err, &ne), errors.Is(err, context.DeadlineExceeded):
		kind = KindNetwork
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the classification, KindUnknown for untagged errors.
func KindOf(err error) Kind {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Kind
	}
	return KindUnknown
}
