package cow

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is.
var (
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrSubmission    = errors.New("submission error")
	ErrArithmetic    = errors.New("arithmetic error")
)

var kinds = []error{ErrValidation, ErrConfiguration, ErrSubmission, ErrArithmetic}

// kindOf returns the first error kind err wraps, or def.
func kindOf(err, def error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return def
}

// KindName is the short label for an error kind, used in responses and metrics.
func KindName(err error) string {
	switch kindOf(err, nil) {
	case ErrValidation:
		return "validation"
	case ErrConfiguration:
		return "configuration"
	case ErrSubmission:
		return "submission"
	case ErrArithmetic:
		return "arithmetic"
	default:
		return "internal"
	}
}

// FlowError is returned by BuildSellOrder. Stage is the last stage the flow
// reached; OrderUID is set once the order book has accepted the order.
type FlowError struct {
	Kind     error
	Stage    Stage
	OrderUID OrderUID
	Err      error
}

func (e *FlowError) Error() string {
	if e.OrderUID != "" {
		return fmt.Sprintf("cow: %v after %s (order %s): %v", e.Kind, e.Stage, e.OrderUID, e.Err)
	}
	return fmt.Sprintf("cow: %v after %s: %v", e.Kind, e.Stage, e.Err)
}

func (e *FlowError) Is(target error) bool { return target == e.Kind }

func (e *FlowError) Unwrap() error { return e.Err }

// Submitted reports whether the order exists on the order book even though
// the flow failed.
func (e *FlowError) Submitted() bool {
	return e.Stage >= StageOrderSubmitted && e.OrderUID != ""
}

// APIError is an order-book error response.
type APIError struct {
	Status      int
	ErrorType   string `json:"errorType"`
	Description string `json:"description"`
}

func (e *APIError) Error() string {
	if e.ErrorType == "" {
		return fmt.Sprintf("orderbook returned %d: %s", e.Status, e.Description)
	}
	return fmt.Sprintf("orderbook returned %d: %s: %s", e.Status, e.ErrorType, e.Description)
}
