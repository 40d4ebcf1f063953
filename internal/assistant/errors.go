package assistant

import "fmt"

// TurnError carries retry guidance for the event worker. A retryable error
// means the same event may succeed later (rate limit, provider outage); a
// fatal one means redelivery would fail the same way.
type TurnError struct {
	Err       error
	Retryable bool
}

func (e *TurnError) Error() string {
	kind := "fatal"
	if e.Retryable {
		kind = "retryable"
	}
	return fmt.Sprintf("%s: %v", kind, e.Err)
}

func (e *TurnError) Unwrap() error {
	return e.Err
}

func NewRetryableError(err error) *TurnError {
	return &TurnError{Err: err, Retryable: true}
}

func NewFatalError(err error) *TurnError {
	return &TurnError{Err: err, Retryable: false}
}
