package osapi

import "fmt"

// AuthError means the token could not be obtained. It aborts the sync cycle.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }

// FetchError means the work-order header list could not be loaded.
type FetchError struct {
	Reason string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetching work orders: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("fetching work orders: %s", e.Reason)
}

func (e *FetchError) Unwrap() error { return e.Err }

// DetailFetchError is recorded per order in a DetailBatch; it never aborts
// the batch.
type DetailFetchError struct {
	OrderNumber int64
	Err         error
}

func (e *DetailFetchError) Error() string {
	return fmt.Sprintf("fetching details of OS %d: %v", e.OrderNumber, e.Err)
}

func (e *DetailFetchError) Unwrap() error { return e.Err }
