package services

import (
	"errors"
	"fmt"
)

// ErrEntityNotFound marks lookups of accounts, assets or users that do not
// exist. Wrapped with context, matched with errors.Is.
var ErrEntityNotFound = errors.New("entity not found")

// InsufficientFundsError rejects a buy whose total cost exceeds the account's
// cash balance.
type InsufficientFundsError struct {
	Required  float64
	Available float64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("not enough cash: need %.2f, have %.2f", e.Required, e.Available)
}

// InvalidActionError rejects a sell that would drive a holding negative.
type InvalidActionError struct {
	Reason string
}

func (e *InvalidActionError) Error() string {
	return e.Reason
}
