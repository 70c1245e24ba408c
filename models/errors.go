package models

import (
	"errors"
	"fmt"
)

var (
	ErrAuthenticationFailed     = errors.New("authentication failed")
	ErrNotAuthenticated         = errors.New("not authenticated")
	ErrNotFound                 = errors.New("not found")
	ErrRemoteSyncFailed         = errors.New("remote sync failed")
	ErrPersistenceCorrupt       = errors.New("persisted data corrupt")
	ErrInvalidProduct           = errors.New("invalid product")
	ErrInvalidQuantity          = errors.New("quantity must be at least 1")
	ErrMultipleDefaultAddresses = errors.New("more than one default address")
	ErrInvalidTransition        = errors.New("invalid order status transition")
	ErrEmptyCart                = errors.New("cart is empty")
	ErrNoDeliveryAddress        = errors.New("no delivery address")
	ErrInvalidPaymentMethod     = errors.New("unsupported payment method")
)

// AuthenticationFailedError carries the auth service's message to the caller.
type AuthenticationFailedError struct {
	Message string
}

func (e *AuthenticationFailedError) Error() string {
	if e.Message == "" {
		return ErrAuthenticationFailed.Error()
	}
	return fmt.Sprintf("%s: %s", ErrAuthenticationFailed, e.Message)
}

func (e *AuthenticationFailedError) Unwrap() error {
	return ErrAuthenticationFailed
}

// TransitionError reports a rejected order status change.
type TransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("no transition available from status '%s' to '%s'", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
