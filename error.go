// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package xdiscount

import (
	"errors"
	"fmt"
)

// Error is a protocol failure with a stable code. Sentinel values below are
// compared with errors.Is; callers may wrap them with extra context.
type Error struct {
	Code   int32
	Reason string
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("xdiscount error %d: %s", e.Code, e.Reason)
}

// Input validation
var (
	ErrEmptyName      = &Error{Code: 100, Reason: "empty name"}
	ErrNameTooLong    = &Error{Code: 101, Reason: "name too long"}
	ErrInvalidKind    = &Error{Code: 102, Reason: "invalid kind"}
	ErrLengthMismatch = &Error{Code: 103, Reason: "mismatched array lengths"}
	ErrEmptyInput     = &Error{Code: 104, Reason: "empty input"}
	ErrInvalidMessage = &Error{Code: 105, Reason: "invalid message"}
	ErrInvalidAddress = &Error{Code: 106, Reason: "invalid address"}
	ErrInvalidPayload = &Error{Code: 107, Reason: "invalid payload"}
	ErrInvalidName    = &Error{Code: 108, Reason: "invalid name"}
)

// Authorization
var (
	ErrNotOwner           = &Error{Code: 200, Reason: "not owner"}
	ErrWrongKind          = &Error{Code: 201, Reason: "wrong discount kind"}
	ErrAlreadyInitialized = &Error{Code: 202, Reason: "already initialized"}
	ErrNotInitialized     = &Error{Code: 203, Reason: "discount not initialized"}
	ErrPaused             = &Error{Code: 204, Reason: "paused"}
	ErrUntrustedRouter    = &Error{Code: 205, Reason: "untrusted router"}
)

// Economic
var (
	ErrInsufficientFee = &Error{Code: 300, Reason: "insufficient fee"}
	ErrNotEligible     = &Error{Code: 301, Reason: "not eligible"}
	ErrOverflow        = &Error{Code: 302, Reason: "balance overflow"}
)

// Cross-chain
var (
	ErrUnconfiguredChain  = &Error{Code: 400, Reason: "unconfigured chain"}
	ErrChainNotActive     = &Error{Code: 401, Reason: "discount not active on chain"}
	ErrCollectionNotFound = &Error{Code: 402, Reason: "collection not found"}
	ErrCollectionExists   = &Error{Code: 403, Reason: "collection already registered"}
	ErrUnknownOperation   = &Error{Code: 404, Reason: "unknown operation"}
	ErrWrongChain         = &Error{Code: 405, Reason: "message addressed to another chain"}
	ErrUnknownEndpoint    = &Error{Code: 406, Reason: "no receiver at destination"}
)

// Collection
var (
	ErrNotCollectionOwner  = &Error{Code: 500, Reason: "caller is not collection owner"}
	ErrCollectionPaused    = &Error{Code: 501, Reason: "collection paused"}
	ErrInvalidWindow       = &Error{Code: 502, Reason: "invalid validity window"}
	ErrInvalidRatio        = &Error{Code: 503, Reason: "invalid discount ratio"}
	ErrTokenNotFound       = &Error{Code: 504, Reason: "token not found"}
	ErrTokenInactive       = &Error{Code: 505, Reason: "token inactive"}
	ErrInsufficientBalance = &Error{Code: 506, Reason: "insufficient balance"}
	ErrAlreadySetUp        = &Error{Code: 507, Reason: "collection already initialized"}
	ErrInvalidAmount       = &Error{Code: 508, Reason: "amount must be positive"}
)

// CodeOf returns the code of the first *Error in err's chain, or 0.
func CodeOf(err error) int32 {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}

// ReasonOf returns the reason of the first *Error in err's chain. Errors
// outside the taxonomy report their full text.
func ReasonOf(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return err.Error()
}
