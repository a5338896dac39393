package domain

import "errors"

var (
	// ErrMissingTxHash is returned when an event lacks its core identity and
	// cannot be keyed deterministically
	ErrMissingTxHash = errors.New("event missing transaction hash")

	// ErrTokenNotCorrelated is returned when a marketplace event has no
	// sibling Transfer log to recover a token id from
	ErrTokenNotCorrelated = errors.New("no transfer log correlated for marketplace event")

	// ErrSellerNotFound is returned when the previous owner cannot be
	// recovered from sibling logs
	ErrSellerNotFound = errors.New("seller address not recoverable from sibling logs")
)
