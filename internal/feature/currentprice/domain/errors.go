// Package domain defines domain-level errors for the current-price feature.
package domain

import "errors"

var (
	// ErrQuoteNotFound is returned when no stored quote exists for a code.
	ErrQuoteNotFound = errors.New("quote not found")

	// ErrSnapshotNotFound is returned when the snapshot file has not been written yet.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrQuoteStoreDisabled is returned by reads when no quote repository is configured.
	ErrQuoteStoreDisabled = errors.New("quote store is not configured")
)
