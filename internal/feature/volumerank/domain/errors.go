// Package domain defines domain-level errors for the volume-rank feature.
package domain

import "errors"

var (
	// ErrEmptyRanking is returned when the provider answers without any ranking payload.
	ErrEmptyRanking = errors.New("volume rank response is empty")

	// ErrPublish wraps failures to hand the ranking over to the event stream.
	ErrPublish = errors.New("failed to publish volume rank")
)
