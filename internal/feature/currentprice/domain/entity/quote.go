// Package entity defines the domain models for the current-price feature.
package entity

import (
	"fmt"
	"time"
)

// QuoteRecord is the result of one successful current-price lookup.
type QuoteRecord struct {
	Code      string         `json:"code"`       // stock code used for the lookup (e.g. "005930")
	FetchedAt time.Time      `json:"fetched_at"` // when the provider answered
	Quote     map[string]any `json:"quote"`      // provider "output" object, kept opaque
}

// Price returns the current price field (stck_prpr) in its provider text form, or "" when absent.
func (q QuoteRecord) Price() string {
	v, ok := q.Quote["stck_prpr"]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// EnrichFailure records a code whose lookup failed.
type EnrichFailure struct {
	Code string
	Err  error
}

// EnrichResult carries successes in input order plus every failed code.
type EnrichResult struct {
	Records  []QuoteRecord
	Failures []EnrichFailure
}
