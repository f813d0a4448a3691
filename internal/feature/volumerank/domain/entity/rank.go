// Package entity defines the domain models for the volume-rank feature.
package entity

import (
	"bytes"
	"encoding/json"
)

// RankResult is the raw volume-rank response exactly as the provider returned it.
// It is published to the event stream without reshaping.
type RankResult map[string]any

// RankEntry is one provider record inside the "output" field.
type RankEntry map[string]json.RawMessage

// OutputKind tags the shape of the "output" field.
type OutputKind int

const (
	// OutputOther covers a missing output, null, scalars and anything that is not a record or a list.
	OutputOther OutputKind = iota
	// OutputSingle means output is one keyed record.
	OutputSingle
	// OutputMany means output is a list; elements are kept raw because they may not be records.
	OutputMany
)

func (k OutputKind) String() string {
	switch k {
	case OutputSingle:
		return "single"
	case OutputMany:
		return "many"
	default:
		return "other"
	}
}

// OutputField is the top-level key that carries the ranking records. It is matched exactly.
const OutputField = "output"

// RankOutput is the decoded "output" field of a published ranking message.
type RankOutput struct {
	Kind   OutputKind
	Single RankEntry
	Many   []json.RawMessage
}

// DecodeRankOutput decodes a message body and classifies its output field.
// It only fails when body is not valid JSON; every other shape becomes OutputOther.
func DecodeRankOutput(body []byte) (RankOutput, error) {
	var raw json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return RankOutput{}, err
	}

	// map で受けて "Output" や "OUTPUT" と取り違えないようにする
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		// valid JSON, but not an object
		return RankOutput{Kind: OutputOther}, nil
	}

	out := bytes.TrimSpace(fields[OutputField])
	if len(out) == 0 {
		return RankOutput{Kind: OutputOther}, nil
	}

	switch out[0] {
	case '{':
		var entry RankEntry
		if err := json.Unmarshal(out, &entry); err != nil {
			return RankOutput{Kind: OutputOther}, nil
		}
		return RankOutput{Kind: OutputSingle, Single: entry}, nil
	case '[':
		var many []json.RawMessage
		if err := json.Unmarshal(out, &many); err != nil {
			return RankOutput{Kind: OutputOther}, nil
		}
		return RankOutput{Kind: OutputMany, Many: many}, nil
	default:
		return RankOutput{Kind: OutputOther}, nil
	}
}

// AsEntry interprets a list element as a record. ok is false for non-record elements.
func AsEntry(raw json.RawMessage) (RankEntry, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var entry RankEntry
	if err := json.Unmarshal(trimmed, &entry); err != nil {
		return nil, false
	}
	return entry, true
}

// Field returns the text form of a field, or "" when the field is absent or falsy
// (null, false, empty string, numeric zero). Strings are unquoted, numbers keep their literal text.
func (e RankEntry) Field(name string) string {
	raw, ok := e[name]
	if !ok {
		return ""
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return ""
		}
		if f, err := n.Float64(); err == nil && f == 0 {
			return ""
		}
		return n.String()
	default:
		// null, booleans, nested records and lists are not usable codes
		return ""
	}
}
