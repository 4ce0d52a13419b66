package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrInvalidDueDate = errors.New("invalid due date")

// Due dates imported from the legacy document-store export arrive in four
// shapes: an RFC3339 / ISO-8601 string, a raw epoch number, a
// {seconds, nanoseconds} pair, or an already-canonical timestamp. Everything
// past this boundary works with a single UTC time.Time.

var dueDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

type secondsPair struct {
	Seconds     *int64 `json:"seconds"`
	Nanoseconds int64  `json:"nanoseconds"`
	// Firestore exports prefix the fields with an underscore.
	AltSeconds     *int64 `json:"_seconds"`
	AltNanoseconds int64  `json:"_nanoseconds"`
}

// NormalizeDueDate parses a raw JSON due-date value into a canonical UTC
// instant. Callers are expected to skip records whose due date does not
// normalize, not to fail the whole read.
func NormalizeDueDate(raw []byte) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, ErrInvalidDueDate
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidDueDate, err)
		}
		return normalizeString(s)
	case '{':
		var pair secondsPair
		if err := json.Unmarshal(raw, &pair); err != nil {
			return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidDueDate, err)
		}
		secs := pair.Seconds
		nanos := pair.Nanoseconds
		if secs == nil {
			secs = pair.AltSeconds
			nanos = pair.AltNanoseconds
		}
		if secs == nil {
			return time.Time{}, fmt.Errorf("%w: object has no seconds field", ErrInvalidDueDate)
		}
		return time.Unix(*secs, nanos).UTC(), nil
	default:
		var num json.Number
		if err := json.Unmarshal(raw, &num); err != nil {
			return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidDueDate, err)
		}
		return normalizeNumber(num)
	}
}

// EncodeDueDate renders an instant in the canonical stored form, a
// {seconds, nanoseconds} pair.
func EncodeDueDate(t time.Time) []byte {
	raw, _ := json.Marshal(map[string]int64{
		"seconds":     t.Unix(),
		"nanoseconds": int64(t.Nanosecond()),
	})
	return raw
}

func normalizeString(s string) (time.Time, error) {
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparsable string %q", ErrInvalidDueDate, s)
}

func normalizeNumber(num json.Number) (time.Time, error) {
	f, err := num.Float64()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidDueDate, err)
	}
	secs := int64(f)
	// Epoch milliseconds show up in some exported rows.
	if secs > 1e12 {
		return time.UnixMilli(secs).UTC(), nil
	}
	nanos := int64((f - float64(secs)) * 1e9)
	return time.Unix(secs, nanos).UTC(), nil
}
