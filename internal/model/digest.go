package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownDigestType is returned when a digest type string is not recognized.
var ErrUnknownDigestType = errors.New("unknown digest type")

// DigestType is the time window under which items are fetched and published.
type DigestType string

const (
	DigestDaily   DigestType = "daily"
	DigestWeekly  DigestType = "weekly"
	DigestMonthly DigestType = "monthly"
)

// DigestTypes lists every supported digest type in increasing window order.
var DigestTypes = []DigestType{DigestDaily, DigestWeekly, DigestMonthly}

// ParseDigestType accepts daily, weekly or monthly (case-insensitive).
func ParseDigestType(s string) (DigestType, error) {
	d := DigestType(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case DigestDaily, DigestWeekly, DigestMonthly:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDigestType, s)
}

// Days returns the scoring window of the digest type.
func (d DigestType) Days() int {
	switch d {
	case DigestWeekly:
		return 7
	case DigestMonthly:
		return 30
	default:
		return 1
	}
}

// Title returns the capitalized digest name, e.g. "Daily".
func (d DigestType) Title() string {
	if d == "" {
		return ""
	}
	s := string(d)
	return strings.ToUpper(s[:1]) + s[1:]
}
