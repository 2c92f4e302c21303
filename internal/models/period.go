package models

import (
	"errors"
	"fmt"
	"time"
)

// PeriodType identifies one of the rolling leaderboard windows.
type PeriodType string

const (
	PeriodWeekly  PeriodType = "WEEKLY"
	PeriodMonthly PeriodType = "MONTHLY"
	PeriodAllTime PeriodType = "ALLTIME"
)

// ErrUnknownPeriod is returned for a period type outside {WEEKLY, MONTHLY, ALLTIME}.
var ErrUnknownPeriod = errors.New("unknown period type")

// periodInfo carries the per-variant constants (key prefix, display label).
type periodInfo struct {
	keyPrefix string
	label     string
}

var periodInfos = map[PeriodType]periodInfo{
	PeriodWeekly:  {keyPrefix: "ranking:weekly", label: "Weekly"},
	PeriodMonthly: {keyPrefix: "ranking:monthly", label: "Monthly"},
	PeriodAllTime: {keyPrefix: "ranking:alltime", label: "All Time"},
}

// AllPeriodTypes lists every period type in a stable order.
// Every award is applied to each of these.
func AllPeriodTypes() []PeriodType {
	return []PeriodType{PeriodWeekly, PeriodMonthly, PeriodAllTime}
}

// ParsePeriodType validates a raw string from the API or the wire.
func ParsePeriodType(raw string) (PeriodType, error) {
	pt := PeriodType(raw)
	if _, ok := periodInfos[pt]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, raw)
	}
	return pt, nil
}

// Valid reports whether the period type is one of the known variants.
func (p PeriodType) Valid() bool {
	_, ok := periodInfos[p]
	return ok
}

// KeyPrefix returns the stable storage prefix for this period type.
func (p PeriodType) KeyPrefix() string {
	return periodInfos[p].keyPrefix
}

// Label returns the display name for this period type.
func (p PeriodType) Label() string {
	return periodInfos[p].label
}

// CurrentKey derives the PeriodKey for the window containing t.
// Weekly keys use the ISO week ("2025-W36"), monthly keys the calendar
// month ("2025-09"); the all-time board has a single constant key.
// All derivation is done in UTC so every server agrees on the key.
func (p PeriodType) CurrentKey(t time.Time) string {
	t = t.UTC()
	switch p {
	case PeriodWeekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case PeriodMonthly:
		return t.Format("2006-01")
	default:
		return "ALL"
	}
}
