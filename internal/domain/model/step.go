// Package model contains domain models passed between layers.
package model

import "time"

// DateLayout is the calendar-date key format used for step records.
const DateLayout = "2006-01-02"

// StepRecord holds one calendar day's activity metrics.
// Calories, Distance and Duration are derived from Steps.
type StepRecord struct {
	Date     string  `json:"date"`
	Steps    int     `json:"steps"`
	Calories int     `json:"calories"`
	Distance float64 `json:"distance"` // km, one decimal
	Duration int     `json:"duration"` // minutes
}

// DateKey formats t as the record key for its calendar day in t's location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// StartOfDay returns local midnight of t's calendar day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EmptyStepRecord is the zero-valued record used for days with no data.
func EmptyStepRecord(date string) StepRecord {
	return StepRecord{Date: date}
}

// StepSample is a step delta reported by a device pedometer.
type StepSample struct {
	SampleID string    // unique id for idempotency
	Steps    int       // steps taken since the previous sample
	TS       time.Time // when the device observed the steps
}
