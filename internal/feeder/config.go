// Package feeder drives a running stride service with generated pedometer
// samples and checks the step and ranking read paths afterwards.
package feeder

import "time"

// Config holds configuration for a feed run.
type Config struct {
	BaseURL    string        // Base URL of the service
	NumSamples int           // Number of samples to generate
	Replays    int           // Samples re-sent to check dedupe
	MinSteps   int           // Smallest steps value per sample
	MaxSteps   int           // Largest steps value per sample, exclusive
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	DrainWait  time.Duration // How long to wait for the queue to empty
	UserID     string        // Signs this identity in when set
	UserName   string        // Display name for UserID
	OutputFile string        // Output file for samples
	Verbose    bool          // Enable verbose logging
}

// Sample is one pushed pedometer reading.
type Sample struct {
	SampleID string `json:"sample_id"`
	Steps    int    `json:"steps"`
	TS       string `json:"ts"`
}

// StepRecord mirrors GET /steps/today.
type StepRecord struct {
	Date     string  `json:"date"`
	Steps    int     `json:"steps"`
	Calories int     `json:"calories"`
	Distance float64 `json:"distance"`
	Duration int     `json:"duration"`
}

// RankingEntry mirrors one row of GET /rankings.
type RankingEntry struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Steps    int    `json:"steps"`
	Position int    `json:"position"`
}

// AckResponse represents the response from sample submission.
type AckResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Stats holds run statistics.
type Stats struct {
	SamplesGenerated int
	SamplesSubmitted int
	SamplesAccepted  int
	SamplesDuplicate int
	SamplesRejected  int
	SamplesFailed    int
	StepsSubmitted   int
	TodaySteps       int
	RankingEntries   int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
