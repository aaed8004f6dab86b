// Package estimate derives activity metrics from a raw step count.
package estimate

import (
	"math"

	"github.com/shopspring/decimal"

	model "github.com/okian/stride/internal/domain/model"
)

// Default estimation factors.
const (
	defaultCaloriesPerStep = 0.04
	defaultStrideLengthM   = 0.762
	defaultStepsPerMinute  = 100
	metersPerKilometer     = 1000
	distancePlaces         = 1
)

// Option applies a configuration option to the Estimator.
type Option func(*Estimator)

// WithCaloriesPerStep sets the energy spent per step in kcal.
func WithCaloriesPerStep(kcal float64) Option {
	return func(e *Estimator) {
		if kcal > 0 {
			e.caloriesPerStep = kcal
		}
	}
}

// WithStrideLength sets the average stride length in meters.
func WithStrideLength(meters float64) Option {
	return func(e *Estimator) {
		if meters > 0 {
			e.strideLengthM = meters
		}
	}
}

// WithStepsPerMinute sets the walking cadence used for duration.
func WithStepsPerMinute(cadence float64) Option {
	return func(e *Estimator) {
		if cadence > 0 {
			e.stepsPerMinute = cadence
		}
	}
}

// Estimator converts step counts into calories, distance and duration.
type Estimator struct {
	caloriesPerStep float64
	strideLengthM   float64
	stepsPerMinute  float64
}

// New creates an estimator with the default walking factors.
func New(opts ...Option) *Estimator {
	e := &Estimator{
		caloriesPerStep: defaultCaloriesPerStep,
		strideLengthM:   defaultStrideLengthM,
		stepsPerMinute:  defaultStepsPerMinute,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Calories returns round(steps * kcal per step).
func (e *Estimator) Calories(steps int) int {
	return int(math.Round(float64(steps) * e.caloriesPerStep))
}

// Distance returns the walked distance in kilometers rounded to one decimal.
func (e *Estimator) Distance(steps int) float64 {
	km := decimal.NewFromInt(int64(steps)).
		Mul(decimal.NewFromFloat(e.strideLengthM)).
		Div(decimal.NewFromInt(metersPerKilometer)).
		Round(distancePlaces)
	f, _ := km.Float64()
	return f
}

// Duration returns the walking time in whole minutes.
func (e *Estimator) Duration(steps int) int {
	return int(math.Round(float64(steps) / e.stepsPerMinute))
}

// Record builds the StepRecord for date with all derived fields filled in.
// Negative counts are clamped to zero.
func (e *Estimator) Record(date string, steps int) model.StepRecord {
	if steps < 0 {
		steps = 0
	}
	return model.StepRecord{
		Date:     date,
		Steps:    steps,
		Calories: e.Calories(steps),
		Distance: e.Distance(steps),
		Duration: e.Duration(steps),
	}
}
