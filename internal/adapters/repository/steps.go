package repository

import (
	"context"
	"fmt"
	"math"
	"sync"

	kv "github.com/okian/stride/internal/adapters/kv"
	estimate "github.com/okian/stride/internal/domain/estimate"
	model "github.com/okian/stride/internal/domain/model"
	"github.com/okian/stride/pkg/logger"
	"github.com/okian/stride/pkg/metrics"
)

const (
	weekDays     = 7
	mockDays     = 14
	mockMinSteps = 5000
	mockMaxSteps = 12000
)

// StepRepository stores one StepRecord per calendar date under STEP_DATA.
// No operation returns a storage error; failures are logged and reported
// through model.Result or a zero value.
type StepRepository struct {
	base
	store     kv.Store
	estimator *estimate.Estimator
	// mu serializes read-modify-write of the mapping within this process.
	mu sync.Mutex
}

// NewStepRepository creates a step repository over store.
func NewStepRepository(store kv.Store, est *estimate.Estimator, opts ...Option) *StepRepository {
	if est == nil {
		est = estimate.New()
	}
	return &StepRepository{
		base:      newBase("step-repository", opts),
		store:     store,
		estimator: est,
	}
}

func (r *StepRepository) all(ctx context.Context) (map[string]model.StepRecord, error) {
	data := map[string]model.StepRecord{}
	if _, err := load(ctx, r.store, StepDataKey, &data); err != nil {
		return nil, err
	}
	if data == nil {
		data = map[string]model.StepRecord{}
	}
	return data, nil
}

func (r *StepRepository) fail(ctx context.Context, op string, err error) model.Result {
	metrics.RecordStorageError(op)
	r.logger.Error(ctx, "step storage failed", logger.String("op", op), logger.Error(err))
	return model.Failure(fmt.Errorf("%s steps: %w", op, err))
}

// Save upserts record under its date.
func (r *StepRepository) Save(ctx context.Context, record model.StepRecord) model.Result {
	if record.Date == "" || record.Steps < 0 {
		return model.Failure(fmt.Errorf("%w: date=%q steps=%d", ErrInvalidRecord, record.Date, record.Steps))
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.all(ctx)
	if err != nil {
		return r.fail(ctx, "save", err)
	}
	data[record.Date] = record
	if err := save(ctx, r.store, StepDataKey, data); err != nil {
		return r.fail(ctx, "save", err)
	}
	return model.Success()
}

// Get returns the record stored for date. ok is false when nothing is stored
// or the store cannot be read.
func (r *StepRepository) Get(ctx context.Context, date string) (model.StepRecord, bool) {
	data, err := r.all(ctx)
	if err != nil {
		r.fail(ctx, "get", err)
		return model.StepRecord{}, false
	}
	rec, ok := data[date]
	return rec, ok
}

// History returns exactly days records ending today in ascending date order.
// Days without data are zero-valued. On a read failure the zero-filled
// sequence is returned together with a failed result.
func (r *StepRepository) History(ctx context.Context, days int) ([]model.StepRecord, model.Result) {
	if days <= 0 {
		return []model.StepRecord{}, model.Success()
	}
	data, err := r.all(ctx)
	res := model.Success()
	if err != nil {
		res = r.fail(ctx, "history", err)
		data = map[string]model.StepRecord{}
	}

	today := model.StartOfDay(r.now())
	out := make([]model.StepRecord, 0, days)
	for i := days - 1; i >= 0; i-- {
		date := model.DateKey(today.AddDate(0, 0, -i))
		if rec, ok := data[date]; ok {
			out = append(out, rec)
			continue
		}
		out = append(out, model.EmptyStepRecord(date))
	}
	return out, res
}

// WeeklyAverage returns the rounded mean step count over the last seven days.
func (r *StepRepository) WeeklyAverage(ctx context.Context) int {
	week, _ := r.History(ctx, weekDays)
	if len(week) == 0 {
		return 0
	}
	total := 0
	for _, rec := range week {
		total += rec.Steps
	}
	return int(math.Round(float64(total) / float64(len(week))))
}

// Clear removes every stored record.
func (r *StepRepository) Clear(ctx context.Context) model.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.store.Delete(ctx, StepDataKey); err != nil {
		return r.fail(ctx, "clear", err)
	}
	return model.Success()
}

// GenerateMock replaces the mapping with the last two weeks of random
// walking data and returns the generated records in ascending order.
func (r *StepRepository) GenerateMock(ctx context.Context) ([]model.StepRecord, model.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()

	today := model.StartOfDay(r.now())
	data := make(map[string]model.StepRecord, mockDays)
	out := make([]model.StepRecord, 0, mockDays)
	for i := mockDays - 1; i >= 0; i-- {
		date := model.DateKey(today.AddDate(0, 0, -i))
		steps := mockMinSteps + r.rng.Intn(mockMaxSteps-mockMinSteps)
		rec := r.estimator.Record(date, steps)
		data[date] = rec
		out = append(out, rec)
	}
	if err := save(ctx, r.store, StepDataKey, data); err != nil {
		return nil, r.fail(ctx, "mock", err)
	}
	return out, model.Success()
}
