package feeder

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/stride/pkg/logger"
)

const displayTopN = 10

// verifyToday checks that today's record is for the local day and that its
// derived fields are consistent with the step count.
func verifyToday(rec StepRecord, now time.Time) error {
	if want := now.Format("2006-01-02"); rec.Date != want {
		return fmt.Errorf("%w: today is %q, want %q", ErrVerification, rec.Date, want)
	}
	if rec.Steps < 0 || rec.Calories < 0 || rec.Distance < 0 || rec.Duration < 0 {
		return fmt.Errorf("%w: negative values in %+v", ErrVerification, rec)
	}
	if rec.Steps == 0 && (rec.Calories != 0 || rec.Distance != 0 || rec.Duration != 0) {
		return fmt.Errorf("%w: zero steps with non-zero estimates %+v", ErrVerification, rec)
	}
	return nil
}

// verifyRankings checks positions run 1..N, steps never increase down the
// list, and userID holds wantSteps.
func verifyRankings(entries []RankingEntry, userID string, wantSteps int) error {
	if len(entries) == 0 {
		return fmt.Errorf("%w: empty ranking", ErrVerification)
	}
	found := false
	for i, e := range entries {
		if e.Position != i+1 {
			return fmt.Errorf("%w: entry %d has position %d", ErrVerification, i, e.Position)
		}
		if i > 0 && e.Steps > entries[i-1].Steps {
			return fmt.Errorf("%w: entry %d has more steps than entry %d", ErrVerification, i, i-1)
		}
		if e.ID == userID {
			found = true
			if e.Steps != wantSteps {
				return fmt.Errorf("%w: user %s has %d steps, want %d", ErrVerification, userID, e.Steps, wantSteps)
			}
		}
	}
	if !found {
		return fmt.Errorf("%w: user %s missing from ranking", ErrVerification, userID)
	}
	return nil
}

// displayTopEntries logs the head of the ranking.
func displayTopEntries(ctx context.Context, entries []RankingEntry, verbose bool) {
	n := displayTopN
	if verbose || len(entries) < n {
		n = len(entries)
	}
	log := logger.Get().Named("feeder")
	for _, e := range entries[:n] {
		log.Info(ctx, "ranking entry",
			logger.Int("position", e.Position),
			logger.String("id", e.ID),
			logger.String("name", e.Name),
			logger.Int("steps", e.Steps))
	}
}
