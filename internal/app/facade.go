package service

import (
	"context"

	model "github.com/okian/stride/internal/domain/model"
)

// StepsToday returns today's record, reading the sensor when nothing is stored.
func (s *Service) StepsToday(ctx context.Context) model.StepRecord {
	return s.tracker.GetStepsToday(ctx)
}

// StepHistory returns the last days records, oldest first.
func (s *Service) StepHistory(ctx context.Context, days int) ([]model.StepRecord, model.Result) {
	return s.steps.History(ctx, days)
}

// WeeklyAverage returns the mean daily steps of the last seven days.
func (s *Service) WeeklyAverage(ctx context.Context) int {
	return s.steps.WeeklyAverage(ctx)
}

// GenerateMockSteps fills two weeks of demo history and refreshes the dashboard.
func (s *Service) GenerateMockSteps(ctx context.Context) ([]model.StepRecord, model.Result) {
	records, res := s.steps.GenerateMock(ctx)
	if res.OK {
		s.Refresh(ctx)
	}
	return records, res
}

// ClearSteps removes all stored step data and refreshes the dashboard.
func (s *Service) ClearSteps(ctx context.Context) model.Result {
	res := s.steps.Clear(ctx)
	if res.OK {
		s.Refresh(ctx)
	}
	return res
}

// UserRankings returns the ranking visible to the signed-in user.
func (s *Service) UserRankings(ctx context.Context) ([]model.RankingEntry, model.Result) {
	return s.rankings.GetUserRankings(ctx)
}

// UpdateRankingSteps sets the signed-in user's step count and re-ranks.
func (s *Service) UpdateRankingSteps(ctx context.Context, steps int) model.Result {
	return s.rankings.UpdateSteps(ctx, steps)
}

// GenerateDemoRankings gives the signed-in user a fixed demo entry.
func (s *Service) GenerateDemoRankings(ctx context.Context) model.Result {
	return s.rankings.GenerateDemoData(ctx)
}

// CurrentIdentity reports who is signed in.
func (s *Service) CurrentIdentity() (model.Identity, bool) {
	return s.session.Current()
}

// SignIn replaces the current identity.
func (s *Service) SignIn(id model.Identity) {
	s.session.SignIn(id)
}

// SignOut clears the current identity.
func (s *Service) SignOut() {
	s.session.SignOut()
}

// CurrentUser returns the signed-in user's profile.
func (s *Service) CurrentUser(ctx context.Context) (model.User, bool) {
	return s.profiles.CurrentUser(ctx)
}

// UpdateProfile applies patch to the signed-in user's profile.
func (s *Service) UpdateProfile(ctx context.Context, patch model.UserPatch) (model.User, model.Result) {
	return s.profiles.Update(ctx, patch)
}
