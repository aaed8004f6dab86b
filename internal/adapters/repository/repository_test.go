package repository_test

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	kv "github.com/okian/stride/internal/adapters/kv"
	repository "github.com/okian/stride/internal/adapters/repository"
	estimate "github.com/okian/stride/internal/domain/estimate"
	model "github.com/okian/stride/internal/domain/model"
	"github.com/okian/stride/pkg/logger"
)

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

var errBroken = errors.New("disk on fire")

// brokenStore fails every call.
type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, error) { return nil, errBroken }
func (brokenStore) Set(context.Context, string, []byte) error { return errBroken }
func (brokenStore) Delete(context.Context, string) error { return errBroken }

func fixedClock() time.Time {
	return time.Date(2026, 10, 14, 15, 30, 0, 0, time.Local)
}

func TestStepRepository(t *testing.T) {
	Convey("Given a step repository over an empty store", t, func() {
		ctx := context.Background()
		est := estimate.New()
		store := kv.NewMemoryStore()
		repo := repository.NewStepRepository(store, est,
			repository.WithClock(fixedClock),
			repository.WithRand(rand.New(rand.NewSource(7))))

		Convey("When a record is saved", func() {
			rec := est.Record("2026-10-14", 7568)
			res := repo.Save(ctx, rec)

			Convey("Then it reads back unchanged", func() {
				So(res.OK, ShouldBeTrue)
				got, ok := repo.Get(ctx, "2026-10-14")
				So(ok, ShouldBeTrue)
				So(got, ShouldResemble, rec)
			})

			Convey("And saving the same date again overwrites it", func() {
				So(repo.Save(ctx, est.Record("2026-10-14", 100)).OK, ShouldBeTrue)
				got, _ := repo.Get(ctx, "2026-10-14")
				So(got.Steps, ShouldEqual, 100)
			})
		})

		Convey("When a date was never stored", func() {
			_, ok := repo.Get(ctx, "2001-01-01")

			Convey("Then the not-found sentinel is returned", func() {
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When an invalid record is saved", func() {
			res := repo.Save(ctx, model.StepRecord{Steps: 5})

			Convey("Then the result fails", func() {
				So(res.OK, ShouldBeFalse)
				So(res.Is(repository.ErrInvalidRecord), ShouldBeTrue)
			})
		})

		Convey("When requesting history", func() {
			So(repo.Save(ctx, est.Record("2026-10-12", 3000)).OK, ShouldBeTrue)
			So(repo.Save(ctx, est.Record("2026-10-01", 9999)).OK, ShouldBeTrue)
			hist, res := repo.History(ctx, 5)

			Convey("Then exactly that many ascending days end today", func() {
				So(res.OK, ShouldBeTrue)
				So(len(hist), ShouldEqual, 5)
				So(hist[0].Date, ShouldEqual, "2026-10-10")
				So(hist[4].Date, ShouldEqual, "2026-10-14")
				for i := 1; i < len(hist); i++ {
					So(hist[i].Date > hist[i-1].Date, ShouldBeTrue)
				}
			})

			Convey("And missing days are zero-valued", func() {
				So(hist[2].Steps, ShouldEqual, 3000)
				So(hist[3], ShouldResemble, model.EmptyStepRecord("2026-10-13"))
			})
		})

		Convey("When history length is not positive", func() {
			hist, res := repo.History(ctx, 0)
			So(res.OK, ShouldBeTrue)
			So(hist, ShouldBeEmpty)
		})

		Convey("When computing the weekly average", func() {
			So(repo.WeeklyAverage(ctx), ShouldEqual, 0)

			So(repo.Save(ctx, est.Record("2026-10-14", 7000)).OK, ShouldBeTrue)
			So(repo.Save(ctx, est.Record("2026-10-13", 3)).OK, ShouldBeTrue)

			Convey("Then it is the rounded mean over seven days", func() {
				// 7003 / 7 = 1000.43
				So(repo.WeeklyAverage(ctx), ShouldEqual, 1000)
			})
		})

		Convey("When the store is cleared", func() {
			So(repo.Save(ctx, est.Record("2026-10-14", 10)).OK, ShouldBeTrue)
			So(repo.Clear(ctx).OK, ShouldBeTrue)

			Convey("Then nothing is stored", func() {
				_, ok := repo.Get(ctx, "2026-10-14")
				So(ok, ShouldBeFalse)
				_, err := store.Get(ctx, repository.StepDataKey)
				So(errors.Is(err, kv.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When mock data is generated", func() {
			recs, res := repo.GenerateMock(ctx)

			Convey("Then the last two weeks are filled with walking data", func() {
				So(res.OK, ShouldBeTrue)
				So(len(recs), ShouldEqual, 14)
				So(recs[13].Date, ShouldEqual, "2026-10-14")
				for _, r := range recs {
					So(r.Steps, ShouldBeBetweenOrEqual, 5000, 11999)
					So(r, ShouldResemble, est.Record(r.Date, r.Steps))
				}
				hist, _ := repo.History(ctx, 14)
				So(hist, ShouldResemble, recs)
			})
		})
	})

	Convey("Given a step repository over a failing store", t, func() {
		ctx := context.Background()
		repo := repository.NewStepRepository(brokenStore{}, nil, repository.WithClock(fixedClock))

		Convey("Then every call degrades without raising", func() {
			So(repo.Save(ctx, model.StepRecord{Date: "2026-10-14"}).Is(errBroken), ShouldBeTrue)

			_, ok := repo.Get(ctx, "2026-10-14")
			So(ok, ShouldBeFalse)

			hist, res := repo.History(ctx, 3)
			So(res.OK, ShouldBeFalse)
			So(len(hist), ShouldEqual, 3)
			So(hist[2].Date, ShouldEqual, "2026-10-14")

			So(repo.WeeklyAverage(ctx), ShouldEqual, 0)
			So(repo.Clear(ctx).OK, ShouldBeFalse)

			_, res = repo.GenerateMock(ctx)
			So(res.OK, ShouldBeFalse)
		})
	})

	Convey("Given corrupt stored data", t, func() {
		ctx := context.Background()
		store := kv.NewMemoryStore()
		So(store.Set(ctx, repository.StepDataKey, []byte("not json")), ShouldBeNil)
		repo := repository.NewStepRepository(store, nil, repository.WithClock(fixedClock))

		Convey("Then history reports the corruption", func() {
			_, res := repo.History(ctx, 1)
			So(res.Is(repository.ErrCorrupt), ShouldBeTrue)
		})
	})
}

func TestRankingRepository(t *testing.T) {
	Convey("Given a ranking repository", t, func() {
		ctx := context.Background()
		repo := repository.NewRankingRepository(kv.NewMemoryStore())

		Convey("When nothing is stored", func() {
			entries, found, err := repo.Load(ctx)
			So(err, ShouldBeNil)
			So(found, ShouldBeFalse)
			So(entries, ShouldBeEmpty)
		})

		Convey("When a list is saved", func() {
			list := []model.RankingEntry{
				{ID: "b", Name: "Bo", Steps: 9000, Position: 1},
				{ID: "a", Name: "Al", Steps: 100, Position: 2, ProfileImage: "a.png"},
			}
			So(repo.Save(ctx, list), ShouldBeNil)

			Convey("Then it loads back in the same order", func() {
				entries, found, err := repo.Load(ctx)
				So(err, ShouldBeNil)
				So(found, ShouldBeTrue)
				So(entries, ShouldResemble, list)
			})
		})

		Convey("When the store fails", func() {
			broken := repository.NewRankingRepository(brokenStore{})
			_, _, err := broken.Load(ctx)
			So(errors.Is(err, errBroken), ShouldBeTrue)
			So(errors.Is(broken.Save(ctx, nil), errBroken), ShouldBeTrue)
		})
	})
}

func TestUserRepository(t *testing.T) {
	Convey("Given a user repository", t, func() {
		ctx := context.Background()
		repo := repository.NewUserRepository(kv.NewMemoryStore())

		Convey("When a profile is stored", func() {
			steps := 1200
			u := model.User{ID: "u1", FirstName: "Ada", Name: "Ada", Email: "ada@example.com", Steps: &steps}
			So(repo.Put(ctx, u), ShouldBeNil)

			Convey("Then it reads back by id", func() {
				got, ok, err := repo.Get(ctx, "u1")
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(got.Email, ShouldEqual, "ada@example.com")
				So(*got.Steps, ShouldEqual, 1200)
			})

			Convey("And other ids are absent", func() {
				_, ok, err := repo.Get(ctx, "u2")
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When the profile has no id", func() {
			So(repo.Put(ctx, model.User{}), ShouldNotBeNil)
		})
	})
}
