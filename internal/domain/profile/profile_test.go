package profile_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	kv "github.com/okian/stride/internal/adapters/kv"
	repository "github.com/okian/stride/internal/adapters/repository"
	model "github.com/okian/stride/internal/domain/model"
	profile "github.com/okian/stride/internal/domain/profile"
	session "github.com/okian/stride/internal/domain/session"
	"github.com/okian/stride/pkg/logger"
)

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) (model.User, bool, error) {
	return model.User{}, false, errors.New("read failed")
}
func (failingStore) Put(context.Context, model.User) error { return errors.New("write failed") }

func TestProfile(t *testing.T) {
	Convey("Given a profile service", t, func() {
		ctx := context.Background()
		now := time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)
		sess := session.New()
		users := repository.NewUserRepository(kv.NewMemoryStore())
		svc := profile.New(sess, users, profile.WithClock(func() time.Time { return now }))

		Convey("When nobody is signed in", func() {
			_, ok := svc.CurrentUser(ctx)
			_, res := svc.Update(ctx, model.UserPatch{})

			Convey("Then there is no current user", func() {
				So(ok, ShouldBeFalse)
				So(res.Is(model.ErrNoCurrentUser), ShouldBeTrue)
			})
		})

		Convey("When a user is signed in without a stored profile", func() {
			sess.SignIn(model.Identity{ID: "u1", Name: "Grace Brewster Hopper", Email: "grace@example.com"})
			u, ok := svc.CurrentUser(ctx)

			Convey("Then the profile is derived from the identity", func() {
				So(ok, ShouldBeTrue)
				So(u.FirstName, ShouldEqual, "Grace")
				So(u.LastName, ShouldEqual, "Brewster Hopper")
				So(u.Name, ShouldEqual, "Grace Brewster Hopper")
				So(u.Email, ShouldEqual, "grace@example.com")
			})

			Convey("And updating the first name rebuilds the name and stamps the time", func() {
				first := "Amazing"
				updated, res := svc.Update(ctx, model.UserPatch{FirstName: &first})
				So(res.OK, ShouldBeTrue)
				So(updated.Name, ShouldEqual, "Amazing Brewster Hopper")
				So(updated.LastUpdated, ShouldEqual, now)

				reloaded, _ := svc.CurrentUser(ctx)
				So(reloaded.Name, ShouldEqual, "Amazing Brewster Hopper")
			})
		})

		Convey("When the store fails", func() {
			sess.SignIn(model.Identity{ID: "u2", Name: "Bo"})
			broken := profile.New(sess, failingStore{})

			Convey("Then reads degrade to the identity and writes report failure", func() {
				u, ok := broken.CurrentUser(ctx)
				So(ok, ShouldBeTrue)
				So(u.Name, ShouldEqual, "Bo")
				steps := 10
				_, res := broken.Update(ctx, model.UserPatch{Steps: &steps})
				So(res.OK, ShouldBeFalse)
			})
		})
	})
}
