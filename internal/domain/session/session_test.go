package session_test

import (
	"testing"

	model "github.com/okian/stride/internal/domain/model"
	session "github.com/okian/stride/internal/domain/session"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSession(t *testing.T) {
	Convey("Given a signed-out session", t, func() {
		s := session.New()

		Convey("Then there is no current user", func() {
			_, ok := s.Current()
			So(ok, ShouldBeFalse)
		})

		Convey("When listeners subscribe and a user signs in", func() {
			var seen []string
			unsubA := s.Subscribe(func(u *model.Identity) {
				if u == nil {
					seen = append(seen, "a:out")
					return
				}
				seen = append(seen, "a:"+u.ID)
			})
			s.Subscribe(func(u *model.Identity) {
				if u != nil {
					seen = append(seen, "b:"+u.ID)
				}
			})
			s.SignIn(model.Identity{ID: "u1", Name: "Ada Lovelace"})

			Convey("Then every listener is told in order", func() {
				So(seen, ShouldResemble, []string{"a:u1", "b:u1"})
				cur, ok := s.Current()
				So(ok, ShouldBeTrue)
				So(cur.Name, ShouldEqual, "Ada Lovelace")
			})

			Convey("And after unsubscribing, a listener hears nothing more", func() {
				unsubA()
				unsubA()
				s.SignOut()
				So(seen, ShouldResemble, []string{"a:u1", "b:u1"})
				_, ok := s.Current()
				So(ok, ShouldBeFalse)
			})
		})
	})
}
