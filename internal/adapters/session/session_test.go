package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/insights/internal/adapters/session"
	"github.com/okian/insights/internal/domain/account"
	. "github.com/smartystreets/goconvey/convey"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestManager(t *testing.T) {
	Convey("Given a session manager with a one hour TTL", t, func() {
		ctx := context.Background()
		clk := &clock{now: time.Now()}
		m, err := session.NewManager([]byte("test-secret"),
			session.WithTTL(time.Hour),
			session.WithClock(clk.Now),
		)
		So(err, ShouldBeNil)
		owner := account.Account{Username: "maria", BusinessName: "Maria's Café"}

		Convey("When a session is created", func() {
			s, token, err := m.Create(ctx, owner)
			So(err, ShouldBeNil)
			So(token, ShouldNotBeEmpty)

			Convey("Then the token should resolve to it", func() {
				got, err := m.Resolve(ctx, token)
				So(err, ShouldBeNil)
				So(got.ID, ShouldEqual, s.ID)
				So(got.Username, ShouldEqual, "maria")
				So(got.BusinessName, ShouldEqual, "Maria's Café")
				So(got.ExpiresAt.Sub(got.CreatedAt), ShouldEqual, time.Hour)
			})

			Convey("And after logout the token should no longer resolve", func() {
				So(m.Destroy(ctx, s.ID), ShouldBeTrue)
				So(m.Destroy(ctx, s.ID), ShouldBeFalse)
				_, err := m.Resolve(ctx, token)
				So(errors.Is(err, session.ErrNotFound), ShouldBeTrue)
			})

			Convey("And once the TTL passes it should be expired", func() {
				clk.Advance(2 * time.Hour)
				_, err := m.Resolve(ctx, token)
				So(errors.Is(err, session.ErrExpired), ShouldBeTrue)
				So(m.Count(), ShouldEqual, 0)
			})

			Convey("And a sweep after the TTL should remove it", func() {
				clk.Advance(time.Hour)
				So(m.Sweep(), ShouldEqual, 1)
				So(m.Count(), ShouldEqual, 0)
			})
		})

		Convey("When a token is tampered with", func() {
			_, token, err := m.Create(ctx, owner)
			So(err, ShouldBeNil)
			_, err = m.Resolve(ctx, token+"x")

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, session.ErrInvalidToken), ShouldBeTrue)
			})
		})

		Convey("When a token was signed with another secret", func() {
			other, err := session.NewManager([]byte("other-secret"))
			So(err, ShouldBeNil)
			_, token, err := other.Create(ctx, owner)
			So(err, ShouldBeNil)
			_, err = m.Resolve(ctx, token)

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, session.ErrInvalidToken), ShouldBeTrue)
			})
		})

		Convey("When the token is garbage", func() {
			_, err := m.Resolve(ctx, "not-a-token")

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, session.ErrInvalidToken), ShouldBeTrue)
			})
		})
	})

	Convey("Given a manager without a configured secret", t, func() {
		a, err := session.NewManager(nil)
		So(err, ShouldBeNil)
		b, err := session.NewManager(nil)
		So(err, ShouldBeNil)

		Convey("Then each should sign with its own random key", func() {
			_, token, err := a.Create(context.Background(), account.Account{Username: "x"})
			So(err, ShouldBeNil)
			_, err = b.Resolve(context.Background(), token)
			So(errors.Is(err, session.ErrInvalidToken), ShouldBeTrue)
		})
	})

	Convey("Given a running janitor", t, func() {
		clk := &clock{now: time.Now()}
		m, err := session.NewManager([]byte("k"),
			session.WithTTL(time.Minute),
			session.WithJanitorInterval(5*time.Millisecond),
			session.WithClock(clk.Now),
		)
		So(err, ShouldBeNil)
		_, _, err = m.Create(context.Background(), account.Account{Username: "x"})
		So(err, ShouldBeNil)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			m.Run(ctx)
			close(done)
		}()

		Convey("Then expired sessions should disappear and Run should stop on cancel", func() {
			clk.Advance(2 * time.Minute)
			deadline := time.Now().Add(time.Second)
			for m.Count() > 0 && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}
			So(m.Count(), ShouldEqual, 0)

			cancel()
			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatal("janitor did not stop")
			}
		})

		Reset(cancel)
	})
}

func TestContext(t *testing.T) {
	Convey("Given a context carrying a session", t, func() {
		s := session.Session{Username: "maria"}
		ctx := session.NewContext(context.Background(), s)

		Convey("Then it should be retrievable", func() {
			got, ok := session.FromContext(ctx)
			So(ok, ShouldBeTrue)
			So(got.Username, ShouldEqual, "maria")

			_, ok = session.FromContext(context.Background())
			So(ok, ShouldBeFalse)
		})
	})
}
