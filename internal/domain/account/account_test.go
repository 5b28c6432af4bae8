package account_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/okian/insights/internal/adapters/repository"
	"github.com/okian/insights/internal/domain/account"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSignupAndLogin(t *testing.T) {
	Convey("Given an account service over a memory store", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		svc := account.NewService(store,
			account.WithBcryptCost(bcrypt.MinCost),
			account.WithClock(func() time.Time { return now }),
		)

		Convey("When signing up with padded fields", func() {
			a, err := svc.Signup(ctx, "  maria ", " s3cret ", " Maria's Café ")

			Convey("Then fields should be trimmed and the password hashed", func() {
				So(err, ShouldBeNil)
				So(a.Username, ShouldEqual, "maria")
				So(a.BusinessName, ShouldEqual, "Maria's Café")
				So(a.CreatedAt, ShouldEqual, now)
				So(strings.HasPrefix(a.PasswordHash, "$2"), ShouldBeTrue)
				So(a.PasswordHash, ShouldNotContainSubstring, "s3cret")

				n, _ := svc.Count(ctx)
				So(n, ShouldEqual, 1)
			})

			Convey("And logging in with the trimmed password should succeed", func() {
				got, err := svc.Login(ctx, "maria", "s3cret")
				So(err, ShouldBeNil)
				So(got.BusinessName, ShouldEqual, "Maria's Café")
			})

			Convey("And a wrong password should be rejected", func() {
				_, err := svc.Login(ctx, "maria", "nope")
				So(errors.Is(err, account.ErrInvalidCredentials), ShouldBeTrue)
			})

			Convey("And signing up again should report the existing user", func() {
				_, err := svc.Signup(ctx, "maria", "x", "y")
				So(errors.Is(err, account.ErrExists), ShouldBeTrue)
			})
		})

		Convey("When a field is blank", func() {
			_, err := svc.Signup(ctx, "bob", "   ", "Bob's")

			Convey("Then every field should be required", func() {
				So(errors.Is(err, account.ErrMissingFields), ShouldBeTrue)
				n, _ := svc.Count(ctx)
				So(n, ShouldEqual, 0)
			})
		})

		Convey("When logging in as an unknown user", func() {
			_, err := svc.Login(ctx, "ghost", "pw")

			Convey("Then it should look like a bad password", func() {
				So(errors.Is(err, account.ErrInvalidCredentials), ShouldBeTrue)
			})
		})

		Convey("When the stored password predates hashing", func() {
			So(store.Create(ctx, account.Account{Username: "legacy", PasswordHash: "plain", BusinessName: "Old"}), ShouldBeNil)

			Convey("Then the plain text should still be accepted", func() {
				_, err := svc.Login(ctx, "legacy", "plain")
				So(err, ShouldBeNil)
				_, err = svc.Login(ctx, "legacy", "plain2")
				So(errors.Is(err, account.ErrInvalidCredentials), ShouldBeTrue)
			})
		})
	})
}
