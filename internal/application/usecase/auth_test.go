package usecase_test

import (
	"testing"
	"time"

	"github.com/waste3d/learning-platform/internal/domain"
)

func TestRegisterVerifyLogin(t *testing.T) {
	e := newEnv(t)

	u, err := e.auth.Register(e.ctx, "Ann", "Ann@Example.com", "secret123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Role != domain.RoleStudent || u.EmailVerified || u.Email != "ann@example.com" {
		t.Fatalf("unexpected user %+v", u)
	}

	_, err = e.auth.Register(e.ctx, "Ann 2", "ann@example.com", "secret123")
	mustIs(t, err, domain.ErrConflict)
	_, err = e.auth.Register(e.ctx, "Bob", "not-an-email", "secret123")
	mustIs(t, err, domain.ErrValidation)
	_, err = e.auth.Register(e.ctx, "Bob", "bob@example.com", "123")
	mustIs(t, err, domain.ErrValidation)

	token := e.mailer.verify["ann@example.com"]
	if token == "" {
		t.Fatalf("verification email not sent")
	}
	mustIs(t, e.auth.VerifyEmail(e.ctx, "wrong"), domain.ErrValidation)
	if err := e.auth.VerifyEmail(e.ctx, token); err != nil {
		t.Fatalf("verify: %v", err)
	}
	mustIs(t, e.auth.VerifyEmail(e.ctx, token), domain.ErrValidation)

	_, _, err = e.auth.Login(e.ctx, "ann@example.com", "wrong-password")
	mustIs(t, err, domain.ErrUnauthenticated)
	_, _, err = e.auth.Login(e.ctx, "nobody@example.com", "secret123")
	mustIs(t, err, domain.ErrUnauthenticated)

	tokens, user, err := e.auth.Login(e.ctx, "ANN@example.com", "secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	p, err := e.resolver.Resolve(e.ctx, tokens.AccessToken)
	if err != nil || p.ID != user.ID {
		t.Fatalf("resolve issued token: %v %+v", err, p)
	}
}

func TestRegisterKeepsAccountWhenMailFails(t *testing.T) {
	e := newEnv(t)
	e.mailer.fail = true
	if _, err := e.auth.Register(e.ctx, "Ann", "ann@example.com", "secret123"); err != nil {
		t.Fatalf("register must not fail on mail errors: %v", err)
	}
	if _, err := e.users.GetByEmail(e.ctx, "ann@example.com"); err != nil {
		t.Fatalf("account missing: %v", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	e := newEnv(t)
	p := e.principal(domain.RoleStudent)

	_, refresh, _ := e.tm.Generate(p.ID)
	if err := e.tokens.SaveRefresh(e.ctx, p.ID.String(), refresh, time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}

	next, err := e.auth.Refresh(e.ctx, refresh)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	_, err = e.auth.Refresh(e.ctx, refresh)
	mustIs(t, err, domain.ErrUnauthenticated)

	if err := e.auth.Logout(e.ctx, next.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	_, err = e.auth.Refresh(e.ctx, next.RefreshToken)
	mustIs(t, err, domain.ErrUnauthenticated)

	_, err = e.auth.Refresh(e.ctx, next.AccessToken)
	mustIs(t, err, domain.ErrUnauthenticated)
}

func TestForgotAndResetPassword(t *testing.T) {
	e := newEnv(t)
	if _, err := e.auth.Register(e.ctx, "Ann", "ann@example.com", "secret123"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := e.auth.ForgotPassword(e.ctx, "ghost@example.com"); err != nil {
		t.Fatalf("unknown address must not be reported: %v", err)
	}
	if len(e.mailer.reset) != 0 {
		t.Fatalf("reset mail sent to unknown address")
	}

	if err := e.auth.ForgotPassword(e.ctx, "ann@example.com"); err != nil {
		t.Fatalf("forgot: %v", err)
	}
	token := e.mailer.reset["ann@example.com"]

	mustIs(t, e.auth.ResetPassword(e.ctx, token, "123"), domain.ErrValidation)
	if err := e.auth.ResetPassword(e.ctx, token, "brand-new-pass"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	mustIs(t, e.auth.ResetPassword(e.ctx, token, "another-pass"), domain.ErrValidation)

	if _, _, err := e.auth.Login(e.ctx, "ann@example.com", "brand-new-pass"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}
