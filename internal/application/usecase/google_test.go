package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/waste3d/learning-platform/internal/domain"
	"github.com/waste3d/learning-platform/internal/infrastructure/oauth"
)

type fakeGoogle struct {
	profiles map[string]oauth.GoogleProfile
}

func (g *fakeGoogle) AuthCodeURL(state string) (string, error) {
	return "https://accounts.test/auth?state=" + state, nil
}

func (g *fakeGoogle) Exchange(_ context.Context, code string) (oauth.GoogleProfile, error) {
	p, ok := g.profiles[code]
	if !ok {
		return oauth.GoogleProfile{}, errors.New("invalid_grant")
	}
	return p, nil
}

func withGoogle(e *env, profiles map[string]oauth.GoogleProfile) {
	e.auth.WithGoogle(&fakeGoogle{profiles: profiles})
}

func TestGoogleLoginCreatesStudent(t *testing.T) {
	e := newEnv(t)
	withGoogle(e, map[string]oauth.GoogleProfile{
		"c1": {ID: "g-new", Email: "New@Example.com", EmailVerified: true, Name: strings.Repeat("я", 60), Picture: "https://lh3.test/a.png"},
		"c2": {ID: "g-anon", Email: "anon@example.com", EmailVerified: true},
	})

	tokens, user, err := e.auth.GoogleLogin(e.ctx, "c1")
	if err != nil {
		t.Fatalf("google login: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("tokens not issued: %+v", tokens)
	}
	if user.Role != domain.RoleStudent || !user.EmailVerified || !user.IsGoogleAccount {
		t.Fatalf("unexpected user %+v", user)
	}
	if user.Email != "new@example.com" || len([]rune(user.Name)) != 50 || user.Avatar != "https://lh3.test/a.png" {
		t.Fatalf("profile not applied: %+v", user)
	}
	stored, err := e.users.GetByGoogleID(e.ctx, "g-new")
	if err != nil || stored.ID != user.ID {
		t.Fatalf("google id not stored: %v", err)
	}

	_, anon, err := e.auth.GoogleLogin(e.ctx, "c2")
	if err != nil || anon.Name != "anon" {
		t.Fatalf("name fallback: %v %+v", err, anon)
	}

	// пароль у такого аккаунта пустой, вход по паролю невозможен
	_, _, err = e.auth.Login(e.ctx, "new@example.com", "")
	mustIs(t, err, domain.ErrInvalidCredentials)
}

func TestGoogleLoginLinksExistingEmail(t *testing.T) {
	e := newEnv(t)
	registered, err := e.auth.Register(e.ctx, "Ann", "ann@example.com", "secret1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	withGoogle(e, map[string]oauth.GoogleProfile{
		"c": {ID: "g-ann", Email: "ANN@example.com", EmailVerified: true, Name: "Ann G", Picture: "https://lh3.test/ann.png"},
	})

	_, user, err := e.auth.GoogleLogin(e.ctx, "c")
	if err != nil {
		t.Fatalf("google login: %v", err)
	}
	if user.ID != registered.ID {
		t.Fatalf("new account created instead of linking: %v != %v", user.ID, registered.ID)
	}
	if !user.EmailVerified || !user.IsGoogleAccount || user.Name != "Ann" || user.Avatar != "https://lh3.test/ann.png" {
		t.Fatalf("link not applied: %+v", user)
	}

	// пароль после привязки продолжает работать
	if _, _, err := e.auth.Login(e.ctx, "ann@example.com", "secret1"); err != nil {
		t.Fatalf("password login after link: %v", err)
	}
}

func TestGoogleLoginByGoogleID(t *testing.T) {
	e := newEnv(t)
	withGoogle(e, map[string]oauth.GoogleProfile{
		"first":  {ID: "g-1", Email: "first@example.com", EmailVerified: true, Name: "First"},
		"second": {ID: "g-1", Email: "changed@example.com", EmailVerified: true, Name: "Renamed"},
	})

	_, first, err := e.auth.GoogleLogin(e.ctx, "first")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	_, second, err := e.auth.GoogleLogin(e.ctx, "second")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if second.ID != first.ID || second.Email != "first@example.com" {
		t.Fatalf("google id lookup must win over email: %+v", second)
	}
	if _, err := e.users.GetByEmail(e.ctx, "changed@example.com"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("duplicate account created: %v", err)
	}
}

func TestGoogleLoginRejected(t *testing.T) {
	e := newEnv(t)

	_, _, err := e.auth.GoogleLogin(e.ctx, "c")
	mustIs(t, err, oauth.ErrDisabled)
	_, err = e.auth.GoogleAuthURL("s")
	mustIs(t, err, oauth.ErrDisabled)

	withGoogle(e, map[string]oauth.GoogleProfile{
		"unverified": {ID: "g-u", Email: "u@example.com", EmailVerified: false},
		"noemail":    {ID: "g-n", EmailVerified: true},
	})
	for _, code := range []string{"unknown", "unverified", "noemail", " "} {
		_, _, err := e.auth.GoogleLogin(e.ctx, code)
		mustIs(t, err, domain.ErrUnauthenticated)
	}
	if _, err := e.users.GetByGoogleID(e.ctx, "g-u"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("rejected profile stored: %v", err)
	}

	url, err := e.auth.GoogleAuthURL("st")
	if err != nil || !strings.HasSuffix(url, "state=st") {
		t.Fatalf("auth url: %q %v", url, err)
	}
}
