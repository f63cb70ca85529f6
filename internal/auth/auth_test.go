package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/robalobadob/mastermind/internal/store"
)

func newTestAuth(t *testing.T) (*Authenticator, store.Store) {
	t.Helper()
	st := store.NewMemoryStore()
	return New(st, Options{Secret: "test-secret"}), st
}

func TestSignupAndLogin(t *testing.T) {
	a, _ := newTestAuth(t)
	ctx := context.Background()

	u, err := a.Signup(ctx, "  codebreaker ", "password1234")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if u.Username != "codebreaker" || u.PasswordHash == "password1234" {
		t.Fatalf("unexpected user %+v", u)
	}
	if _, err := a.Signup(ctx, "codebreaker", "password1234"); !errors.Is(err, store.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	if _, err := a.Login(ctx, "codebreaker", "password1234"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := a.Login(ctx, "codebreaker", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v", err)
	}
	if _, err := a.Login(ctx, "nobody", "password1234"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user: got %v", err)
	}
}

func TestValidateSignup(t *testing.T) {
	cases := []struct {
		u, p string
		ok   bool
	}{
		{"abc", "12345678", true},
		{"ab", "12345678", false},
		{"has space", "12345678", false},
		{"under_score_9", "12345678", true},
		{"abc", "short", false},
	}
	for _, tc := range cases {
		err := ValidateSignup(tc.u, tc.p)
		if (err == nil) != tc.ok {
			t.Errorf("ValidateSignup(%q, %q) = %v, want ok=%v", tc.u, tc.p, err, tc.ok)
		}
		if err != nil && !errors.Is(err, ErrInvalidSignup) {
			t.Errorf("error %v does not wrap ErrInvalidSignup", err)
		}
	}
}

func TestSignAndParse(t *testing.T) {
	a, _ := newTestAuth(t)
	tok, exp, err := a.Sign("id-1", "alice")
	if err != nil {
		t.Fatal(err)
	}
	if time.Until(exp) < 13*24*time.Hour {
		t.Fatalf("expiry too soon: %v", exp)
	}
	u, err := a.Parse(tok)
	if err != nil {
		t.Fatal(err)
	}
	if u.ID != "id-1" || u.Username != "alice" {
		t.Fatalf("unexpected user %+v", u)
	}

	other := New(store.NewMemoryStore(), Options{Secret: "other"})
	if _, err := other.Parse(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign secret: got %v", err)
	}

	expired := New(store.NewMemoryStore(), Options{Secret: "test-secret"})
	expired.now = func() time.Time { return time.Now().Add(-30 * 24 * time.Hour) }
	old, _, _ := expired.Sign("id-1", "alice")
	if _, err := a.Parse(old); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token: got %v", err)
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"id": "id-1", "username": "alice"})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := a.Parse(unsigned); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("unsigned token: got %v", err)
	}
}

func TestRequireAuth(t *testing.T) {
	a, _ := newTestAuth(t)
	u, err := a.Signup(context.Background(), "alice", "password1234")
	if err != nil {
		t.Fatal(err)
	}
	tok, _, _ := a.Sign(u.ID, u.Username)
	ghost, _, _ := a.Sign("ghost", "ghost")

	h := a.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		me := FromContext(r.Context())
		if me == nil {
			t.Error("no user in context")
			return
		}
		_, _ = w.Write([]byte(me.Username))
	}))

	cases := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{"no token", func(r *http.Request) {}, http.StatusUnauthorized},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) }, http.StatusOK},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "mastermind_token", Value: tok}) }, http.StatusOK},
		{"garbage", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
		{"deleted user", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+ghost) }, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tc.setup(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("status %d, want %d", rec.Code, tc.status)
			}
			if tc.status == http.StatusOK && rec.Body.String() != "alice" {
				t.Fatalf("body %q", rec.Body.String())
			}
		})
	}
}

func TestCookies(t *testing.T) {
	a := New(store.NewMemoryStore(), Options{Secure: true, CookieName: "tok"})
	rec := httptest.NewRecorder()
	a.SetCookie(rec, "abc", time.Now().Add(time.Hour))
	a.ClearCookie(rec)
	cookies := rec.Result().Cookies()
	if len(cookies) != 2 {
		t.Fatalf("got %d cookies", len(cookies))
	}
	if c := cookies[0]; c.Name != "tok" || c.Value != "abc" || !c.Secure || c.SameSite != http.SameSiteNoneMode || !c.HttpOnly {
		t.Errorf("unexpected auth cookie %+v", c)
	}
	if c := cookies[1]; c.MaxAge >= 0 || c.Value != "" {
		t.Errorf("clear cookie not expiring: %+v", c)
	}
}

func TestNew_SecureWithoutSecretRejectsDevTokens(t *testing.T) {
	st := store.NewMemoryStore()
	a := New(st, Options{Secure: true})
	u, err := a.Signup(context.Background(), "victim", "password1234")
	if err != nil {
		t.Fatal(err)
	}

	dev := New(st, Options{})
	forged, _, err := dev.Sign(u.ID, u.Username)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Parse(forged); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("token signed with the dev secret: got %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	rec := httptest.NewRecorder()
	a.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached with a dev-secret token")
	})).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", rec.Code)
	}

	own, _, _ := a.Sign(u.ID, u.Username)
	if _, err := a.Parse(own); err != nil {
		t.Fatalf("own token: %v", err)
	}
}
