// internal/auth/auth.go
//
// Codebreaker identity for the HTTP layer.
// Responsibilities:
//   - Signup/login with bcrypt-hashed passwords stored via store.Store.
//   - HS256 JWT issue/verify (claims: id, username, exp, iat).
//   - Token lookup from "Authorization: Bearer" or the auth cookie.
//   - RequireAuth middleware that puts the User into the request context.

package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/robalobadob/mastermind/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidSignup      = errors.New("invalid signup")
)

// User is the identity placed into request context.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Options configures token signing and the auth cookie.
type Options struct {
	Secret     string
	TTL        time.Duration
	CookieName string
	// Secure marks cookies Secure + SameSite=None (production behind TLS).
	Secure bool
}

// Authenticator issues and checks tokens for users kept in a store.
type Authenticator struct {
	users store.Store
	opts  Options
	now   func() time.Time
}

// devSecret signs tokens in local development only.
const devSecret = "dev_secret_change_me"

// New builds an Authenticator. Without a Secret it signs with devSecret,
// unless opts.Secure is set: then it signs with a random per-process key.
func New(users store.Store, opts Options) *Authenticator {
	if opts.Secret == "" {
		opts.Secret = devSecret
		if opts.Secure {
			opts.Secret = randomSecret()
		}
	}
	if opts.TTL <= 0 {
		opts.TTL = 14 * 24 * time.Hour
	}
	if opts.CookieName == "" {
		opts.CookieName = "mastermind_token"
	}
	return &Authenticator{users: users, opts: opts, now: time.Now}
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("auth: read random secret: %v", err))
	}
	return hex.EncodeToString(b)
}

// Signup validates input, hashes the password and creates the user.
func (a *Authenticator) Signup(ctx context.Context, username, password string) (*store.User, error) {
	username = NormalizeUsername(username)
	if err := ValidateSignup(username, password); err != nil {
		return nil, err
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &store.User{Username: username, PasswordHash: string(h)}
	if err := a.users.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login checks the password against the stored bcrypt hash.
func (a *Authenticator) Login(ctx context.Context, username, password string) (*store.User, error) {
	u, err := a.users.UserByName(ctx, NormalizeUsername(username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Sign creates an HS256 JWT for the user and returns it with its expiry.
func (a *Authenticator) Sign(id, username string) (string, time.Time, error) {
	now := a.now()
	exp := now.Add(a.opts.TTL)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       id,
		"username": username,
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
	})
	ss, err := t.SignedString([]byte(a.opts.Secret))
	return ss, exp, err
}

// Parse verifies a token and returns the identity it carries.
func (a *Authenticator) Parse(token string) (*User, error) {
	claims := jwt.MapClaims{}
	t, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(a.opts.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	id, _ := claims["id"].(string)
	username, _ := claims["username"].(string)
	if id == "" || username == "" {
		return nil, ErrInvalidToken
	}
	return &User{ID: id, Username: username}, nil
}

// ctxUserKey is the context key type for storing User.
type ctxUserKey struct{}

// WithUser returns ctx carrying u.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ctxUserKey{}, u)
}

// FromContext returns the authenticated user, or nil for guests.
func FromContext(ctx context.Context) *User {
	u, _ := ctx.Value(ctxUserKey{}).(*User)
	return u
}

// RequireAuth enforces a valid JWT for a user that still exists.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := a.bearerOrCookie(r)
		if tokenStr == "" {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		u, err := a.Parse(tokenStr)
		if err != nil {
			http.Error(w, `{"error":"invalid_token"}`, http.StatusUnauthorized)
			return
		}
		// Ensure user still exists
		if _, err := a.users.UserByID(r.Context(), u.ID); err != nil {
			http.Error(w, `{"error":"invalid_token"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

// bearerOrCookie extracts a bearer token from Authorization header or auth cookie.
func (a *Authenticator) bearerOrCookie(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	if c, err := r.Cookie(a.opts.CookieName); err == nil {
		return c.Value
	}
	return ""
}

// SetCookie writes the auth token cookie.
func (a *Authenticator) SetCookie(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, a.cookie(token, exp, 0))
}

// ClearCookie deletes the auth token cookie.
func (a *Authenticator) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, a.cookie("", time.Time{}, -1))
}

func (a *Authenticator) cookie(value string, exp time.Time, maxAge int) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if a.opts.Secure {
		sameSite = http.SameSiteNoneMode // required for third-party contexts when Secure
	}
	return &http.Cookie{
		Name:     a.opts.CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.opts.Secure,
		SameSite: sameSite,
		Expires:  exp,
		MaxAge:   maxAge,
	}
}

// NormalizeUsername trims whitespace.
func NormalizeUsername(u string) string {
	return strings.TrimSpace(u)
}

// ValidateSignup enforces basic username/password rules.
func ValidateSignup(u, p string) error {
	if len(u) < 3 || len(u) > 24 {
		return fmt.Errorf("%w: username must be 3-24 chars", ErrInvalidSignup)
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return fmt.Errorf("%w: username: letters, numbers, underscore only", ErrInvalidSignup)
		}
	}
	if len(p) < 8 || len(p) > 100 {
		return fmt.Errorf("%w: password must be 8-100 chars", ErrInvalidSignup)
	}
	return nil
}
