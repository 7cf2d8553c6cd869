// Package auth implements the login gate: single shared password, optional
// time-based one-time code, and signed-cookie browser sessions.
package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/sessions"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

var (
	// ErrInvalidCredentials does not reveal which factor failed beyond the
	// password mismatch itself.
	ErrInvalidCredentials = errors.New("invalid password")

	// ErrMFARequired is returned when TOTP is enabled and no code was given.
	ErrMFARequired = errors.New("one-time code required")

	// ErrInvalidMFACode is returned for a code outside the accepted window.
	ErrInvalidMFACode = errors.New("invalid one-time code")
)

const (
	sessionName = "forge_session"

	// SessionTTL is the sliding browser-session lifetime.
	SessionTTL = 8 * time.Hour

	totpPeriod = 30
	totpIssuer = "Forge"
)

// Gate authenticates the single authorized user and tracks their browser
// session. The TOTP secret is process-wide singleton state, not per-user.
type Gate struct {
	cookies     *sessions.CookieStore
	password    string
	totpEnabled bool
	totpSecret  string
	now         func() time.Time
}

// NewGate builds a gate with a cookie store signed by sessionKey.
func NewGate(password, sessionKey string, totpEnabled bool, totpSecret string) *Gate {
	cs := sessions.NewCookieStore([]byte(sessionKey))
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(SessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &Gate{
		cookies:     cs,
		password:    password,
		totpEnabled: totpEnabled && totpSecret != "",
		totpSecret:  totpSecret,
		now:         time.Now,
	}
}

// TOTPEnabled reports whether login requires a one-time code.
func (g *Gate) TOTPEnabled() bool { return g.totpEnabled }

// Login verifies the password and, when enabled, the one-time code. On full
// success a signed session cookie with an 8-hour sliding expiry is written.
func (g *Gate) Login(w http.ResponseWriter, r *http.Request, password, otpCode string) error {
	if subtle.ConstantTimeCompare([]byte(password), []byte(g.password)) != 1 {
		return ErrInvalidCredentials
	}

	if g.totpEnabled {
		if otpCode == "" {
			return ErrMFARequired
		}
		if !g.validateCode(otpCode) {
			return ErrInvalidMFACode
		}
	}

	sess, _ := g.cookies.Get(r, sessionName)
	sess.Values["logged_in"] = true
	sess.Values["password_verified"] = true
	sess.Values["mfa_verified"] = g.totpEnabled
	return sess.Save(r, w)
}

// Logout destroys the session unconditionally.
func (g *Gate) Logout(w http.ResponseWriter, r *http.Request) {
	sess, _ := g.cookies.Get(r, sessionName)
	sess.Values = make(map[any]any)
	sess.Options.MaxAge = -1
	_ = sess.Save(r, w)
}

// Authenticated reports whether the request carries a fully verified session.
func (g *Gate) Authenticated(r *http.Request) bool {
	sess, err := g.cookies.Get(r, sessionName)
	if err != nil {
		return false
	}
	loggedIn, _ := sess.Values["logged_in"].(bool)
	return loggedIn
}

// RequireSession guards protected routes. Unauthenticated API calls get a
// 401 JSON body; browser paths redirect to /login. Passing the guard
// refreshes the cookie, giving the 8-hour expiry its sliding behavior.
func (g *Gate) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.Authenticated(r) {
			if strings.HasPrefix(r.URL.Path, "/api/") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"authentication required","success":false}`))
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		sess, _ := g.cookies.Get(r, sessionName)
		_ = sess.Save(r, w)
		next.ServeHTTP(w, r)
	})
}

// validateCode accepts codes within ±1 step of the current 30-second step.
func (g *Gate) validateCode(code string) bool {
	ok, err := totp.ValidateCustom(code, g.totpSecret, g.now(), totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

// Secret returns the shared TOTP secret for the enrollment view.
func (g *Gate) Secret() string { return g.totpSecret }

// ProvisioningURL returns the otpauth:// URL an authenticator app can scan.
func (g *Gate) ProvisioningURL() string {
	v := url.Values{}
	v.Set("secret", g.totpSecret)
	v.Set("issuer", totpIssuer)
	v.Set("period", "30")
	v.Set("digits", "6")
	u := url.URL{
		Scheme:   "otpauth",
		Host:     "totp",
		Path:     "/" + totpIssuer + ":forge",
		RawQuery: v.Encode(),
	}
	return u.String()
}
