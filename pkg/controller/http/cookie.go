package http

import (
	"net/http"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/goerr/v2"
)

const (
	// SessionCookieName is the cookie carrying the signed session token
	SessionCookieName = "snipzip_session"

	tokenIssuer = "snipzip"
)

// cookieSigner issues and verifies HS256 tokens whose subject is a session ID
type cookieSigner struct {
	key    []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func newCookieSigner(key []byte, ttl time.Duration, secure bool) *cookieSigner {
	return &cookieSigner{
		key:    key,
		ttl:    ttl,
		secure: secure,
		now:    time.Now,
	}
}

// Sign returns a token for sessionID
func (s *cookieSigner) Sign(sessionID string) (string, error) {
	now := s.now()
	token, err := jwt.NewBuilder().
		Issuer(tokenIssuer).
		Subject(sessionID).
		IssuedAt(now).
		Expiration(now.Add(s.ttl)).
		Build()
	if err != nil {
		return "", goerr.Wrap(err, "failed to build session token")
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, s.key))
	if err != nil {
		return "", goerr.Wrap(err, "failed to sign session token")
	}
	return string(signed), nil
}

// Verify returns the session ID of a valid, unexpired token
func (s *cookieSigner) Verify(value string) (string, error) {
	token, err := jwt.Parse([]byte(value),
		jwt.WithKey(jwa.HS256, s.key),
		jwt.WithValidate(true),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithClock(jwt.ClockFunc(s.now)),
	)
	if err != nil {
		return "", goerr.Wrap(err, "invalid session token")
	}
	if token.Subject() == "" {
		return "", goerr.New("session token has no subject")
	}
	return token.Subject(), nil
}

// SessionID reads and verifies the session cookie of r
func (s *cookieSigner) SessionID(r *http.Request) (string, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", goerr.Wrap(err, "no session cookie")
	}
	return s.Verify(cookie.Value)
}

// SetCookie writes a session cookie for sessionID
func (s *cookieSigner) SetCookie(w http.ResponseWriter, sessionID string) error {
	value, err := s.Sign(sessionID)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		MaxAge:   int(s.ttl.Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
