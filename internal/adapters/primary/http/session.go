package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lorrc/ticket-reports/internal/adapters/primary/validation"
)

const (
	// SessionHeader carries the filter session for non-browser clients.
	SessionHeader = "X-Session-ID"
	// SessionCookie carries the filter session for the browser dashboard.
	SessionCookie = "report_session"
)

// SessionResolver finds or creates the filter session of a request.
type SessionResolver struct {
	ttl    time.Duration
	secure bool
}

// NewSessionResolver creates a resolver whose cookies live for ttl.
func NewSessionResolver(ttl time.Duration, secure bool) *SessionResolver {
	return &SessionResolver{ttl: ttl, secure: secure}
}

// Resolve returns the session ID from the header or cookie, generating a new
// one when neither is present. A malformed ID is a validation error.
func (s *SessionResolver) Resolve(r *http.Request) (id string, isNew bool, err error) {
	id = r.Header.Get(SessionHeader)
	if id == "" {
		if c, cerr := r.Cookie(SessionCookie); cerr == nil {
			id = c.Value
		}
	}

	if id == "" {
		return uuid.NewString(), true, nil
	}

	v := validation.NewValidator().SessionID("sessionId", id)
	if err := v.Err(); err != nil {
		return "", false, err
	}
	return id, false, nil
}

// Attach adds the session cookie and header to a response header.
func (s *SessionResolver) Attach(h http.Header, id string) {
	cookie := &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
	h.Add("Set-Cookie", cookie.String())
	h.Set(SessionHeader, id)
}
