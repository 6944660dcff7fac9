package api

import (
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	sessionName   = "lookviz"
	currentKey    = "dashboard"
	sessionMaxAge = 7 * 24 * 60 * 60
)

// NewCookieStore returns the cookie-backed session store used for the
// current-dashboard selection.
func NewCookieStore(secret string) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// Sessions keeps the dashboard each browser session is looking at.
type Sessions struct {
	store sessions.Store
}

// NewSessions wraps a gorilla session store.
func NewSessions(store sessions.Store) *Sessions {
	return &Sessions{store: store}
}

// Current returns the selected dashboard path, or "" when none is selected.
func (s *Sessions) Current(r *http.Request) string {
	sess, err := s.store.Get(r, sessionName)
	if err != nil {
		return ""
	}
	p, _ := sess.Values[currentKey].(string)
	return p
}

// SetCurrent selects path for the caller's session. An empty path clears
// the selection.
func (s *Sessions) SetCurrent(w http.ResponseWriter, r *http.Request, path string) error {
	// A cookie signed with an old secret yields an error and a fresh session.
	sess, _ := s.store.Get(r, sessionName)
	if path == "" {
		delete(sess.Values, currentKey)
	} else {
		sess.Values[currentKey] = path
	}
	return sess.Save(r, w)
}
