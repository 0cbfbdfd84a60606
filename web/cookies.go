package web

import (
	"encoding/base64"
	"net/http"

	"github.com/amonks/taskboard/session"
)

// cookieStore keeps the identity payload in the browser under the fixed
// storage key.
type cookieStore struct {
	w      http.ResponseWriter
	r      *http.Request
	secure bool
}

func newCookieStore(w http.ResponseWriter, r *http.Request, secure bool) *cookieStore {
	return &cookieStore{w: w, r: r, secure: secure}
}

func (s *cookieStore) Load() (session.Identity, bool, error) {
	cookie, err := s.r.Cookie(session.StorageKey)
	if err != nil || cookie.Value == "" {
		return session.Identity{}, false, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		// A cookie we cannot read is treated as logged out.
		return session.Identity{}, false, nil
	}
	identity, err := session.ParseIdentity(raw)
	if err != nil {
		return session.Identity{}, false, nil
	}
	return identity, true, nil
}

func (s *cookieStore) Save(identity session.Identity) error {
	http.SetCookie(s.w, &http.Cookie{
		Name:     session.StorageKey,
		Value:    base64.RawURLEncoding.EncodeToString(identity.Raw),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   365 * 24 * 60 * 60,
	})
	return nil
}

func (s *cookieStore) Clear() error {
	http.SetCookie(s.w, &http.Cookie{
		Name:     session.StorageKey,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	return nil
}
