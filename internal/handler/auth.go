package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mbtamap/internal/session"
)

const cookieName = "mbtamap_session"

// --- Cookie signing / verification ---

// signCookie produces "sessionID.expiry.hmac" for a session cookie.
func (h *Handler) signCookie(id string) string {
	return SignCookie(id, time.Now().Add(h.cookieTTL()), h.cookieSecret)
}

// SignCookie signs a session id valid until expiry.
func SignCookie(id string, expiry time.Time, secret []byte) string {
	payload := fmt.Sprintf("%s.%d", id, expiry.Unix())
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(payload))
	return payload + "." + hex.EncodeToString(mac.Sum(nil))
}

// VerifyCookie checks a "sessionID.expiry.hmac" cookie value.
// Returns the session id on success, "" on failure.
func VerifyCookie(value string, secret []byte) string {
	parts := strings.SplitN(value, ".", 3)
	if len(parts) != 3 || parts[0] == "" {
		return ""
	}
	payload := parts[0] + "." + parts[1]
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(payload))
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(parts[2]), []byte(expected)) {
		return ""
	}
	expiry, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || time.Now().Unix() > expiry {
		return ""
	}
	return parts[0]
}

func (h *Handler) cookieTTL() time.Duration {
	if h.cfg.SessionTTL > 0 {
		return h.cfg.SessionTTL
	}
	return 2 * time.Hour
}

// setCookie sets the session cookie on the response.
func (h *Handler) setCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    h.signCookie(id),
		Path:     "/",
		MaxAge:   int(h.cookieTTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// --- Sessions ---

// existingSession returns the viewer's live session, if the cookie names one.
func (h *Handler) existingSession(r *http.Request) (*session.Session, error) {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return nil, session.ErrNotFound
	}
	id := VerifyCookie(c.Value, h.cookieSecret)
	if id == "" {
		return nil, session.ErrNotFound
	}
	return h.sessions.Get(id)
}

// EndSession forgets the viewer's session and clears its cookie. The next
// request starts over at the first station.
func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(cookieName); err == nil {
		if id := VerifyCookie(c.Value, h.cookieSecret); id != "" {
			h.sessions.Remove(id)
			h.logger.Info("session ended", "session", id)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// viewerSession returns the viewer's session, starting a new one and setting
// the cookie when the request carries none or an expired one. The cookie
// is refreshed on every call so its expiry tracks the registry's.
func (h *Handler) viewerSession(w http.ResponseWriter, r *http.Request) *session.Session {
	s, err := h.existingSession(r)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			h.logger.Error("session lookup", "error", err)
		}
		s = h.sessions.Create()
	}
	h.setCookie(w, s.ID)
	return s
}
