package http

import (
	"errors"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"

	"github.com/idfuturestars/StarGuideAI/internal/app"
	"github.com/idfuturestars/StarGuideAI/internal/domain"
)

const (
	sessionName    = "app-session"
	sessionUserKey = "user_id"
	contextUserKey = "user"
	sessionMaxAge  = 7 * 24 * 60 * 60
)

// sessionManager keeps the signed-in user id in a signed cookie.
type sessionManager struct {
	store sessions.Store
}

func newSessionManager(secret string) *sessionManager {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &sessionManager{store: store}
}

func (m *sessionManager) login(c echo.Context, userID string) error {
	sess, _ := m.store.Get(c.Request(), sessionName)
	sess.Values[sessionUserKey] = userID
	return sess.Save(c.Request(), c.Response())
}

func (m *sessionManager) logout(c echo.Context) error {
	sess, _ := m.store.Get(c.Request(), sessionName)
	delete(sess.Values, sessionUserKey)
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}

// userID returns the session's user id. A tampered or expired cookie reads as
// no session.
func (m *sessionManager) userID(c echo.Context) (string, bool) {
	sess, err := m.store.Get(c.Request(), sessionName)
	if err != nil {
		return "", false
	}
	id, ok := sess.Values[sessionUserKey].(string)
	return id, ok && id != ""
}

// requireUser loads the session user into the echo context.
func (m *sessionManager) requireUser(accounts *app.AccountService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := m.userID(c)
			if !ok {
				return domain.ErrUnauthenticated
			}
			user, err := accounts.User(c.Request().Context(), id)
			if errors.Is(err, domain.ErrUserNotFound) {
				return domain.ErrUnauthenticated
			}
			if err != nil {
				return err
			}
			c.Set(contextUserKey, user)
			return next(c)
		}
	}
}

func currentUser(c echo.Context) domain.User {
	user, _ := c.Get(contextUserKey).(domain.User)
	return user
}
