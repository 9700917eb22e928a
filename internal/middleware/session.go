package middleware

import (
	"net/http"
	"sync"
	"time"

	"storefront/internal/session"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionConfig controls the visitor session cookie
type SessionConfig struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// SessionMiddleware attaches the visitor's session to the request context, issuing a
// new session cookie when none is presented. A modified session is written back before
// the first byte of the response goes out.
func SessionMiddleware(store session.Store, config SessionConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if cookie, err := r.Cookie(config.CookieName); err == nil {
				if _, err := uuid.Parse(cookie.Value); err == nil {
					id = cookie.Value
				}
			}
			if id == "" {
				id = uuid.New().String()
			}

			// Sliding expiry: the cookie is refreshed together with the stored session
			http.SetCookie(w, &http.Cookie{
				Name:     config.CookieName,
				Value:    id,
				Path:     "/",
				MaxAge:   int(config.TTL.Seconds()),
				HttpOnly: true,
				Secure:   config.Secure,
				SameSite: http.SameSiteLaxMode,
			})

			sess, err := store.Load(r.Context(), id)
			if err != nil {
				logger.Error("Failed to load session", zap.Error(err))
				RespondWithError(w, http.StatusServiceUnavailable, "session store unavailable")
				return
			}

			sw := &sessionWriter{ResponseWriter: w, save: func() {
				if !sess.Dirty() {
					return
				}
				if err := store.Save(r.Context(), sess); err != nil {
					logger.Error("Failed to save session", zap.String("session_id", id), zap.Error(err))
				}
			}}

			next.ServeHTTP(sw, r.WithContext(session.NewContext(r.Context(), sess)))
			sw.commit()
		})
	}
}

type sessionWriter struct {
	http.ResponseWriter
	once sync.Once
	save func()
}

func (w *sessionWriter) commit() {
	w.once.Do(w.save)
}

func (w *sessionWriter) WriteHeader(statusCode int) {
	w.commit()
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *sessionWriter) Write(b []byte) (int, error) {
	w.commit()
	return w.ResponseWriter.Write(b)
}

func (w *sessionWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
