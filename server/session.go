package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/spektr-org/pengdash/dashboard"
	"github.com/spektr-org/pengdash/reactive"
)

// SessionCookie names the cookie holding the session id.
const SessionCookie = "pengdash_session"

type session struct {
	id string

	mu   sync.Mutex
	dash *dashboard.Dashboard
}

// with runs fn while holding the session lock.
func (sess *session) with(fn func(d *dashboard.Dashboard)) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	fn(sess.dash)
}

// session returns the caller's session, creating one (and setting the
// cookie) when the request carries none or an unknown id.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session, error) {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if sess, ok := s.sessions.Get(c.Value); ok {
			return sess, nil
		}
	}

	sess, err := s.newSession(r.Context())
	if err != nil {
		return nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess, nil
}

func (s *Server) newSession(ctx context.Context) (*session, error) {
	id := uuid.NewString()

	hooks := []reactive.Hooks{s.metrics.Hooks()}
	if s.verbose {
		hooks = append(hooks, dashboard.LogHooks{Session: id})
	}
	opts := []dashboard.Option{dashboard.WithSelection(s.defaults)}
	for _, h := range hooks {
		opts = append(opts, dashboard.WithHooks(h))
	}

	dash, err := dashboard.New(s.ds, opts...)
	if err != nil {
		return nil, fmt.Errorf("new dashboard: %w", err)
	}
	if _, err := dash.Flush(ctx); err != nil {
		return nil, fmt.Errorf("first render: %w", err)
	}

	sess := &session{id: id, dash: dash}
	s.sessions.Add(id, sess)
	s.metrics.Sessions.Set(float64(s.sessions.Len()))
	log.Printf("👤 Pengdash: session %s started (%d active)", shortID(id), s.sessions.Len())
	return sess, nil
}

// SessionCount returns the number of live sessions.
func (s *Server) SessionCount() int { return s.sessions.Len() }

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
