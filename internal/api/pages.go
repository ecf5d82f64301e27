package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/yoomapp/yoom-web/internal/auth"
	"github.com/yoomapp/yoom-web/internal/guard"
	"github.com/yoomapp/yoom-web/internal/model"
	"github.com/yoomapp/yoom-web/internal/store"
	"github.com/yoomapp/yoom-web/internal/video"
	"github.com/yoomapp/yoom-web/internal/web/view"
)

// renderPage wraps content in the dashboard layout and drains the session's
// pending notices and clipboard text into it.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, title string, sess *store.Session, content templ.Component) {
	page := view.Page{Title: title, CurrentPath: r.URL.Path}
	if user, ok := auth.UserFromContext(r.Context()); ok {
		page.User = &user
		if sess == nil {
			sess, _ = s.sessions.Lookup(user.ID)
		}
	}
	if sess != nil {
		fx := sess.Outbox.Drain()
		page.Notices = fx.Notices
		page.Clipboard = fx.Clipboard
	}
	templ.Handler(view.Layout(page, content)).ServeHTTP(w, r)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		guard.RedirectToSignIn(w, r, s.cfg.SignInURL)
		return
	}
	sess := s.sessions.Session(user)
	s.renderPage(w, r, "Home", sess, view.Home(sess.Machine.View(), s.now()))
}

func (s *Server) handleSection(title, heading, empty string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.renderPage(w, r, title, nil, view.Section(heading, empty))
	}
}

func (s *Server) handlePersonalRoom(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		guard.RedirectToSignIn(w, r, s.cfg.SignInURL)
		return
	}
	link := s.cfg.BaseURL + "/meeting/" + url.PathEscape(user.ID) + "?personal=true"
	s.renderPage(w, r, "Personal Room", nil, view.PersonalRoom(user.DisplayName(), link))
}

// currentUser returns the user the guard attached, falling back to the
// session cookie on paths the guard skipped.
func (s *Server) currentUser(r *http.Request) (model.User, bool) {
	if user, ok := auth.UserFromContext(r.Context()); ok {
		return user, true
	}
	return s.verifier.Authenticate(r)
}

func (s *Server) handleMeetingRoom(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(r)
	if !ok {
		guard.RedirectToSignIn(w, r, s.cfg.SignInURL)
		return
	}
	r = r.WithContext(auth.WithUser(r.Context(), user))
	id := chi.URLParam(r, "id")
	var md *video.Metadata
	if s.calls != nil {
		if m, ok := s.calls.Lookup(s.cfg.VideoCallType, id); ok {
			md = &m
		}
	}
	s.renderPage(w, r, "Meeting", nil, view.MeetingRoom(id, md))
}

func (s *Server) handleAuthPage(w http.ResponseWriter, r *http.Request) {
	mode := "sign-in"
	if r.URL.Path == "/sign-up" || strings.HasPrefix(r.URL.Path, "/sign-up/") {
		mode = "sign-up"
	}
	redirect := r.URL.Query().Get("redirect_url")
	if !isLocalPath(redirect) {
		redirect = "/"
	}
	if _, ok := s.verifier.Authenticate(r); ok {
		http.Redirect(w, r, redirect, http.StatusFound)
		return
	}

	page := view.AuthPage{Mode: mode}
	if s.cfg.AuthProviderURL != "" {
		q := url.Values{"redirect_url": {s.cfg.BaseURL + redirect}}
		page.ProviderURL = strings.TrimRight(s.cfg.AuthProviderURL, "/") + "/" + mode + "?" + q.Encode()
	}
	templ.Handler(view.Auth(page)).ServeHTTP(w, r)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if user, ok := s.verifier.Authenticate(r); ok {
		s.sessions.Remove(user.ID)
	}
	auth.ClearSessionCookie(w)
	http.Redirect(w, r, s.cfg.SignInURL, http.StatusSeeOther)
}

func isLocalPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.HasPrefix(p, "/\\")
}
