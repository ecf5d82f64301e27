package api

import (
	"encoding/json"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/yoomapp/yoom-web/internal/auth"
	"github.com/yoomapp/yoom-web/internal/config"
	"github.com/yoomapp/yoom-web/internal/guard"
	"github.com/yoomapp/yoom-web/internal/metrics"
	"github.com/yoomapp/yoom-web/internal/model"
	"github.com/yoomapp/yoom-web/internal/store"
	"github.com/yoomapp/yoom-web/internal/video"
)

type Sessions interface {
	Session(user model.User) *store.Session
	Lookup(userID string) (*store.Session, error)
	Remove(userID string)
}

// CallDirectory reports metadata of known calls. Optional.
type CallDirectory interface {
	Lookup(callType, id string) (video.Metadata, bool)
}

type Deps struct {
	Config   config.Config
	Sessions Sessions
	Verifier *auth.Verifier
	// Protected and Run default to the config's route sets.
	Protected *guard.Matcher
	Run       *guard.RunMatcher
	Calls     CallDirectory
	Static    fs.FS
	Logger    zerolog.Logger
	Now       func() time.Time
}

type Server struct {
	cfg      config.Config
	sessions Sessions
	verifier *auth.Verifier
	calls    CallDirectory
	log      zerolog.Logger
	now      func() time.Time
}

func NewRouter(d Deps) (http.Handler, error) {
	protected, run := d.Protected, d.Run
	if protected == nil || run == nil {
		m, rm, err := d.Config.Routes.Build()
		if err != nil {
			return nil, err
		}
		if protected == nil {
			protected = m
		}
		if run == nil {
			run = &rm
		}
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}
	s := &Server{
		cfg:      d.Config,
		sessions: d.Sessions,
		verifier: d.Verifier,
		calls:    d.Calls,
		log:      d.Logger,
		now:      now,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(d.Logger))
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	// Meeting creation waits on the video provider, retries included.
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(guard.Middleware(guard.Options{
		Protected: protected,
		Run:       *run,
		Auth:      d.Verifier,
		SignInURL: d.Config.SignInURL,
		Logger:    d.Logger,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	r.Get("/metrics", metrics.Default().Handler().ServeHTTP)
	if d.Static != nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(d.Static))))
	}

	r.Get("/", s.handleHome)
	r.Get("/upcoming", s.handleSection("Upcoming", "Upcoming Meetings", "No upcoming meetings"))
	r.Get("/previous", s.handleSection("Previous", "Previous Meetings", "No previous meetings"))
	r.Get("/recordings", s.handleSection("Recordings", "Recordings", "No recordings"))
	r.Get("/personal-room", s.handlePersonalRoom)
	r.Get("/meeting/{id}", s.handleMeetingRoom)

	r.Get("/sign-in", s.handleAuthPage)
	r.Get("/sign-in/*", s.handleAuthPage)
	r.Get("/sign-up", s.handleAuthPage)
	r.Get("/sign-up/*", s.handleAuthPage)
	r.Post("/sign-out", s.handleSignOut)

	// Dashboard form actions use the same redirect-to-sign-in guard as pages.
	r.Route("/dashboard", func(dash chi.Router) {
		dash.Use(guard.Middleware(guard.Options{
			Protected: guard.MustMatcher("/dashboard(.*)"),
			Auth:      d.Verifier,
			SignInURL: d.Config.SignInURL,
			Logger:    d.Logger,
		}))
		dash.Post("/open", s.formAction(s.doOpen))
		dash.Post("/dismiss", s.formAction(s.doDismiss))
		dash.Post("/draft", s.formAction(s.doDraft))
		dash.Post("/confirm", s.formAction(s.doConfirm))
		dash.Post("/copy", s.formAction(s.doCopy))
		dash.Post("/start", s.formAction(s.doStart))
		dash.Post("/clipboard-failed", s.formAction(s.doClipboardFailed))
	})

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.With(auth.Middleware(d.Verifier)).Group(func(authed chi.Router) {
			authed.Get("/dashboard", s.handleDashboard)
			authed.Get("/dashboard/invite.ics", s.handleInvite)
			authed.Post("/dashboard/open", s.jsonAction(s.doOpen))
			authed.Post("/dashboard/dismiss", s.jsonAction(s.doDismiss))
			authed.Post("/dashboard/draft", s.jsonAction(s.doDraft))
			authed.Post("/dashboard/confirm", s.jsonAction(s.doConfirm))
			authed.Post("/dashboard/copy", s.jsonAction(s.doCopy))
			authed.Post("/dashboard/start", s.jsonAction(s.doStart))
			authed.Post("/dashboard/clipboard-failed", s.jsonAction(s.doClipboardFailed))
		})
	})

	r.NotFound(s.handleNotFound)
	return r, nil
}

func requestLogger(next http.Handler) http.Handler {
	access := hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("request_id", id)
			})
		}
		access(next).ServeHTTP(w, r)
	})
}

// handleNotFound mirrors the catch-all auth route: unknown API paths get a
// JSON 404, anything else lands on sign-in.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		writeAPIError(w, http.StatusNotFound, "not_found", "no such endpoint")
		return
	}
	s.handleAuthPage(w, r)
}

type apiError struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	var payload apiError
	payload.Error.Code = code
	payload.Error.Message = message
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
