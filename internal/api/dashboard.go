package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/yoomapp/yoom-web/internal/auth"
	"github.com/yoomapp/yoom-web/internal/invite"
	"github.com/yoomapp/yoom-web/internal/meeting"
	"github.com/yoomapp/yoom-web/internal/model"
	"github.com/yoomapp/yoom-web/internal/store"
)

// inviteDuration is the calendar slot length of an invite. Calls themselves
// have no end time.
const inviteDuration = time.Hour

type actionRequest struct {
	Modal       *string `json:"modal,omitempty"`
	Description *string `json:"description,omitempty"`
	// StartTime is RFC 3339, or a datetime-local value read in TimeZone.
	StartTime *string `json:"start_time,omitempty"`
	TimeZone  string  `json:"tz,omitempty"`
	JoinLink  *string `json:"join_link,omitempty"`
}

type dashboardResponse struct {
	View       meeting.View   `json:"view"`
	Notices    []model.Notice `json:"notices"`
	Clipboard  string         `json:"clipboard,omitempty"`
	NavigateTo string         `json:"navigate_to,omitempty"`
	Error      string         `json:"error,omitempty"`
}

type action func(r *http.Request, sess *store.Session, req actionRequest) error

func (s *Server) doOpen(_ *http.Request, sess *store.Session, req actionRequest) error {
	raw := ""
	if req.Modal != nil {
		raw = *req.Modal
	}
	modal, err := meeting.ParseModal(raw)
	if err != nil {
		return err
	}
	sess.Machine.Open(modal)
	return nil
}

func (s *Server) doDismiss(_ *http.Request, sess *store.Session, _ actionRequest) error {
	sess.Machine.Dismiss()
	return nil
}

func (s *Server) doDraft(_ *http.Request, sess *store.Session, req actionRequest) error {
	return applyDraft(sess.Machine, req)
}

func (s *Server) doConfirm(r *http.Request, sess *store.Session, req actionRequest) error {
	if err := applyDraft(sess.Machine, req); err != nil {
		return err
	}
	return sess.Machine.Confirm(r.Context())
}

func (s *Server) doCopy(r *http.Request, sess *store.Session, _ actionRequest) error {
	return sess.Machine.CopyLink(r.Context())
}

func (s *Server) doStart(_ *http.Request, sess *store.Session, _ actionRequest) error {
	return sess.Machine.StartMeeting()
}

func (s *Server) doClipboardFailed(_ *http.Request, sess *store.Session, _ actionRequest) error {
	sess.Machine.ReportClipboardFailure()
	return nil
}

func applyDraft(m *meeting.Machine, req actionRequest) error {
	if req.StartTime != nil {
		t, err := parseStartTime(*req.StartTime, req.TimeZone)
		if err != nil {
			return err
		}
		m.SetStartTime(t)
	}
	if req.Description != nil {
		m.SetDescription(*req.Description)
	}
	if req.JoinLink != nil {
		m.SetJoinLink(*req.JoinLink)
	}
	return nil
}

// parseStartTime returns nil for an empty value, which clears the start time.
func parseStartTime(raw, tz string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	loc := time.UTC
	if tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("%w: unknown time zone %q", meeting.ErrValidation, tz)
		}
		loc = l
	}
	for _, layout := range []string{"2006-01-02T15:04", "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: invalid start time %q", meeting.ErrValidation, raw)
}

func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, meeting.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, meeting.ErrInvalidState), errors.Is(err, meeting.ErrCreationInFlight):
		return http.StatusConflict
	case errors.Is(err, meeting.ErrCallCreation), errors.Is(err, meeting.ErrSDKRequest):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) logAction(r *http.Request, name string, err error) {
	if err == nil {
		return
	}
	ev := s.log.Warn()
	if statusFor(err) >= http.StatusInternalServerError {
		ev = s.log.Error()
	}
	ev.Err(err).Str("action", name).Str("path", r.URL.Path).Str("code", meeting.Code(err)).Msg("dashboard action failed")
}

func actionName(r *http.Request) string {
	path := strings.TrimSuffix(r.URL.Path, "/")
	return path[strings.LastIndex(path, "/")+1:]
}

func (s *Server) jsonAction(fn action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.UserFromContext(r.Context())
		if !ok {
			writeAPIError(w, http.StatusUnauthorized, "unauthorized", "missing user identity")
			return
		}
		var req actionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeAPIError(w, http.StatusBadRequest, "invalid_request", "invalid JSON payload")
			return
		}
		sess := s.sessions.Session(user)
		err := fn(r, sess, req)
		s.logAction(r, actionName(r), err)
		writeJSON(w, statusFor(err), s.dashboardPayload(sess, err))
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeAPIError(w, http.StatusUnauthorized, "unauthorized", "missing user identity")
		return
	}
	writeJSON(w, http.StatusOK, s.dashboardPayload(s.sessions.Session(user), nil))
}

func (s *Server) dashboardPayload(sess *store.Session, err error) dashboardResponse {
	fx := sess.Outbox.Drain()
	return dashboardResponse{
		View:       sess.Machine.View(),
		Notices:    fx.Notices,
		Clipboard:  fx.Clipboard,
		NavigateTo: fx.NavigateTo,
		Error:      meeting.Code(err),
	}
}

// formAction runs fn for a browser form post and redirects, leaving notices
// for the page at the destination.
func (s *Server) formAction(fn action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.UserFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, s.cfg.SignInURL, http.StatusSeeOther)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		sess := s.sessions.Session(user)
		err := fn(r, sess, actionRequestFromForm(r.PostForm))
		s.logAction(r, actionName(r), err)

		target := sess.Outbox.TakeNavigation()
		if target == "" {
			target = "/"
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	}
}

func actionRequestFromForm(form url.Values) actionRequest {
	field := func(name string) *string {
		if _, ok := form[name]; !ok {
			return nil
		}
		v := form.Get(name)
		return &v
	}
	return actionRequest{
		Modal:       field("modal"),
		Description: field("description"),
		StartTime:   field("start_time"),
		TimeZone:    form.Get("tz"),
		JoinLink:    field("join_link"),
	}
}

func (s *Server) handleInvite(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeAPIError(w, http.StatusUnauthorized, "unauthorized", "missing user identity")
		return
	}
	sess, err := s.sessions.Lookup(user.ID)
	if err != nil {
		writeAPIError(w, http.StatusNotFound, "not_found", "no meeting created")
		return
	}
	v := sess.Machine.View()
	if !v.Created {
		writeAPIError(w, http.StatusNotFound, "not_found", "no meeting created")
		return
	}

	startsAt := s.now()
	if v.StartTime != nil {
		startsAt = *v.StartTime
	}
	summary := v.Description
	if summary == "" {
		summary = meeting.DefaultDescription
	}
	var buf bytes.Buffer
	if err := invite.Encode(&buf, invite.Invite{
		CallID:      v.CallID,
		Summary:     summary,
		StartsAt:    startsAt,
		Duration:    inviteDuration,
		MeetingLink: v.MeetingLink,
		Organizer:   user.Email,
		Stamp:       s.now(),
	}); err != nil {
		s.log.Error().Err(err).Str("call_id", v.CallID).Msg("encode invite failed")
		writeAPIError(w, http.StatusInternalServerError, "internal_error", "failed to build invite")
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="yoom-%s.ics"`, v.CallID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
