// Package meeting holds the dashboard's meeting creation state machine: which
// modal is open, the shared draft, and the call created for it.
package meeting

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yoomapp/yoom-web/internal/metrics"
	"github.com/yoomapp/yoom-web/internal/model"
	"github.com/yoomapp/yoom-web/internal/video"
)

type Notifier interface {
	Notify(n model.Notice)
}

type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

type Navigator interface {
	Navigate(path string)
}

// Deps are the machine's collaborators. Video and User may be nil while the
// session is still initializing; creation is then a no-op.
type Deps struct {
	Video     video.Client
	User      *model.User
	Notifier  Notifier
	Clipboard Clipboard
	Navigator Navigator
	NewID     func() string
	Now       func() time.Time
	Logger    zerolog.Logger
}

type Options struct {
	// BaseURL prefixes shareable meeting links.
	BaseURL string
	// AutoJoinInstantMeetingWithoutDescription skips the "Meeting Ready!"
	// screen and goes straight to the room when no description was given.
	AutoJoinInstantMeetingWithoutDescription bool
	CallType                                 string
}

type Draft struct {
	StartTime   *time.Time
	Description string
	JoinLink    string
}

type Machine struct {
	deps Deps
	opts Options
	log  zerolog.Logger

	mu       sync.Mutex
	modal    Modal
	draft    Draft
	call     video.Call
	creating bool
	// epoch changes whenever the modal is opened or dismissed. Creation
	// results from an older epoch are dropped.
	epoch uint64
}

func NewMachine(deps Deps, opts Options) *Machine {
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Notifier == nil {
		deps.Notifier = discard{}
	}
	if deps.Navigator == nil {
		deps.Navigator = discard{}
	}
	if opts.CallType == "" {
		opts.CallType = video.DefaultCallType
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	now := deps.Now()
	return &Machine{
		deps:  deps,
		opts:  opts,
		log:   deps.Logger.With().Str("component", "meeting").Logger(),
		draft: Draft{StartTime: &now},
	}
}

type discard struct{}

func (discard) Notify(model.Notice) {}
func (discard) Navigate(string)     {}

func (m *Machine) Modal() Modal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.modal
}

func (m *Machine) Draft() Draft {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draftCopyLocked()
}

func (m *Machine) draftCopyLocked() Draft {
	d := m.draft
	if d.StartTime != nil {
		t := *d.StartTime
		d.StartTime = &t
	}
	return d
}

// Open shows modal, replacing whatever was shown. Opening ModalNone dismisses.
func (m *Machine) Open(modal Modal) {
	if modal == ModalNone {
		m.Dismiss()
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.modal != modal {
		m.resetLocked()
	}
	m.modal = modal
	m.record("open", nil)
}

// Dismiss returns to Idle. The description and start time survive; the join
// link and any created call do not.
func (m *Machine) Dismiss() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
	m.modal = ModalNone
	m.record("dismiss", nil)
}

func (m *Machine) resetLocked() {
	m.epoch++
	m.creating = false
	m.call = nil
	m.draft.JoinLink = ""
}

func (m *Machine) SetDescription(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.draft.Description = s
}

// SetStartTime replaces the draft start time. nil clears it.
func (m *Machine) SetStartTime(t *time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t == nil {
		m.draft.StartTime = nil
		return
	}
	v := *t
	m.draft.StartTime = &v
}

func (m *Machine) SetJoinLink(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.draft.JoinLink = s
}

// Confirm performs the primary action of the open modal.
func (m *Machine) Confirm(ctx context.Context) error {
	m.mu.Lock()
	if m.creating {
		m.mu.Unlock()
		m.record("confirm", ErrCreationInFlight)
		return ErrCreationInFlight
	}
	switch {
	case m.modal == ModalNone:
		m.mu.Unlock()
		m.record("confirm", ErrInvalidState)
		return ErrInvalidState
	case m.modal == ModalJoin:
		return m.joinAndUnlock()
	case m.call != nil && m.modal == ModalSchedule:
		m.mu.Unlock()
		return m.CopyLink(ctx)
	case m.call != nil:
		m.mu.Unlock()
		return m.StartMeeting()
	}
	req, err := m.beginCreateLocked()
	m.mu.Unlock()
	if err != nil {
		m.deps.Notifier.Notify(noticeSelectDateTime)
		m.record("confirm", err)
		return err
	}
	if req == nil {
		return nil
	}
	return m.createMeeting(ctx, req)
}

func (m *Machine) joinAndUnlock() error {
	link := strings.TrimSpace(m.draft.JoinLink)
	if link == "" {
		m.mu.Unlock()
		m.deps.Notifier.Notify(noticeEnterLink)
		m.record("join", ErrValidation)
		return fmt.Errorf("%w: meeting link is required", ErrValidation)
	}
	m.resetLocked()
	m.modal = ModalNone
	m.mu.Unlock()
	m.deps.Navigator.Navigate(joinTarget(link))
	m.record("join", nil)
	return nil
}

// joinTarget makes a link without a scheme root-relative, so "meeting/x"
// never resolves against the page the user is on.
func joinTarget(link string) string {
	if u, err := url.Parse(link); err == nil && u.Scheme != "" {
		return link
	}
	if strings.HasPrefix(link, "/") {
		return link
	}
	return "/" + link
}

type creation struct {
	epoch       uint64
	modal       Modal
	id          string
	startTime   time.Time
	description string
	userID      string
}

// beginCreateLocked returns nil, nil when the session has no video client or
// user yet.
func (m *Machine) beginCreateLocked() (*creation, error) {
	if m.deps.Video == nil || m.deps.User == nil {
		return nil, nil
	}
	if m.draft.StartTime == nil {
		return nil, fmt.Errorf("%w: start time is required", ErrValidation)
	}
	m.creating = true
	return &creation{
		epoch:       m.epoch,
		modal:       m.modal,
		id:          m.deps.NewID(),
		startTime:   *m.draft.StartTime,
		description: m.draft.Description,
		userID:      m.deps.User.ID,
	}, nil
}

func (m *Machine) createMeeting(ctx context.Context, req *creation) error {
	call, err := m.createCall(ctx, req)
	return m.finishCreate(req, call, err)
}

func (m *Machine) createCall(ctx context.Context, req *creation) (video.Call, error) {
	call, err := m.deps.Video.CreateOrGetCall(ctx, m.opts.CallType, req.id, req.userID)
	switch {
	case errors.Is(err, video.ErrNoCall):
		return nil, fmt.Errorf("%w: %w", ErrCallCreation, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrSDKRequest, err)
	case call == nil:
		return nil, fmt.Errorf("%w: no call for id %s", ErrCallCreation, req.id)
	}

	startsAt := req.startTime
	if startsAt.IsZero() {
		startsAt = m.deps.Now()
	}
	description := req.description
	if description == "" {
		description = DefaultDescription
	}
	if err := call.Finalize(ctx, video.Metadata{
		StartsAt:    startsAt,
		Description: description,
		CreatedBy:   req.userID,
	}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSDKRequest, err)
	}
	return call, nil
}

func (m *Machine) finishCreate(req *creation, call video.Call, err error) error {
	m.mu.Lock()
	if req.epoch != m.epoch {
		m.mu.Unlock()
		m.log.Debug().Err(err).Str("call_id", req.id).Str("modal", req.modal.String()).Msg("discarding stale meeting creation result")
		metrics.Default().MeetingCreations.WithLabelValues(req.modal.String(), "stale").Inc()
		return err
	}
	m.creating = false
	if err != nil {
		m.mu.Unlock()
		m.log.Error().Err(err).Str("call_id", req.id).Str("modal", req.modal.String()).Msg("create meeting failed")
		metrics.Default().MeetingCreations.WithLabelValues(req.modal.String(), "error").Inc()
		m.deps.Notifier.Notify(noticeCreateFailed)
		return err
	}

	m.call = call
	navigateTo := ""
	if req.modal == ModalInstant && m.opts.AutoJoinInstantMeetingWithoutDescription && req.description == "" {
		navigateTo = meetingPath(call.ID())
		m.resetLocked()
		m.modal = ModalNone
	}
	m.mu.Unlock()

	m.log.Info().Str("call_id", call.ID()).Str("modal", req.modal.String()).Msg("meeting created")
	metrics.Default().MeetingCreations.WithLabelValues(req.modal.String(), "ok").Inc()
	m.deps.Notifier.Notify(noticeMeetingCreated)
	if navigateTo != "" {
		m.deps.Navigator.Navigate(navigateTo)
	}
	return nil
}

// CopyLink writes the meeting link to the clipboard. The modal is unchanged
// whether or not the write succeeds.
func (m *Machine) CopyLink(ctx context.Context) error {
	m.mu.Lock()
	if m.call == nil {
		m.mu.Unlock()
		m.record("copy_link", ErrInvalidState)
		return ErrInvalidState
	}
	link := m.meetingLinkLocked()
	modal := m.modal
	m.mu.Unlock()

	if m.deps.Clipboard == nil {
		m.deps.Notifier.Notify(noticeCopyFailed)
		m.record("copy_link", ErrClipboard)
		return fmt.Errorf("%w: no clipboard", ErrClipboard)
	}
	if err := m.deps.Clipboard.WriteText(ctx, link); err != nil {
		m.deps.Notifier.Notify(noticeCopyFailed)
		m.record("copy_link", ErrClipboard)
		return fmt.Errorf("%w: %w", ErrClipboard, err)
	}
	if modal == ModalSchedule {
		m.deps.Notifier.Notify(noticeScheduledCopied)
	} else {
		m.deps.Notifier.Notify(noticeInstantCopied)
	}
	m.record("copy_link", nil)
	return nil
}

// ReportClipboardFailure records a clipboard write that failed after the
// link was handed to the browser.
func (m *Machine) ReportClipboardFailure() {
	m.deps.Notifier.Notify(noticeCopyFailed)
	m.record("copy_link", ErrClipboard)
}

// StartMeeting enters the room of the created call and closes the modal.
func (m *Machine) StartMeeting() error {
	m.mu.Lock()
	if m.call == nil {
		m.mu.Unlock()
		m.record("start", ErrInvalidState)
		return ErrInvalidState
	}
	path := meetingPath(m.call.ID())
	m.resetLocked()
	m.modal = ModalNone
	m.mu.Unlock()

	m.deps.Navigator.Navigate(path)
	m.record("start", nil)
	return nil
}

// MeetingLink is empty until a call exists.
func (m *Machine) MeetingLink() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.meetingLinkLocked()
}

func (m *Machine) meetingLinkLocked() string {
	if m.call == nil {
		return ""
	}
	return m.opts.BaseURL + meetingPath(m.call.ID())
}

func meetingPath(id string) string {
	return "/meeting/" + id
}

func (m *Machine) record(action string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = Code(err)
	}
	metrics.Default().MeetingActions.WithLabelValues(action, outcome).Inc()
}
