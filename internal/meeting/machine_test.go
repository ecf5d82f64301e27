package meeting

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoomapp/yoom-web/internal/metrics"
	"github.com/yoomapp/yoom-web/internal/model"
	"github.com/yoomapp/yoom-web/internal/video"
)

type mockCall struct {
	id         string
	finalizeFn func(ctx context.Context, md video.Metadata) error
	finalized  []video.Metadata
}

func (c *mockCall) ID() string { return c.id }

func (c *mockCall) Finalize(ctx context.Context, md video.Metadata) error {
	c.finalized = append(c.finalized, md)
	if c.finalizeFn != nil {
		return c.finalizeFn(ctx, md)
	}
	return nil
}

type mockVideo struct {
	mu       sync.Mutex
	createFn func(ctx context.Context, callType, id, createdBy string) (video.Call, error)
	created  []string
	calls    []*mockCall
}

func (v *mockVideo) CreateOrGetCall(ctx context.Context, callType, id, createdBy string) (video.Call, error) {
	v.mu.Lock()
	v.created = append(v.created, id)
	v.mu.Unlock()
	if v.createFn != nil {
		return v.createFn(ctx, callType, id, createdBy)
	}
	c := &mockCall{id: id}
	v.mu.Lock()
	v.calls = append(v.calls, c)
	v.mu.Unlock()
	return c, nil
}

func (v *mockVideo) createCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.created)
}

type recorder struct {
	mu          sync.Mutex
	notices     []model.Notice
	navigations []string
	clipboard   []string
	clipErr     error
}

func (r *recorder) Notify(n model.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *recorder) Navigate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.navigations = append(r.navigations, path)
}

func (r *recorder) WriteText(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.clipErr != nil {
		return r.clipErr
	}
	r.clipboard = append(r.clipboard, text)
	return nil
}

func (r *recorder) titles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.notices))
	for _, n := range r.notices {
		out = append(out, n.Title)
	}
	return out
}

var fixedNow = time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)

func newTestMachine(t *testing.T, v video.Client, opts Options) (*Machine, *recorder) {
	t.Helper()
	metrics.ResetDefaultForTest()
	rec := &recorder{}
	user := &model.User{ID: "user_1", Name: "Ada"}
	n := 0
	m := NewMachine(Deps{
		Video:     v,
		User:      user,
		Notifier:  rec,
		Clipboard: rec,
		Navigator: rec,
		NewID: func() string {
			n++
			return fmt.Sprintf("call-%d", n)
		},
		Now:    func() time.Time { return fixedNow },
		Logger: zerolog.Nop(),
	}, opts)
	return m, rec
}

func TestNewMachineStartsIdleWithNow(t *testing.T) {
	m, _ := newTestMachine(t, &mockVideo{}, Options{})
	assert.Equal(t, ModalNone, m.Modal())
	d := m.Draft()
	require.NotNil(t, d.StartTime)
	assert.True(t, d.StartTime.Equal(fixedNow))
	assert.Empty(t, d.Description)
	assert.Empty(t, d.JoinLink)
}

func TestScheduleWithoutStartTimeIsValidationError(t *testing.T) {
	v := &mockVideo{}
	m, rec := newTestMachine(t, v, Options{})

	m.Open(ModalSchedule)
	m.SetStartTime(nil)
	err := m.Confirm(context.Background())

	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, ModalSchedule, m.Modal())
	assert.Zero(t, v.createCount())
	assert.Equal(t, []string{"Please select a date and time"}, rec.titles())
	assert.False(t, m.View().Created)
}

func TestInstantMeetingShowsConfirmation(t *testing.T) {
	v := &mockVideo{}
	m, rec := newTestMachine(t, v, Options{BaseURL: "https://yoom.test/"})

	m.Open(ModalInstant)
	require.NoError(t, m.Confirm(context.Background()))

	require.Equal(t, []string{"call-1"}, v.created)
	require.Len(t, v.calls, 1)
	require.Len(t, v.calls[0].finalized, 1)
	md := v.calls[0].finalized[0]
	assert.Equal(t, DefaultDescription, md.Description)
	assert.True(t, md.StartsAt.Equal(fixedNow))
	assert.Equal(t, "user_1", md.CreatedBy)

	view := m.View()
	assert.Equal(t, ModalInstant, view.Modal)
	assert.True(t, view.Created)
	assert.Equal(t, "Meeting Ready!", view.Title)
	assert.Equal(t, "https://yoom.test/meeting/call-1", view.MeetingLink)
	assert.Equal(t, []string{"Meeting Created"}, rec.titles())
	assert.Empty(t, rec.navigations)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Default().MeetingCreations.WithLabelValues("instant", "ok")))
}

func TestInstantMeetingAutoJoinPolicy(t *testing.T) {
	v := &mockVideo{}
	m, rec := newTestMachine(t, v, Options{AutoJoinInstantMeetingWithoutDescription: true})

	m.Open(ModalInstant)
	require.NoError(t, m.Confirm(context.Background()))

	assert.Equal(t, []string{"/meeting/call-1"}, rec.navigations)
	assert.Equal(t, ModalNone, m.Modal())
	assert.Equal(t, DefaultDescription, v.calls[0].finalized[0].Description)
}

func TestInstantMeetingAutoJoinSkippedWithDescription(t *testing.T) {
	v := &mockVideo{}
	m, rec := newTestMachine(t, v, Options{AutoJoinInstantMeetingWithoutDescription: true})

	m.SetDescription("Retro")
	m.Open(ModalInstant)
	require.NoError(t, m.Confirm(context.Background()))

	assert.Empty(t, rec.navigations)
	assert.Equal(t, ModalInstant, m.Modal())
	assert.Equal(t, "Retro", v.calls[0].finalized[0].Description)
}

func TestScheduleMeetingCreatedThenCopy(t *testing.T) {
	v := &mockVideo{}
	m, rec := newTestMachine(t, v, Options{BaseURL: "https://yoom.test"})
	start := time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC)

	m.Open(ModalSchedule)
	m.SetDescription("Planning")
	m.SetStartTime(&start)
	require.NoError(t, m.Confirm(context.Background()))

	view := m.View()
	assert.Equal(t, "Meeting Created", view.Title)
	assert.Equal(t, "Copy Meeting Link", view.ButtonText)
	assert.Equal(t, "2024-06-01T15:00:00.000Z", view.StartsAt())
	assert.True(t, v.calls[0].finalized[0].StartsAt.Equal(start))

	// The confirm button now copies the link.
	require.NoError(t, m.Confirm(context.Background()))
	assert.Equal(t, []string{"https://yoom.test/meeting/call-1"}, rec.clipboard)
	assert.Equal(t, []string{"Meeting Created", "📅 Scheduled Meeting Link Copied!"}, rec.titles())
	assert.Equal(t, ModalSchedule, m.Modal())
	assert.Equal(t, 1, v.createCount())
}

func TestCreateFailureLeavesStateUnchanged(t *testing.T) {
	tests := []struct {
		name    string
		video   *mockVideo
		wantErr error
	}{
		{
			name: "create throws",
			video: &mockVideo{createFn: func(context.Context, string, string, string) (video.Call, error) {
				return nil, errors.New("network down")
			}},
			wantErr: ErrSDKRequest,
		},
		{
			name: "no call object",
			video: &mockVideo{createFn: func(context.Context, string, string, string) (video.Call, error) {
				return nil, video.ErrNoCall
			}},
			wantErr: ErrCallCreation,
		},
		{
			name: "nil call",
			video: &mockVideo{createFn: func(context.Context, string, string, string) (video.Call, error) {
				return nil, nil
			}},
			wantErr: ErrCallCreation,
		},
		{
			name: "finalize throws",
			video: &mockVideo{createFn: func(_ context.Context, _, id, _ string) (video.Call, error) {
				return &mockCall{id: id, finalizeFn: func(context.Context, video.Metadata) error {
					return errors.New("forbidden")
				}}, nil
			}},
			wantErr: ErrSDKRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, rec := newTestMachine(t, tt.video, Options{})
			m.Open(ModalInstant)

			err := m.Confirm(context.Background())

			require.ErrorIs(t, err, tt.wantErr)
			view := m.View()
			assert.Equal(t, ModalInstant, view.Modal)
			assert.False(t, view.Created)
			assert.False(t, view.Creating)
			assert.Empty(t, view.MeetingLink)
			assert.Equal(t, []string{"Failed to create Meeting"}, rec.titles())
		})
	}
}

func TestCreateIsNoopWithoutClientOrUser(t *testing.T) {
	rec := &recorder{}
	m := NewMachine(Deps{Notifier: rec, Navigator: rec, Logger: zerolog.Nop()}, Options{})
	m.Open(ModalInstant)
	require.NoError(t, m.Confirm(context.Background()))
	assert.Empty(t, rec.notices)
	assert.False(t, m.View().Created)

	v := &mockVideo{}
	m = NewMachine(Deps{Video: v, Notifier: rec, Logger: zerolog.Nop()}, Options{})
	m.Open(ModalSchedule)
	require.NoError(t, m.Confirm(context.Background()))
	assert.Zero(t, v.createCount())
}

func TestDismissKeepsSharedDraft(t *testing.T) {
	m, _ := newTestMachine(t, &mockVideo{}, Options{})
	start := fixedNow.Add(2 * time.Hour)

	m.Open(ModalSchedule)
	m.SetDescription("Design review")
	m.SetStartTime(&start)
	m.Dismiss()
	m.Open(ModalInstant)

	d := m.Draft()
	assert.Equal(t, "Design review", d.Description)
	require.NotNil(t, d.StartTime)
	assert.True(t, d.StartTime.Equal(start))
}

func TestDismissResetsJoinLink(t *testing.T) {
	m, _ := newTestMachine(t, &mockVideo{}, Options{})

	m.Open(ModalJoin)
	m.SetJoinLink("https://yoom.test/meeting/xyz")
	m.Dismiss()
	m.Open(ModalJoin)

	assert.Empty(t, m.Draft().JoinLink)
	assert.Equal(t, ModalJoin, m.Modal())
}

func TestDismissClearsCreatedCall(t *testing.T) {
	m, _ := newTestMachine(t, &mockVideo{}, Options{})
	m.Open(ModalInstant)
	require.NoError(t, m.Confirm(context.Background()))
	require.True(t, m.View().Created)

	m.Dismiss()
	m.Open(ModalInstant)

	view := m.View()
	assert.False(t, view.Created)
	assert.Equal(t, "Start an Instant Meeting", view.Title)
}

func TestOpenReplacesOtherModal(t *testing.T) {
	m, _ := newTestMachine(t, &mockVideo{}, Options{})
	m.Open(ModalJoin)
	m.Open(ModalSchedule)
	assert.Equal(t, ModalSchedule, m.Modal())
	m.Open(ModalNone)
	assert.Equal(t, ModalNone, m.Modal())
}

func TestJoin(t *testing.T) {
	m, rec := newTestMachine(t, &mockVideo{}, Options{})

	m.Open(ModalJoin)
	err := m.Confirm(context.Background())
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, ModalJoin, m.Modal())
	assert.Equal(t, []string{"Please enter a meeting link"}, rec.titles())

	m.SetJoinLink(" /meeting/abc ")
	require.NoError(t, m.Confirm(context.Background()))
	assert.Equal(t, []string{"/meeting/abc"}, rec.navigations)
	assert.Equal(t, ModalNone, m.Modal())
}

func TestJoinLinkWithoutSchemeIsRootRelative(t *testing.T) {
	tests := []struct {
		link string
		want string
	}{
		{link: "meeting/xyz", want: "/meeting/xyz"},
		{link: "/meeting/xyz", want: "/meeting/xyz"},
		{link: "https://yoom.test/meeting/xyz", want: "https://yoom.test/meeting/xyz"},
		{link: "yoom.test/meeting/xyz", want: "/yoom.test/meeting/xyz"},
	}
	for _, tt := range tests {
		t.Run(tt.link, func(t *testing.T) {
			m, rec := newTestMachine(t, &mockVideo{}, Options{})
			m.Open(ModalJoin)
			m.SetJoinLink(tt.link)
			require.NoError(t, m.Confirm(context.Background()))
			assert.Equal(t, []string{tt.want}, rec.navigations)
		})
	}
}

func TestConfirmWhileIdle(t *testing.T) {
	v := &mockVideo{}
	m, rec := newTestMachine(t, v, Options{})
	require.ErrorIs(t, m.Confirm(context.Background()), ErrInvalidState)
	assert.Zero(t, v.createCount())
	assert.Empty(t, rec.notices)
}

func TestCopyLink(t *testing.T) {
	m, rec := newTestMachine(t, &mockVideo{}, Options{BaseURL: "https://yoom.test"})
	require.ErrorIs(t, m.CopyLink(context.Background()), ErrInvalidState)

	m.Open(ModalInstant)
	require.NoError(t, m.Confirm(context.Background()))
	require.NoError(t, m.CopyLink(context.Background()))
	assert.Equal(t, []string{"https://yoom.test/meeting/call-1"}, rec.clipboard)
	assert.Equal(t, "🎉 Meeting Link Copied!", rec.titles()[1])

	rec.clipErr = errors.New("denied")
	err := m.CopyLink(context.Background())
	require.ErrorIs(t, err, ErrClipboard)
	last := rec.notices[len(rec.notices)-1]
	assert.Equal(t, "❌ Copy Failed", last.Title)
	assert.Equal(t, model.NoticeDestructive, last.Variant)
	assert.Equal(t, ModalInstant, m.Modal())
	assert.True(t, m.View().Created)
}

func TestReportClipboardFailure(t *testing.T) {
	m, rec := newTestMachine(t, &mockVideo{}, Options{})
	m.ReportClipboardFailure()
	assert.Equal(t, []string{"❌ Copy Failed"}, rec.titles())
}

func TestStartMeeting(t *testing.T) {
	m, rec := newTestMachine(t, &mockVideo{}, Options{})
	require.ErrorIs(t, m.StartMeeting(), ErrInvalidState)

	m.Open(ModalInstant)
	require.NoError(t, m.Confirm(context.Background()))
	require.NoError(t, m.Confirm(context.Background()))

	assert.Equal(t, []string{"/meeting/call-1"}, rec.navigations)
	assert.Equal(t, ModalNone, m.Modal())
	assert.Empty(t, m.MeetingLink())
}

func TestConfirmWhileCreatingIsRejected(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	v := &mockVideo{createFn: func(_ context.Context, _, id, _ string) (video.Call, error) {
		close(entered)
		<-release
		return &mockCall{id: id}, nil
	}}
	m, _ := newTestMachine(t, v, Options{})
	m.Open(ModalInstant)

	done := make(chan error, 1)
	go func() { done <- m.Confirm(context.Background()) }()
	<-entered

	assert.True(t, m.View().Creating)
	require.ErrorIs(t, m.Confirm(context.Background()), ErrCreationInFlight)
	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, 1, v.createCount())
	assert.True(t, m.View().Created)
}

func TestStaleCreationResultIsDiscarded(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	v := &mockVideo{createFn: func(_ context.Context, _, id, _ string) (video.Call, error) {
		close(entered)
		<-release
		return &mockCall{id: id}, nil
	}}
	m, rec := newTestMachine(t, v, Options{})
	m.Open(ModalSchedule)

	done := make(chan error, 1)
	go func() { done <- m.Confirm(context.Background()) }()
	<-entered
	m.Dismiss()
	close(release)
	require.NoError(t, <-done)

	view := m.View()
	assert.Equal(t, ModalNone, view.Modal)
	assert.False(t, view.Created)
	assert.Empty(t, rec.notices)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Default().MeetingCreations.WithLabelValues("schedule", "stale")))
}

func TestEachCreationUsesFreshID(t *testing.T) {
	v := &mockVideo{}
	m, _ := newTestMachine(t, v, Options{})
	for i := 0; i < 3; i++ {
		m.Open(ModalInstant)
		require.NoError(t, m.Confirm(context.Background()))
		m.Dismiss()
	}
	assert.Equal(t, []string{"call-1", "call-2", "call-3"}, v.created)
}

func TestDefaultIDGeneratorIsUnique(t *testing.T) {
	const draws = 20000
	seen := make(map[string]struct{}, draws)
	for i := 0; i < draws; i++ {
		id := uuid.NewString()
		_, dup := seen[id]
		require.False(t, dup, "duplicate id after %d draws", i)
		seen[id] = struct{}{}
	}
}

func TestDefaultIDIsValidCallID(t *testing.T) {
	f := video.NewFakeClient()
	m := NewMachine(Deps{Video: f, User: &model.User{ID: "u"}, Logger: zerolog.Nop()}, Options{})
	m.Open(ModalInstant)
	require.NoError(t, m.Confirm(context.Background()))
	id := m.View().CallID
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	_, ok := f.Lookup(video.DefaultCallType, id)
	assert.True(t, ok)
}

func TestParseModal(t *testing.T) {
	for _, m := range []Modal{ModalNone, ModalInstant, ModalJoin, ModalSchedule} {
		got, err := ParseModal(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	got, err := ParseModal("")
	require.NoError(t, err)
	assert.Equal(t, ModalNone, got)
	_, err = ParseModal("party")
	require.ErrorIs(t, err, ErrValidation)
}

func TestCode(t *testing.T) {
	assert.Equal(t, "", Code(nil))
	assert.Equal(t, "validation", Code(fmt.Errorf("wrap: %w", ErrValidation)))
	assert.Equal(t, "sdk_request", Code(ErrSDKRequest))
	assert.Equal(t, "internal", Code(errors.New("x")))
}
