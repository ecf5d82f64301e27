package meeting

import (
	"time"

	"github.com/yoomapp/yoom-web/internal/video"
)

// View is a render snapshot of the machine.
type View struct {
	Modal       Modal      `json:"modal"`
	Title       string     `json:"title,omitempty"`
	Body        string     `json:"body,omitempty"`
	ButtonText  string     `json:"button_text,omitempty"`
	Description string     `json:"description"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	JoinLink    string     `json:"join_link"`
	CallID      string     `json:"call_id,omitempty"`
	MeetingLink string     `json:"meeting_link,omitempty"`
	Creating    bool       `json:"creating"`
	Created     bool       `json:"created"`
}

// StartsAt is the start time in the provider's timestamp format.
func (v View) StartsAt() string {
	if v.StartTime == nil {
		return ""
	}
	return video.FormatStartsAt(*v.StartTime)
}

func (m *Machine) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.draftCopyLocked()
	v := View{
		Modal:       m.modal,
		Description: d.Description,
		StartTime:   d.StartTime,
		JoinLink:    d.JoinLink,
		MeetingLink: m.meetingLinkLocked(),
		Creating:    m.creating,
		Created:     m.call != nil,
	}
	if m.call != nil {
		v.CallID = m.call.ID()
	}
	switch {
	case m.modal == ModalSchedule && v.Created:
		v.Title, v.ButtonText = "Meeting Created", "Copy Meeting Link"
	case m.modal == ModalSchedule:
		v.Title, v.ButtonText = "Create Meeting", "Schedule Meeting"
	case m.modal == ModalInstant && v.Created:
		v.Title, v.ButtonText = "Meeting Ready!", "Start Meeting"
		v.Body = "Your meeting is ready. Copy the link to invite others, then start when ready."
	case m.modal == ModalInstant:
		v.Title, v.ButtonText = "Start an Instant Meeting", "Start Meeting"
	case m.modal == ModalJoin:
		v.Title, v.ButtonText = "Type the link here", "Join Meeting"
	}
	return v
}
