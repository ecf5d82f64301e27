// Package invite renders calendar invitations for created meetings.
package invite

import (
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"
)

const prodID = "-//yoom//meeting invite//EN"

type Invite struct {
	CallID      string
	Summary     string
	StartsAt    time.Time
	Duration    time.Duration
	MeetingLink string
	Organizer   string
	Stamp       time.Time
}

// Encode writes inv as a single-event iCalendar object.
func Encode(w io.Writer, inv Invite) error {
	if inv.CallID == "" {
		return fmt.Errorf("invite: call id is required")
	}
	if inv.StartsAt.IsZero() {
		return fmt.Errorf("invite: start time is required")
	}
	stamp := inv.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, inv.CallID+"@yoom")
	event.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, inv.StartsAt.UTC())
	if inv.Duration > 0 {
		event.Props.SetDateTime(ical.PropDateTimeEnd, inv.StartsAt.Add(inv.Duration).UTC())
	}
	event.Props.SetText(ical.PropSummary, inv.Summary)
	if inv.MeetingLink != "" {
		event.Props.SetText(ical.PropLocation, inv.MeetingLink)
		event.Props.SetText(ical.PropDescription, "Join: "+inv.MeetingLink)
		urlProp := ical.NewProp(ical.PropURL)
		urlProp.SetValueType(ical.ValueURI)
		urlProp.Value = inv.MeetingLink
		event.Props.Set(urlProp)
	}
	if inv.Organizer != "" {
		event.Props.SetText(ical.PropOrganizer, "mailto:"+inv.Organizer)
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, prodID)
	cal.Props.SetText(ical.PropMethod, "PUBLISH")
	cal.Children = append(cal.Children, event.Component)

	return ical.NewEncoder(w).Encode(cal)
}
