package view

import (
	"time"

	"github.com/a-h/templ"

	"github.com/yoomapp/yoom-web/internal/meeting"
)

const dateTimeLocal = "2006-01-02T15:04"

type homeCard struct {
	Icon        string
	Title       string
	Description string
	Class       string
	Modal       meeting.Modal
	Href        string
}

var homeCards = []homeCard{
	{Icon: "/static/icons/add-meeting.svg", Title: "New Meeting", Description: "Start an instant meeting", Class: "bg-orange-1", Modal: meeting.ModalInstant},
	{Icon: "/static/icons/join-meeting.svg", Title: "Join Meeting", Description: "via invitation link", Class: "bg-blue-1", Modal: meeting.ModalJoin},
	{Icon: "/static/icons/schedule.svg", Title: "Schedule Meeting", Description: "Plan your meeting", Class: "bg-purple-1", Modal: meeting.ModalSchedule},
	{Icon: "/static/icons/recordings.svg", Title: "View Recordings", Description: "Meeting Recordings", Class: "bg-yellow-1", Href: "/recordings"},
}

// Home is the dashboard landing page: a clock banner, the meeting cards and
// whichever modal is open.
func Home(v meeting.View, now time.Time) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<section class="flex size-full flex-col gap-10 text-white">`)
		h.raw(`<div class="h-[300px] w-full rounded-[20px] bg-hero bg-cover"><div class="flex h-full flex-col justify-between max-md:px-5 max-md:py-8 lg:p-11">`)
		h.raw(`<div class="flex flex-col gap-2"><h1 class="text-4xl font-extrabold lg:text-7xl">`)
		h.text(now.Format("3:04 PM"))
		h.raw(`</h1><p class="text-lg font-medium text-sky-1 lg:text-2xl">`)
		h.text(now.Format("Monday, January 2, 2006"))
		h.raw(`</p></div></div></div>`)
		h.component(MeetingTypeList(v))
		h.raw(`</section>`)
	})
}

func MeetingTypeList(v meeting.View) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<section class="grid grid-cols-1 gap-5 md:grid-cols-2 xl:grid-cols-4">`)
		for _, c := range homeCards {
			if c.Href != "" {
				h.raw(`<a`)
				h.attr("href", c.Href)
				h.attr("class", "home-card "+c.Class)
				h.raw(`>`)
				writeCardBody(h, c)
				h.raw(`</a>`)
				continue
			}
			h.raw(`<form method="post" action="/dashboard/open"><input type="hidden" name="modal"`)
			h.attr("value", c.Modal.String())
			h.raw(`><button type="submit"`)
			h.attr("class", "home-card "+c.Class)
			h.raw(`>`)
			writeCardBody(h, c)
			h.raw(`</button></form>`)
		}
		h.raw(`</section>`)
		h.component(Modal(v))
	})
}

func writeCardBody(h *htmlWriter, c homeCard) {
	h.raw(`<div class="flex-center glassmorphism size-12 rounded-[10px]"><img width="27" height="27" alt="meeting"`)
	h.attr("src", c.Icon)
	h.raw(`></div><div class="flex flex-col gap-2"><h2 class="text-2xl font-bold">`)
	h.text(c.Title)
	h.raw(`</h2><p class="text-lg font-normal">`)
	h.text(c.Description)
	h.raw(`</p></div>`)
}

// Modal renders the open meeting modal, or nothing when idle.
func Modal(v meeting.View) templ.Component {
	return component(func(h *htmlWriter) {
		if v.Modal == meeting.ModalNone {
			return
		}
		h.raw(`<dialog open class="meeting-modal"`)
		h.attr("data-modal", v.Modal.String())
		h.raw(`><div class="flex flex-col gap-6">`)
		if v.Created {
			h.raw(`<div class="flex justify-center"><img src="/static/icons/checked.svg" alt="checked" width="72" height="72"></div>`)
		}
		h.raw(`<h1 class="text-3xl font-bold leading-[42px]">`)
		h.text(v.Title)
		h.raw(`</h1>`)
		if v.Body != "" {
			h.raw(`<p class="text-sm text-gray-300">`)
			h.text(v.Body)
			h.raw(`</p>`)
		}

		switch {
		case v.Modal == meeting.ModalSchedule && !v.Created:
			writeScheduleForm(h, v)
		case v.Modal == meeting.ModalJoin:
			writeJoinForm(h, v)
		case v.Modal == meeting.ModalInstant && v.Created:
			writeCreatedInstantActions(h, v)
		default:
			writeConfirm(h, v, "")
		}
		if v.Created && v.CallID != "" {
			h.raw(`<a class="invite-link" href="/api/v1/dashboard/invite.ics">Add to calendar</a>`)
		}

		h.raw(`<form method="post" action="/dashboard/dismiss"><button type="submit" class="modal-close" aria-label="Close">Close</button></form>`)
		h.raw(`</div></dialog>`)
	})
}

func writeConfirm(h *htmlWriter, v meeting.View, fields string) {
	h.raw(`<form method="post" action="/dashboard/confirm" class="flex flex-col gap-4">`, fields)
	writeSubmit(h, v)
	h.raw(`</form>`)
}

func writeSubmit(h *htmlWriter, v meeting.View) {
	h.raw(`<button type="submit" class="bg-blue-1"`)
	if v.Creating {
		h.raw(` disabled`)
	}
	h.raw(`>`)
	if v.Modal == meeting.ModalSchedule && v.Created {
		h.raw(`<img src="/static/icons/copy.svg" alt="" width="13" height="13"> `)
	}
	h.text(v.ButtonText)
	h.raw(`</button>`)
}

func writeScheduleForm(h *htmlWriter, v meeting.View) {
	h.raw(`<form method="post" action="/dashboard/confirm" class="flex flex-col gap-4">`)
	h.raw(`<div class="flex flex-col gap-2.5"><label for="description" class="text-base text-sky-2">Add a description</label>`)
	h.raw(`<textarea id="description" name="description" class="bg-dark-3">`)
	h.text(v.Description)
	h.raw(`</textarea></div>`)
	h.raw(`<div class="flex w-full flex-col gap-2.5"><label for="start_time" class="text-base text-sky-2">Select Date and Time (UTC)</label>`)
	h.raw(`<input id="start_time" type="datetime-local" name="start_time" step="900" class="w-full rounded bg-dark-3 p-2"`)
	if v.StartTime != nil {
		h.attr("value", v.StartTime.UTC().Format(dateTimeLocal))
	}
	h.raw(`><input type="hidden" name="tz" value="UTC"></div>`)
	writeSubmit(h, v)
	h.raw(`</form>`)
}

func writeJoinForm(h *htmlWriter, v meeting.View) {
	h.raw(`<form method="post" action="/dashboard/confirm" class="flex flex-col gap-4">`)
	h.raw(`<input name="join_link" placeholder="Meeting link" class="bg-dark-3"`)
	h.attr("value", v.JoinLink)
	h.raw(`>`)
	writeSubmit(h, v)
	h.raw(`</form>`)
}

func writeCreatedInstantActions(h *htmlWriter, v meeting.View) {
	h.raw(`<div class="flex flex-col gap-3 sm:flex-row">`)
	h.raw(`<form method="post" action="/dashboard/copy"><button type="submit" class="bg-blue-1"><img src="/static/icons/copy.svg" alt="copy" width="16" height="16"> Copy Meeting Link</button></form>`)
	h.raw(`<form method="post" action="/dashboard/start"><button type="submit" class="bg-green-600"><img src="/static/icons/Video.svg" alt="start" width="16" height="16"> `)
	h.text(v.ButtonText)
	h.raw(`</button></form></div>`)
}
