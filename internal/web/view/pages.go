package view

import (
	"github.com/a-h/templ"

	"github.com/yoomapp/yoom-web/internal/video"
)

// Section is a titled dashboard page without its own widgets yet.
func Section(title, empty string) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<section class="flex size-full flex-col gap-10 text-white"><h1 class="text-3xl font-bold">`)
		h.text(title)
		h.raw(`</h1><p class="text-lg text-sky-2">`)
		h.text(empty)
		h.raw(`</p></section>`)
	})
}

// PersonalRoom shows the user's permanent meeting link.
func PersonalRoom(owner, link string) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<section class="flex size-full flex-col gap-10 text-white"><h1 class="text-xl font-bold lg:text-3xl">Personal Meeting Room</h1>`)
		h.raw(`<dl class="flex w-full flex-col gap-8 xl:max-w-[900px]">`)
		h.raw(`<dt>Topic:</dt><dd>`)
		h.text(owner + "'s Meeting Room")
		h.raw(`</dd><dt>Invite Link:</dt><dd class="truncate">`)
		h.text(link)
		h.raw(`</dd></dl><a class="bg-blue-1"`)
		h.attr("href", link)
		h.raw(`>Start Meeting</a></section>`)
	})
}

// MeetingRoom is the landing page for a call. md is nil when the call has no
// known metadata.
func MeetingRoom(id string, md *video.Metadata) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<section class="meeting-room flex size-full flex-col gap-6 text-white"`)
		h.attr("data-call-id", id)
		h.raw(`><h1 class="text-3xl font-bold">`)
		if md != nil && md.Description != "" {
			h.text(md.Description)
		} else {
			h.text("Meeting")
		}
		h.raw(`</h1>`)
		if md != nil && !md.StartsAt.IsZero() {
			h.raw(`<p class="text-sky-2">Starts at <time`)
			h.attr("datetime", video.FormatStartsAt(md.StartsAt))
			h.raw(`>`)
			h.text(md.StartsAt.UTC().Format("Jan 2, 2006 3:04 PM MST"))
			h.raw(`</time></p>`)
		}
		h.raw(`<p class="text-sm text-gray-300">Call ID: `)
		h.text(id)
		h.raw(`</p></section>`)
	})
}

type AuthPage struct {
	// Mode is "sign-in" or "sign-up".
	Mode string
	// ProviderURL is the hosted identity provider entry point.
	ProviderURL string
}

// Auth is the standalone sign-in or sign-up page.
func Auth(p AuthPage) templ.Component {
	return component(func(h *htmlWriter) {
		title := "Sign in"
		if p.Mode == "sign-up" {
			title = "Sign up"
		}
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>`)
		h.text(title + " | YOOM")
		h.raw(`</title><link rel="stylesheet" href="/static/app.css"></head>`)
		h.raw(`<body class="bg-dark-2"><main class="flex h-screen w-full items-center justify-center"><div class="auth-panel">`)
		h.raw(`<img src="/static/icons/logo.svg" width="48" height="48" alt="yoom logo"><h1>`)
		h.text(title)
		h.raw(`</h1>`)
		if p.ProviderURL != "" {
			h.raw(`<a class="bg-blue-1"`)
			h.attr("href", p.ProviderURL)
			h.raw(`>Continue</a>`)
		} else {
			h.raw(`<p>Sign-in is handled by the identity provider.</p>`)
		}
		h.raw(`</div></main></body></html>`)
	})
}
