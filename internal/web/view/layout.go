// Package view renders the dashboard pages.
package view

import (
	"strconv"

	"github.com/a-h/templ"

	"github.com/yoomapp/yoom-web/internal/model"
	"github.com/yoomapp/yoom-web/internal/nav"
)

type Page struct {
	Title       string
	CurrentPath string
	// User is nil when nobody is signed in.
	User    *model.User
	Notices []model.Notice
	// Clipboard is text the browser should copy on load.
	Clipboard string
}

const clipboardScript = `document.querySelectorAll("[data-clipboard]").forEach(function (el) {
  if (!navigator.clipboard) { fail(); return; }
  navigator.clipboard.writeText(el.dataset.clipboard).catch(fail);
  function fail() {
    fetch("/dashboard/clipboard-failed", {method: "POST", credentials: "same-origin", redirect: "manual"})
      .then(function () { location.reload(); });
  }
});
document.querySelectorAll(".toast").forEach(function (el) {
  setTimeout(function () { el.remove(); }, Number(el.dataset.duration || 5000));
});`

// Layout wraps content in the dashboard chrome: navbar, sidebar and toasts.
func Layout(p Page, content templ.Component) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>`)
		if p.Title != "" {
			h.text(p.Title + " | YOOM")
		} else {
			h.text("YOOM")
		}
		h.raw(`</title><link rel="icon" href="/static/icons/logo.svg"><link rel="stylesheet" href="/static/app.css"></head>`)
		h.raw(`<body class="bg-dark-2"><main class="relative">`)
		h.component(Navbar(p.User))
		h.raw(`<div class="flex">`)
		h.component(Sidebar(p.CurrentPath))
		h.raw(`<section class="flex min-h-screen flex-1 flex-col px-6 pb-6 pt-28 max-md:pb-14 sm:px-14"><div class="w-full">`)
		h.component(content)
		h.raw(`</div></section></div></main>`)
		h.component(Toasts(p.Notices))
		if p.Clipboard != "" {
			h.raw(`<span hidden`)
			h.attr("data-clipboard", p.Clipboard)
			h.raw(`></span>`)
		}
		h.raw(`<script>`, clipboardScript, `</script></body></html>`)
	})
}

// Navbar shows the brand and, only for a signed-in user, the user menu.
func Navbar(user *model.User) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<nav class="flex-between fixed z-50 w-full bg-dark-1 px-6 py-4 lg:px-10">`)
		h.raw(`<a href="/" class="flex items-center gap-1"><img src="/static/icons/logo.svg" width="32" height="32" alt="yoom logo">`)
		h.raw(`<p class="text-[26px] font-extrabold text-white max-sm:hidden">YOOM</p></a>`)
		h.raw(`<div class="flex-between gap-5">`)
		if user != nil {
			h.raw(`<details class="user-menu"><summary class="user-avatar"`)
			h.attr("title", user.DisplayName())
			h.raw(`>`)
			if user.ImageURL != "" {
				h.raw(`<img width="32" height="32" alt=""`)
				h.attr("src", user.ImageURL)
				h.raw(`>`)
			} else {
				h.text(user.Initial())
			}
			h.raw(`</summary><div class="user-menu-panel"><p>`)
			h.text(user.DisplayName())
			h.raw(`</p><form method="post" action="/sign-out"><button type="submit">Sign out</button></form></div></details>`)
		}
		h.raw(`</div></nav>`)
	})
}

func Sidebar(current string) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<section class="sticky left-0 top-0 flex h-screen w-fit flex-col justify-between bg-dark-1 p-6 pt-28 text-white max-sm:hidden lg:w-[264px]">`)
		h.raw(`<div class="flex flex-1 flex-col gap-6">`)
		for _, link := range nav.Items(current) {
			class := "flex gap-4 items-center p-4 rounded-lg justify-start"
			if link.Active {
				class += " bg-blue-1"
			}
			h.raw(`<a`)
			h.attr("href", link.Route)
			h.attr("class", class)
			if link.Active {
				h.raw(` aria-current="page"`)
			}
			h.raw(`><img width="24" height="24"`)
			h.attr("src", link.Icon)
			h.attr("alt", link.Label)
			h.raw(`><p class="text-lg font-semibold max-lg:hidden">`)
			h.text(link.Label)
			h.raw(`</p></a>`)
		}
		h.raw(`</div></section>`)
	})
}

func Toasts(notices []model.Notice) templ.Component {
	return component(func(h *htmlWriter) {
		if len(notices) == 0 {
			return
		}
		h.raw(`<ol class="toasts" role="status">`)
		for _, n := range notices {
			h.raw(`<li`)
			h.attr("class", "toast toast-"+string(n.Variant))
			if ms := n.DurationMillis(); ms > 0 {
				h.attr("data-duration", strconv.FormatInt(ms, 10))
			}
			h.raw(`><p class="toast-title">`)
			h.text(n.Title)
			h.raw(`</p>`)
			if n.Description != "" {
				h.raw(`<p class="toast-description">`)
				h.text(n.Description)
				h.raw(`</p>`)
			}
			h.raw(`</li>`)
		}
		h.raw(`</ol>`)
	})
}
