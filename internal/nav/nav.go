// Package nav describes the dashboard navigation and decides which sidebar
// entry is highlighted for the current path.
package nav

import "strings"

type Link struct {
	Label  string
	Route  string
	Icon   string
	Active bool
}

var SidebarLinks = []Link{
	{Label: "Home", Route: "/", Icon: "/static/icons/Home.svg"},
	{Label: "Upcoming", Route: "/upcoming", Icon: "/static/icons/upcoming.svg"},
	{Label: "Previous", Route: "/previous", Icon: "/static/icons/previous.svg"},
	{Label: "Recordings", Route: "/recordings", Icon: "/static/icons/Video.svg"},
	{Label: "Personal Room", Route: "/personal-room", Icon: "/static/icons/add-personal.svg"},
}

// IsActive reports whether route should be highlighted while current is shown.
// A nested path only matches when a separator follows the route, so
// /recordings-archive does not light up /recordings.
func IsActive(current, route string) bool {
	return current == route || strings.HasPrefix(current, route+"/")
}

// Items returns a copy of the sidebar links with Active set for current.
func Items(current string) []Link {
	out := make([]Link, len(SidebarLinks))
	for i, l := range SidebarLinks {
		l.Active = IsActive(current, l.Route)
		out[i] = l
	}
	return out
}

// Title returns the label of the first active link, or "" when none matches.
func Title(current string) string {
	for _, l := range SidebarLinks {
		if IsActive(current, l.Route) {
			return l.Label
		}
	}
	return ""
}
