package store

import (
	"context"
	"sync"

	"github.com/yoomapp/yoom-web/internal/model"
)

// Outbox collects the side effects a meeting machine asks for. The web
// transport drains it into the next response and the browser carries out
// clipboard writes and navigations.
type Outbox struct {
	mu         sync.Mutex
	notices    []model.Notice
	clipboard  string
	navigateTo string
}

// Effects is one drained batch.
type Effects struct {
	Notices    []model.Notice `json:"notices"`
	Clipboard  string         `json:"clipboard,omitempty"`
	NavigateTo string         `json:"navigate_to,omitempty"`
}

func (o *Outbox) Notify(n model.Notice) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.notices = append(o.notices, n)
}

// WriteText stages text for the browser clipboard. A failed browser write is
// reported back separately.
func (o *Outbox) WriteText(_ context.Context, text string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.clipboard = text
	return nil
}

func (o *Outbox) Navigate(path string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.navigateTo = path
}

// TakeNavigation returns and clears the staged navigation, leaving notices
// and clipboard text for the page rendered at the destination.
func (o *Outbox) TakeNavigation() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	path := o.navigateTo
	o.navigateTo = ""
	return path
}

func (o *Outbox) Drain() Effects {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := Effects{
		Notices:    o.notices,
		Clipboard:  o.clipboard,
		NavigateTo: o.navigateTo,
	}
	if out.Notices == nil {
		out.Notices = []model.Notice{}
	}
	o.notices = nil
	o.clipboard = ""
	o.navigateTo = ""
	return out
}
