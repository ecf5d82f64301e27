package model

import "time"

// User is the identity attached to a request by the identity provider.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	if u.Email != "" {
		return u.Email
	}
	return u.ID
}

func (u User) Initial() string {
	name := u.DisplayName()
	for _, r := range name {
		return string(r)
	}
	return "?"
}

type NoticeVariant string

const (
	NoticeDefault     NoticeVariant = "default"
	NoticeDestructive NoticeVariant = "destructive"
)

// Notice is a transient toast shown to the user.
type Notice struct {
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Variant     NoticeVariant `json:"variant"`
	Duration    time.Duration `json:"-"`
}

func (n Notice) DurationMillis() int64 {
	return n.Duration.Milliseconds()
}
