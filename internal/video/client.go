// Package video wraps the hosted video SDK. Calls are created and owned by the
// provider; this package only asks for them and attaches metadata.
package video

import (
	"context"
	"errors"
	"time"
)

// ErrNoCall is returned when the provider does not hand back a call object
// for the requested identifier.
var ErrNoCall = errors.New("video provider returned no call")

const DefaultCallType = "default"

type Metadata struct {
	StartsAt    time.Time
	Description string
	CreatedBy   string
}

type Call interface {
	ID() string
	// Finalize submits the call's start time and description.
	Finalize(ctx context.Context, md Metadata) error
}

type Client interface {
	// CreateOrGetCall creates the call on the provider, or fetches it when it
	// already exists.
	CreateOrGetCall(ctx context.Context, callType, id, createdBy string) (Call, error)
}
