package video

import (
	"context"
	"fmt"
	"sync"
)

// FakeClient keeps calls in memory. It backs local development and tests.
type FakeClient struct {
	mu    sync.Mutex
	calls map[string]*FakeCall
}

type FakeCall struct {
	client    *FakeClient
	id        string
	CallType  string
	CreatedBy string
	Metadata  Metadata
	Finalized bool
}

func NewFakeClient() *FakeClient {
	return &FakeClient{calls: make(map[string]*FakeCall)}
}

func (f *FakeClient) CreateOrGetCall(_ context.Context, callType, id, createdBy string) (Call, error) {
	if callType == "" {
		callType = DefaultCallType
	}
	if !callIDPattern.MatchString(id) {
		return nil, fmt.Errorf("%w: invalid call id %q", ErrNoCall, id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := callType + ":" + id
	if c, ok := f.calls[key]; ok {
		return c, nil
	}
	c := &FakeCall{client: f, id: id, CallType: callType, CreatedBy: createdBy}
	f.calls[key] = c
	return c, nil
}

// Lookup returns a snapshot of the call's metadata.
func (f *FakeClient) Lookup(callType, id string) (Metadata, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.calls[callType+":"+id]
	if !ok || !c.Finalized {
		return Metadata{}, false
	}
	return c.Metadata, true
}

func (f *FakeClient) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (c *FakeCall) ID() string { return c.id }

func (c *FakeCall) Finalize(_ context.Context, md Metadata) error {
	c.client.mu.Lock()
	defer c.client.mu.Unlock()
	c.Metadata = md
	c.Finalized = true
	return nil
}
