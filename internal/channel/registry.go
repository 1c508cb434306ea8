package channel

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrNoLiveChannel reports that the owner has no connected messaging
// channel to deliver through.
var ErrNoLiveChannel = errors.New("no live channel for owner")

// Sender pushes one outbound message through an owner's connected channel
// and returns the provider-side message id.
type Sender func(ctx context.Context, destination, text string) (string, error)

// Registry tracks which owners currently have a live outbound messaging
// channel. Owners register a sender when their channel connects and
// unregister it when the channel drops.
type Registry struct {
	mu          sync.RWMutex
	senders     map[string]Sender
	sendTimeout time.Duration
}

// NewRegistry constructs a registry. A non-positive timeout defaults to
// ten seconds per delivery attempt.
func NewRegistry(sendTimeout time.Duration) *Registry {
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}
	return &Registry{
		senders:     make(map[string]Sender),
		sendTimeout: sendTimeout,
	}
}

// Register installs the sender for ownerID, replacing any previous one.
// A nil sender is ignored.
func (r *Registry) Register(ownerID string, sender Sender) {
	if sender == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.senders[ownerID] = sender
}

// Unregister removes the owner's sender. Unregistering an absent owner is
// a no-op.
func (r *Registry) Unregister(ownerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.senders, ownerID)
}

// LiveOwnerIDs returns the owners with a registered sender in a stable
// sorted order.
func (r *Registry) LiveOwnerIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	owners := make([]string, 0, len(r.senders))
	for ownerID := range r.senders {
		owners = append(owners, ownerID)
	}
	sort.Strings(owners)
	return owners
}

// Send delivers through the owner's channel under a bounded per-attempt
// timeout. An owner without a live channel reports ErrNoLiveChannel.
func (r *Registry) Send(ctx context.Context, ownerID, destination, text string) (string, error) {
	r.mu.RLock()
	sender, ok := r.senders[ownerID]
	r.mu.RUnlock()
	if !ok {
		return "", ErrNoLiveChannel
	}

	sendCtx, cancel := context.WithTimeout(ctx, r.sendTimeout)
	defer cancel()
	return sender(sendCtx, destination, text)
}
