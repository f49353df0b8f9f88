// Package collection mirrors a store-owned collection on the client and
// applies mutations to the mirror only after the store confirms them.
package collection

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/ariefcatur/go-detailing-bookings/internal/search"
)

var ErrUnsupported = errors.New("operation not supported")

type Record interface {
	Key() string
}

// Patch is a partial update that knows how to merge itself into a record.
type Patch[T any] interface {
	Apply(T) T
}

// Remote is the store side of a collection. auth is the Authorization
// value to send, possibly empty.
type Remote[T any, D any, P any] interface {
	List(ctx context.Context, auth string) ([]T, error)
	Create(ctx context.Context, auth string, draft D) (T, error)
	Update(ctx context.Context, auth, id string, patch P) error
	Delete(ctx context.Context, auth, id string) error
}

type Authorizer interface {
	IsAuthorized() bool
	AuthHeader() string
}

type Access int

const (
	Unsupported Access = iota
	Public
	Gated
)

func (a Access) String() string {
	switch a {
	case Public:
		return "public"
	case Gated:
		return "gated"
	}
	return "unsupported"
}

// Policy says, per operation, whether it exists and whether it needs the
// operator credential.
type Policy struct {
	List, Create, Update, Delete Access
}

type validator interface{ Validate() error }

type refresher interface{ NeedsRefresh() bool }

type Collection[T Record, D any, P Patch[T]] struct {
	name   string
	remote Remote[T, D, P]
	gate   Authorizer
	policy Policy

	mu     sync.RWMutex
	items  []T
	loaded bool
}

func New[T Record, D any, P Patch[T]](name string, remote Remote[T, D, P], gate Authorizer, policy Policy) *Collection[T, D, P] {
	return &Collection[T, D, P]{name: name, remote: remote, gate: gate, policy: policy}
}

func (c *Collection[T, D, P]) Name() string { return c.name }

func (c *Collection[T, D, P]) Policy() Policy { return c.policy }

// Items returns a copy of the mirror.
func (c *Collection[T, D, P]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Loaded reports whether a refresh has succeeded at least once.
func (c *Collection[T, D, P]) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

func (c *Collection[T, D, P]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, it := range c.items {
		if it.Key() == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Search filters the current mirror; it never goes to the store.
func (c *Collection[T, D, P]) Search(query string, fields func(T) []string) []T {
	return search.Filter(c.Items(), query, fields)
}

// credential is the single capability check for every entry point.
func (c *Collection[T, D, P]) credential(op string, a Access) (string, error) {
	switch a {
	case Public:
		return "", nil
	case Gated:
		h := c.gate.AuthHeader()
		if h == "" {
			log.Printf("%s %s: no operator session, sending unauthenticated", c.name, op)
		}
		return h, nil
	}
	return "", fmt.Errorf("%s %s: %w", c.name, op, ErrUnsupported)
}

// mayList reports whether the current session could refresh at all.
func (c *Collection[T, D, P]) mayList() bool {
	switch c.policy.List {
	case Public:
		return true
	case Gated:
		return c.gate.IsAuthorized()
	}
	return false
}

// Refresh replaces the mirror with the store's full collection. On
// failure the mirror is left as it was.
func (c *Collection[T, D, P]) Refresh(ctx context.Context) ([]T, error) {
	auth, err := c.credential("refresh", c.policy.List)
	if err != nil {
		return nil, err
	}
	items, err := c.remote.List(ctx, auth)
	if err != nil {
		log.Printf("%s refresh: %v", c.name, err)
		return nil, fmt.Errorf("refresh %s: %w", c.name, err)
	}
	if items == nil {
		items = []T{}
	}
	c.mu.Lock()
	c.items = items
	c.loaded = true
	c.mu.Unlock()
	return c.Items(), nil
}

// Create submits draft. Nothing is inserted locally: the store assigns the
// id and derived fields, so the mirror is refreshed instead when this
// session is allowed to list the collection. A failed follow-up refresh is
// logged; the create itself still succeeded.
func (c *Collection[T, D, P]) Create(ctx context.Context, draft D) (T, error) {
	var zero T
	auth, err := c.credential("create", c.policy.Create)
	if err != nil {
		return zero, err
	}
	if v, ok := any(draft).(validator); ok {
		if err := v.Validate(); err != nil {
			return zero, fmt.Errorf("create %s: %w", c.name, err)
		}
	}
	created, err := c.remote.Create(ctx, auth, draft)
	if err != nil {
		log.Printf("%s create: %v", c.name, err)
		return zero, fmt.Errorf("create %s: %w", c.name, err)
	}
	if c.mayList() {
		if _, err := c.Refresh(ctx); err != nil {
			log.Printf("%s create: refresh after create: %v", c.name, err)
		}
	}
	return created, nil
}

// Update sends patch for id and, once confirmed, merges it into that one
// record. Patches whose result the client cannot compute trigger a
// refresh instead.
func (c *Collection[T, D, P]) Update(ctx context.Context, id string, patch P) error {
	auth, err := c.credential("update", c.policy.Update)
	if err != nil {
		return err
	}
	if v, ok := any(patch).(validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("update %s %s: %w", c.name, id, err)
		}
	}
	if err := c.remote.Update(ctx, auth, id, patch); err != nil {
		log.Printf("%s update %s: %v", c.name, id, err)
		return fmt.Errorf("update %s %s: %w", c.name, id, err)
	}
	if r, ok := any(patch).(refresher); ok && r.NeedsRefresh() && c.mayList() {
		if _, err := c.Refresh(ctx); err == nil {
			return nil
		}
		// fall through: at least merge what we know
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	next := make([]T, len(c.items))
	for i, it := range c.items {
		if it.Key() == id {
			it = patch.Apply(it)
		}
		next[i] = it
	}
	c.items = next
	return nil
}

// Remove deletes id at the store and then from the mirror.
func (c *Collection[T, D, P]) Remove(ctx context.Context, id string) error {
	auth, err := c.credential("delete", c.policy.Delete)
	if err != nil {
		return err
	}
	if err := c.remote.Delete(ctx, auth, id); err != nil {
		log.Printf("%s delete %s: %v", c.name, id, err)
		return fmt.Errorf("delete %s %s: %w", c.name, id, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	next := make([]T, 0, len(c.items))
	for _, it := range c.items {
		if it.Key() != id {
			next = append(next, it)
		}
	}
	c.items = next
	return nil
}

// Reset drops the mirror, e.g. when the session that could see it ends.
func (c *Collection[T, D, P]) Reset() {
	c.mu.Lock()
	c.items = nil
	c.loaded = false
	c.mu.Unlock()
}
