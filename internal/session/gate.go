// Package session holds the operator credential and decides what it unlocks.
package session

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/ariefcatur/go-detailing-bookings/internal/state"
)

// Authenticator exchanges credentials for a bearer token.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// Gate answers "is this an operator session" from token presence alone.
// The store decides whether the token is still good; the gate never
// expires or clears it on its own.
type Gate struct {
	store state.Store
	key   string

	mu        sync.RWMutex
	token     string
	listeners []func(authorized bool)
}

// NewGate reads the stored token once. After that only Login and Logout
// change the answer.
func NewGate(ctx context.Context, store state.Store, profile string) (*Gate, error) {
	g := &Gate{store: store, key: state.AdminTokenKey(profile)}
	tok, ok, err := store.Get(ctx, g.key)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if ok {
		g.token = tok
	}
	return g, nil
}

func (g *Gate) IsAuthorized() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.token != ""
}

// AuthHeader is "Bearer <token>", or "" without a session. An empty value
// is still handed to gated calls so the store, not the client, refuses them.
func (g *Gate) AuthHeader() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.token == "" {
		return ""
	}
	return "Bearer " + g.token
}

func (g *Gate) Login(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("login: empty token")
	}
	if err := g.store.Set(ctx, g.key, token); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	g.set(token)
	return nil
}

func (g *Gate) Logout(ctx context.Context) error {
	if err := g.store.Delete(ctx, g.key); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	g.set("")
	return nil
}

// SignIn runs the login exchange and stores the resulting token.
func (g *Gate) SignIn(ctx context.Context, auth Authenticator, username, password string) error {
	tok, err := auth.Login(ctx, username, password)
	if err != nil {
		log.Printf("sign in failed: %v", err)
		return err
	}
	return g.Login(ctx, tok)
}

// Subscribe registers fn to run after every login and logout.
func (g *Gate) Subscribe(fn func(authorized bool)) {
	g.mu.Lock()
	g.listeners = append(g.listeners, fn)
	g.mu.Unlock()
}

func (g *Gate) set(token string) {
	g.mu.Lock()
	g.token = token
	ls := append([]func(bool){}, g.listeners...)
	g.mu.Unlock()
	for _, fn := range ls {
		fn(token != "")
	}
}
