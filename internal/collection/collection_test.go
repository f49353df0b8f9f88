package collection

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID    string
	Name  string
	Color string
}

func (i item) Key() string { return i.ID }

type draft struct {
	Name string
}

func (d draft) Validate() error {
	if d.Name == "" {
		return errors.New("name required")
	}
	return nil
}

type patch struct {
	Color   *string
	refresh bool
}

func (p patch) Apply(i item) item {
	if p.Color != nil {
		i.Color = *p.Color
	}
	return i
}

func (p patch) NeedsRefresh() bool { return p.refresh }

type call struct {
	op, auth, id string
}

type stubRemote struct {
	mu      sync.Mutex
	items   []item
	next    int
	calls   []call
	failOps map[string]error
}

func (s *stubRemote) record(op, auth, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call{op, auth, id})
	return s.failOps[op]
}

func (s *stubRemote) List(_ context.Context, auth string) ([]item, error) {
	if err := s.record("list", auth, ""); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]item(nil), s.items...), nil
}

func (s *stubRemote) Create(_ context.Context, auth string, d draft) (item, error) {
	if err := s.record("create", auth, ""); err != nil {
		return item{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	it := item{ID: strconv.Itoa(100 + s.next), Name: d.Name, Color: "server-assigned"}
	s.items = append(s.items, it)
	return it, nil
}

func (s *stubRemote) Update(_ context.Context, auth, id string, p patch) error {
	if err := s.record("update", auth, id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i] = p.Apply(s.items[i])
			if p.refresh {
				s.items[i].Name += " (re-rendered)"
			}
		}
	}
	return nil
}

func (s *stubRemote) Delete(_ context.Context, auth, id string) error {
	return s.record("delete", auth, id)
}

func (s *stubRemote) lastCall() call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[len(s.calls)-1]
}

type gate struct{ token string }

func (g gate) IsAuthorized() bool { return g.token != "" }

func (g gate) AuthHeader() string {
	if g.token == "" {
		return ""
	}
	return "Bearer " + g.token
}

var adminPolicy = Policy{List: Public, Create: Gated, Update: Gated, Delete: Gated}

func seeded() *stubRemote {
	return &stubRemote{
		items: []item{
			{ID: "1", Name: "Mobile Wash", Color: "red"},
			{ID: "2", Name: "Interior Detail", Color: "blue"},
			{ID: "3", Name: "Polish", Color: "green"},
		},
		failOps: map[string]error{},
	}
}

func loaded(t *testing.T, r *stubRemote, g Authorizer, p Policy) *Collection[item, draft, patch] {
	t.Helper()
	c := New[item, draft, patch]("items", r, g, p)
	_, err := c.Refresh(context.Background())
	require.NoError(t, err)
	return c
}

func strp(s string) *string { return &s }

func TestRefreshReplacesMirror(t *testing.T) {
	r := seeded()
	c := New[item, draft, patch]("items", r, gate{}, adminPolicy)
	assert.False(t, c.Loaded())

	got, err := c.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.True(t, c.Loaded())

	r.items = r.items[:1]
	_, err = c.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []item{{ID: "1", Name: "Mobile Wash", Color: "red"}}, c.Items())
}

func TestRefreshFailureKeepsMirror(t *testing.T) {
	r := seeded()
	c := loaded(t, r, gate{}, adminPolicy)
	before := c.Items()

	r.failOps["list"] = errors.New("connection refused")
	_, err := c.Refresh(context.Background())
	assert.Error(t, err)
	assert.Equal(t, before, c.Items())
}

func TestUpdateMergesOnlyTarget(t *testing.T) {
	r := seeded()
	c := loaded(t, r, gate{token: "t"}, adminPolicy)
	before := c.Items()

	require.NoError(t, c.Update(context.Background(), "2", patch{Color: strp("black")}))

	after := c.Items()
	require.Len(t, after, 3)
	assert.Equal(t, before[0], after[0])
	assert.Equal(t, before[2], after[2])
	assert.Equal(t, item{ID: "2", Name: "Interior Detail", Color: "black"}, after[1])
	assert.Equal(t, call{"update", "Bearer t", "2"}, r.lastCall())
}

func TestUpdateFailureKeepsMirror(t *testing.T) {
	r := seeded()
	c := loaded(t, r, gate{token: "t"}, adminPolicy)
	before := c.Items()

	r.failOps["update"] = errors.New("401")
	err := c.Update(context.Background(), "2", patch{Color: strp("black")})
	assert.Error(t, err)
	assert.Equal(t, before, c.Items())
}

func TestUpdateWithDerivedFieldsRefreshes(t *testing.T) {
	r := seeded()
	c := loaded(t, r, gate{token: "t"}, adminPolicy)

	require.NoError(t, c.Update(context.Background(), "1", patch{Color: strp("white"), refresh: true}))
	got, ok := c.Get("1")
	require.True(t, ok)
	assert.Equal(t, "Mobile Wash (re-rendered)", got.Name)
	assert.Equal(t, "list", r.lastCall().op)
}

func TestRemove(t *testing.T) {
	r := seeded()
	c := loaded(t, r, gate{token: "t"}, adminPolicy)

	require.NoError(t, c.Remove(context.Background(), "1"))
	_, ok := c.Get("1")
	assert.False(t, ok)
	assert.Len(t, c.Items(), 2)
}

func TestRemoveFailureKeepsMirror(t *testing.T) {
	r := seeded()
	c := loaded(t, r, gate{token: "t"}, adminPolicy)
	before := c.Items()

	r.failOps["delete"] = errors.New("404")
	assert.Error(t, c.Remove(context.Background(), "1"))
	assert.Equal(t, before, c.Items())
}

func TestCreateRefreshesInsteadOfInserting(t *testing.T) {
	r := seeded()
	c := loaded(t, r, gate{token: "t"}, adminPolicy)

	created, err := c.Create(context.Background(), draft{Name: "Ceramic"})
	require.NoError(t, err)
	assert.Equal(t, "101", created.ID)

	got, ok := c.Get("101")
	require.True(t, ok)
	assert.Equal(t, "server-assigned", got.Color)
	assert.Equal(t, "list", r.lastCall().op)
}

func TestCreateFailureDoesNotInsert(t *testing.T) {
	r := seeded()
	c := loaded(t, r, gate{token: "t"}, adminPolicy)

	r.failOps["create"] = errors.New("400")
	_, err := c.Create(context.Background(), draft{Name: "Ceramic"})
	assert.Error(t, err)
	assert.Len(t, c.Items(), 3)
}

func TestCreateValidatesBeforeSending(t *testing.T) {
	r := seeded()
	c := loaded(t, r, gate{token: "t"}, adminPolicy)
	n := len(r.calls)

	_, err := c.Create(context.Background(), draft{})
	assert.Error(t, err)
	assert.Len(t, r.calls, n, "nothing sent")
}

func TestPublicCreateWithoutListAccessSkipsRefresh(t *testing.T) {
	r := seeded()
	p := Policy{List: Gated, Create: Public, Update: Gated, Delete: Gated}
	c := New[item, draft, patch]("items", r, gate{}, p)

	created, err := c.Create(context.Background(), draft{Name: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "101", created.ID)
	assert.Equal(t, call{"create", "", ""}, r.lastCall())
	assert.Empty(t, c.Items())
}

func TestGatedCallsCarryHeader(t *testing.T) {
	r := seeded()
	p := Policy{List: Gated, Create: Public, Update: Gated, Delete: Gated}
	c := New[item, draft, patch]("items", r, gate{token: "t"}, p)
	ctx := context.Background()

	_, err := c.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bearer t", r.lastCall().auth)

	_, err = c.Create(ctx, draft{Name: "x"})
	require.NoError(t, err)
	for _, cl := range r.calls {
		if cl.op == "create" {
			assert.Equal(t, "", cl.auth, "public create never carries the header")
		}
	}

	require.NoError(t, c.Update(ctx, "1", patch{Color: strp("x")}))
	assert.Equal(t, "Bearer t", r.lastCall().auth)
	require.NoError(t, c.Remove(ctx, "1"))
	assert.Equal(t, "Bearer t", r.lastCall().auth)
}

func TestGatedCallWithoutSessionStillReachesStore(t *testing.T) {
	r := seeded()
	c := loaded(t, r, gate{}, adminPolicy)

	r.failOps["update"] = errors.New("401 unauthorized")
	err := c.Update(context.Background(), "2", patch{Color: strp("black")})
	assert.Error(t, err)
	assert.Equal(t, call{"update", "", "2"}, r.lastCall())
}

func TestUnsupportedOperation(t *testing.T) {
	r := seeded()
	p := Policy{List: Public, Create: Public, Update: Unsupported, Delete: Gated}
	c := loaded(t, r, gate{token: "t"}, p)
	n := len(r.calls)

	err := c.Update(context.Background(), "1", patch{})
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.Len(t, r.calls, n)
}

func TestSearchUsesMirror(t *testing.T) {
	r := seeded()
	c := loaded(t, r, gate{}, adminPolicy)
	n := len(r.calls)

	got := c.Search("mobile", func(i item) []string { return []string{i.Name} })
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)
	assert.Len(t, r.calls, n, "search never goes remote")
}

func TestSearchIndependentOfRefreshCount(t *testing.T) {
	r := seeded()
	c := loaded(t, r, gate{}, adminPolicy)
	fields := func(i item) []string { return []string{i.Name} }
	first := c.Search("i", fields)

	for i := 0; i < 3; i++ {
		_, err := c.Refresh(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, first, c.Search("i", fields))
}

func TestConcurrentUpdates(t *testing.T) {
	r := seeded()
	c := loaded(t, r, gate{token: "t"}, adminPolicy)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = c.Update(context.Background(), "3", patch{Color: strp(strconv.Itoa(i))})
		}(i)
	}
	wg.Wait()

	got, ok := c.Get("3")
	require.True(t, ok)
	assert.NotEqual(t, "green", got.Color)
	assert.Len(t, c.Items(), 3)
}
