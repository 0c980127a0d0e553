package binding

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"parkadmin/internal/bus"
	"parkadmin/internal/content"
	"parkadmin/internal/infra/storage/memory"
	"parkadmin/internal/session"
	"parkadmin/pkg/domain"
)

type recorder[V any] struct {
	mu    sync.Mutex
	snaps []Snapshot[V]
}

func (r *recorder[V]) observe(s Snapshot[V]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
}

func (r *recorder[V]) all() []Snapshot[V] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Snapshot[V](nil), r.snaps...)
}

func (r *recorder[V]) last() Snapshot[V] {
	all := r.all()
	return all[len(all)-1]
}

// ctxEnv is one context: its own storage handle, bus and repositories.
type ctxEnv struct {
	bus   *bus.Bus
	repos *content.Repositories
	stop  func()
}

func openContext(t *testing.T, medium *memory.Medium) *ctxEnv {
	t.Helper()
	h := medium.Open()
	b := bus.New(nil)
	stop, err := bus.Bridge(context.Background(), h, b, nil)
	if err != nil {
		t.Fatalf("bridge: %v", err)
	}
	t.Cleanup(func() {
		stop()
		_ = h.Close()
	})
	return &ctxEnv{bus: b, repos: content.NewRepositories(content.NewStore(h), b), stop: stop}
}

func TestCollectionBindingInitialLoad(t *testing.T) {
	env := openContext(t, memory.NewMedium())
	rec := &recorder[[]domain.Animal]{}
	animals, err := AttachCollection(context.Background(), env.repos.Animals, env.bus, rec.observe, nil)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	defer animals.Close()
	if len(animals.Items()) != 6 {
		t.Fatalf("expected seeded animals, got %d", len(animals.Items()))
	}
	if len(rec.all()) != 1 || rec.last().Origin != bus.OriginSameContext {
		t.Fatalf("unexpected initial snapshots %+v", rec.all())
	}
}

func TestCollectionBindingRefreshesAfterOwnMutations(t *testing.T) {
	env := openContext(t, memory.NewMedium())
	ctx := context.Background()
	rec := &recorder[[]domain.Slide]{}
	slides, err := AttachCollection(ctx, env.repos.Slides, env.bus, rec.observe, nil)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	defer slides.Close()

	added, err := slides.Add(ctx, domain.Slide{Title: "Nuevo"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	items := slides.Items()
	if len(items) != 6 || items[5].ID != added.ID {
		t.Fatalf("binding not refreshed after add: %+v", items)
	}
	if _, err := slides.Update(ctx, added.ID, domain.SlidePatch{Title: domain.Ptr("Editado")}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if slides.Items()[5].Title != "Editado" {
		t.Fatalf("binding not refreshed after update")
	}
	if _, err := slides.Remove(ctx, added.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(slides.Items()) != 5 {
		t.Fatalf("binding not refreshed after remove")
	}
	if n := len(rec.all()); n != 4 {
		t.Fatalf("expected 4 snapshots, got %d", n)
	}
}

func TestBindingSeesOtherContextWrite(t *testing.T) {
	medium := memory.NewMedium()
	a := openContext(t, medium)
	b := openContext(t, medium)
	ctx := context.Background()

	rec := &recorder[[]domain.Animal]{}
	view, err := AttachCollection(ctx, a.repos.Animals, a.bus, rec.observe, nil)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	defer view.Close()

	tapir, err := b.repos.Animals.Add(ctx, domain.Animal{Name: "Tapir"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	medium.Wait()
	items := view.Items()
	if len(items) != 7 || items[6].ID != tapir.ID {
		t.Fatalf("context A did not refresh: %+v", items)
	}
	if rec.last().Origin != bus.OriginCrossContext {
		t.Fatalf("expected cross-context snapshot, got %v", rec.last().Origin)
	}
}

func TestBindingCloseStopsRefresh(t *testing.T) {
	env := openContext(t, memory.NewMedium())
	ctx := context.Background()
	rec := &recorder[[]domain.Wonder]{}
	wonders, err := AttachCollection(ctx, env.repos.Wonders, env.bus, rec.observe, nil)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	wonders.Close()
	wonders.Close()
	if env.bus.Subscribers(bus.TopicContentChanged) != 0 {
		t.Fatalf("subscription leaked")
	}
	_, _ = env.repos.Wonders.Add(ctx, domain.Wonder{Name: "x"})
	if len(rec.all()) != 1 {
		t.Fatalf("closed binding refreshed")
	}
	if len(wonders.Items()) != 4 {
		t.Fatalf("closed binding value changed")
	}
}

func TestMapBindingToggleUsesObservedValue(t *testing.T) {
	medium := memory.NewMedium()
	a := openContext(t, medium)
	b := openContext(t, medium)
	ctx := context.Background()

	view, err := AttachMap(ctx, a.repos.Map, a.bus, nil, nil)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	defer view.Close()
	if !view.Config().Active {
		t.Fatalf("seed map should be active")
	}

	got, err := view.ToggleActive(ctx)
	if err != nil || got.Active {
		t.Fatalf("toggle: %+v %v", got, err)
	}
	if view.Config().Active {
		t.Fatalf("binding not refreshed after toggle")
	}

	// B writes active=true; A's view follows through the bridge.
	if _, err := b.repos.Map.Update(ctx, domain.MapConfigPatch{Active: domain.Ptr(true)}); err != nil {
		t.Fatalf("update: %v", err)
	}
	medium.Wait()
	if !view.Config().Active {
		t.Fatalf("binding missed cross-context update")
	}
	if _, err := view.Update(ctx, domain.MapConfigPatch{Image: domain.Ptr("new.png")}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if cfg := view.Config(); cfg.Image != "new.png" || !cfg.Active {
		t.Fatalf("unexpected map %+v", cfg)
	}
}

func TestContentBindingReportsReloadErrors(t *testing.T) {
	medium := memory.NewMedium()
	env := openContext(t, medium)
	ctx := context.Background()
	rec := &recorder[domain.Aggregate]{}
	view, err := AttachContent(ctx, env.repos.Store, env.bus, rec.observe, nil)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	defer view.Close()

	other := medium.Open()
	if err := other.Set(ctx, domain.KeyContent, []byte("{broken")); err != nil {
		t.Fatalf("set: %v", err)
	}
	medium.Wait()
	last := rec.last()
	if !errors.Is(last.Err, content.ErrCorrupt) {
		t.Fatalf("expected corrupt error snapshot, got %v", last.Err)
	}
	if len(last.Value.Animals) != 6 || len(view.Aggregate().Animals) != 6 {
		t.Fatalf("failed reload must keep the last good value")
	}

	agg := view.Aggregate()
	agg.Animals[0].Name = "Cambiado"
	agg.Slides = nil
	if got := view.Aggregate(); got.Animals[0].Name == "Cambiado" || len(got.Slides) != 5 {
		t.Fatalf("Aggregate must hand out a copy")
	}
}

func TestAttachFailsWhenInitialLoadFails(t *testing.T) {
	h := memory.New()
	ctx := context.Background()
	_ = h.Set(ctx, domain.KeyContent, []byte("nope"))
	b := bus.New(nil)
	repos := content.NewRepositories(content.NewStore(h), b)
	if _, err := AttachCollection(ctx, repos.Slides, b, nil, nil); !errors.Is(err, content.ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
	if b.Subscribers(bus.TopicContentChanged) != 0 {
		t.Fatalf("failed attach left a subscription")
	}
}

func TestSessionBindingFollowsLoginAndLogout(t *testing.T) {
	medium := memory.NewMedium()
	ctx := context.Background()
	clock := time.UnixMilli(1_700_000_000_000)

	newCtx := func() (*session.Manager, *bus.Bus) {
		h := medium.Open()
		b := bus.New(nil)
		stop, err := bus.Bridge(ctx, h, b, nil)
		if err != nil {
			t.Fatalf("bridge: %v", err)
		}
		t.Cleanup(stop)
		m, err := session.New(h, b, session.WithHashCost(bcrypt.MinCost), session.WithClock(func() time.Time { return clock }))
		if err != nil {
			t.Fatalf("session: %v", err)
		}
		return m, b
	}
	mA, busA := newCtx()
	mB, _ := newCtx()

	rec := &recorder[bool]{}
	view, err := AttachSession(ctx, mA, busA, rec.observe, nil)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	defer view.Close()
	if view.Authenticated() {
		t.Fatalf("expected logged out initially")
	}
	if ok, err := view.Login(ctx, session.DefaultIdentifier, session.DefaultSecret); err != nil || !ok {
		t.Fatalf("login: %v %v", ok, err)
	}
	if !view.Authenticated() {
		t.Fatalf("binding missed own login")
	}
	if err := mB.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	medium.Wait()
	if view.Authenticated() {
		t.Fatalf("binding missed logout from other context")
	}
	if rec.last().Origin != bus.OriginCrossContext {
		t.Fatalf("expected cross-context origin")
	}
	if err := view.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
}

func sameIDs(a []domain.Animal, b []domain.Animal) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}

// Contexts race on the medium while each observes the other's writes. Every
// call must return, and once notifications settle both views match storage.
func TestConcurrentContextsConverge(t *testing.T) {
	const perContext = 100
	medium := memory.NewMedium()
	ctx := context.Background()
	envs := []*ctxEnv{openContext(t, medium), openContext(t, medium)}

	views := make([]*Collection[domain.Animal, domain.AnimalPatch], len(envs))
	for i, env := range envs {
		view, err := AttachCollection(ctx, env.repos.Animals, env.bus, nil, nil)
		if err != nil {
			t.Fatalf("attach %d: %v", i, err)
		}
		defer view.Close()
		views[i] = view
	}

	done := make(chan error, len(envs))
	for _, view := range views {
		view := view
		go func() {
			for n := 0; n < perContext; n++ {
				if _, err := view.Add(ctx, domain.Animal{Name: "Llama"}); err != nil {
					done <- err
					return
				}
			}
			done <- nil
		}()
	}
	deadline := time.After(10 * time.Second)
	for range envs {
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("add: %v", err)
			}
		case <-deadline:
			t.Fatalf("concurrent adds from two contexts did not finish")
		}
	}

	settled := make(chan struct{})
	go func() {
		medium.Wait()
		close(settled)
	}()
	select {
	case <-settled:
	case <-time.After(10 * time.Second):
		t.Fatalf("notifications did not settle")
	}

	stored, err := envs[0].repos.Animals.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(stored) <= 6 {
		t.Fatalf("expected added animals in storage, got %d", len(stored))
	}
	for i, view := range views {
		if !sameIDs(view.Items(), stored) {
			t.Fatalf("view %d did not converge: %d items, storage has %d", i, len(view.Items()), len(stored))
		}
	}
}
