package content

import (
	"context"
	"reflect"
	"testing"

	"parkadmin/internal/bus"
	"parkadmin/internal/infra/storage/memory"
	"parkadmin/pkg/domain"
)

func newRepos(t *testing.T) (*Repositories, *bus.Bus, *memory.Handle) {
	t.Helper()
	h := memory.New()
	b := bus.New(nil)
	return NewRepositories(NewStore(h), b), b, h
}

func TestAnimalsAddThenRemoveRestoresSeed(t *testing.T) {
	repos, _, _ := newRepos(t)
	ctx := context.Background()

	before, err := repos.Animals.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(before) != 6 {
		t.Fatalf("expected 6 seeded animals, got %d", len(before))
	}

	tapir := domain.Animal{Name: "Tapir", ScientificName: "Tapirus", Description: "...", Image: "x", Active: true}
	added, err := repos.Animals.Add(ctx, tapir)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	after, _ := repos.Animals.List(ctx)
	if len(after) != 7 || after[6].Name != "Tapir" {
		t.Fatalf("expected Tapir appended last, got %+v", after)
	}
	for _, a := range before {
		if a.ID == added.ID {
			t.Fatalf("assigned id %d collides with existing entity", added.ID)
		}
	}
	if after[6] != tapir.WithID(added.ID) {
		t.Fatalf("stored entity differs from input plus id: %+v", after[6])
	}

	removed, err := repos.Animals.Remove(ctx, added.ID)
	if err != nil || !removed {
		t.Fatalf("remove: %v %v", removed, err)
	}
	final, _ := repos.Animals.List(ctx)
	if !reflect.DeepEqual(final, domain.Seed().Animals) {
		t.Fatalf("animals differ from seed after add+remove")
	}
}

func TestAddAssignsDistinctIDsBackToBack(t *testing.T) {
	repos, _, _ := newRepos(t)
	ctx := context.Background()
	seen := map[int64]bool{}
	for i := 0; i < 50; i++ {
		s, err := repos.Slides.Add(ctx, domain.Slide{Title: "s", ID: 1})
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		if seen[s.ID] {
			t.Fatalf("duplicate id %d", s.ID)
		}
		seen[s.ID] = true
	}
	slides, _ := repos.Slides.List(ctx)
	ids := map[int64]int{}
	for _, s := range slides {
		ids[s.ID]++
		if ids[s.ID] > 1 {
			t.Fatalf("duplicate id %d in collection", s.ID)
		}
	}
}

func TestUpdateIsPartialMerge(t *testing.T) {
	repos, _, _ := newRepos(t)
	ctx := context.Background()
	original, ok, err := repos.Wonders.Get(ctx, 2)
	if err != nil || !ok {
		t.Fatalf("get: %v %v", ok, err)
	}
	found, err := repos.Wonders.Update(ctx, 2, domain.WonderPatch{Description: domain.Ptr("Réplica nueva")})
	if err != nil || !found {
		t.Fatalf("update: %v %v", found, err)
	}
	got, _, _ := repos.Wonders.Get(ctx, 2)
	want := original
	want.Description = "Réplica nueva"
	if got != want {
		t.Fatalf("unexpected merge: %+v", got)
	}

	others, _ := repos.Wonders.List(ctx)
	seed := domain.Seed().Wonders
	for i, w := range others {
		if w.ID != 2 && w != seed[i] {
			t.Fatalf("update touched wonder %d", w.ID)
		}
	}
}

func TestUpdateMissingIDIsNoOp(t *testing.T) {
	repos, _, h := newRepos(t)
	ctx := context.Background()
	_, _ = repos.PriceOptions.List(ctx)
	before, _, _ := h.Get(ctx, domain.KeyContent)
	found, err := repos.PriceOptions.Update(ctx, 999, domain.PriceOptionPatch{Price: domain.Ptr(-1.0)})
	if err != nil || found {
		t.Fatalf("expected silent no-op, got %v %v", found, err)
	}
	after, _, _ := h.Get(ctx, domain.KeyContent)
	if string(before) != string(after) {
		t.Fatalf("no-op update rewrote aggregate")
	}
}

func TestRemoveIsExact(t *testing.T) {
	repos, _, _ := newRepos(t)
	ctx := context.Background()
	removed, err := repos.GroupImages.Remove(ctx, 404)
	if err != nil || removed {
		t.Fatalf("remove missing: %v %v", removed, err)
	}
	imgs, _ := repos.GroupImages.List(ctx)
	if len(imgs) != 4 {
		t.Fatalf("remove of missing id changed size: %d", len(imgs))
	}
	if _, err := repos.GroupImages.Remove(ctx, 2); err != nil {
		t.Fatalf("remove: %v", err)
	}
	imgs, _ = repos.GroupImages.List(ctx)
	if len(imgs) != 3 {
		t.Fatalf("expected 3 images, got %d", len(imgs))
	}
	seed := domain.Seed().GroupImages
	want := []domain.GroupImage{seed[0], seed[2], seed[3]}
	if !reflect.DeepEqual(imgs, want) {
		t.Fatalf("remove altered other entities or order: %+v", imgs)
	}
}

func TestNoValidationOfFields(t *testing.T) {
	repos, _, _ := newRepos(t)
	ctx := context.Background()
	p, err := repos.PriceOptions.Add(ctx, domain.PriceOption{Price: -5, Category: ""})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if got, _, _ := repos.PriceOptions.Get(ctx, p.ID); got.Price != -5 {
		t.Fatalf("price rewritten: %+v", got)
	}
}

func TestMutationsRaiseSameContextSignal(t *testing.T) {
	repos, b, _ := newRepos(t)
	ctx := context.Background()
	var events []bus.Event
	b.Subscribe(bus.TopicContentChanged, func(ev bus.Event) { events = append(events, ev) })

	s, _ := repos.Slides.Add(ctx, domain.Slide{Title: "x"})
	_, _ = repos.Slides.Update(ctx, s.ID, domain.SlidePatch{Title: domain.Ptr("y")})
	_, _ = repos.Slides.Update(ctx, 12345, domain.SlidePatch{})
	_, _ = repos.Slides.Remove(ctx, s.ID)
	_, _ = repos.Map.Update(ctx, domain.MapConfigPatch{Image: domain.Ptr("new")})
	_, _ = repos.Map.ToggleActive(ctx)
	_, _ = repos.Slides.List(ctx)

	if len(events) != 6 {
		t.Fatalf("expected 6 signals, got %d", len(events))
	}
	for _, ev := range events {
		if ev.Origin != bus.OriginSameContext || ev.Key != domain.KeyContent {
			t.Fatalf("unexpected event %+v", ev)
		}
	}
}

func TestMapRepository(t *testing.T) {
	repos, _, _ := newRepos(t)
	ctx := context.Background()
	m, err := repos.Map.Get(ctx)
	if err != nil || !m.Active {
		t.Fatalf("get: %+v %v", m, err)
	}
	updated, err := repos.Map.Update(ctx, domain.MapConfigPatch{Image: domain.Ptr("data:image/png;base64,xx")})
	if err != nil || updated.Image != "data:image/png;base64,xx" || !updated.Active {
		t.Fatalf("update: %+v %v", updated, err)
	}
	toggled, err := repos.Map.ToggleActive(ctx)
	if err != nil || toggled.Active {
		t.Fatalf("toggle: %+v %v", toggled, err)
	}
	again, _ := repos.Map.Get(ctx)
	if again.Active || again.Image != "data:image/png;base64,xx" || again.ID != 1 {
		t.Fatalf("unexpected persisted map %+v", again)
	}
}

func TestSecondContextSeesWrites(t *testing.T) {
	medium := memory.NewMedium()
	first := NewRepositories(NewStore(medium.Open()), nil)
	second := NewRepositories(NewStore(medium.Open()), nil)
	ctx := context.Background()

	a, err := second.Animals.Add(ctx, domain.Animal{Name: "Tapir"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	got, ok, err := first.Animals.Get(ctx, a.ID)
	if err != nil || !ok || got.Name != "Tapir" {
		t.Fatalf("first context did not observe write: %+v %v %v", got, ok, err)
	}
}

func TestLastWriterWins(t *testing.T) {
	medium := memory.NewMedium()
	storeA := NewStore(medium.Open())
	storeB := NewStore(medium.Open())
	ctx := context.Background()

	staleA, err := storeA.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if _, err := NewRepositories(storeB, nil).Animals.Add(ctx, domain.Animal{Name: "B"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	staleA.Slides = staleA.Slides[:1]
	if err := storeA.Write(ctx, staleA); err != nil {
		t.Fatalf("write: %v", err)
	}
	final, _ := storeB.Read(ctx)
	if len(final.Animals) != 6 || len(final.Slides) != 1 {
		t.Fatalf("expected A's whole-aggregate write to win, got %d animals %d slides", len(final.Animals), len(final.Slides))
	}
}
