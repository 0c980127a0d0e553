package content

import (
	"parkadmin/internal/bus"
	"parkadmin/pkg/domain"
)

type (
	// Slides is the hero carousel repository.
	Slides = Collection[domain.Slide, domain.SlidePatch]
	// Wonders is the wonders repository.
	Wonders = Collection[domain.Wonder, domain.WonderPatch]
	// Animals is the zoo repository.
	Animals = Collection[domain.Animal, domain.AnimalPatch]
	// PriceOptions is the ticket price repository.
	PriceOptions = Collection[domain.PriceOption, domain.PriceOptionPatch]
	// GroupImages is the group gallery repository.
	GroupImages = Collection[domain.GroupImage, domain.GroupImagePatch]
)

// Collection names, also used as CLI kinds.
const (
	KindSlides  = "slides"
	KindWonders = "wonders"
	KindAnimals = "animals"
	KindPrices  = "prices"
	KindGroups  = "groups"
)

// Repositories bundles one repository per entity kind over a shared store.
type Repositories struct {
	Store        *Store
	Slides       *Slides
	Wonders      *Wonders
	Animals      *Animals
	PriceOptions *PriceOptions
	GroupImages  *GroupImages
	Map          *MapRepository
}

// NewRepositories wires every repository to store and b.
func NewRepositories(store *Store, b *bus.Bus) *Repositories {
	return &Repositories{
		Store: store,
		Slides: NewCollection[domain.Slide, domain.SlidePatch](KindSlides, store, b,
			func(a *domain.Aggregate) *[]domain.Slide { return &a.Slides }),
		Wonders: NewCollection[domain.Wonder, domain.WonderPatch](KindWonders, store, b,
			func(a *domain.Aggregate) *[]domain.Wonder { return &a.Wonders }),
		Animals: NewCollection[domain.Animal, domain.AnimalPatch](KindAnimals, store, b,
			func(a *domain.Aggregate) *[]domain.Animal { return &a.Animals }),
		PriceOptions: NewCollection[domain.PriceOption, domain.PriceOptionPatch](KindPrices, store, b,
			func(a *domain.Aggregate) *[]domain.PriceOption { return &a.PriceOptions }),
		GroupImages: NewCollection[domain.GroupImage, domain.GroupImagePatch](KindGroups, store, b,
			func(a *domain.Aggregate) *[]domain.GroupImage { return &a.GroupImages }),
		Map: NewMapRepository(store, b),
	}
}
