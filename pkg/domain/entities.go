// Package domain defines the editable content of the park site: the five ordered
// collections, the map singleton, the aggregate that holds them, and the session
// record used by the admin login.
package domain

// Entity is implemented by every element of an ordered collection. Ids are unique
// within their own collection only.
type Entity[T any] interface {
	EntityID() int64
	WithID(id int64) T
}

// Patch is a partial update for T. Nil fields are left untouched by Apply.
type Patch[T any] interface {
	Apply(T) T
}

// Slide is one hero carousel slide.
type Slide struct {
	ID          int64  `json:"id"`
	Image       string `json:"image"`
	Subtitle    string `json:"subtitle"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
}

// EntityID implements Entity.
func (s Slide) EntityID() int64 { return s.ID }

// WithID implements Entity.
func (s Slide) WithID(id int64) Slide {
	s.ID = id
	return s
}

// Wonder is a replica of one of the wonders of the world shown in the park.
type Wonder struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Image           string `json:"image"`
	Description     string `json:"description"`
	FullDescription string `json:"fullDescription"`
	Active          bool   `json:"active"`
}

// EntityID implements Entity.
func (w Wonder) EntityID() int64 { return w.ID }

// WithID implements Entity.
func (w Wonder) WithID(id int64) Wonder {
	w.ID = id
	return w
}

// Animal is a zoo card.
type Animal struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	ScientificName string `json:"scientificName"`
	Description    string `json:"description"`
	Image          string `json:"image"`
	Active         bool   `json:"active"`
}

// EntityID implements Entity.
func (a Animal) EntityID() int64 { return a.ID }

// WithID implements Entity.
func (a Animal) WithID(id int64) Animal {
	a.ID = id
	return a
}

// PriceOption is one ticket price tier. Color is a CSS color token.
type PriceOption struct {
	ID          int64   `json:"id"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	AgeRange    string  `json:"ageRange"`
	Description string  `json:"description,omitempty"`
	Color       string  `json:"color"`
	Active      bool    `json:"active"`
}

// EntityID implements Entity.
func (p PriceOption) EntityID() int64 { return p.ID }

// WithID implements Entity.
func (p PriceOption) WithID(id int64) PriceOption {
	p.ID = id
	return p
}

// GroupImage is a photo in the group visits gallery.
type GroupImage struct {
	ID      int64  `json:"id"`
	Image   string `json:"image"`
	Alt     string `json:"alt"`
	Caption string `json:"caption"`
	Active  bool   `json:"active"`
}

// EntityID implements Entity.
func (g GroupImage) EntityID() int64 { return g.ID }

// WithID implements Entity.
func (g GroupImage) WithID(id int64) GroupImage {
	g.ID = id
	return g
}

// MapConfig is the park map singleton.
type MapConfig struct {
	ID     int64  `json:"id"`
	Image  string `json:"image"`
	Active bool   `json:"active"`
}

// Aggregate is the whole editable content set. It is read and written as one unit.
//
// Sequence is the last identifier handed out by the repositories. It is omitted
// while zero so a freshly seeded aggregate keeps the historical layout.
type Aggregate struct {
	Slides       []Slide       `json:"heroSlides"`
	Wonders      []Wonder      `json:"wonders"`
	Animals      []Animal      `json:"animals"`
	PriceOptions []PriceOption `json:"priceOptions"`
	GroupImages  []GroupImage  `json:"groupImages"`
	Map          MapConfig     `json:"mapData"`
	Sequence     int64         `json:"sequence,omitempty"`
}

// Clone returns a deep copy of the aggregate.
func (a Aggregate) Clone() Aggregate {
	cp := a
	cp.Slides = append([]Slide{}, a.Slides...)
	cp.Wonders = append([]Wonder{}, a.Wonders...)
	cp.Animals = append([]Animal{}, a.Animals...)
	cp.PriceOptions = append([]PriceOption{}, a.PriceOptions...)
	cp.GroupImages = append([]GroupImage{}, a.GroupImages...)
	return cp
}

// Normalize replaces nil collections with empty ones so callers never see null.
func (a *Aggregate) Normalize() {
	if a.Slides == nil {
		a.Slides = []Slide{}
	}
	if a.Wonders == nil {
		a.Wonders = []Wonder{}
	}
	if a.Animals == nil {
		a.Animals = []Animal{}
	}
	if a.PriceOptions == nil {
		a.PriceOptions = []PriceOption{}
	}
	if a.GroupImages == nil {
		a.GroupImages = []GroupImage{}
	}
}

// MaxID returns the largest id present in any collection, or the map id.
func (a Aggregate) MaxID() int64 {
	maxID := a.Map.ID
	for _, s := range a.Slides {
		maxID = max(maxID, s.ID)
	}
	for _, w := range a.Wonders {
		maxID = max(maxID, w.ID)
	}
	for _, an := range a.Animals {
		maxID = max(maxID, an.ID)
	}
	for _, p := range a.PriceOptions {
		maxID = max(maxID, p.ID)
	}
	for _, g := range a.GroupImages {
		maxID = max(maxID, g.ID)
	}
	return maxID
}

// NextID advances the aggregate sequence and returns the new identifier. The
// sequence never goes below the largest id already stored, so aggregates written
// with millisecond-timestamp ids keep receiving unique ids.
func (a *Aggregate) NextID() int64 {
	next := max(a.Sequence, a.MaxID()) + 1
	a.Sequence = next
	return next
}
