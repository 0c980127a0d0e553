package domain

// SlidePatch updates a Slide partially.
type SlidePatch struct {
	Image       *string `json:"image,omitempty"`
	Subtitle    *string `json:"subtitle,omitempty"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Active      *bool   `json:"active,omitempty"`
}

// Apply implements Patch.
func (p SlidePatch) Apply(s Slide) Slide {
	setIf(&s.Image, p.Image)
	setIf(&s.Subtitle, p.Subtitle)
	setIf(&s.Title, p.Title)
	setIf(&s.Description, p.Description)
	setIf(&s.Active, p.Active)
	return s
}

// WonderPatch updates a Wonder partially.
type WonderPatch struct {
	Name            *string `json:"name,omitempty"`
	Image           *string `json:"image,omitempty"`
	Description     *string `json:"description,omitempty"`
	FullDescription *string `json:"fullDescription,omitempty"`
	Active          *bool   `json:"active,omitempty"`
}

// Apply implements Patch.
func (p WonderPatch) Apply(w Wonder) Wonder {
	setIf(&w.Name, p.Name)
	setIf(&w.Image, p.Image)
	setIf(&w.Description, p.Description)
	setIf(&w.FullDescription, p.FullDescription)
	setIf(&w.Active, p.Active)
	return w
}

// AnimalPatch updates an Animal partially.
type AnimalPatch struct {
	Name           *string `json:"name,omitempty"`
	ScientificName *string `json:"scientificName,omitempty"`
	Description    *string `json:"description,omitempty"`
	Image          *string `json:"image,omitempty"`
	Active         *bool   `json:"active,omitempty"`
}

// Apply implements Patch.
func (p AnimalPatch) Apply(a Animal) Animal {
	setIf(&a.Name, p.Name)
	setIf(&a.ScientificName, p.ScientificName)
	setIf(&a.Description, p.Description)
	setIf(&a.Image, p.Image)
	setIf(&a.Active, p.Active)
	return a
}

// PriceOptionPatch updates a PriceOption partially.
type PriceOptionPatch struct {
	Price       *float64 `json:"price,omitempty"`
	Category    *string  `json:"category,omitempty"`
	AgeRange    *string  `json:"ageRange,omitempty"`
	Description *string  `json:"description,omitempty"`
	Color       *string  `json:"color,omitempty"`
	Active      *bool    `json:"active,omitempty"`
}

// Apply implements Patch.
func (p PriceOptionPatch) Apply(o PriceOption) PriceOption {
	setIf(&o.Price, p.Price)
	setIf(&o.Category, p.Category)
	setIf(&o.AgeRange, p.AgeRange)
	setIf(&o.Description, p.Description)
	setIf(&o.Color, p.Color)
	setIf(&o.Active, p.Active)
	return o
}

// GroupImagePatch updates a GroupImage partially.
type GroupImagePatch struct {
	Image   *string `json:"image,omitempty"`
	Alt     *string `json:"alt,omitempty"`
	Caption *string `json:"caption,omitempty"`
	Active  *bool   `json:"active,omitempty"`
}

// Apply implements Patch.
func (p GroupImagePatch) Apply(g GroupImage) GroupImage {
	setIf(&g.Image, p.Image)
	setIf(&g.Alt, p.Alt)
	setIf(&g.Caption, p.Caption)
	setIf(&g.Active, p.Active)
	return g
}

// MapConfigPatch updates the map singleton partially.
type MapConfigPatch struct {
	Image  *string `json:"image,omitempty"`
	Active *bool   `json:"active,omitempty"`
}

// Apply implements Patch.
func (p MapConfigPatch) Apply(m MapConfig) MapConfig {
	setIf(&m.Image, p.Image)
	setIf(&m.Active, p.Active)
	return m
}

func setIf[V any](dst *V, src *V) {
	if src != nil {
		*dst = *src
	}
}

// Ptr returns a pointer to v. Handy when building patches.
func Ptr[V any](v V) *V { return &v }
