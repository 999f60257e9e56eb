package editor

// ListItem is implemented by every editable sub-collection entry. Items carry
// a locally-unique integer id, unique only within their owning collection.
// WithID returns a copy of the item with the id replaced, so the generic
// helpers below never mutate their inputs.
type ListItem[T any] interface {
	ItemID() int
	WithID(id int) T
}

// NextID returns the id to assign to a newly appended item: one greater than
// the current maximum, or 1 for an empty collection. Ids stay stable and
// unique after arbitrary removals because assignment is max-based, not
// length-based.
func NextID[T ListItem[T]](items []T) int {
	maxID := 0
	for _, it := range items {
		if it.ItemID() > maxID {
			maxID = it.ItemID()
		}
	}
	return maxID + 1
}

// AppendItem appends item with the next available id and returns the new slice.
func AppendItem[T ListItem[T]](items []T, item T) []T {
	return append(items, item.WithID(NextID(items)))
}

// UpdateItem replaces the item whose id matches with fn(item). It reports
// whether a matching item was found; no match is a no-op.
func UpdateItem[T ListItem[T]](items []T, id int, fn func(T) T) ([]T, bool) {
	out := make([]T, len(items))
	found := false
	for i, it := range items {
		if it.ItemID() == id {
			out[i] = fn(it)
			found = true
		} else {
			out[i] = it
		}
	}
	return out, found
}

// RemoveItem removes the matching item only if the collection currently has
// more than one element; removal of the last element is rejected. It reports
// whether a removal happened.
func RemoveItem[T ListItem[T]](items []T, id int) ([]T, bool) {
	if len(items) <= 1 {
		return items, false
	}
	out := make([]T, 0, len(items)-1)
	removed := false
	for _, it := range items {
		if it.ItemID() == id && !removed {
			removed = true
			continue
		}
		out = append(out, it)
	}
	if !removed {
		return items, false
	}
	return out, true
}

// Reassign renumbers items sequentially from 1 in slice order, discarding
// any prior ids. Used when hydrating collections from a remote record.
func Reassign[T ListItem[T]](items []T) []T {
	out := make([]T, len(items))
	for i, it := range items {
		out[i] = it.WithID(i + 1)
	}
	return out
}

// Benefit is one entry of the benefits collection.
type Benefit struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

func (b Benefit) ItemID() int            { return b.ID }
func (b Benefit) WithID(id int) Benefit  { b.ID = id; return b }

// WhyReason is one entry of the "why perform" collection.
type WhyReason struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

func (w WhyReason) ItemID() int             { return w.ID }
func (w WhyReason) WithID(id int) WhyReason { w.ID = id; return w }

// AudienceSegment is one entry of the "who should book" collection.
type AudienceSegment struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

func (a AudienceSegment) ItemID() int                   { return a.ID }
func (a AudienceSegment) WithID(id int) AudienceSegment { a.ID = id; return a }

// Testimonial is one entry of the testimonials collection.
type Testimonial struct {
	ID        int    `json:"id"`
	Highlight string `json:"highlight"`
	Quote     string `json:"quote"`
	Name      string `json:"name"`
	Location  string `json:"location"`
}

func (t Testimonial) ItemID() int               { return t.ID }
func (t Testimonial) WithID(id int) Testimonial { t.ID = id; return t }

// FAQ is one entry of the FAQ collection.
type FAQ struct {
	ID       int    `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func (f FAQ) ItemID() int       { return f.ID }
func (f FAQ) WithID(id int) FAQ { f.ID = id; return f }

// PricingPackage is one entry of the pricing collection. It owns a nested
// ordered feature list (length >= 1) and participates in the popular-flag
// exclusivity invariant enforced by the session.
type PricingPackage struct {
	ID            int      `json:"id"`
	Title         string   `json:"title"`
	Price         float64  `json:"price"`
	OriginalPrice float64  `json:"originalPrice,omitempty"`
	Discount      string   `json:"discount,omitempty"`
	IsPopular     bool     `json:"isPopular"`
	Features      []string `json:"features"`
	Duration      string   `json:"duration,omitempty"`
	Validity      string   `json:"validity,omitempty"`
}

func (p PricingPackage) ItemID() int                  { return p.ID }
func (p PricingPackage) WithID(id int) PricingPackage { p.ID = id; return p }

// Default item templates. The editor seeds every collection with one of these
// so removal floors always have something to stand on.
func defaultBenefit() Benefit                 { return Benefit{ID: 1, Icon: "CheckCircle"} }
func defaultWhyReason() WhyReason             { return WhyReason{ID: 1, Icon: "Target"} }
func defaultAudienceSegment() AudienceSegment { return AudienceSegment{ID: 1, Icon: "Users"} }
func defaultTestimonial() Testimonial         { return Testimonial{ID: 1} }
func defaultFAQ() FAQ                         { return FAQ{ID: 1} }
func defaultPackage() PricingPackage {
	return PricingPackage{ID: 1, Features: []string{""}}
}
