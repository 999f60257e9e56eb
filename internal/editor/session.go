package editor

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	apperrors "github.com/vedicseva/console/pkg/errors"
)

// Phase is the lifecycle state of an editor session.
type Phase string

const (
	// PhaseLoading covers the initial category/record fetch.
	PhaseLoading Phase = "loading"
	// PhaseEditing is the steady state: the user mutates nested state.
	PhaseEditing Phase = "editing"
	// PhaseSubmitting means validation passed and the payload is in flight.
	PhaseSubmitting Phase = "submitting"
	// PhaseDone is terminal: the create/update succeeded.
	PhaseDone Phase = "done"
)

// Collection names accepted by the generic list operations.
const (
	CollectionBenefits     = "benefits"
	CollectionWhyReasons   = "whyYouShould"
	CollectionAudience     = "whoShouldBook"
	CollectionPackages     = "pricingPackages"
	CollectionTestimonials = "testimonials"
	CollectionFAQs         = "faqs"
)

// Session is one add/edit flow for a single resource. It exclusively owns the
// resource record and every sub-collection for its lifetime; all mutations go
// through its methods under the session lock.
type Session struct {
	mu sync.Mutex

	ID     uuid.UUID
	EditID string // remote record id; empty for a create session
	Phase  Phase

	Resource Resource
	Image    ImageAttachment
	Gallery  Gallery

	Benefits     []Benefit
	WhyReasons   []WhyReason
	Audience     []AudienceSegment
	Packages     []PricingPackage
	Testimonials []Testimonial
	FAQs         []FAQ

	// LastError holds the most recent submit failure message, cleared on the
	// next successful transition. The session stays editable throughout.
	LastError string
}

// NewSession creates a session seeded with form defaults. editID is empty for
// a create flow and carries the remote record id for an edit flow.
func NewSession(editID string) *Session {
	return &Session{
		ID:           uuid.New(),
		EditID:       editID,
		Phase:        PhaseLoading,
		Resource:     NewResource(),
		Benefits:     []Benefit{defaultBenefit()},
		WhyReasons:   []WhyReason{defaultWhyReason()},
		Audience:     []AudienceSegment{defaultAudienceSegment()},
		Packages:     []PricingPackage{defaultPackage()},
		Testimonials: []Testimonial{defaultTestimonial()},
		FAQs:         []FAQ{defaultFAQ()},
	}
}

// IsEdit reports whether this session updates an existing remote record.
func (s *Session) IsEdit() bool { return s.EditID != "" }

// UpdateField replaces one scalar field on the resource.
func (s *Session) UpdateField(name string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated, err := s.Resource.UpdateField(name, value)
	if err != nil {
		return err
	}
	s.Resource = updated
	return nil
}

// AddItem appends a fresh default item to the named collection, assigning
// id = max(existing) + 1.
func (s *Session) AddItem(collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch collection {
	case CollectionBenefits:
		s.Benefits = AppendItem(s.Benefits, defaultBenefit())
	case CollectionWhyReasons:
		s.WhyReasons = AppendItem(s.WhyReasons, defaultWhyReason())
	case CollectionAudience:
		s.Audience = AppendItem(s.Audience, defaultAudienceSegment())
	case CollectionPackages:
		s.Packages = AppendItem(s.Packages, defaultPackage())
	case CollectionTestimonials:
		s.Testimonials = AppendItem(s.Testimonials, defaultTestimonial())
	case CollectionFAQs:
		s.FAQs = AppendItem(s.FAQs, defaultFAQ())
	default:
		return unknownCollection(collection)
	}
	return nil
}

// UpdateItem replaces one field on the item with the given id in the named
// collection. A missing id is a silent no-op, matching add-form semantics.
func (s *Session) UpdateItem(collection string, id int, field string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var fieldErr error
	switch collection {
	case CollectionBenefits:
		s.Benefits, _ = UpdateItem(s.Benefits, id, func(b Benefit) Benefit {
			b, fieldErr = b.withField(field, value)
			return b
		})
	case CollectionWhyReasons:
		s.WhyReasons, _ = UpdateItem(s.WhyReasons, id, func(w WhyReason) WhyReason {
			w, fieldErr = w.withField(field, value)
			return w
		})
	case CollectionAudience:
		s.Audience, _ = UpdateItem(s.Audience, id, func(a AudienceSegment) AudienceSegment {
			a, fieldErr = a.withField(field, value)
			return a
		})
	case CollectionPackages:
		s.Packages, _ = UpdateItem(s.Packages, id, func(p PricingPackage) PricingPackage {
			p, fieldErr = p.withField(field, value)
			return p
		})
	case CollectionTestimonials:
		s.Testimonials, _ = UpdateItem(s.Testimonials, id, func(t Testimonial) Testimonial {
			t, fieldErr = t.withField(field, value)
			return t
		})
	case CollectionFAQs:
		s.FAQs, _ = UpdateItem(s.FAQs, id, func(f FAQ) FAQ {
			f, fieldErr = f.withField(field, value)
			return f
		})
	default:
		return unknownCollection(collection)
	}
	return fieldErr
}

// RemoveItem removes the item with the given id, refusing to empty the
// collection below one element.
func (s *Session) RemoveItem(collection string, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ok bool
	switch collection {
	case CollectionBenefits:
		s.Benefits, ok = RemoveItem(s.Benefits, id)
	case CollectionWhyReasons:
		s.WhyReasons, ok = RemoveItem(s.WhyReasons, id)
	case CollectionAudience:
		s.Audience, ok = RemoveItem(s.Audience, id)
	case CollectionPackages:
		s.Packages, ok = RemoveItem(s.Packages, id)
	case CollectionTestimonials:
		s.Testimonials, ok = RemoveItem(s.Testimonials, id)
	case CollectionFAQs:
		s.FAQs, ok = RemoveItem(s.FAQs, id)
	default:
		return unknownCollection(collection)
	}
	if !ok {
		return apperrors.Conflict(fmt.Sprintf("cannot remove the last %s item", collection))
	}
	return nil
}

// SetPopularPackage flags the package with the given id popular and clears
// the flag on every other package in one atomic update.
func (s *Session) SetPopularPackage(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]PricingPackage, len(s.Packages))
	for i, p := range s.Packages {
		p.IsPopular = p.ID == id
		out[i] = p
	}
	s.Packages = out
}

// UpdatePackageFeature replaces the feature at the given index on one package.
func (s *Session) UpdatePackageFeature(pkgID, index int, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	s.Packages, _ = UpdateItem(s.Packages, pkgID, func(p PricingPackage) PricingPackage {
		if index < 0 || index >= len(p.Features) {
			err = apperrors.InvalidInput(fmt.Sprintf("feature index %d out of range", index))
			return p
		}
		features := make([]string, len(p.Features))
		copy(features, p.Features)
		features[index] = value
		p.Features = features
		return p
	})
	return err
}

// AddPackageFeature appends an empty feature slot to one package.
func (s *Session) AddPackageFeature(pkgID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Packages, _ = UpdateItem(s.Packages, pkgID, func(p PricingPackage) PricingPackage {
		p.Features = append(append([]string{}, p.Features...), "")
		return p
	})
}

// RemovePackageFeature removes the feature at the given index. Removing the
// last feature resets the list to a single empty string so the package always
// keeps at least one feature slot.
func (s *Session) RemovePackageFeature(pkgID, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Packages, _ = UpdateItem(s.Packages, pkgID, func(p PricingPackage) PricingPackage {
		if index < 0 || index >= len(p.Features) {
			return p
		}
		features := append(append([]string{}, p.Features[:index]...), p.Features[index+1:]...)
		if len(features) == 0 {
			features = []string{""}
		}
		p.Features = features
		return p
	})
}

// SetMainImage replaces the current image attachment with a freshly selected
// file. The previous attachment becomes unreachable.
func (s *Session) SetMainImage(f NamedFile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Image = ImageAttachment{
		Name:    f.Name,
		Data:    f.Data,
		Preview: dataURL(f),
	}
}

// AddGalleryImages appends the files to the pending gallery.
func (s *Session) AddGalleryImages(files []NamedFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Gallery.Add(files)
}

// RemoveGalleryImage removes the pending gallery image at the given index.
func (s *Session) RemoveGalleryImage(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Gallery.Remove(index)
}

// BeginSubmit validates the session and, if valid, transitions to submitting
// and returns the serialized multipart payload. On a validation failure the
// session stays in editing and the error identifies the first violated field.
func (s *Session) BeginSubmit() (contentType string, body []byte, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Phase == PhaseSubmitting {
		return "", nil, apperrors.Conflict("submit already in progress")
	}
	if err := s.validateLocked(); err != nil {
		return "", nil, err
	}

	contentType, body, err = s.serializeLocked()
	if err != nil {
		return "", nil, err
	}

	s.Phase = PhaseSubmitting
	return contentType, body, nil
}

// FinishSubmit records the outcome of an in-flight submit. Success moves the
// session to its terminal phase; failure returns it to editing with the error
// surfaced and all entered state intact for retry.
func (s *Session) FinishSubmit(submitErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if submitErr != nil {
		s.Phase = PhaseEditing
		s.LastError = submitErr.Error()
		return
	}
	s.Phase = PhaseDone
	s.LastError = ""
}

// Validate checks submit preconditions without changing phase.
func (s *Session) Validate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validateLocked()
}

// validateLocked returns the first violated precondition, in form order.
func (s *Session) validateLocked() error {
	if isBlank(s.Resource.Name) {
		return apperrors.InvalidField("pujaName", "puja name is required")
	}
	if isBlank(s.Resource.CategoryID) {
		return apperrors.InvalidField("categoryId", "category is required")
	}
	if !positiveNumber(s.Resource.Price) {
		return apperrors.InvalidField("price", "valid price is required")
	}
	if !positiveNumber(s.Resource.Commission) {
		return apperrors.InvalidField("adminCommission", "valid admin commission is required")
	}
	// An image is required only on create; an edit session keeps the stored one.
	if !s.IsEdit() && !s.Image.HasImage() {
		return apperrors.InvalidField("image", "image is required")
	}
	return nil
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}

func unknownCollection(name string) error {
	return apperrors.InvalidInput(fmt.Sprintf("unknown collection %q", name))
}
