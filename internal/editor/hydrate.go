package editor

// RemoteRecord is the canonical form of a fetched resource, produced by the
// backend client's normalizer. All historical field-name aliases and envelope
// variants are resolved before a record reaches the editor; the editor never
// probes alternate field names itself.
type RemoteRecord struct {
	ID         string
	CategoryID string
	Name       string
	Price      string
	Commission string

	Description         string
	Overview            string
	WhyPerform          string
	Details             string
	Duration            string
	Languages           string // comma-joined
	CancellationPolicy  string
	PreparationRequired string
	Discount            string
	PanditRequired      bool
	IsPopular           bool

	// ImagePath is the stored relative path; ImageURL is the media-base
	// absolute URL built from it. No image bytes are ever fetched.
	ImagePath string
	ImageURL  string

	Benefits     []Benefit
	WhyReasons   []WhyReason
	Audience     []AudienceSegment
	Packages     []PricingPackage
	Testimonials []Testimonial
	FAQs         []FAQ
}

// Hydrate maps a normalized remote record onto the session. Scalars always
// take the remote value (with form defaults filling gaps); each sub-collection
// is replaced only when the remote record supplies a non-empty one, otherwise
// the seeded single-element default is retained. Replaced items are re-id'd
// sequentially from 1 in remote order, discarding remote-side identifiers.
func (s *Session) Hydrate(rec *RemoteRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec == nil {
		// Fetch failure: the form stays usable with defaults.
		s.Phase = PhaseEditing
		return
	}

	r := Resource{
		CategoryID:          rec.CategoryID,
		Name:                rec.Name,
		Price:               rec.Price,
		Commission:          rec.Commission,
		Description:         rec.Description,
		Overview:            rec.Overview,
		WhyPerform:          rec.WhyPerform,
		Details:             rec.Details,
		Duration:            rec.Duration,
		Languages:           rec.Languages,
		CancellationPolicy:  rec.CancellationPolicy,
		PreparationRequired: rec.PreparationRequired,
		Discount:            rec.Discount,
		PanditRequired:      rec.PanditRequired,
		IsPopular:           rec.IsPopular,
	}
	if r.Duration == "" {
		r.Duration = "2-3 hours"
	}
	if r.Languages == "" {
		r.Languages = "Hindi,English"
	}
	s.Resource = r

	if rec.ImagePath != "" || rec.ImageURL != "" {
		s.Image = ImageAttachment{
			Name:    rec.ImagePath,
			Preview: rec.ImageURL,
		}
	}

	if len(rec.Benefits) > 0 {
		s.Benefits = Reassign(rec.Benefits)
	}
	if len(rec.WhyReasons) > 0 {
		s.WhyReasons = Reassign(rec.WhyReasons)
	}
	if len(rec.Audience) > 0 {
		s.Audience = Reassign(rec.Audience)
	}
	if len(rec.Packages) > 0 {
		s.Packages = Reassign(rec.Packages)
	}
	if len(rec.Testimonials) > 0 {
		s.Testimonials = Reassign(rec.Testimonials)
	}
	if len(rec.FAQs) > 0 {
		s.FAQs = Reassign(rec.FAQs)
	}

	s.Phase = PhaseEditing
}
