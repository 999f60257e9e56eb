package editor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"strconv"
)

// Multipart field names, fixed by the platform API contract.
const (
	fieldImage   = "image"
	fieldGallery = "galleryImages"
)

// serializeLocked builds the multipart create/update payload: every scalar
// field stringified, every collection JSON-encoded into a single field, the
// main image bytes (when freshly selected) under "image", and each gallery
// file under a repeated "galleryImages" field. Caller holds the lock.
func (s *Session) serializeLocked() (contentType string, body []byte, err error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	scalars := []struct {
		name  string
		value string
	}{
		{"categoryId", s.Resource.CategoryID},
		{"pujaName", s.Resource.Name},
		{"price", s.Resource.Price},
		{"adminCommission", s.Resource.Commission},
		{"description", s.Resource.Description},
		{"overview", s.Resource.Overview},
		{"whyPerform", s.Resource.WhyPerform},
		{"pujaDetails", s.Resource.Details},
		{"duration", s.Resource.Duration},
		{"languages", s.Resource.Languages},
		{"cancellationPolicy", s.Resource.CancellationPolicy},
		{"preparationRequired", s.Resource.PreparationRequired},
		{"discount", s.Resource.Discount},
		{"panditRequired", strconv.FormatBool(s.Resource.PanditRequired)},
		{"isPopular", strconv.FormatBool(s.Resource.IsPopular)},
	}
	for _, f := range scalars {
		if err := w.WriteField(f.name, f.value); err != nil {
			return "", nil, fmt.Errorf("write field %s: %w", f.name, err)
		}
	}

	collections := []struct {
		name  string
		value any
	}{
		{"enhancedBenefits", s.Benefits},
		{"enhancedWhoShouldBook", s.Audience},
		{"whyYouShould", s.WhyReasons},
		{"pricingPackages", s.Packages},
		{"testimonials", s.Testimonials},
		{"faqs", s.FAQs},
	}
	for _, c := range collections {
		encoded, err := json.Marshal(c.value)
		if err != nil {
			return "", nil, fmt.Errorf("encode %s: %w", c.name, err)
		}
		if err := w.WriteField(c.name, string(encoded)); err != nil {
			return "", nil, fmt.Errorf("write field %s: %w", c.name, err)
		}
	}

	// Image bytes only when freshly selected; an edit session that kept the
	// stored image sends no image part and the server keeps the old one.
	if len(s.Image.Data) > 0 {
		part, err := w.CreateFormFile(fieldImage, s.Image.Name)
		if err != nil {
			return "", nil, fmt.Errorf("create image part: %w", err)
		}
		if _, err := part.Write(s.Image.Data); err != nil {
			return "", nil, fmt.Errorf("write image: %w", err)
		}
	}

	for _, f := range s.Gallery.Files {
		part, err := w.CreateFormFile(fieldGallery, f.Name)
		if err != nil {
			return "", nil, fmt.Errorf("create gallery part: %w", err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return "", nil, fmt.Errorf("write gallery image %s: %w", f.Name, err)
		}
	}

	if err := w.Close(); err != nil {
		return "", nil, fmt.Errorf("close multipart writer: %w", err)
	}

	return w.FormDataContentType(), buf.Bytes(), nil
}

// Serialize builds the multipart payload without changing phase. Used by
// tests and previews; submit flows go through BeginSubmit.
func (s *Session) Serialize() (contentType string, body []byte, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serializeLocked()
}
