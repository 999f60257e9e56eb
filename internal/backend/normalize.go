package backend

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vedicseva/console/internal/editor"
)

// The platform API wraps payloads in several historical envelope shapes and
// uses multiple field-name aliases for the same concept. Everything in this
// file maps those loose inputs onto one canonical record; alias probing
// never leaks past this package.

// unwrap extracts the payload from a response envelope, trying the known
// variants in priority order: "results", "data", "puja", then the raw body.
func unwrap(raw []byte) (json.RawMessage, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode response envelope: %w", err)
	}
	for _, key := range []string{"results", "data", "puja"} {
		if payload, ok := envelope[key]; ok && string(payload) != "null" {
			return payload, nil
		}
	}
	return raw, nil
}

// loose is a raw decoded object with alias-tolerant accessors.
type loose map[string]any

// str returns the first non-empty string among the given keys. Numbers are
// rendered in their string form, since the API stores some numerics either way.
func (l loose) str(keys ...string) string {
	for _, k := range keys {
		switch v := l[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return trimFloat(v)
		}
	}
	return ""
}

// boolDefaultTrue reads a bool that counts as true unless explicitly false.
func (l loose) boolDefaultTrue(key string) bool {
	b, ok := l[key].(bool)
	return !ok || b
}

func (l loose) boolean(key string) bool {
	b, _ := l[key].(bool)
	return b
}

func (l loose) list(key string) []loose {
	items, ok := l[key].([]any)
	if !ok {
		return nil
	}
	out := make([]loose, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			out = append(out, loose(m))
		}
	}
	return out
}

func (l loose) float(keys ...string) float64 {
	for _, k := range keys {
		if f, ok := l[k].(float64); ok {
			return f
		}
	}
	return 0
}

func (l loose) strings(key string) []string {
	items, ok := l[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func trimFloat(f float64) string {
	s := fmt.Sprintf("%f", f)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// normalizeResource maps a raw resource object onto the canonical record.
// mediaURL builds the absolute preview URL from a stored image path.
func normalizeResource(raw json.RawMessage, mediaURL func(string) string) (*editor.RemoteRecord, error) {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("decode resource: %w", err)
	}
	l := loose(obj)

	rec := &editor.RemoteRecord{
		ID:         l.str("_id", "id"),
		CategoryID: l.str("categoryId"),
		// The display name historically arrives as either "title" or "pujaName".
		Name:       l.str("title", "pujaName"),
		Price:      l.str("price"),
		Commission: l.str("adminCommission"),

		Description:         l.str("description"),
		Overview:            l.str("overview"),
		WhyPerform:          l.str("whyPerform"),
		Details:             l.str("pujaDetails"),
		Duration:            l.str("duration"),
		Languages:           normalizeLanguages(l["languages"]),
		CancellationPolicy:  l.str("cancellationPolicy"),
		PreparationRequired: l.str("preparationRequired"),
		Discount:            l.str("discount"),
		PanditRequired:      l.boolDefaultTrue("panditRequired"),
		IsPopular:           l.boolean("isPopular"),
	}

	if path := l.str("imageUrl", "mainImage"); path != "" {
		rec.ImagePath = path
		rec.ImageURL = mediaURL(path)
	}

	for _, b := range l.list("enhancedBenefits") {
		rec.Benefits = append(rec.Benefits, editor.Benefit{
			Title:       b.str("title"),
			Description: b.str("description"),
			Icon:        defaultStr(b.str("icon"), "CheckCircle"),
		})
	}
	for _, w := range l.list("whyYouShould") {
		rec.WhyReasons = append(rec.WhyReasons, editor.WhyReason{
			Title:       w.str("title"),
			Description: w.str("description"),
			Icon:        defaultStr(w.str("icon"), "Target"),
		})
	}
	for _, a := range l.list("enhancedWhoShouldBook") {
		rec.Audience = append(rec.Audience, editor.AudienceSegment{
			Title:       a.str("title"),
			Description: a.str("description"),
			Icon:        defaultStr(a.str("icon"), "Users"),
		})
	}
	for _, p := range l.list("pricingPackages") {
		rec.Packages = append(rec.Packages, editor.PricingPackage{
			Title:         p.str("title"),
			Price:         p.float("price"),
			OriginalPrice: p.float("originalPrice"),
			Discount:      p.str("discount"),
			IsPopular:     p.boolean("isPopular"),
			Features:      p.strings("features"),
			Duration:      p.str("duration"),
			Validity:      p.str("validity"),
		})
	}
	for _, t := range l.list("testimonials") {
		rec.Testimonials = append(rec.Testimonials, editor.Testimonial{
			Highlight: t.str("highlight"),
			Quote:     t.str("quote"),
			Name:      t.str("name"),
			Location:  t.str("location"),
		})
	}
	for _, f := range l.list("faqs") {
		rec.FAQs = append(rec.FAQs, editor.FAQ{
			Question: f.str("question"),
			Answer:   f.str("answer"),
		})
	}

	return rec, nil
}

// normalizeLanguages joins an array-valued language list with commas and
// passes string values through.
func normalizeLanguages(v any) string {
	switch langs := v.(type) {
	case string:
		return langs
	case []any:
		parts := make([]string, 0, len(langs))
		for _, l := range langs {
			if s, ok := l.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ",")
	default:
		return ""
	}
}

// normalizeBlockedSlot flattens the populated astrologer reference, which
// arrives either as an embedded object or a bare id string.
func normalizeBlockedSlot(obj map[string]any) BlockedSlot {
	l := loose(obj)
	slot := BlockedSlot{
		ID:        l.str("_id"),
		TimeRange: l.str("timeRange"),
		Reason:    l.str("reason"),
		BlockedBy: l.str("blockedBy"),
		Prefix:    l.str("prefix"),
	}
	if active, ok := obj["isActive"].(bool); ok {
		slot.IsActive = active
	} else {
		slot.IsActive = true
	}

	switch astro := obj["astrologerId"].(type) {
	case string:
		slot.AstrologerID = astro
	case map[string]any:
		a := loose(astro)
		slot.AstrologerID = a.str("_id")
		slot.AstrologerName = a.str("astrologerName", "name")
	}
	return slot
}

// AstrologerName extracts a display name from an earnings row's astrologer
// reference, which is either an embedded detail object or a bare id. A bare
// id carries no name, so it renders as "N/A" like every other absent value.
func AstrologerName(v any) string {
	if obj, ok := v.(map[string]any); ok {
		if name := loose(obj).str("astrologerName", "name"); name != "" {
			return name
		}
	}
	return "N/A"
}

func defaultStr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
