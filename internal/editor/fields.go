package editor

import (
	"fmt"

	apperrors "github.com/vedicseva/console/pkg/errors"
)

// withField returns a copy of the item with one content field replaced. Each
// variant accepts only its own fields, so a wrong field name fails instead of
// silently writing into an untyped bag.

func (b Benefit) withField(name string, value any) (Benefit, error) {
	switch name {
	case "title":
		b.Title = coerceString(value)
	case "description":
		b.Description = coerceString(value)
	case "icon":
		b.Icon = coerceString(value)
	default:
		return b, unknownItemField("benefit", name)
	}
	return b, nil
}

func (w WhyReason) withField(name string, value any) (WhyReason, error) {
	switch name {
	case "title":
		w.Title = coerceString(value)
	case "description":
		w.Description = coerceString(value)
	case "icon":
		w.Icon = coerceString(value)
	default:
		return w, unknownItemField("why-reason", name)
	}
	return w, nil
}

func (a AudienceSegment) withField(name string, value any) (AudienceSegment, error) {
	switch name {
	case "title":
		a.Title = coerceString(value)
	case "description":
		a.Description = coerceString(value)
	case "icon":
		a.Icon = coerceString(value)
	default:
		return a, unknownItemField("audience segment", name)
	}
	return a, nil
}

func (t Testimonial) withField(name string, value any) (Testimonial, error) {
	switch name {
	case "highlight":
		t.Highlight = coerceString(value)
	case "quote":
		t.Quote = coerceString(value)
	case "name":
		t.Name = coerceString(value)
	case "location":
		t.Location = coerceString(value)
	default:
		return t, unknownItemField("testimonial", name)
	}
	return t, nil
}

func (f FAQ) withField(name string, value any) (FAQ, error) {
	switch name {
	case "question":
		f.Question = coerceString(value)
	case "answer":
		f.Answer = coerceString(value)
	default:
		return f, unknownItemField("faq", name)
	}
	return f, nil
}

func (p PricingPackage) withField(name string, value any) (PricingPackage, error) {
	switch name {
	case "title":
		p.Title = coerceString(value)
	case "price":
		p.Price = coerceFloat(value)
	case "originalPrice":
		p.OriginalPrice = coerceFloat(value)
	case "discount":
		p.Discount = coerceString(value)
	case "duration":
		p.Duration = coerceString(value)
	case "validity":
		p.Validity = coerceString(value)
	default:
		return p, unknownItemField("pricing package", name)
	}
	return p, nil
}

func coerceFloat(v any) float64 {
	switch f := v.(type) {
	case float64:
		return f
	case int:
		return float64(f)
	case string:
		var out float64
		_, _ = fmt.Sscanf(f, "%g", &out)
		return out
	default:
		return 0
	}
}

func unknownItemField(item, field string) error {
	return apperrors.InvalidInput(fmt.Sprintf("unknown %s field %q", item, field))
}
