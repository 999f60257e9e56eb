package editor

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/vedicseva/console/pkg/errors"
)

// Resource is the flat scalar record of the composite bookable service being
// created or edited. Numeric fields are kept as strings; parsing is deferred
// to validation and submit time, matching the form semantics.
type Resource struct {
	CategoryID          string `json:"categoryId"`
	Name                string `json:"pujaName"`
	Price               string `json:"price"`
	Commission          string `json:"adminCommission"`
	Description         string `json:"description"`
	Overview            string `json:"overview"`
	WhyPerform          string `json:"whyPerform"`
	Details             string `json:"pujaDetails"`
	Duration            string `json:"duration"`
	Languages           string `json:"languages"`
	CancellationPolicy  string `json:"cancellationPolicy"`
	PreparationRequired string `json:"preparationRequired"`
	Discount            string `json:"discount"`
	PanditRequired      bool   `json:"panditRequired"`
	IsPopular           bool   `json:"isPopular"`
}

// NewResource returns a resource pre-filled with the form defaults.
func NewResource() Resource {
	return Resource{
		Duration:           "2-3 hours",
		Languages:          "Hindi,English",
		CancellationPolicy: "Free cancellation up to 24 hours before puja",
		PanditRequired:     true,
	}
}

// boolFields are the checkbox-typed scalar fields, which coerce their value
// to a boolean. Every other field takes the raw string form of the value.
var boolFields = map[string]bool{
	"panditRequired": true,
	"isPopular":      true,
}

// UpdateField returns a copy of the resource with the named field replaced.
// Unknown field names are rejected.
func (r Resource) UpdateField(name string, value any) (Resource, error) {
	if boolFields[name] {
		b := coerceBool(value)
		switch name {
		case "panditRequired":
			r.PanditRequired = b
		case "isPopular":
			r.IsPopular = b
		}
		return r, nil
	}

	s := coerceString(value)
	switch name {
	case "categoryId":
		r.CategoryID = s
	case "pujaName":
		r.Name = s
	case "price":
		r.Price = s
	case "adminCommission":
		r.Commission = s
	case "description":
		r.Description = s
	case "overview":
		r.Overview = s
	case "whyPerform":
		r.WhyPerform = s
	case "pujaDetails":
		r.Details = s
	case "duration":
		r.Duration = s
	case "languages":
		r.Languages = s
	case "cancellationPolicy":
		r.CancellationPolicy = s
	case "preparationRequired":
		r.PreparationRequired = s
	case "discount":
		r.Discount = s
	default:
		return r, apperrors.InvalidInput(fmt.Sprintf("unknown field %q", name))
	}
	return r, nil
}

func coerceBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "true" || b == "on" || b == "1"
	default:
		return false
	}
}

func coerceString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(s)
	}
}

// positiveNumber reports whether s parses to a number greater than zero.
func positiveNumber(s string) bool {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil && f > 0
}
