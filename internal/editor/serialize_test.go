package editor

import (
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parseMultipart reads the serialized payload back into field values and
// file parts so assertions can look at what the platform API would receive.
func parseMultipart(t *testing.T, contentType string, body []byte) (map[string][]string, map[string][][]byte) {
	t.Helper()

	_, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)

	reader := multipart.NewReader(strings.NewReader(string(body)), params["boundary"])
	fields := map[string][]string{}
	files := map[string][][]byte{}
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)

		data, err := io.ReadAll(part)
		require.NoError(t, err)

		if part.FileName() != "" {
			files[part.FormName()] = append(files[part.FormName()], data)
		} else {
			fields[part.FormName()] = append(fields[part.FormName()], string(data))
		}
	}
	return fields, files
}

func TestSerialize_ScalarsAndCollections(t *testing.T) {
	s := NewSession("")
	fill(s)
	s.Resource.Languages = "Hindi,English,Sanskrit"
	s.FAQs = []FAQ{{ID: 1, Question: "Q", Answer: "A"}}

	ct, body, err := s.Serialize()
	require.NoError(t, err)

	fields, files := parseMultipart(t, ct, body)

	assert.Equal(t, []string{"Rudrabhishek"}, fields["pujaName"])
	assert.Equal(t, []string{"2100"}, fields["price"])
	assert.Equal(t, []string{"Hindi,English,Sanskrit"}, fields["languages"])
	assert.Equal(t, []string{"true"}, fields["panditRequired"])
	assert.Equal(t, []string{"false"}, fields["isPopular"])

	// Collections arrive as single JSON-encoded fields.
	var faqs []FAQ
	require.NoError(t, json.Unmarshal([]byte(fields["faqs"][0]), &faqs))
	require.Len(t, faqs, 1)
	assert.Equal(t, "Q", faqs[0].Question)

	var pkgs []PricingPackage
	require.NoError(t, json.Unmarshal([]byte(fields["pricingPackages"][0]), &pkgs))
	require.Len(t, pkgs, 1)
	assert.Equal(t, []string{""}, pkgs[0].Features)

	// Fresh image bytes attached under the fixed field name.
	require.Len(t, files[fieldImage], 1)
	assert.Equal(t, []byte("img"), files[fieldImage][0])
}

func TestSerialize_GalleryRepeatedField(t *testing.T) {
	s := NewSession("")
	fill(s)
	s.AddGalleryImages([]NamedFile{
		{Name: "g1.png", Data: []byte("one")},
		{Name: "g2.png", Data: []byte("two")},
	})

	ct, body, err := s.Serialize()
	require.NoError(t, err)

	_, files := parseMultipart(t, ct, body)
	require.Len(t, files[fieldGallery], 2)
	assert.Equal(t, []byte("one"), files[fieldGallery][0])
	assert.Equal(t, []byte("two"), files[fieldGallery][1])
}

func TestSerialize_NoImagePartWithoutFreshBytes(t *testing.T) {
	s := NewSession("66f0a1")
	fill(s)
	// Hydrated image: URL only, no bytes.
	s.Image = ImageAttachment{Name: "uploads/x.jpg", Preview: "http://cdn/uploads/x.jpg"}

	ct, body, err := s.Serialize()
	require.NoError(t, err)

	_, files := parseMultipart(t, ct, body)
	assert.Empty(t, files[fieldImage])
}

func TestHydrateSerializeRoundTrip(t *testing.T) {
	rec := &RemoteRecord{
		ID:                  "66f0a1",
		CategoryID:          "cat-3",
		Name:                "Satyanarayan Katha",
		Price:               "3100",
		Commission:          "12",
		Description:         "desc",
		Overview:            "ov",
		WhyPerform:          "wp",
		Details:             "det",
		Duration:            "4 hours",
		Languages:           "Hindi",
		CancellationPolicy:  "None",
		PreparationRequired: "Fast from sunrise",
		Discount:            "10",
		PanditRequired:      true,
		IsPopular:           true,
	}

	s := NewSession(rec.ID)
	s.Hydrate(rec)

	ct, body, err := s.Serialize()
	require.NoError(t, err)

	fields, _ := parseMultipart(t, ct, body)
	want := map[string]string{
		"categoryId":          "cat-3",
		"pujaName":            "Satyanarayan Katha",
		"price":               "3100",
		"adminCommission":     "12",
		"description":         "desc",
		"overview":            "ov",
		"whyPerform":          "wp",
		"pujaDetails":         "det",
		"duration":            "4 hours",
		"languages":           "Hindi",
		"cancellationPolicy":  "None",
		"preparationRequired": "Fast from sunrise",
		"discount":            "10",
		"panditRequired":      "true",
		"isPopular":           "true",
	}
	for name, value := range want {
		require.Len(t, fields[name], 1, "field %s", name)
		assert.Equal(t, value, fields[name][0], "field %s", name)
	}
}
