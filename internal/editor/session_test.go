package editor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/vedicseva/console/pkg/errors"
)

func TestNewSession_SeedsDefaults(t *testing.T) {
	s := NewSession("")

	assert.Equal(t, PhaseLoading, s.Phase)
	assert.Equal(t, "2-3 hours", s.Resource.Duration)
	assert.Equal(t, "Hindi,English", s.Resource.Languages)
	assert.True(t, s.Resource.PanditRequired)

	// Every collection starts with exactly one default element.
	assert.Len(t, s.Benefits, 1)
	assert.Len(t, s.Packages, 1)
	assert.Equal(t, []string{""}, s.Packages[0].Features)
	assert.Equal(t, "Users", s.Audience[0].Icon)
}

func TestUpdateField_CheckboxCoercion(t *testing.T) {
	s := NewSession("")

	require.NoError(t, s.UpdateField("panditRequired", "on"))
	assert.True(t, s.Resource.PanditRequired)

	require.NoError(t, s.UpdateField("panditRequired", false))
	assert.False(t, s.Resource.PanditRequired)

	// Non-checkbox fields take the raw string; numeric parsing is deferred.
	require.NoError(t, s.UpdateField("price", "1100"))
	assert.Equal(t, "1100", s.Resource.Price)

	err := s.UpdateField("noSuchField", "x")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestSetPopularPackage_Exclusive(t *testing.T) {
	s := NewSession("")
	s.Packages = []PricingPackage{
		{ID: 1, IsPopular: true, Features: []string{""}},
		{ID: 2, IsPopular: false, Features: []string{""}},
	}

	s.SetPopularPackage(2)

	assert.False(t, s.Packages[0].IsPopular)
	assert.True(t, s.Packages[1].IsPopular)
}

func TestPackageFeatures(t *testing.T) {
	s := NewSession("")
	pkgID := s.Packages[0].ID

	s.AddPackageFeature(pkgID)
	require.NoError(t, s.UpdatePackageFeature(pkgID, 1, "Full samagri included"))
	assert.Equal(t, []string{"", "Full samagri included"}, s.Packages[0].Features)

	s.RemovePackageFeature(pkgID, 0)
	assert.Equal(t, []string{"Full samagri included"}, s.Packages[0].Features)

	// Removing the last feature resets to a single empty slot.
	s.RemovePackageFeature(pkgID, 0)
	assert.Equal(t, []string{""}, s.Packages[0].Features)
}

func TestValidate_FirstViolationWins(t *testing.T) {
	tests := []struct {
		name  string
		setup func(s *Session)
		field string
	}{
		{
			name:  "blank name",
			setup: func(s *Session) { fill(s); s.Resource.Name = "   " },
			field: "pujaName",
		},
		{
			name:  "missing category",
			setup: func(s *Session) { fill(s); s.Resource.CategoryID = "" },
			field: "categoryId",
		},
		{
			name:  "zero price",
			setup: func(s *Session) { fill(s); s.Resource.Price = "0" },
			field: "price",
		},
		{
			name:  "unparseable commission",
			setup: func(s *Session) { fill(s); s.Resource.Commission = "ten" },
			field: "adminCommission",
		},
		{
			name:  "missing image on create",
			setup: func(s *Session) { fill(s); s.Image = ImageAttachment{} },
			field: "image",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession("")
			tt.setup(s)

			err := s.Validate()
			require.Error(t, err)

			var appErr *apperrors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.field, appErr.Field)
		})
	}
}

func TestValidate_ImageNotRequiredOnEdit(t *testing.T) {
	s := NewSession("66f0a1")
	fill(s)
	s.Image = ImageAttachment{}

	assert.NoError(t, s.Validate())
}

func TestValidate_ExistingRemoteImageSatisfiesCreate(t *testing.T) {
	s := NewSession("")
	fill(s)
	s.Image = ImageAttachment{Name: "uploads/x.jpg", Preview: "http://cdn/uploads/x.jpg"}

	assert.NoError(t, s.Validate())
}

func TestSubmitLifecycle(t *testing.T) {
	s := NewSession("")
	fill(s)

	ct, body, err := s.BeginSubmit()
	require.NoError(t, err)
	assert.Contains(t, ct, "multipart/form-data")
	assert.NotEmpty(t, body)
	assert.Equal(t, PhaseSubmitting, s.Phase)

	// A second submit while one is in flight is rejected.
	_, _, err = s.BeginSubmit()
	assert.True(t, errors.Is(err, apperrors.ErrConflict))

	// Failure returns to editing with state intact and the error surfaced.
	s.FinishSubmit(errors.New("gateway timeout"))
	assert.Equal(t, PhaseEditing, s.Phase)
	assert.Equal(t, "gateway timeout", s.LastError)
	assert.Equal(t, "Rudrabhishek", s.Resource.Name)

	// Retry succeeds and terminates the session.
	_, _, err = s.BeginSubmit()
	require.NoError(t, err)
	s.FinishSubmit(nil)
	assert.Equal(t, PhaseDone, s.Phase)
	assert.Empty(t, s.LastError)
}

func TestHydrate_ReplaceOnlyNonEmptyCollections(t *testing.T) {
	s := NewSession("66f0a1")
	s.Hydrate(&RemoteRecord{
		ID:         "66f0a1",
		CategoryID: "cat-9",
		Name:       "Maha Mrityunjaya Jaap",
		Price:      "5100",
		Commission: "10",
		FAQs: []FAQ{
			{ID: 42, Question: "How long?", Answer: "Three hours"},
			{ID: 7, Question: "Prasad?", Answer: "Shipped"},
		},
	})

	assert.Equal(t, PhaseEditing, s.Phase)
	assert.Equal(t, "Maha Mrityunjaya Jaap", s.Resource.Name)
	// Empty remote fields fall back to form defaults.
	assert.Equal(t, "2-3 hours", s.Resource.Duration)

	// Supplied collection replaced and re-id'd from 1 in remote order.
	require.Len(t, s.FAQs, 2)
	assert.Equal(t, 1, s.FAQs[0].ID)
	assert.Equal(t, "How long?", s.FAQs[0].Question)
	assert.Equal(t, 2, s.FAQs[1].ID)

	// Collections the remote record omitted keep their seeded default.
	assert.Len(t, s.Benefits, 1)
	assert.Equal(t, "CheckCircle", s.Benefits[0].Icon)
}

func TestHydrate_NilRecordLeavesFormUsable(t *testing.T) {
	s := NewSession("66f0a1")
	s.Hydrate(nil)

	assert.Equal(t, PhaseEditing, s.Phase)
	assert.Len(t, s.FAQs, 1)
	assert.Equal(t, "Hindi,English", s.Resource.Languages)
}

func TestHydrate_ImageFromStoredPath(t *testing.T) {
	s := NewSession("66f0a1")
	s.Hydrate(&RemoteRecord{
		ImagePath: "/uploads/rudra.jpg",
		ImageURL:  "http://cdn.local/uploads/rudra.jpg",
	})

	assert.Equal(t, "/uploads/rudra.jpg", s.Image.Name)
	assert.Equal(t, "http://cdn.local/uploads/rudra.jpg", s.Image.Preview)
	assert.Nil(t, s.Image.Data)
	assert.True(t, s.Image.HasImage())
}

func TestGallery_RemovalKeepsAlignment(t *testing.T) {
	s := NewSession("")
	s.AddGalleryImages([]NamedFile{
		{Name: "a.png", Data: []byte("aa")},
		{Name: "b.png", Data: []byte("bb")},
		{Name: "c.png", Data: []byte("cc")},
	})
	require.Equal(t, 3, s.Gallery.Len())
	require.Len(t, s.Gallery.Previews, 3)

	s.RemoveGalleryImage(1)

	require.Equal(t, 2, s.Gallery.Len())
	assert.Equal(t, "a.png", s.Gallery.Files[0].Name)
	assert.Equal(t, "c.png", s.Gallery.Files[1].Name)
	// Previews removed at the same index, still aligned with files.
	assert.Equal(t, dataURL(s.Gallery.Files[0]), s.Gallery.Previews[0])
	assert.Equal(t, dataURL(s.Gallery.Files[1]), s.Gallery.Previews[1])
}

func TestGallery_PreviewsFollowSelectionOrder(t *testing.T) {
	g := &Gallery{}
	files := make([]NamedFile, 8)
	for i := range files {
		files[i] = NamedFile{Name: "img.png", Data: []byte{byte(i)}}
	}
	g.Add(files)

	require.Len(t, g.Previews, 8)
	for i, f := range g.Files {
		assert.Equal(t, dataURL(f), g.Previews[i], "slot %d", i)
	}
}

// fill makes a session pass validation.
func fill(s *Session) {
	s.Resource.Name = "Rudrabhishek"
	s.Resource.CategoryID = "cat-1"
	s.Resource.Price = "2100"
	s.Resource.Commission = "15"
	s.Image = ImageAttachment{Name: "rudra.jpg", Data: []byte("img"), Preview: "data:image/jpeg;base64,aW1n"}
}
