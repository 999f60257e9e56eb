package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vedicseva/console/internal/backend"
	"github.com/vedicseva/console/internal/editor"
	apperrors "github.com/vedicseva/console/pkg/errors"
	"github.com/vedicseva/console/pkg/httputil"
	"github.com/vedicseva/console/pkg/validator"
)

// maxUploadBytes bounds one editor upload request (main image or a gallery
// batch).
const maxUploadBytes = 32 << 20

// PlatformAPI is the full platform client surface the console handlers use.
// *backend.Client satisfies it.
type PlatformAPI interface {
	Categories(ctx context.Context) ([]backend.Category, error)
	GetResource(ctx context.Context, id string) (*editor.RemoteRecord, error)
	CreateResource(ctx context.Context, contentType string, body []byte) error
	UpdateResource(ctx context.Context, id, contentType string, body []byte) error
}

// EditorHandler serves the multi-step resource editor: session lifecycle,
// nested state mutations, uploads, and submit.
type EditorHandler struct {
	store   *editor.Store
	backend PlatformAPI
	logger  *slog.Logger
}

func NewEditorHandler(store *editor.Store, api PlatformAPI, logger *slog.Logger) *EditorHandler {
	return &EditorHandler{store: store, backend: api, logger: logger}
}

// --- Request DTOs ---

type createSessionRequest struct {
	EditID string `json:"editId"`
}

type updateFieldRequest struct {
	Name  string `json:"name" validate:"required"`
	Value any    `json:"value"`
}

type updateItemRequest struct {
	Field string `json:"field" validate:"required"`
	Value any    `json:"value"`
}

type updateFeatureRequest struct {
	Value string `json:"value"`
}

// sessionState is the editor state returned to the console UI after every
// mutation, mirroring what the form renders.
type sessionState struct {
	ID              string                   `json:"id"`
	EditID          string                   `json:"editId,omitempty"`
	Phase           editor.Phase             `json:"phase"`
	Resource        editor.Resource          `json:"resource"`
	Image           editor.ImageAttachment   `json:"image"`
	GalleryPreviews []string                 `json:"galleryPreviews"`
	Benefits        []editor.Benefit         `json:"benefits"`
	WhyReasons      []editor.WhyReason       `json:"whyYouShould"`
	Audience        []editor.AudienceSegment `json:"whoShouldBook"`
	Packages        []editor.PricingPackage  `json:"pricingPackages"`
	Testimonials    []editor.Testimonial     `json:"testimonials"`
	FAQs            []editor.FAQ             `json:"faqs"`
	LastError       string                   `json:"lastError,omitempty"`
}

func stateOf(s *editor.Session) sessionState {
	previews := s.Gallery.Previews
	if previews == nil {
		previews = []string{}
	}
	return sessionState{
		ID:              s.ID.String(),
		EditID:          s.EditID,
		Phase:           s.Phase,
		Resource:        s.Resource,
		Image:           s.Image,
		GalleryPreviews: previews,
		Benefits:        s.Benefits,
		WhyReasons:      s.WhyReasons,
		Audience:        s.Audience,
		Packages:        s.Packages,
		Testimonials:    s.Testimonials,
		FAQs:            s.FAQs,
		LastError:       s.LastError,
	}
}

// --- Handlers ---

// CreateSession handles POST /api/editor/sessions. An editId hydrates the
// session from the existing record; a failed record fetch still yields a
// usable blank form.
func (h *EditorHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req createSessionRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()), h.logger)
			return
		}
	}

	sess := h.store.Create(req.EditID)

	var rec *editor.RemoteRecord
	if req.EditID != "" {
		var err error
		rec, err = h.backend.GetResource(r.Context(), req.EditID)
		if err != nil {
			h.logger.WarnContext(r.Context(), "resource fetch failed, starting with blank form",
				slog.String("edit_id", req.EditID),
				slog.String("error", err.Error()),
			)
		}
	}
	sess.Hydrate(rec)

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: stateOf(sess)})
}

// GetSession handles GET /api/editor/sessions/{sessionId}.
func (h *EditorHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stateOf(sess)})
}

// DeleteSession handles DELETE /api/editor/sessions/{sessionId}.
func (h *EditorHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionId"))
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid session id"), h.logger)
		return
	}
	h.store.Delete(id)
	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

// UpdateField handles PUT /api/editor/sessions/{sessionId}/fields.
func (h *EditorHandler) UpdateField(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req updateFieldRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := sess.UpdateField(req.Name, req.Value); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stateOf(sess)})
}

// AddItem handles POST /api/editor/sessions/{sessionId}/collections/{collection}/items.
func (h *EditorHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := sess.AddItem(chi.URLParam(r, "collection")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stateOf(sess)})
}

// UpdateItem handles PUT /api/editor/sessions/{sessionId}/collections/{collection}/items/{itemId}.
func (h *EditorHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	itemID, ok := h.intParam(w, r, "itemId")
	if !ok {
		return
	}

	var req updateItemRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := sess.UpdateItem(chi.URLParam(r, "collection"), itemID, req.Field, req.Value); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stateOf(sess)})
}

// RemoveItem handles DELETE /api/editor/sessions/{sessionId}/collections/{collection}/items/{itemId}.
func (h *EditorHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	itemID, ok := h.intParam(w, r, "itemId")
	if !ok {
		return
	}

	if err := sess.RemoveItem(chi.URLParam(r, "collection"), itemID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stateOf(sess)})
}

// SetPopularPackage handles POST /api/editor/sessions/{sessionId}/packages/{packageId}/popular.
func (h *EditorHandler) SetPopularPackage(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	pkgID, ok := h.intParam(w, r, "packageId")
	if !ok {
		return
	}

	sess.SetPopularPackage(pkgID)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stateOf(sess)})
}

// UpdateFeature handles PUT /api/editor/sessions/{sessionId}/packages/{packageId}/features/{index}.
func (h *EditorHandler) UpdateFeature(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	pkgID, ok := h.intParam(w, r, "packageId")
	if !ok {
		return
	}
	index, ok := h.intParam(w, r, "index")
	if !ok {
		return
	}

	var req updateFeatureRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := sess.UpdatePackageFeature(pkgID, index, req.Value); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stateOf(sess)})
}

// AddFeature handles POST /api/editor/sessions/{sessionId}/packages/{packageId}/features.
func (h *EditorHandler) AddFeature(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	pkgID, ok := h.intParam(w, r, "packageId")
	if !ok {
		return
	}

	sess.AddPackageFeature(pkgID)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stateOf(sess)})
}

// RemoveFeature handles DELETE /api/editor/sessions/{sessionId}/packages/{packageId}/features/{index}.
func (h *EditorHandler) RemoveFeature(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	pkgID, ok := h.intParam(w, r, "packageId")
	if !ok {
		return
	}
	index, ok := h.intParam(w, r, "index")
	if !ok {
		return
	}

	sess.RemovePackageFeature(pkgID, index)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stateOf(sess)})
}

// SetMainImage handles POST /api/editor/sessions/{sessionId}/image with a
// multipart "image" part.
func (h *EditorHandler) SetMainImage(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid multipart body: "+err.Error()), h.logger)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidField("image", "image file is required"), h.logger)
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		httputil.WriteError(w, r, apperrors.Internal(err), h.logger)
		return
	}

	sess.SetMainImage(editor.NamedFile{Name: header.Filename, Data: data})
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stateOf(sess)})
}

// AddGalleryImages handles POST /api/editor/sessions/{sessionId}/gallery with
// repeated multipart "galleryImages" parts.
func (h *EditorHandler) AddGalleryImages(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid multipart body: "+err.Error()), h.logger)
		return
	}
	if r.MultipartForm == nil || len(r.MultipartForm.File["galleryImages"]) == 0 {
		httputil.WriteError(w, r, apperrors.InvalidField("galleryImages", "at least one gallery image is required"), h.logger)
		return
	}

	files := make([]editor.NamedFile, 0, len(r.MultipartForm.File["galleryImages"]))
	for _, header := range r.MultipartForm.File["galleryImages"] {
		data, err := readPart(header)
		if err != nil {
			httputil.WriteError(w, r, apperrors.Internal(err), h.logger)
			return
		}
		files = append(files, editor.NamedFile{Name: header.Filename, Data: data})
	}

	sess.AddGalleryImages(files)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stateOf(sess)})
}

// RemoveGalleryImage handles DELETE /api/editor/sessions/{sessionId}/gallery/{index}.
func (h *EditorHandler) RemoveGalleryImage(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	index, ok := h.intParam(w, r, "index")
	if !ok {
		return
	}

	sess.RemoveGalleryImage(index)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stateOf(sess)})
}

// Submit handles POST /api/editor/sessions/{sessionId}/submit. Validation
// failures identify the first violated field; a platform failure returns the
// session to editing with its state intact for retry.
func (h *EditorHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	contentType, body, err := sess.BeginSubmit()
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if sess.IsEdit() {
		err = h.backend.UpdateResource(r.Context(), sess.EditID, contentType, body)
	} else {
		err = h.backend.CreateResource(r.Context(), contentType, body)
	}
	sess.FinishSubmit(err)

	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stateOf(sess)})
}

// Categories handles GET /api/categories.
func (h *EditorHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.backend.Categories(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if categories == nil {
		categories = []backend.Category{}
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: categories})
}

// --- Helpers ---

func (h *EditorHandler) session(w http.ResponseWriter, r *http.Request) (*editor.Session, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionId"))
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid session id"), h.logger)
		return nil, false
	}
	sess, err := h.store.Get(id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return nil, false
	}
	return sess, true
}

func (h *EditorHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()), h.logger)
		return false
	}
	if err := validator.Validate(dst); err != nil {
		httputil.WriteValidationError(w, err)
		return false
	}
	return true
}

func (h *EditorHandler) intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput(name+" must be an integer"), h.logger)
		return 0, false
	}
	return v, true
}

func readPart(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()
	return io.ReadAll(file)
}
