package handlers

import (
	"net/http"
	"strconv"

	"vidserve/internal/logging"
	"vidserve/internal/metrics"
	"vidserve/internal/store"
)

// UploadVideo accepts a multipart upload in the "file" field, validates it,
// and persists it to the blob store. The stored metadata is returned with
// status 201. Catalog insertion is best-effort: the blob on disk is the
// source of truth, so a metadata write failure is logged but does not fail
// the upload.
// POST /videos/upload
func (h *Handlers) UploadVideo(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		metrics.StoreUploadsTotal.WithLabelValues("rejected").Inc()
		writeJSONError(w, errKindValidation, `multipart field "file" is required`, http.StatusBadRequest)
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close upload part: %v", err)
		}
	}()

	contentType := header.Header.Get("Content-Type")

	media, err := h.store.Store(file, header.Filename, contentType, header.Size)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	if err := h.catalog.Insert(r.Context(), media); err != nil {
		logging.Error("failed to catalog upload %s: %v", media.ID, err)
	}

	logging.Info("stored upload %s (%s, %d bytes)", media.ID, media.StoredName, media.SizeBytes)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, media)
}

// ListVideos returns catalogued uploads, newest first. The optional limit
// query parameter caps the result count.
// GET /videos
func (h *Handlers) ListVideos(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := parsePositiveInt(s)
		if err != nil {
			writeJSONError(w, errKindValidation, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	uploads, err := h.catalog.List(r.Context(), limit)
	if err != nil {
		logging.Error("failed to list uploads: %v", err)
		writeJSONError(w, errKindInternal, "catalog failure", http.StatusInternalServerError)
		return
	}
	if uploads == nil {
		uploads = []store.StoredMedia{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, uploads)
}

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, strconv.ErrRange
	}
	return n, nil
}


