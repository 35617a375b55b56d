package handlers

import (
	"mime/multipart"
	"net/http"
	"strconv"

	"vidserve/internal/encoder"
	"vidserve/internal/logging"
	"vidserve/internal/store"
)

// EncodeVideo encodes an uploaded clip once, at the requested resolution.
// Multipart fields: file (required), codec (required), resolution
// (required, "720" or "720p"), useGpu (optional bool).
// POST /encode
func (h *Handlers) EncodeVideo(w http.ResponseWriter, r *http.Request) {
	file, job, ok := h.parseEncodeRequest(w, r)
	if !ok {
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close encode upload part: %v", err)
		}
	}()

	result, err := h.transcoder.EncodeSingle(r.Context(), file, job)
	if err != nil {
		writeEncodeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, result)
}

// EncodeVideoLadder encodes an uploaded clip into the resolution ladder at
// and below the requested resolution, in one encoder invocation.
// POST /encode/multi
func (h *Handlers) EncodeVideoLadder(w http.ResponseWriter, r *http.Request) {
	file, job, ok := h.parseEncodeRequest(w, r)
	if !ok {
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close encode upload part: %v", err)
		}
	}()

	results, err := h.transcoder.EncodeLadder(r.Context(), file, job)
	if err != nil {
		writeEncodeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, results)
}

// parseEncodeRequest validates the shared multipart surface of the encode
// endpoints. On failure it has already written the error response.
func (h *Handlers) parseEncodeRequest(w http.ResponseWriter, r *http.Request) (multipart.File, encoder.Job, bool) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, errKindValidation, "multipart field \"file\" is required", http.StatusBadRequest)
		return nil, encoder.Job{}, false
	}

	fail := func(kind, msg string, status int) (multipart.File, encoder.Job, bool) {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close encode upload part: %v", err)
		}
		writeJSONError(w, kind, msg, status)
		return nil, encoder.Job{}, false
	}

	if header.Size <= 0 {
		return fail(errKindValidation, store.ErrEmptyFile.Error(), http.StatusBadRequest)
	}
	if header.Size > h.store.MaxSizeBytes() {
		return fail(errKindValidation, store.ErrFileTooLarge.Error(), http.StatusBadRequest)
	}

	codec := r.FormValue("codec")
	if codec == "" {
		return fail(errKindValidation, "form field \"codec\" is required", http.StatusBadRequest)
	}

	resolution, err := encoder.ParseResolution(r.FormValue("resolution"))
	if err != nil {
		return fail(errKindValidation, "form field \"resolution\" must be a positive height like \"720\" or \"720p\"", http.StatusBadRequest)
	}

	useGPU := false
	if s := r.FormValue("useGpu"); s != "" {
		useGPU, err = strconv.ParseBool(s)
		if err != nil {
			return fail(errKindValidation, "form field \"useGpu\" must be a boolean", http.StatusBadRequest)
		}
	}

	return file, encoder.Job{
		Codec:      codec,
		Resolution: resolution,
		UseGPU:     useGPU,
	}, true
}


