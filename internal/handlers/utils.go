package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"vidserve/internal/encoder"
	"vidserve/internal/logging"
	"vidserve/internal/store"
	"vidserve/internal/transcoder"
)

// Stable error kinds carried in the "error" field of JSON error bodies.
// Clients branch on the kind; the "message" field is human-readable detail.
// 416 responses carry no body at all, only a Content-Range header.
const (
	errKindValidation   = "validation"
	errKindNotFound     = "not_found"
	errKindBusy         = "busy"
	errKindEncodeFailed = "encode_failed"
	errKindInternal     = "internal"
)

// writeJSON encodes v as JSON and writes it to the response writer.
// Any encoding or write errors are logged since we typically cannot
// recover from them in an HTTP handler context.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, kind, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, map[string]string{"error": kind, "message": message})
}

// writeJSONStatus writes a simple status response as JSON.
func writeJSONStatus(w http.ResponseWriter, status string) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": status})
}

// writeStoreError maps store failures onto the HTTP error taxonomy.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrEmptyFile),
		errors.Is(err, store.ErrFileTooLarge),
		errors.Is(err, store.ErrUnsupportedType),
		errors.Is(err, store.ErrMissingFilename),
		errors.Is(err, store.ErrPathEscapesRoot):
		writeJSONError(w, errKindValidation, err.Error(), http.StatusBadRequest)
	case errors.Is(err, store.ErrNotFound):
		writeJSONError(w, errKindNotFound, err.Error(), http.StatusNotFound)
	default:
		logging.Error("store operation failed: %v", err)
		writeJSONError(w, errKindInternal, "storage failure", http.StatusInternalServerError)
	}
}

// writeEncodeError maps transcoder failures onto the HTTP error taxonomy.
// Encoder process failures surface as 502 since the failing component is the
// external encoder, not this service.
func writeEncodeError(w http.ResponseWriter, err error) {
	var procErr *transcoder.ProcessError
	switch {
	case errors.Is(err, transcoder.ErrBusy):
		writeJSONError(w, errKindBusy, "all encode slots are busy, retry later", http.StatusServiceUnavailable)
	case errors.Is(err, encoder.ErrUnsupportedCodec):
		writeJSONError(w, errKindValidation, err.Error(), http.StatusBadRequest)
	case errors.As(err, &procErr):
		logging.Error("encoder process failed with code %d: %s", procErr.ExitCode, procErr.Output)
		writeJSONError(w, errKindEncodeFailed, procErr.Error(), http.StatusBadGateway)
	default:
		logging.Error("encode failed: %v", err)
		writeJSONError(w, errKindInternal, "encode failure", http.StatusInternalServerError)
	}
}


