package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gorilla/mux"

	"vidserve/internal/httprange"
	"vidserve/internal/logging"
	"vidserve/internal/metrics"
	"vidserve/internal/store"
	"vidserve/internal/streaming"
)

// GetVideo serves a stored blob, honoring single-range byte requests.
// Requests without a Range header get the full file with 200; a satisfiable
// range gets exactly that window with 206 and a Content-Range header; an
// unsatisfiable range gets 416 with the total size. Bodies are streamed
// through a bounded reader so a client that disconnects mid-window still
// releases the file handle exactly once.
// GET /videos/{storedFilename}
func (h *Handlers) GetVideo(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	storedFilename := vars["storedFilename"]

	fullPath, err := h.store.Resolve(storedFilename)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.DeliveryRequestsTotal.WithLabelValues("not_found").Inc()
		}
		writeStoreError(w, err)
		return
	}

	f, err := os.Open(fullPath)
	if err != nil {
		logging.Error("failed to open %s: %v", fullPath, err)
		writeJSONError(w, errKindInternal, "failed to open file", http.StatusInternalServerError)
		return
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		logging.Error("failed to stat %s: %v", fullPath, err)
		writeJSONError(w, errKindInternal, "failed to stat file", http.StatusInternalServerError)
		return
	}
	total := info.Size()

	rng, partial, err := httprange.Parse(r.Header.Get("Range"), total)
	if err != nil {
		f.Close()
		metrics.DeliveryRequestsTotal.WithLabelValues("unsatisfiable").Inc()
		// 416 carries only the total size in Content-Range, no body.
		w.Header().Set("Content-Range", httprange.UnsatisfiableContentRange(total))
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
		return
	}

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", contentTypeFor(storedFilename))

	if !partial {
		w.Header().Set("Content-Length", strconv.FormatInt(total, 10))
		w.WriteHeader(http.StatusOK)
		metrics.DeliveryRequestsTotal.WithLabelValues("full").Inc()
		h.sendWindow(w, f, total)
		return
	}

	if _, err := f.Seek(rng.Start, io.SeekStart); err != nil {
		f.Close()
		logging.Error("failed to seek %s to %d: %v", fullPath, rng.Start, err)
		writeJSONError(w, errKindInternal, "failed to seek file", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Range", rng.ContentRange())
	w.Header().Set("Content-Length", strconv.FormatInt(rng.Length(), 10))
	w.WriteHeader(http.StatusPartialContent)
	metrics.DeliveryRequestsTotal.WithLabelValues("partial").Inc()
	h.sendWindow(w, f, rng.Length())
}

// sendWindow copies exactly window bytes from f to the response. The bounded
// reader owns the file handle from here on and closes it on exhaustion,
// error, or abandonment.
func (h *Handlers) sendWindow(w http.ResponseWriter, f *os.File, window int64) {
	bounded := streaming.NewBounded(f, window)
	defer func() {
		if err := bounded.Close(); err != nil {
			logging.Warn("failed to close delivery stream: %v", err)
		}
	}()

	n, err := io.Copy(w, bounded)
	metrics.DeliveryBytesSent.Add(float64(n))
	if err != nil {
		// Usually the client going away mid-stream.
		logging.Debug("delivery aborted after %d of %d bytes: %v", n, window, err)
	}
}

// contentTypeFor picks the response content type from the stored extension,
// falling back to a generic binary type.
func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}


