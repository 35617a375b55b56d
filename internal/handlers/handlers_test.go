package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"

	"vidserve/internal/store"
	"vidserve/internal/transcoder"
)

// fakeEncoder stands in for ffmpeg: it creates every output argument ending
// in .mp4 (skipping the -i input) and exits cleanly.
const fakeEncoder = `#!/bin/sh
prev=""
for a in "$@"; do
  if [ "$prev" != "-i" ]; then
    case "$a" in
      *.mp4) echo "encoded" > "$a" ;;
    esac
  fi
  prev="$a"
done
exit 0
`

const fakeEncoderFailing = `#!/bin/sh
echo "Invalid data found when processing input" >&2
exit 3
`

type testEnv struct {
	handlers *Handlers
	router   *mux.Router
}

func newTestEnv(t *testing.T, encoderScript string) *testEnv {
	t.Helper()

	st, err := store.New(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}

	catalog, err := store.OpenCatalog(context.Background(), filepath.Join(t.TempDir(), "uploads.db"))
	if err != nil {
		t.Fatalf("OpenCatalog() error = %v", err)
	}
	t.Cleanup(func() {
		if err := catalog.Close(); err != nil {
			t.Errorf("failed to close catalog: %v", err)
		}
	})

	scriptPath := filepath.Join(t.TempDir(), "fake-ffmpeg")
	if err := os.WriteFile(scriptPath, []byte(encoderScript), 0o755); err != nil {
		t.Fatalf("failed to write fake encoder: %v", err)
	}

	trans, err := transcoder.New(t.TempDir(), scriptPath, 2)
	if err != nil {
		t.Fatalf("transcoder.New() error = %v", err)
	}

	h := New(st, catalog, trans)

	r := mux.NewRouter()
	r.HandleFunc("/videos/upload", h.UploadVideo).Methods("POST")
	r.HandleFunc("/videos", h.ListVideos).Methods("GET")
	r.HandleFunc("/videos/{storedFilename}", h.GetVideo).Methods("GET")
	r.HandleFunc("/encode", h.EncodeVideo).Methods("POST")
	r.HandleFunc("/encode/multi", h.EncodeVideoLadder).Methods("POST")

	return &testEnv{handlers: h, router: r}
}

// multipartUpload builds a multipart body with one file part plus optional
// extra form fields.
func multipartUpload(t *testing.T, filename, contentType string, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)

	part, err := w.CreatePart(header)
	if err != nil {
		t.Fatalf("failed to create file part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("failed to write file part: %v", err)
	}

	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("failed to write field %s: %v", k, err)
		}
	}

	if err := w.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}
	return body, w.FormDataContentType()
}

func (env *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func (env *testEnv) upload(t *testing.T, filename, contentType string, data []byte) store.StoredMedia {
	t.Helper()

	body, ct := multipartUpload(t, filename, contentType, data, nil)
	req := httptest.NewRequest(http.MethodPost, "/videos/upload", body)
	req.Header.Set("Content-Type", ct)

	w := env.do(t, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("upload returned %d: %s", w.Code, w.Body.String())
	}

	var media store.StoredMedia
	if err := json.Unmarshal(w.Body.Bytes(), &media); err != nil {
		t.Fatalf("failed to decode upload response: %v", err)
	}
	return media
}

func decodeErrorBody(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode error body %q: %v", w.Body.String(), err)
	}
	return body
}

func TestUploadVideo(t *testing.T) {
	env := newTestEnv(t, fakeEncoder)

	data := bytes.Repeat([]byte("v"), 4096)
	media := env.upload(t, "my clip (final).MP4", "video/mp4", data)

	if media.ID == "" {
		t.Error("Expected non-empty id")
	}
	if media.SizeBytes != int64(len(data)) {
		t.Errorf("sizeBytes = %d, want %d", media.SizeBytes, len(data))
	}
	if media.OriginalName != "my_clip_final_.MP4" {
		t.Errorf("originalFilename = %q, want sanitized name", media.OriginalName)
	}
	if media.StoredName == "" {
		t.Error("Expected non-empty storedFilename")
	}

	// The upload must appear in the catalog listing.
	req := httptest.NewRequest(http.MethodGet, "/videos", http.NoBody)
	w := env.do(t, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list returned %d", w.Code)
	}

	var uploads []store.StoredMedia
	if err := json.Unmarshal(w.Body.Bytes(), &uploads); err != nil {
		t.Fatalf("failed to decode listing: %v", err)
	}
	if len(uploads) != 1 || uploads[0].ID != media.ID {
		t.Errorf("listing = %+v, want the single upload", uploads)
	}
}

func TestUploadVideoValidation(t *testing.T) {
	env := newTestEnv(t, fakeEncoder)

	t.Run("missing file field", func(t *testing.T) {
		body := &bytes.Buffer{}
		w := multipart.NewWriter(body)
		w.WriteField("codec", "h264")
		w.Close()

		req := httptest.NewRequest(http.MethodPost, "/videos/upload", body)
		req.Header.Set("Content-Type", w.FormDataContentType())

		resp := env.do(t, req)
		if resp.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.Code)
		}
		if kind := decodeErrorBody(t, resp)["error"]; kind != "validation" {
			t.Errorf("error kind = %q, want validation", kind)
		}
	})

	t.Run("empty file", func(t *testing.T) {
		body, ct := multipartUpload(t, "clip.mp4", "video/mp4", nil, nil)
		req := httptest.NewRequest(http.MethodPost, "/videos/upload", body)
		req.Header.Set("Content-Type", ct)

		resp := env.do(t, req)
		if resp.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.Code)
		}
	})

	t.Run("unsupported type", func(t *testing.T) {
		body, ct := multipartUpload(t, "notes.txt", "text/plain", []byte("hello"), nil)
		req := httptest.NewRequest(http.MethodPost, "/videos/upload", body)
		req.Header.Set("Content-Type", ct)

		resp := env.do(t, req)
		if resp.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.Code)
		}
		if kind := decodeErrorBody(t, resp)["error"]; kind != "validation" {
			t.Errorf("error kind = %q, want validation", kind)
		}
	})
}

func TestGetVideoFullDelivery(t *testing.T) {
	env := newTestEnv(t, fakeEncoder)

	data := make([]byte, 5000)
	for i := range data {
		data[i] = byte(i % 251)
	}
	media := env.upload(t, "clip.mp4", "video/mp4", data)

	req := httptest.NewRequest(http.MethodGet, "/videos/"+media.StoredName, http.NoBody)
	w := env.do(t, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := w.Header().Get("Accept-Ranges"); got != "bytes" {
		t.Errorf("Accept-Ranges = %q, want bytes", got)
	}
	if got := w.Header().Get("Content-Type"); got != "video/mp4" {
		t.Errorf("Content-Type = %q, want video/mp4", got)
	}
	if got := w.Header().Get("Content-Length"); got != "5000" {
		t.Errorf("Content-Length = %q, want 5000", got)
	}
	if !bytes.Equal(w.Body.Bytes(), data) {
		t.Error("body does not match uploaded bytes")
	}
}

func TestGetVideoRange(t *testing.T) {
	env := newTestEnv(t, fakeEncoder)

	data := make([]byte, 5000)
	for i := range data {
		data[i] = byte(i % 251)
	}
	media := env.upload(t, "clip.mp4", "video/mp4", data)

	tests := []struct {
		name         string
		rangeHeader  string
		wantStart    int64
		wantEnd      int64
		wantContentR string
	}{
		{"first kilobyte", "bytes=0-1023", 0, 1023, "bytes 0-1023/5000"},
		{"open-ended tail", "bytes=4500-", 4500, 4999, "bytes 4500-4999/5000"},
		{"suffix", "bytes=-500", 4500, 4999, "bytes 4500-4999/5000"},
		{"end clamped to size", "bytes=4000-9999", 4000, 4999, "bytes 4000-4999/5000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/videos/"+media.StoredName, http.NoBody)
			req.Header.Set("Range", tt.rangeHeader)
			w := env.do(t, req)

			if w.Code != http.StatusPartialContent {
				t.Fatalf("status = %d, want 206", w.Code)
			}
			if got := w.Header().Get("Content-Range"); got != tt.wantContentR {
				t.Errorf("Content-Range = %q, want %q", got, tt.wantContentR)
			}
			want := data[tt.wantStart : tt.wantEnd+1]
			if !bytes.Equal(w.Body.Bytes(), want) {
				t.Errorf("body is %d bytes, want window of %d bytes", w.Body.Len(), len(want))
			}
		})
	}
}

func TestGetVideoRangeRoundTrip(t *testing.T) {
	env := newTestEnv(t, fakeEncoder)

	data := make([]byte, 5000)
	for i := range data {
		data[i] = byte(i % 255)
	}
	media := env.upload(t, "clip.mp4", "video/mp4", data)

	// Two disjoint windows covering the file must concatenate back to the
	// original bytes.
	var combined bytes.Buffer
	for _, rangeHeader := range []string{"bytes=0-2499", "bytes=2500-4999"} {
		req := httptest.NewRequest(http.MethodGet, "/videos/"+media.StoredName, http.NoBody)
		req.Header.Set("Range", rangeHeader)
		w := env.do(t, req)

		if w.Code != http.StatusPartialContent {
			t.Fatalf("status = %d for %s, want 206", w.Code, rangeHeader)
		}
		if _, err := io.Copy(&combined, w.Body); err != nil {
			t.Fatalf("failed to read body: %v", err)
		}
	}

	if !bytes.Equal(combined.Bytes(), data) {
		t.Error("concatenated range windows do not reproduce the original file")
	}
}

func TestGetVideoUnsatisfiableRange(t *testing.T) {
	env := newTestEnv(t, fakeEncoder)

	media := env.upload(t, "clip.mp4", "video/mp4", bytes.Repeat([]byte("x"), 5000))

	req := httptest.NewRequest(http.MethodGet, "/videos/"+media.StoredName, http.NoBody)
	req.Header.Set("Range", "bytes=6000-7000")
	w := env.do(t, req)

	if w.Code != http.StatusRequestedRangeNotSatisfiable {
		t.Fatalf("status = %d, want 416", w.Code)
	}
	if got := w.Header().Get("Content-Range"); got != "bytes */5000" {
		t.Errorf("Content-Range = %q, want bytes */5000", got)
	}
	if w.Body.Len() != 0 {
		t.Errorf("416 body = %q (%d bytes), want empty body", w.Body.String(), w.Body.Len())
	}
}

func TestGetVideoNotFound(t *testing.T) {
	env := newTestEnv(t, fakeEncoder)

	req := httptest.NewRequest(http.MethodGet, "/videos/does-not-exist.mp4", http.NoBody)
	w := env.do(t, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if kind := decodeErrorBody(t, w)["error"]; kind != "not_found" {
		t.Errorf("error kind = %q, want not_found", kind)
	}
}

func TestGetVideoRejectsTraversal(t *testing.T) {
	env := newTestEnv(t, fakeEncoder)

	req := httptest.NewRequest(http.MethodGet, "/videos/x", http.NoBody)
	req = mux.SetURLVars(req, map[string]string{"storedFilename": "../../etc/passwd"})

	w := httptest.NewRecorder()
	env.handlers.GetVideo(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestEncodeVideo(t *testing.T) {
	env := newTestEnv(t, fakeEncoder)

	body, ct := multipartUpload(t, "clip.mp4", "video/mp4", []byte("fake video"), map[string]string{
		"codec":      "h264",
		"resolution": "720p",
	})
	req := httptest.NewRequest(http.MethodPost, "/encode", body)
	req.Header.Set("Content-Type", ct)

	w := env.do(t, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var result transcoder.Result
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode encode response: %v", err)
	}
	if result.Resolution != 720 {
		t.Errorf("resolution = %d, want 720", result.Resolution)
	}
	if result.OutputSizeBytes <= 0 {
		t.Errorf("outputSizeBytes = %d, want > 0", result.OutputSizeBytes)
	}
}

func TestEncodeVideoValidation(t *testing.T) {
	env := newTestEnv(t, fakeEncoder)

	tests := []struct {
		name   string
		fields map[string]string
	}{
		{"missing codec", map[string]string{"resolution": "720"}},
		{"missing resolution", map[string]string{"codec": "h264"}},
		{"bad resolution", map[string]string{"codec": "h264", "resolution": "tall"}},
		{"bad useGpu", map[string]string{"codec": "h264", "resolution": "720", "useGpu": "sometimes"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartUpload(t, "clip.mp4", "video/mp4", []byte("x"), tt.fields)
			req := httptest.NewRequest(http.MethodPost, "/encode", body)
			req.Header.Set("Content-Type", ct)

			w := env.do(t, req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
			if kind := decodeErrorBody(t, w)["error"]; kind != "validation" {
				t.Errorf("error kind = %q, want validation", kind)
			}
		})
	}

	t.Run("unsupported codec", func(t *testing.T) {
		body, ct := multipartUpload(t, "clip.mp4", "video/mp4", []byte("x"), map[string]string{
			"codec":      "flv1",
			"resolution": "720",
		})
		req := httptest.NewRequest(http.MethodPost, "/encode", body)
		req.Header.Set("Content-Type", ct)

		w := env.do(t, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

func TestEncodeVideoLadder(t *testing.T) {
	env := newTestEnv(t, fakeEncoder)

	body, ct := multipartUpload(t, "clip.mp4", "video/mp4", []byte("fake video"), map[string]string{
		"codec":      "h264",
		"resolution": "480",
	})
	req := httptest.NewRequest(http.MethodPost, "/encode/multi", body)
	req.Header.Set("Content-Type", ct)

	w := env.do(t, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var results []transcoder.Result
	if err := json.Unmarshal(w.Body.Bytes(), &results); err != nil {
		t.Fatalf("failed to decode ladder response: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Resolution != 480 || results[1].Resolution != 360 {
		t.Errorf("rungs = [%d, %d], want [480, 360]", results[0].Resolution, results[1].Resolution)
	}
}

func TestEncodeVideoBusy(t *testing.T) {
	env := newTestEnv(t, fakeEncoder)

	// Saturate both encode slots.
	slots := env.handlers.transcoder.Slots()
	for slots.TryAcquire() {
	}
	defer func() {
		for i := 0; i < slots.Capacity(); i++ {
			slots.Release()
		}
	}()

	body, ct := multipartUpload(t, "clip.mp4", "video/mp4", []byte("x"), map[string]string{
		"codec":      "h264",
		"resolution": "720",
	})
	req := httptest.NewRequest(http.MethodPost, "/encode", body)
	req.Header.Set("Content-Type", ct)

	w := env.do(t, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	if kind := decodeErrorBody(t, w)["error"]; kind != "busy" {
		t.Errorf("error kind = %q, want busy", kind)
	}
}

func TestEncodeVideoProcessFailure(t *testing.T) {
	env := newTestEnv(t, fakeEncoderFailing)

	body, ct := multipartUpload(t, "clip.mp4", "video/mp4", []byte("x"), map[string]string{
		"codec":      "h264",
		"resolution": "720",
	})
	req := httptest.NewRequest(http.MethodPost, "/encode", body)
	req.Header.Set("Content-Type", ct)

	w := env.do(t, req)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
	if kind := decodeErrorBody(t, w)["error"]; kind != "encode_failed" {
		t.Errorf("error kind = %q, want encode_failed", kind)
	}
}


