package store

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"vidserve/internal/logging"
	"vidserve/internal/metrics"

	"github.com/google/uuid"
)

// DefaultMaxSizeBytes is the upload size cap used when none is configured
// (500 MB).
const DefaultMaxSizeBytes = 524288000

// Validation and security failures surfaced by the store. Handlers map these
// to 4xx responses; anything else coming out of the store is an I/O failure.
var (
	ErrEmptyFile       = errors.New("empty file")
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported content type")
	ErrPathEscapesRoot = errors.New("path escapes storage root")
	ErrMissingFilename = errors.New("missing filename")
	ErrNotFound        = errors.New("file not found")
)

// StoredMedia describes one stored blob. Created once on upload and immutable
// afterwards; the file it points at is never mutated.
type StoredMedia struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"originalFilename"`
	StoredName   string    `json:"storedFilename"`
	Path         string    `json:"-"`
	SizeBytes    int64     `json:"sizeBytes"`
	ContentType  string    `json:"contentType"`
	UploadedAt   time.Time `json:"uploadTs"`
}

// Store persists uploaded media blobs under a single validated root
// directory.
type Store struct {
	root         string
	maxSizeBytes int64
}

// New creates a Store rooted at dir, creating the directory if needed.
// maxSizeBytes <= 0 selects DefaultMaxSizeBytes.
func New(dir string, maxSizeBytes int64) (*Store, error) {
	if maxSizeBytes <= 0 {
		maxSizeBytes = DefaultMaxSizeBytes
	}

	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage root %q: %w", dir, err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root %q: %w", root, err)
	}

	return &Store{root: root, maxSizeBytes: maxSizeBytes}, nil
}

// Root returns the absolute storage root directory.
func (s *Store) Root() string {
	return s.root
}

// MaxSizeBytes returns the configured upload size cap.
func (s *Store) MaxSizeBytes() int64 {
	return s.maxSizeBytes
}

// Store validates and persists one upload. size is the declared upload size;
// the copy is additionally capped so a lying reader cannot exceed the limit.
// All validation and the containment check run before any byte is written.
func (s *Store) Store(r io.Reader, declaredName, declaredContentType string, size int64) (*StoredMedia, error) {
	if size <= 0 {
		metrics.StoreUploadsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrEmptyFile
	}
	if size > s.maxSizeBytes {
		metrics.StoreUploadsTotal.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrFileTooLarge, size, s.maxSizeBytes)
	}
	if !compatibleWithMP4(declaredContentType) && !strings.HasSuffix(strings.ToLower(declaredName), ".mp4") {
		metrics.StoreUploadsTotal.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, declaredContentType)
	}

	originalName := sanitizeFilename(declaredName)
	if originalName == "" {
		originalName = "video.mp4"
	}

	ext := filepath.Ext(originalName)
	if ext == "" {
		ext = ".mp4"
	}

	id := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), uuid.NewString())
	storedName := id + ext

	target, err := s.containedPath(storedName)
	if err != nil {
		return nil, err
	}

	written, err := s.writeBlob(target, r)
	if err != nil {
		metrics.StoreUploadsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.StoreUploadsTotal.WithLabelValues("success").Inc()
	metrics.StoreUploadBytes.Observe(float64(written))

	return &StoredMedia{
		ID:           id,
		OriginalName: originalName,
		StoredName:   storedName,
		Path:         target,
		SizeBytes:    written,
		ContentType:  declaredContentType,
		UploadedAt:   time.Now().UTC(),
	}, nil
}

// Resolve maps a stored filename back to its absolute path inside the root.
// Blank names, names that escape the root and names with no file behind them
// are all rejected before anything outside the root can be touched.
func (s *Store) Resolve(storedFilename string) (string, error) {
	if strings.TrimSpace(storedFilename) == "" {
		return "", ErrMissingFilename
	}

	target, err := s.containedPath(storedFilename)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(target)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, storedFilename)
	}
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", storedFilename, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotFound, storedFilename)
	}

	return target, nil
}

// containedPath joins name onto the root and verifies the result is still
// inside it. This runs before any write or stat.
func (s *Store) containedPath(name string) (string, error) {
	target := filepath.Join(s.root, name)

	rel, err := filepath.Rel(s.root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrPathEscapesRoot, name)
	}

	return target, nil
}

// writeBlob copies r into a freshly created file at target. The copy is
// capped at one byte past the configured limit so oversized bodies fail
// instead of filling the disk; a failed copy removes the partial file.
func (s *Store) writeBlob(target string, r io.Reader) (int64, error) {
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", target, err)
	}

	written, err := io.Copy(f, io.LimitReader(r, s.maxSizeBytes+1))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil && written > s.maxSizeBytes {
		err = fmt.Errorf("%w: upload exceeded limit of %d", ErrFileTooLarge, s.maxSizeBytes)
	}
	if err != nil {
		if rmErr := os.Remove(target); rmErr != nil {
			logging.Warn("failed to remove partial upload %s: %v", target, rmErr)
		}
		return 0, err
	}

	return written, nil
}

var (
	disallowedChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)
	underscoreRuns  = regexp.MustCompile(`_+`)
)

// sanitizeFilename strips directory components from a client-supplied name
// and reduces it to a safe character set.
func sanitizeFilename(in string) string {
	cleaned := strings.ReplaceAll(in, `\`, "/")
	cleaned = path.Base(cleaned)
	if cleaned == "." || cleaned == "/" {
		return ""
	}

	cleaned = disallowedChars.ReplaceAllString(cleaned, "_")
	cleaned = underscoreRuns.ReplaceAllString(cleaned, "_")
	return strings.TrimSpace(cleaned)
}

// compatibleWithMP4 reports whether a declared content type is compatible
// with video/mp4, honoring type and subtype wildcards and ignoring
// parameters.
func compatibleWithMP4(contentType string) bool {
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	parts := strings.SplitN(mediaType, "/", 2)
	if len(parts) != 2 {
		return false
	}

	typ, sub := parts[0], parts[1]
	if typ != "*" && typ != "video" {
		return false
	}
	return sub == "*" || sub == "mp4"
}


