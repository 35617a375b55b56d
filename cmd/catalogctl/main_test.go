package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"vidserve/internal/store"
)

// TestPrintUsage tests that printUsage doesn't panic
func TestPrintUsage(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("printUsage panicked: %v", r)
		}
	}()

	printUsage()
}

func TestSanitizeCommand(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"list", "list"},
		{"verify", "verify"},
		{"with space", "with_space"},
		{"semi;colon", "semi_colon"},
		{"new\nline", "new_line"},
		{"dash-ok_123", "dash-ok_123"},
	}

	for _, tt := range tests {
		if got := sanitizeCommand(tt.input); got != tt.want {
			t.Errorf("sanitizeCommand(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

// setupTestCatalog creates a catalog with a few rows for integration tests
func setupTestCatalog(t *testing.T) (*store.Catalog, string) {
	t.Helper()

	dir := t.TempDir()
	catalog, err := store.OpenCatalog(context.Background(), filepath.Join(dir, "uploads.db"))
	if err != nil {
		t.Fatalf("failed to open test catalog: %v", err)
	}
	t.Cleanup(func() {
		if err := catalog.Close(); err != nil {
			t.Logf("failed to close catalog: %v", err)
		}
	})

	return catalog, dir
}

func insertUpload(t *testing.T, catalog *store.Catalog, id, storedName string, size int64) {
	t.Helper()

	err := catalog.Insert(context.Background(), &store.StoredMedia{
		ID:           id,
		OriginalName: storedName,
		StoredName:   storedName,
		Path:         "/" + storedName,
		SizeBytes:    size,
		ContentType:  "video/mp4",
		UploadedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("failed to insert test upload: %v", err)
	}
}

func TestListUploadsIntegration(t *testing.T) {
	catalog, _ := setupTestCatalog(t)

	if !listUploads(context.Background(), catalog) {
		t.Error("listUploads failed on empty catalog")
	}

	insertUpload(t, catalog, "1-aaa", "1-aaa.mp4", 100)
	insertUpload(t, catalog, "2-bbb", "2-bbb.mp4", 200)

	if !listUploads(context.Background(), catalog) {
		t.Error("listUploads failed on populated catalog")
	}
}

func TestShowStatsIntegration(t *testing.T) {
	catalog, _ := setupTestCatalog(t)

	insertUpload(t, catalog, "1-aaa", "1-aaa.mp4", 100)

	if !showStats(context.Background(), catalog) {
		t.Error("showStats failed")
	}
}

func TestVerifyBlobsIntegration(t *testing.T) {
	catalog, _ := setupTestCatalog(t)

	uploadDir := t.TempDir()
	t.Setenv("UPLOAD_DIR", uploadDir)

	// A row whose blob exists with the right size.
	if err := os.WriteFile(filepath.Join(uploadDir, "1-aaa.mp4"), make([]byte, 100), 0o644); err != nil {
		t.Fatal(err)
	}
	insertUpload(t, catalog, "1-aaa", "1-aaa.mp4", 100)

	if !verifyBlobs(context.Background(), catalog) {
		t.Error("verifyBlobs failed with all blobs present")
	}

	// A row whose blob is missing must fail verification.
	insertUpload(t, catalog, "2-bbb", "2-bbb.mp4", 200)
	if verifyBlobs(context.Background(), catalog) {
		t.Error("verifyBlobs passed with a missing blob")
	}
}

func TestVerifyBlobsChecksEveryRow(t *testing.T) {
	catalog, _ := setupTestCatalog(t)

	uploadDir := t.TempDir()
	t.Setenv("UPLOAD_DIR", uploadDir)

	// Well beyond the default listing cap; each row has a matching blob.
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 150; i++ {
		name := fmt.Sprintf("bulk-%03d.mp4", i)
		if err := os.WriteFile(filepath.Join(uploadDir, name), make([]byte, 10), 0o644); err != nil {
			t.Fatal(err)
		}
		err := catalog.Insert(context.Background(), &store.StoredMedia{
			ID:          fmt.Sprintf("bulk-%03d", i),
			StoredName:  name,
			Path:        "/" + name,
			SizeBytes:   10,
			ContentType: "video/mp4",
			UploadedAt:  base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("failed to insert test upload: %v", err)
		}
	}

	if !verifyBlobs(context.Background(), catalog) {
		t.Error("verifyBlobs failed with all blobs present")
	}

	// Deleting the oldest blob must still be caught, even though the row
	// falls outside any bounded listing window.
	if err := os.Remove(filepath.Join(uploadDir, "bulk-000.mp4")); err != nil {
		t.Fatal(err)
	}
	if verifyBlobs(context.Background(), catalog) {
		t.Error("verifyBlobs passed with the oldest blob missing")
	}
}


