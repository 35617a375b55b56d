package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"vidserve/internal/store"
)

const (
	// Default timeout for catalog operations
	defaultTimeout = 30 * time.Second
	// Default catalog directory path
	defaultCatalogDir = "/catalog"
	// Default upload directory path
	defaultUploadDir = "/uploads"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	// Create a context that cancels on interrupt signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	catalogDir := os.Getenv("CATALOG_DIR")
	if catalogDir == "" {
		catalogDir = defaultCatalogDir
	}
	catalogPath := filepath.Join(catalogDir, "uploads.db")

	catalog, err := store.OpenCatalog(ctx, catalogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to open catalog: %v\n", err)
		fmt.Fprintf(os.Stderr, "Make sure CATALOG_DIR is set correctly (current: %s)\n", catalogDir)
		os.Exit(1)
	}
	defer func() {
		if err := catalog.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close catalog: %v\n", err)
		}
	}()

	switch command {
	case "list":
		if !listUploads(ctx, catalog) {
			os.Exit(1)
		}
	case "stats":
		if !showStats(ctx, catalog) {
			os.Exit(1)
		}
	case "verify":
		if !verifyBlobs(ctx, catalog) {
			os.Exit(1)
		}
	default:
		// Sanitize command input using allowlist before echoing it back
		sanitized := sanitizeCommand(command)
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", sanitized)
		printUsage()
		os.Exit(1)
	}
}

// sanitizeCommand returns a safe representation of a command string for display.
// It uses an allowlist approach, replacing any character that is not alphanumeric,
// a hyphen, or an underscore with '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage() {
	fmt.Println("VidServe Catalog Management")
	fmt.Println("")
	fmt.Println("Usage: catalogctl <command>")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list    - List catalogued uploads, newest first")
	fmt.Println("  stats   - Show upload counts and total size")
	fmt.Println("  verify  - Check that every catalogued blob exists on disk")
	fmt.Println("")
	fmt.Println("Environment:")
	fmt.Printf("  CATALOG_DIR - Path to catalog directory (default: %s)\n", defaultCatalogDir)
	fmt.Printf("  UPLOAD_DIR  - Path to blob storage root (default: %s)\n", defaultUploadDir)
}

func listUploads(ctx context.Context, catalog *store.Catalog) bool {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	uploads, err := catalog.List(ctx, -1)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to list uploads: %v\n", err)
		return false
	}

	if len(uploads) == 0 {
		fmt.Println("No uploads catalogued.")
		return true
	}

	fmt.Printf("%-40s %-30s %12s  %s\n", "ID", "STORED NAME", "SIZE", "UPLOADED")
	for _, u := range uploads {
		fmt.Printf("%-40s %-30s %12d  %s\n",
			u.ID, u.StoredName, u.SizeBytes, u.UploadedAt.Format(time.RFC3339))
	}
	return true
}

func showStats(ctx context.Context, catalog *store.Catalog) bool {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	count, totalBytes, err := catalog.Stats(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to compute upload stats: %v\n", err)
		return false
	}

	fmt.Printf("Uploads:     %d\n", count)
	fmt.Printf("Total bytes: %d\n", totalBytes)
	return true
}

func verifyBlobs(ctx context.Context, catalog *store.Catalog) bool {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = defaultUploadDir
	}

	uploads, err := catalog.List(ctx, -1)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to list uploads: %v\n", err)
		return false
	}

	missing := 0
	for _, u := range uploads {
		path := filepath.Join(uploadDir, u.StoredName)
		info, err := os.Stat(path)
		switch {
		case err != nil:
			fmt.Printf("MISSING  %s (%s)\n", u.StoredName, u.ID)
			missing++
		case info.Size() != u.SizeBytes:
			fmt.Printf("SIZE     %s: catalog says %d bytes, disk has %d\n",
				u.StoredName, u.SizeBytes, info.Size())
			missing++
		}
	}

	if missing > 0 {
		fmt.Printf("\n%d of %d uploads failed verification.\n", missing, len(uploads))
		return false
	}
	fmt.Printf("All %d uploads verified.\n", len(uploads))
	return true
}


