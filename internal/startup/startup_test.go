package startup

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	// Check that all fields are populated
	if info.Version == "" {
		t.Error("Expected Version to be set")
	}
	if info.GoVersion == "" {
		t.Error("Expected GoVersion to be set")
	}
	if info.OS == "" {
		t.Error("Expected OS to be set")
	}
	if info.Arch == "" {
		t.Error("Expected Arch to be set")
	}

	if info.GoVersion != GoVersion {
		t.Errorf("Expected GoVersion=%s, got %s", GoVersion, info.GoVersion)
	}
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
		setEnv       bool
	}{
		{
			name:         "Returns default when env var not set",
			key:          "TEST_UNSET_VAR",
			defaultValue: "default",
			want:         "default",
			setEnv:       false,
		},
		{
			name:         "Returns env value when set",
			key:          "TEST_SET_VAR",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
			setEnv:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setEnv {
				t.Setenv(tt.key, tt.envValue)
			} else {
				os.Unsetenv(tt.key)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv(%q, %q) = %q, want %q", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue bool
		want         bool
		setEnv       bool
	}{
		{"Unset returns default", "", true, true, false},
		{"true parses", "true", false, true, true},
		{"false parses", "false", true, false, true},
		{"Garbage returns default", "banana", true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_BOOL_VAR"
			if tt.setEnv {
				t.Setenv(key, tt.envValue)
			} else {
				os.Unsetenv(key)
			}

			if got := getEnvBool(key, tt.defaultValue); got != tt.want {
				t.Errorf("getEnvBool(%q, %v) = %v, want %v", key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvInt64(t *testing.T) {
	key := "TEST_INT64_VAR"

	os.Unsetenv(key)
	if got := getEnvInt64(key, 42); got != 42 {
		t.Errorf("Expected default 42, got %d", got)
	}

	t.Setenv(key, "524288000")
	if got := getEnvInt64(key, 42); got != 524288000 {
		t.Errorf("Expected 524288000, got %d", got)
	}

	t.Setenv(key, "not-a-number")
	if got := getEnvInt64(key, 42); got != 42 {
		t.Errorf("Expected default 42 for garbage input, got %d", got)
	}
}

func TestLoadConfig(t *testing.T) {
	base := t.TempDir()
	t.Setenv("UPLOAD_DIR", filepath.Join(base, "uploads"))
	t.Setenv("SCRATCH_DIR", filepath.Join(base, "scratch"))
	t.Setenv("CATALOG_DIR", filepath.Join(base, "catalog"))
	t.Setenv("PORT", "8181")
	t.Setenv("MAX_UPLOAD_BYTES", "1048576")
	t.Setenv("ENCODE_WORKERS", "3")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if config.Port != "8181" {
		t.Errorf("Port = %q, want 8181", config.Port)
	}
	if config.MaxUploadBytes != 1048576 {
		t.Errorf("MaxUploadBytes = %d, want 1048576", config.MaxUploadBytes)
	}
	if config.MaxConcurrentEncodes != 3 {
		t.Errorf("MaxConcurrentEncodes = %d, want 3", config.MaxConcurrentEncodes)
	}
	if config.CatalogPath != filepath.Join(config.CatalogDir, "uploads.db") {
		t.Errorf("CatalogPath = %q, want it under the catalog directory", config.CatalogPath)
	}

	// All three directories must exist after a successful load.
	for _, dir := range []string{config.UploadDir, config.ScratchDir, config.CatalogDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("Expected directory %s to exist, err = %v", dir, err)
		}
	}
}

func TestEnsureDirectory(t *testing.T) {
	base := t.TempDir()

	t.Run("creates missing directory", func(t *testing.T) {
		path := filepath.Join(base, "new")
		if err := ensureDirectory(path, "test"); err != nil {
			t.Fatalf("ensureDirectory() error = %v", err)
		}
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			t.Errorf("Expected directory to exist, err = %v", err)
		}
	})

	t.Run("accepts existing directory", func(t *testing.T) {
		if err := ensureDirectory(base, "test"); err != nil {
			t.Errorf("ensureDirectory() error = %v", err)
		}
	})

	t.Run("rejects regular file", func(t *testing.T) {
		path := filepath.Join(base, "file")
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := ensureDirectory(path, "test"); err == nil {
			t.Error("Expected error for path that is a regular file")
		}
	})
}

func TestTestWriteAccess(t *testing.T) {
	dir := t.TempDir()
	if err := testWriteAccess(dir); err != nil {
		t.Errorf("testWriteAccess() error = %v", err)
	}

	// The probe file must not be left behind.
	if _, err := os.Stat(filepath.Join(dir, ".write-test")); !os.IsNotExist(err) {
		t.Error("Expected write test file to be removed")
	}
}

func TestGetRouteGroup(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/videos/upload", "videos"},
		{"/videos", "videos"},
		{"/encode/multi", "encode"},
		{"/health", "health"},
		{"/", ""},
	}

	for _, tt := range tests {
		if got := getRouteGroup(tt.path); got != tt.want {
			t.Errorf("getRouteGroup(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}


