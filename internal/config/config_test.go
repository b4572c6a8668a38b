package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	cfg := Default()
	cfg.DefaultProfile = "work"
	cfg.RequestTimeout = Duration{5 * time.Second}
	cfg.StrictValidation = true
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.DefaultProfile != "work" {
		t.Errorf("DefaultProfile = %q, want %q", loaded.DefaultProfile, "work")
	}
	if loaded.RequestTimeout.Duration != 5*time.Second {
		t.Errorf("RequestTimeout = %v, want 5s", loaded.RequestTimeout)
	}
	if !loaded.StrictValidation {
		t.Error("StrictValidation = false, want true")
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.toml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoadKeepsDefaultsForAbsentKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("api_url = \"https://melo.example/api\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIURL != "https://melo.example/api" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.RetentionDays != DefaultRetentionDays {
		t.Errorf("RetentionDays = %d, want %d", cfg.RetentionDays, DefaultRetentionDays)
	}
	if !cfg.ConfirmDestructive {
		t.Error("ConfirmDestructive should default to true")
	}
	if cfg.EmotionDwell.Duration != DefaultEmotionDwell {
		t.Errorf("EmotionDwell = %v", cfg.EmotionDwell)
	}
}

func TestResolveMissingFileUsesDefaultsAndEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv(EnvAPIURL, "http://10.0.0.2:5000/api")
	t.Setenv(EnvProfile, "work")
	t.Setenv(EnvRequestTimeout, "12s")
	t.Setenv(EnvRetentionDays, "3")

	cfg, err := Resolve(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if cfg.APIURL != "http://10.0.0.2:5000/api" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.DefaultProfile != "work" {
		t.Errorf("DefaultProfile = %q", cfg.DefaultProfile)
	}
	if cfg.RequestTimeout.Duration != 12*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.RequestTimeout)
	}
	if cfg.RetentionDays != 3 {
		t.Errorf("RetentionDays = %d", cfg.RetentionDays)
	}
}

func TestResolveReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv(EnvAPIURL, "")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("MELO_API_URL=https://from-dotenv.example/api\n"), 0600); err != nil {
		t.Fatal(err)
	}
	// godotenv does not override variables that are already set, including
	// empty ones, so clear it from the process environment entirely.
	os.Unsetenv(EnvAPIURL)

	cfg, err := Resolve(filepath.Join(dir, "missing.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIURL != "https://from-dotenv.example/api" {
		t.Errorf("APIURL = %q, want value from .env", cfg.APIURL)
	}
}

func TestResolveRejectsBadEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv(EnvRequestTimeout, "soon")
	if _, err := Resolve(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("Resolve() expected error for unparsable timeout")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"relative url", func(c *Config) { c.APIURL = "/api" }, true},
		{"ftp url", func(c *Config) { c.APIURL = "ftp://host/api" }, true},
		{"zero timeout", func(c *Config) { c.RequestTimeout = Duration{} }, true},
		{"zero dwell", func(c *Config) { c.EmotionDwell = Duration{} }, true},
		{"zero retention", func(c *Config) { c.RetentionDays = 0 }, true},
		{"zero max chars", func(c *Config) { c.MaxMessageChars = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSavePermissions(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	if err := Save(path, Default()); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	perm := info.Mode().Perm()
	if perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() error = %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir(%q) error = %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("restoring working directory: %v", err)
		}
	})
}
