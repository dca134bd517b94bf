package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFileMissingIsNotAnError(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Learner.ID != nil {
		t.Error("missing file produced settings")
	}
}

func TestLoadFileEmptyPath(t *testing.T) {
	if _, err := LoadFile(""); err == nil {
		t.Error("empty path accepted")
	}
}

func TestLoadFileParsesTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[learner]
id = "nikhil"

[paths]
db = "/tmp/custom.db"
catalog = "/tmp/catalog.json"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Learner.ID == nil || *cfg.Learner.ID != "nikhil" {
		t.Errorf("learner id = %v, want nikhil", cfg.Learner.ID)
	}
	if cfg.Paths.DB == nil || *cfg.Paths.DB != "/tmp/custom.db" {
		t.Errorf("db path = %v, want /tmp/custom.db", cfg.Paths.DB)
	}
}

func TestLoadFileRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[learner\nid="), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("malformed TOML accepted")
	}
}

func TestResolveDefaults(t *testing.T) {
	t.Setenv("TRAILZ_CATALOG", "")
	t.Setenv("TRAILZ_LEARNER", "")

	cfg := Resolve(FileConfig{})
	if cfg.LearnerID != DefaultLearnerID {
		t.Errorf("LearnerID = %q, want %q", cfg.LearnerID, DefaultLearnerID)
	}
	if cfg.CatalogPath == "" {
		t.Error("CatalogPath empty")
	}
}

func TestResolveEnvWinsOverFile(t *testing.T) {
	id := "from-file"
	cat := "/file/catalog.json"
	file := FileConfig{
		Learner: LearnerConfig{ID: &id},
		Paths:   PathsConfig{Catalog: &cat},
	}

	t.Setenv("TRAILZ_CATALOG", "/env/catalog.json")
	t.Setenv("TRAILZ_LEARNER", "from-env")

	cfg := Resolve(file)
	if cfg.LearnerID != "from-env" {
		t.Errorf("LearnerID = %q, want from-env", cfg.LearnerID)
	}
	if cfg.CatalogPath != "/env/catalog.json" {
		t.Errorf("CatalogPath = %q, want /env/catalog.json", cfg.CatalogPath)
	}

	t.Setenv("TRAILZ_CATALOG", "")
	t.Setenv("TRAILZ_LEARNER", "")
	cfg = Resolve(file)
	if cfg.LearnerID != "from-file" {
		t.Errorf("LearnerID = %q, want from-file", cfg.LearnerID)
	}
	if cfg.CatalogPath != "/file/catalog.json" {
		t.Errorf("CatalogPath = %q, want /file/catalog.json", cfg.CatalogPath)
	}
}
