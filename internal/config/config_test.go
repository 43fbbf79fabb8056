package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("MILVUS_ADDRESS", "")
	t.Setenv("MILVUS_COLLECTION", "")
	t.Setenv("TAHRIR_CATALOG_PATH", "")
	t.Setenv("TAHRIR_MODEL", "")
	t.Setenv("TAHRIR_EMBEDDING_MODEL", "")
	t.Setenv("TAHRIR_EMBEDDING_DIMENSION", "")

	cwd, _ := os.Getwd()
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	defer os.Chdir(cwd)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Generation.TopK != 12 {
		t.Errorf("expected default top_k 12, got %d", cfg.Generation.TopK)
	}
	if cfg.Generation.SectionCount != 10 {
		t.Errorf("expected default section_count 10, got %d", cfg.Generation.SectionCount)
	}
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("expected default model, got %q", cfg.LLM.Model)
	}
	if cfg.Embedding.Dimension != 3072 {
		t.Errorf("expected default dimension 3072, got %d", cfg.Embedding.Dimension)
	}
	if cfg.Milvus.Address != "localhost:19530" {
		t.Errorf("expected default milvus address, got %q", cfg.Milvus.Address)
	}
	if cfg.Selection.RelevanceWeight != 0.7 || cfg.Selection.DiversityWeight != 0.3 {
		t.Errorf("unexpected default selection weights: %+v", cfg.Selection)
	}
	if cfg.Quality.Threshold != 0.8 || cfg.Quality.DimensionFloor != 0.7 {
		t.Errorf("unexpected default quality thresholds: %+v", cfg.Quality)
	}
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("default config should validate, got %v", errs)
	}
}

func TestLoad_FromFile(t *testing.T) {
	t.Setenv("MILVUS_ADDRESS", "")
	t.Setenv("TAHRIR_MODEL", "")

	path := filepath.Join(t.TempDir(), "tahrir.yaml")
	content := `generation:
  top_k: 8
  section_count: 6
llm:
  model: gpt-4o
  temperature: 0.5
milvus:
  address: milvus.internal:19530
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Generation.TopK != 8 {
		t.Errorf("expected top_k 8, got %d", cfg.Generation.TopK)
	}
	if cfg.LLM.Model != "gpt-4o" {
		t.Errorf("expected model gpt-4o, got %q", cfg.LLM.Model)
	}
	if cfg.Milvus.Address != "milvus.internal:19530" {
		t.Errorf("expected file address, got %q", cfg.Milvus.Address)
	}
	// Unset fields fall back to defaults.
	if cfg.Generation.Workers != 3 {
		t.Errorf("expected default workers 3, got %d", cfg.Generation.Workers)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tahrir.yaml")
	if err := os.WriteFile(path, []byte("milvus:\n  address: from-file:19530\n"), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	t.Setenv("MILVUS_ADDRESS", "from-env:19530")
	t.Setenv("TAHRIR_MODEL", "gpt-4.1")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Milvus.Address != "from-env:19530" {
		t.Errorf("expected env override, got %q", cfg.Milvus.Address)
	}
	if cfg.LLM.Model != "gpt-4.1" {
		t.Errorf("expected env model, got %q", cfg.LLM.Model)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tahrir.yaml")
	if err := os.WriteFile(path, []byte(":\n  - ["), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid yaml")
	}
}

func TestValidate_CollectsErrors(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.Generation.TopK = -1
	cfg.LLM.Temperature = 5
	cfg.Catalog.Path = ""

	errs := cfg.Validate()
	if len(errs) != 3 {
		t.Fatalf("expected 3 validation errors, got %d: %v", len(errs), errs)
	}

	fields := map[string]bool{}
	for _, e := range errs {
		fields[e.Field] = true
	}
	for _, want := range []string{"generation.top_k", "llm.temperature", "catalog.path"} {
		if !fields[want] {
			t.Errorf("missing validation error for %s", want)
		}
	}
}
