package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesPipelineDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("EMBED_MODEL", "")
	t.Setenv("RAG_TOP_K", "")
	t.Setenv("CHUNK_SIZE", "")
	t.Setenv("CHUNK_OVERLAP", "")
	t.Setenv("DEBUG_TRACE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LLMModel != "gpt-4.1-nano" {
		t.Fatalf("expected default llm model, got %q", cfg.LLMModel)
	}
	if cfg.EmbedModel != "text-embedding-3-small" {
		t.Fatalf("expected default embed model, got %q", cfg.EmbedModel)
	}
	if cfg.RAGTopK != 5 {
		t.Fatalf("expected default top_k 5, got %d", cfg.RAGTopK)
	}
	if cfg.ChunkSize != 800 || cfg.ChunkOverlap != 120 {
		t.Fatalf("expected chunking defaults 800/120, got %d/%d", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.DebugTrace {
		t.Fatalf("debug trace must default to off")
	}
	if cfg.HybridMergeLimit != 6 || cfg.HybridContextChars != 1500 {
		t.Fatalf("expected hybrid defaults 6/1500, got %d/%d", cfg.HybridMergeLimit, cfg.HybridContextChars)
	}
}

func TestLoadParsesEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("RAG_TOP_K", "9")
	t.Setenv("SCORE_THRESHOLD", "0.42")
	t.Setenv("DEBUG_TRACE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RAGTopK != 9 {
		t.Fatalf("expected top_k 9, got %d", cfg.RAGTopK)
	}
	if cfg.ScoreThreshold != 0.42 {
		t.Fatalf("expected threshold 0.42, got %v", cfg.ScoreThreshold)
	}
	if !cfg.DebugTrace {
		t.Fatalf("expected debug trace on")
	}
}

func TestLoadOverlaysConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "llm_model: gpt-4.1\nrag_top_k: 7\ndebug_trace: true\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LLM_MODEL", "env-model")
	t.Setenv("EMBED_MODEL", "env-embed")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LLMModel != "gpt-4.1" {
		t.Fatalf("file value must win over env, got %q", cfg.LLMModel)
	}
	if cfg.RAGTopK != 7 {
		t.Fatalf("expected top_k 7 from file, got %d", cfg.RAGTopK)
	}
	if cfg.EmbedModel != "env-embed" {
		t.Fatalf("unset file field must keep env value, got %q", cfg.EmbedModel)
	}
	if !cfg.DebugTrace {
		t.Fatalf("expected debug trace from file")
	}
}

func TestLoadRejectsBrokenConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{not yaml"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	if _, err := Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}
