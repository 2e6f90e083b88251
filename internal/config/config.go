// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
)

// Config holds everything the server needs at startup.
type Config struct {
	// Port the HTTP server listens on.
	Port string
	// ProjectID is the GCP project hosting Firestore, Storage and Vertex AI.
	ProjectID string
	// VertexLocation is the region Vertex AI models are served from.
	VertexLocation string
	// UploadBucket receives customer print files.
	UploadBucket string
	// StaffToken gates the staff API and the staff live feed. Empty means
	// the staff surface is disabled.
	StaffToken string
	// UseMemoryStore swaps Firestore for the in-process store. Local
	// development only.
	UseMemoryStore bool
}

// Load reads configuration from the environment. PROJECT_ID and
// UPLOAD_BUCKET are required unless the in-memory store is selected.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		ProjectID:      os.Getenv("PROJECT_ID"),
		VertexLocation: getEnv("VERTEX_LOCATION", "us-central1"),
		UploadBucket:   os.Getenv("UPLOAD_BUCKET"),
		StaffToken:     os.Getenv("STAFF_TOKEN"),
		UseMemoryStore: os.Getenv("USE_MEMORY_STORE") == "true",
	}
	if cfg.UseMemoryStore {
		return cfg, nil
	}
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable is required")
	}
	if cfg.UploadBucket == "" {
		return nil, fmt.Errorf("UPLOAD_BUCKET environment variable is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
