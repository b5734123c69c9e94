package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Detection.MinFaceSize != DefaultMinFaceSize {
		t.Errorf("MinFaceSize = %v, want %v", cfg.Detection.MinFaceSize, DefaultMinFaceSize)
	}
	if cfg.Detection.LegacyOffset != DefaultLegacyOffset {
		t.Errorf("LegacyOffset = %v, want %v", cfg.Detection.LegacyOffset, DefaultLegacyOffset)
	}
	if cfg.Detection.ThumbSize != DefaultThumbSize {
		t.Errorf("ThumbSize = %v, want %v", cfg.Detection.ThumbSize, DefaultThumbSize)
	}
	if cfg.Cache.Key != DefaultCacheKey {
		t.Errorf("Cache.Key = %q, want %q", cfg.Cache.Key, DefaultCacheKey)
	}
	if cfg.Detection.HighAccuracy != nil {
		t.Errorf("HighAccuracy = %v, want nil (capability default)", *cfg.Detection.HighAccuracy)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PHOTOPRISM_URL", "https://photos.example.com")
	t.Setenv("FACESCAN_BATCH_SIZE", "12")
	t.Setenv("FACESCAN_MIN_FACE_SIZE", "150")
	t.Setenv("FACESCAN_LIMITED_ACCESS", "true")
	t.Setenv("FACESCAN_HIGH_ACCURACY", "false")
	t.Setenv("FACESCAN_DISPLAY_WIDTH", "640")
	t.Setenv("FACESCAN_DISPLAY_HEIGHT", "1136")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.PhotoPrism.URL != "https://photos.example.com" {
		t.Errorf("PhotoPrism.URL = %q", cfg.PhotoPrism.URL)
	}
	if cfg.Detection.BatchSize != 12 {
		t.Errorf("BatchSize = %d, want 12", cfg.Detection.BatchSize)
	}
	if cfg.Detection.MinFaceSize != 150 {
		t.Errorf("MinFaceSize = %v, want 150", cfg.Detection.MinFaceSize)
	}
	if !cfg.Detection.LimitedAccess {
		t.Error("LimitedAccess = false, want true")
	}
	if cfg.Detection.HighAccuracy == nil || *cfg.Detection.HighAccuracy {
		t.Error("HighAccuracy should be explicitly false")
	}
	if got := cfg.Tier(); got != TierSmallScreen {
		t.Errorf("Tier() = %q, want %q", got, TierSmallScreen)
	}
}

func TestLoadInvalidEnvFallsBack(t *testing.T) {
	t.Setenv("FACESCAN_BATCH_SIZE", "not-a-number")
	t.Setenv("FACESCAN_MIN_FACE_SIZE", "-5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Detection.BatchSize != 0 {
		t.Errorf("BatchSize = %d, want 0 (capability default)", cfg.Detection.BatchSize)
	}
	if cfg.Detection.MinFaceSize != DefaultMinFaceSize {
		t.Errorf("MinFaceSize = %v, want default for a negative value", cfg.Detection.MinFaceSize)
	}
}

func TestLoadYAMLOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "facescan.yaml")
	yaml := `
detection:
  batch_size: 7
  min_face_size: 120
cache:
  key: custom-key
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	t.Setenv("FACESCAN_BATCH_SIZE", "99")
	t.Setenv("FACESCAN_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// The file overlays the env-derived values.
	if cfg.Detection.BatchSize != 7 {
		t.Errorf("BatchSize = %d, want 7 from the config file", cfg.Detection.BatchSize)
	}
	if cfg.Detection.MinFaceSize != 120 {
		t.Errorf("MinFaceSize = %v, want 120", cfg.Detection.MinFaceSize)
	}
	if cfg.Cache.Key != "custom-key" {
		t.Errorf("Cache.Key = %q, want custom-key", cfg.Cache.Key)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	t.Setenv("FACESCAN_CONFIG", "/does/not/exist.yaml")

	if _, err := Load(); err == nil {
		t.Error("expected an error for a missing config file")
	}
}

func TestEffectiveBatchSize(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want int
	}{
		{
			name: "explicit config wins",
			cfg: Config{
				Detection: DetectionConfig{BatchSize: 8},
				Display:   DisplayConfig{Width: 640, Height: 1136},
			},
			want: 8,
		},
		{
			name: "small screen default",
			cfg: Config{
				Display: DisplayConfig{Width: 640, Height: 1136},
			},
			want: 15,
		},
		{
			name: "standard default",
			cfg:  Config{},
			want: 30,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.EffectiveBatchSize(); got != tt.want {
				t.Errorf("EffectiveBatchSize() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEffectiveHighAccuracy(t *testing.T) {
	explicitTrue := true
	explicitFalse := false

	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{
			name: "standard tier defaults to high",
			cfg:  Config{},
			want: true,
		},
		{
			name: "legacy tier degrades to low",
			cfg: Config{
				Display: DisplayConfig{Legacy: true},
			},
			want: false,
		},
		{
			name: "explicit high on legacy wins",
			cfg: Config{
				Detection: DetectionConfig{HighAccuracy: &explicitTrue},
				Display:   DisplayConfig{Legacy: true},
			},
			want: true,
		},
		{
			name: "explicit low on standard wins",
			cfg: Config{
				Detection: DetectionConfig{HighAccuracy: &explicitFalse},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.EffectiveHighAccuracy(); got != tt.want {
				t.Errorf("EffectiveHighAccuracy() = %v, want %v", got, tt.want)
			}
		})
	}
}
