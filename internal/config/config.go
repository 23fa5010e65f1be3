package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"gorhythm/internal/errors"
)

// Config represents the complete runtime configuration
type Config struct {
	Screening ScreeningConfig
}

// ScreeningConfig holds screening pipeline tunables
type ScreeningConfig struct {
	// MaxParallel bounds concurrent per-molecule computations; <= 0 means
	// one worker per CPU.
	MaxParallel int
	// ForceNormal overrides the exact null distribution with the normal
	// approximation regardless of design size.
	ForceNormal bool
	// AmplitudeCI enables signed-rank amplitude confidence intervals.
	AmplitudeCI bool
	// Confidence is the amplitude interval level.
	Confidence float64
}

// Load reads configuration from the environment (and a .env file when
// present) and validates it.
func Load() (*Config, error) {
	// A missing .env file is fine; the environment still applies.
	_ = godotenv.Load()

	cfg := &Config{
		Screening: ScreeningConfig{
			MaxParallel: 0,
			ForceNormal: false,
			AmplitudeCI: false,
			Confidence:  0.95,
		},
	}

	if v := os.Getenv("GORHYTHM_MAX_PARALLEL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.ConfigInvalid(fmt.Sprintf("GORHYTHM_MAX_PARALLEL must be an integer, got %q", v))
		}
		cfg.Screening.MaxParallel = n
	}
	if v := os.Getenv("GORHYTHM_FORCE_NORMAL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, errors.ConfigInvalid(fmt.Sprintf("GORHYTHM_FORCE_NORMAL must be a boolean, got %q", v))
		}
		cfg.Screening.ForceNormal = b
	}
	if v := os.Getenv("GORHYTHM_AMPLITUDE_CI"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, errors.ConfigInvalid(fmt.Sprintf("GORHYTHM_AMPLITUDE_CI must be a boolean, got %q", v))
		}
		cfg.Screening.AmplitudeCI = b
	}
	if v := os.Getenv("GORHYTHM_CONFIDENCE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 || f >= 1 {
			return nil, errors.ConfigInvalid("GORHYTHM_CONFIDENCE must be a float in (0, 1)")
		}
		cfg.Screening.Confidence = f
	}
	return cfg, nil
}
