package util

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Configuration keys shared by the CLI and the services it wires.
const (
	KeyDB                  = "db"
	KeyArtifacts           = "artifacts"
	KeyTMDBAPIKey          = "tmdb.api_key"
	KeyTMDBBaseURL         = "tmdb.base_url"
	KeyTMDBIncludeAdult    = "tmdb.include_adult"
	KeyAniListBaseURL      = "anilist.base_url"
	KeyAniListIncludeAdult = "anilist.include_adult"
	KeyAniListPace         = "anilist.pace"
	KeyOfflineDatabase     = "offline.database"
	KeyOfflineMinScore     = "offline.min_score"
	KeyImportMinConfidence = "import.min_confidence"
	KeyMetricsPort         = "metrics.port"
)

// SetConfigDefaults registers defaults for every key. Called once from the root command.
func SetConfigDefaults() {
	viper.SetDefault(KeyDB, "mtrack.db")
	viper.SetDefault(KeyArtifacts, "artifacts")
	viper.SetDefault(KeyTMDBBaseURL, "https://api.themoviedb.org/3")
	viper.SetDefault(KeyTMDBIncludeAdult, false)
	viper.SetDefault(KeyAniListBaseURL, "https://graphql.anilist.co")
	viper.SetDefault(KeyAniListIncludeAdult, false)
	viper.SetDefault(KeyAniListPace, 2500*time.Millisecond)
	viper.SetDefault(KeyOfflineDatabase, "")
	viper.SetDefault(KeyOfflineMinScore, 85.0)
	viper.SetDefault(KeyImportMinConfidence, 0.0)
	viper.SetDefault(KeyMetricsPort, 0)
}

// GetTMDBAPIKey returns the TMDB key; empty means movie and TV search is disabled
func GetTMDBAPIKey() string {
	return strings.TrimSpace(viper.GetString(KeyTMDBAPIKey))
}

// GetAniListPace returns the minimum spacing between AniList requests
func GetAniListPace() time.Duration {
	return viper.GetDuration(KeyAniListPace)
}

// GetOfflineMinScore returns the fuzzy cutoff (0..100) for the offline index
func GetOfflineMinScore() float64 {
	return viper.GetFloat64(KeyOfflineMinScore)
}

// ValidateConfig checks value ranges that viper cannot express
func ValidateConfig() error {
	if pace := GetAniListPace(); pace < 0 {
		return fmt.Errorf("%w: %s must not be negative (got %v)", ErrInvalidConfig, KeyAniListPace, pace)
	}
	if s := GetOfflineMinScore(); s < 0 || s > 100 {
		return fmt.Errorf("%w: %s must be within 0..100 (got %v)", ErrInvalidConfig, KeyOfflineMinScore, s)
	}
	if c := viper.GetFloat64(KeyImportMinConfidence); c < 0 || c > 1 {
		return fmt.Errorf("%w: %s must be within 0..1 (got %v)", ErrInvalidConfig, KeyImportMinConfidence, c)
	}
	if p := viper.GetInt(KeyMetricsPort); p < 0 || p > 65535 {
		return fmt.Errorf("%w: %s out of range (got %d)", ErrInvalidConfig, KeyMetricsPort, p)
	}
	return nil
}
