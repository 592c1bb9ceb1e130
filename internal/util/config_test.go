package util

import (
	"errors"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   interface{}
		wantErr bool
	}{
		{name: "defaults", wantErr: false},
		{name: "negative pace", key: KeyAniListPace, value: -time.Second, wantErr: true},
		{name: "min score above 100", key: KeyOfflineMinScore, value: 120.0, wantErr: true},
		{name: "min confidence above 1", key: KeyImportMinConfidence, value: 1.5, wantErr: true},
		{name: "metrics port out of range", key: KeyMetricsPort, value: 70000, wantErr: true},
		{name: "valid pace", key: KeyAniListPace, value: time.Second, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			defer viper.Reset()
			SetConfigDefaults()
			if tt.key != "" {
				viper.Set(tt.key, tt.value)
			}

			err := ValidateConfig()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestGetTMDBAPIKeyTrimmed(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	if got := GetTMDBAPIKey(); got != "" {
		t.Errorf("expected empty key by default, got %q", got)
	}
	viper.Set(KeyTMDBAPIKey, "  abc123 \n")
	if got := GetTMDBAPIKey(); got != "abc123" {
		t.Errorf("expected trimmed key, got %q", got)
	}
}
