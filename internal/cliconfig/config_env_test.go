package cliconfig

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		changed map[string]bool
		modify  func(*Config)
		wantErr bool
	}{
		{
			name: "applies env vars",
			envVars: map[string]string{
				"LUMUX_BRIDGE_ADDRESS":      "10.1.1.1",
				"LUMUX_APP_KEY":             "env-key",
				"LUMUX_FPS":                 "50",
				"LUMUX_ROTATION":            "0",
				"LUMUX_GAMMA":               "2.4",
				"LUMUX_BLACK_BAR_ENABLED":   "false",
				"LUMUX_BLACK_BAR_THRESHOLD": "15",
				"LUMUX_READING_DELAY":       "1500ms",
				"LUMUX_READING_LIGHTS":      "a,b",
				"LUMUX_READING_ENABLED":     "1",
			},
			changed: map[string]bool{},
			modify: func(c *Config) {
				c.BridgeAddress = "10.1.1.1"
				c.AppKey = "env-key"
				c.FPS = 50
				c.Gamma = 2.4
				c.BlackBarEnabled = false
				c.BlackBarThreshold = 15
				c.ReadingDelay = 1500 * time.Millisecond
				c.ReadingLights = []string{"a", "b"}
				c.ReadingEnabled = true
			},
		},
		{
			name: "respects changed flags",
			envVars: map[string]string{
				"LUMUX_BRIDGE_ADDRESS": "10.1.1.1",
				"LUMUX_FPS":            "50",
			},
			changed: map[string]bool{"bridge": true},
			modify:  func(c *Config) { c.FPS = 50 },
		},
		{
			name:    "invalid int",
			envVars: map[string]string{"LUMUX_FPS": "fast"},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name:    "invalid float",
			envVars: map[string]string{"LUMUX_GAMMA": "high"},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name:    "invalid duration",
			envVars: map[string]string{"LUMUX_HTTP_TIMEOUT": "later"},
			changed: map[string]bool{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := DefaultConfig()
			err := ApplyEnvConfig(&cfg, tt.changed)
			if tt.wantErr {
				if err == nil {
					t.Error("ApplyEnvConfig() expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyEnvConfig() unexpected error: %v", err)
			}

			want := DefaultConfig()
			if tt.modify != nil {
				tt.modify(&want)
			}
			if diff := cmp.Diff(want, cfg); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPrecedence_FlagsOverEnvOverFile(t *testing.T) {
	fc := FileConfig{}
	fc.Bridge.Address = "file-bridge"
	fc.Bridge.AppKey = "file-key"
	fc.Bridge.ZoneID = testZone
	fps := 20
	fc.Sync.FPS = &fps

	t.Setenv("LUMUX_APP_KEY", "env-key")
	t.Setenv("LUMUX_FPS", "40")

	cfg := DefaultConfig()
	cfg.FPS = 55
	changed := map[string]bool{"fps": true}

	if err := ApplyFileConfig(&cfg, fc, changed); err != nil {
		t.Fatalf("ApplyFileConfig failed: %v", err)
	}
	if err := ApplyEnvConfig(&cfg, changed); err != nil {
		t.Fatalf("ApplyEnvConfig failed: %v", err)
	}

	if cfg.BridgeAddress != "file-bridge" {
		t.Errorf("BridgeAddress = %q, want file value", cfg.BridgeAddress)
	}
	if cfg.AppKey != "env-key" {
		t.Errorf("AppKey = %q, want env value", cfg.AppKey)
	}
	if cfg.FPS != 55 {
		t.Errorf("FPS = %d, want flag value", cfg.FPS)
	}
}
