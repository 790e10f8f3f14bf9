package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/me/cannonbot/pkg/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cannonbot.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := DefaultConfig()
	if cfg != want {
		t.Errorf("Load(\"\") = %+v\nwant %+v", cfg, want)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
loop:
  period: 10ms
cannon:
  pressure_threshold: 65.5
journal:
  enabled: false
sim:
  initial_pressure: 90
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Loop.Period != 10*time.Millisecond {
		t.Errorf("period = %v, want 10ms", cfg.Loop.Period)
	}
	if cfg.Cannon.PressureThreshold != 65.5 {
		t.Errorf("threshold = %v, want 65.5", cfg.Cannon.PressureThreshold)
	}
	if cfg.Journal.Enabled {
		t.Error("journal should be disabled")
	}
	if cfg.Sim.InitialPressure != 90 {
		t.Errorf("initial pressure = %v, want 90", cfg.Sim.InitialPressure)
	}
	// Untouched keys keep their defaults.
	if cfg.Cannon.RevolveSlots != 8 || cfg.Camera.FPS != 10 {
		t.Errorf("defaults lost: slots=%d fps=%d", cfg.Cannon.RevolveSlots, cfg.Camera.FPS)
	}
}

// TestLoad_NumericFileValues checks that a file value overrides its default
// whatever numeric form either one takes in YAML.
func TestLoad_NumericFileValues(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		check func(Config) bool
	}{
		{"float over int default", "cannon:\n  pressure_threshold: 72.25\n", func(c Config) bool { return c.Cannon.PressureThreshold == 72.25 }},
		{"int over float default", "drive:\n  deadband: 0\n", func(c Config) bool { return c.Drive.Deadband == 0 }},
		{"int over float speed", "cannon:\n  revolve_speed: 1\n", func(c Config) bool { return c.Cannon.RevolveSpeed == 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tt.yaml))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if !tt.check(cfg) {
				t.Errorf("file value not applied: %+v", cfg)
			}
		})
	}
}

func TestLoad_InvalidFileValueRejected(t *testing.T) {
	_, err := Load(writeConfig(t, "drive:\n  deadband: 2\n"))
	var ce *model.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want *ConfigError", err)
	}
	if !strings.Contains(ce.Error(), "Deadband") {
		t.Errorf("error %q does not name Deadband", ce.Error())
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CANNONBOT_LOOP_PERIOD", "50ms")
	t.Setenv("CANNONBOT_HTTP_ADDR", "127.0.0.1:9090")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Loop.Period != 50*time.Millisecond {
		t.Errorf("period = %v, want 50ms", cfg.Loop.Period)
	}
	if cfg.HTTP.Addr != "127.0.0.1:9090" {
		t.Errorf("addr = %q", cfg.HTTP.Addr)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero period", func(c *Config) { c.Loop.Period = 0 }, "Config.Loop.Period"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "Config.Log.Level"},
		{"bad axis", func(c *Config) { c.Drive.SpeedAxis = "left_trigger" }, "Config.Drive.SpeedAxis"},
		{"deadband", func(c *Config) { c.Drive.Deadband = 1 }, "Config.Drive.Deadband"},
		{"revolve speed", func(c *Config) { c.Cannon.RevolveSpeed = 1.5 }, "Config.Cannon.RevolveSpeed"},
		{"journal path", func(c *Config) { c.Journal.Path = "" }, "Config.Journal.Path"},
		{"sim rate", func(c *Config) { c.Sim.FillRate = 0 }, "Config.Sim.FillRate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := Validate(cfg)
			var ce *model.ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("Validate err = %v, want *ConfigError", err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not name %s", err, tt.field)
			}
		})
	}

	t.Run("disabled journal needs no path", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Journal.Enabled = false
		cfg.Journal.Path = ""
		if err := Validate(cfg); err != nil {
			t.Errorf("Validate: %v", err)
		}
	})
}

func TestYAML(t *testing.T) {
	out, err := YAML(DefaultConfig())
	if err != nil {
		t.Fatalf("YAML: %v", err)
	}
	for _, want := range []string{"period: 20ms", "pressure_threshold: 80", "flash_period: 200ms"} {
		if !strings.Contains(string(out), want) {
			t.Errorf("YAML output missing %q:\n%s", want, out)
		}
	}

	// The rendered document loads back to the same configuration.
	cfg, err := Load(writeConfig(t, string(out)))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("round trip = %+v", cfg)
	}
}
