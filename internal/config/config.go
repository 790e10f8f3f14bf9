// Package config loads and validates the cannonbot configuration.
//
// Values come from, in increasing precedence: DefaultConfig, an optional
// YAML file, and CANNONBOT_* environment variables (CANNONBOT_LOOP_PERIOD
// overrides loop.period).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/me/cannonbot/internal/hardware/sim"
	"github.com/me/cannonbot/pkg/model"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "CANNONBOT"

// Config is the complete robot configuration.
type Config struct {
	Loop    LoopConfig    `mapstructure:"loop" yaml:"loop"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Cannon  CannonConfig  `mapstructure:"cannon" yaml:"cannon"`
	Drive   DriveConfig   `mapstructure:"drive" yaml:"drive"`
	Camera  CameraConfig  `mapstructure:"camera" yaml:"camera"`
	Journal JournalConfig `mapstructure:"journal" yaml:"journal"`
	HTTP    HTTPConfig    `mapstructure:"http" yaml:"http"`
	Sim     sim.Config    `mapstructure:"sim" yaml:"sim"`
}

// LoopConfig holds tick loop settings.
type LoopConfig struct {
	Period time.Duration `mapstructure:"period" yaml:"period" validate:"gt=0"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn warning error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=text json"`
}

// CannonConfig holds the firing sequence settings.
type CannonConfig struct {
	// PressureThreshold is the tank pressure in psi at which the cannon
	// is ready to fire.
	PressureThreshold float64       `mapstructure:"pressure_threshold" yaml:"pressure_threshold" validate:"gt=0"`
	FlashPeriod       time.Duration `mapstructure:"flash_period" yaml:"flash_period" validate:"gt=0"`
	RevolveSlots      int           `mapstructure:"revolve_slots" yaml:"revolve_slots" validate:"gte=1"`
	RevolveSpeed      float64       `mapstructure:"revolve_speed" yaml:"revolve_speed" validate:"gt=0,lte=1"`
	NudgeSpeed        float64       `mapstructure:"nudge_speed" yaml:"nudge_speed" validate:"gt=0,lte=1"`
}

// DriveConfig maps the gamepad to the drivetrain and the aim motor.
type DriveConfig struct {
	SpeedAxis string  `mapstructure:"speed_axis" yaml:"speed_axis" validate:"oneof=left_x left_y right_x right_y"`
	TurnAxis  string  `mapstructure:"turn_axis" yaml:"turn_axis" validate:"oneof=left_x left_y right_x right_y"`
	Deadband  float64 `mapstructure:"deadband" yaml:"deadband" validate:"gte=0,lt=1"`
	AimScale  float64 `mapstructure:"aim_scale" yaml:"aim_scale" validate:"gt=0,lte=1"`
}

// CameraConfig holds the video capture settings.
type CameraConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Device  int  `mapstructure:"device" yaml:"device" validate:"gte=0"`
	Width   int  `mapstructure:"width" yaml:"width" validate:"gt=0"`
	Height  int  `mapstructure:"height" yaml:"height" validate:"gt=0"`
	FPS     int  `mapstructure:"fps" yaml:"fps" validate:"gt=0"`
}

// JournalConfig holds the event journal settings.
type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path" validate:"required_if=Enabled true"`
	Buffer  int    `mapstructure:"buffer" yaml:"buffer" validate:"gt=0"`
}

// HTTPConfig holds the operator API settings.
type HTTPConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr" validate:"required_if=Enabled true"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Loop: LoopConfig{Period: 20 * time.Millisecond},
		Log:  LogConfig{Level: "info", Format: "text"},
		Cannon: CannonConfig{
			PressureThreshold: 80,
			FlashPeriod:       200 * time.Millisecond,
			RevolveSlots:      8,
			RevolveSpeed:      1.0,
			NudgeSpeed:        0.7,
		},
		Drive: DriveConfig{
			SpeedAxis: "left_y",
			TurnAxis:  "right_x",
			Deadband:  0.1,
			AimScale:  0.5,
		},
		Camera:  CameraConfig{Enabled: true, Device: 0, Width: 320, Height: 240, FPS: 10},
		Journal: JournalConfig{Enabled: true, Path: "cannonbot.db", Buffer: 1024},
		HTTP:    HTTPConfig{Enabled: true, Addr: ":8080"},
		Sim:     sim.DefaultConfig(),
	}
}

// Load reads the configuration. An empty path uses defaults and the
// environment only.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if err := setDefaults(v); err != nil {
		return Config{}, err
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults registers every DefaultConfig leaf as a viper default, keyed
// by its dotted YAML path. Defaults stay below the file in precedence and
// never constrain the type of a file value.
func setDefaults(v *viper.Viper) error {
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("encode defaults: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("decode defaults: %w", err)
	}
	setDefaultTree(v, "", tree)
	return nil
}

func setDefaultTree(v *viper.Viper, prefix string, tree map[string]any) {
	for key, val := range tree {
		if prefix != "" {
			key = prefix + "." + key
		}
		if sub, ok := val.(map[string]any); ok {
			setDefaultTree(v, key, sub)
			continue
		}
		v.SetDefault(key, val)
	}
}

var validate = validator.New()

// Validate checks every field constraint and reports all violations in one
// *model.ConfigError.
func Validate(cfg Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
		}
	}
	return model.NewConfigError("config", "%s", strings.Join(msgs, "; "))
}

// YAML renders cfg as a YAML document.
func YAML(cfg Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
