// Package config provides Viper-based configuration loading for the arena.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/ricochet/internal/game/fighter"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// SimulationConfig holds fixed-step clock settings.
type SimulationConfig struct {
	// FixedDelta is the simulated time advanced per step.
	FixedDelta time.Duration `mapstructure:"fixed_delta"`
	// Duration is the total simulated time an arena run may take.
	Duration time.Duration `mapstructure:"duration"`
	// Realtime paces steps with a wall-clock ticker.
	Realtime bool `mapstructure:"realtime"`
	// Seed makes decisions reproducible; 0 uses crypto randomness.
	Seed int64 `mapstructure:"seed"`
}

// CombatConfig holds stagger, poise and hold timings.
type CombatConfig struct {
	StaggerDuration   time.Duration `mapstructure:"stagger_duration"`
	RicochetDuration  time.Duration `mapstructure:"ricochet_duration"`
	HoldDelay         time.Duration `mapstructure:"hold_delay"`
	MaxHoldDifference time.Duration `mapstructure:"max_hold_difference"`
	BasePoise         time.Duration `mapstructure:"base_poise"`
	PoiseGrowth       time.Duration `mapstructure:"poise_growth"`
	PoiseReset        time.Duration `mapstructure:"poise_reset"`
	// StaggerEffect is the effect id applied while staggered; empty disables it.
	StaggerEffect   string  `mapstructure:"stagger_effect"`
	BaseMoveSpeed   float64 `mapstructure:"base_move_speed"`
	BaseRotateSpeed float64 `mapstructure:"base_rotate_speed"`
}

// Fighter converts the timings into a fighter configuration without the
// stagger effect, which is resolved against loaded content.
func (c CombatConfig) Fighter() fighter.Config {
	return fighter.Config{
		StaggerDuration:   c.StaggerDuration,
		RicochetDuration:  c.RicochetDuration,
		HoldDelay:         c.HoldDelay,
		MaxHoldDifference: c.MaxHoldDifference,
		BasePoise:         c.BasePoise,
		PoiseGrowth:       c.PoiseGrowth,
		PoiseReset:        c.PoiseReset,
	}
}

// ContentConfig holds the content directories.
type ContentConfig struct {
	EffectsDir    string `mapstructure:"effects_dir"`
	AbilitiesDir  string `mapstructure:"abilities_dir"`
	ArmamentsDir  string `mapstructure:"armaments_dir"`
	CharactersDir string `mapstructure:"characters_dir"`
}

// ScriptingConfig holds Lua controller script settings.
type ScriptingConfig struct {
	// ScriptDir holds one subdirectory per script key; empty disables scripting.
	ScriptDir        string `mapstructure:"script_dir"`
	InstructionLimit int    `mapstructure:"instruction_limit"`
}

// ArenaConfig holds contact and placement distances.
type ArenaConfig struct {
	// Reach is the melee contact distance.
	Reach float64 `mapstructure:"reach"`
	// HitRadius is the projectile contact radius.
	HitRadius float64 `mapstructure:"hit_radius"`
	// BodyRadius is a character's body size; two bodies touch when their
	// centres are within twice this distance.
	BodyRadius float64 `mapstructure:"body_radius"`
	// SpawnDistance separates opposing teams at start.
	SpawnDistance float64 `mapstructure:"spawn_distance"`
	// SensorRange is how close an enemy must be before a controller notices it.
	SensorRange float64 `mapstructure:"sensor_range"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Combat     CombatConfig     `mapstructure:"combat"`
	Content    ContentConfig    `mapstructure:"content"`
	Scripting  ScriptingConfig  `mapstructure:"scripting"`
	Arena      ArenaConfig      `mapstructure:"arena"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string
	for _, err := range []error{
		validateLogging(c.Logging),
		validateSimulation(c.Simulation),
		validateCombat(c.Combat),
		validateContent(c.Content),
		validateScripting(c.Scripting),
		validateArena(c.Arena),
	} {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateSimulation(s SimulationConfig) error {
	var errs []string
	if s.FixedDelta <= 0 {
		errs = append(errs, fmt.Sprintf("simulation.fixed_delta must be > 0, got %s", s.FixedDelta))
	}
	if s.Duration <= 0 {
		errs = append(errs, fmt.Sprintf("simulation.duration must be > 0, got %s", s.Duration))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateCombat(c CombatConfig) error {
	var errs []string
	for name, d := range map[string]time.Duration{
		"stagger_duration":    c.StaggerDuration,
		"ricochet_duration":   c.RicochetDuration,
		"hold_delay":          c.HoldDelay,
		"max_hold_difference": c.MaxHoldDifference,
		"base_poise":          c.BasePoise,
		"poise_growth":        c.PoiseGrowth,
		"poise_reset":         c.PoiseReset,
	} {
		if d < 0 {
			errs = append(errs, fmt.Sprintf("combat.%s must not be negative", name))
		}
	}
	if c.BaseMoveSpeed < 0 || c.BaseRotateSpeed < 0 {
		errs = append(errs, "combat base speeds must not be negative")
	}
	if len(errs) > 0 {
		sort.Strings(errs)
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateContent(c ContentConfig) error {
	var errs []string
	if c.EffectsDir == "" {
		errs = append(errs, "content.effects_dir must not be empty")
	}
	if c.AbilitiesDir == "" {
		errs = append(errs, "content.abilities_dir must not be empty")
	}
	if c.ArmamentsDir == "" {
		errs = append(errs, "content.armaments_dir must not be empty")
	}
	if c.CharactersDir == "" {
		errs = append(errs, "content.characters_dir must not be empty")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateScripting(s ScriptingConfig) error {
	if s.InstructionLimit < 0 {
		return fmt.Errorf("scripting.instruction_limit must be >= 0, got %d", s.InstructionLimit)
	}
	return nil
}

func validateArena(a ArenaConfig) error {
	var errs []string
	if a.Reach <= 0 {
		errs = append(errs, fmt.Sprintf("arena.reach must be > 0, got %v", a.Reach))
	}
	if a.HitRadius <= 0 {
		errs = append(errs, fmt.Sprintf("arena.hit_radius must be > 0, got %v", a.HitRadius))
	}
	if a.BodyRadius <= 0 {
		errs = append(errs, fmt.Sprintf("arena.body_radius must be > 0, got %v", a.BodyRadius))
	}
	if a.SpawnDistance < 0 {
		errs = append(errs, fmt.Sprintf("arena.spawn_distance must be >= 0, got %v", a.SpawnDistance))
	}
	if a.SensorRange < 0 {
		errs = append(errs, fmt.Sprintf("arena.sensor_range must be >= 0, got %v", a.SensorRange))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetEnvPrefix("RICOCHET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance holding only the default values.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("simulation.fixed_delta", "20ms")
	v.SetDefault("simulation.duration", "60s")
	v.SetDefault("simulation.realtime", false)
	v.SetDefault("simulation.seed", 0)

	v.SetDefault("combat.stagger_duration", "1s")
	v.SetDefault("combat.ricochet_duration", "1.5s")
	v.SetDefault("combat.hold_delay", "200ms")
	v.SetDefault("combat.max_hold_difference", "100ms")
	v.SetDefault("combat.base_poise", "1s")
	v.SetDefault("combat.poise_growth", "1s")
	v.SetDefault("combat.poise_reset", "500ms")
	v.SetDefault("combat.stagger_effect", "staggered")
	v.SetDefault("combat.base_move_speed", 3.5)
	v.SetDefault("combat.base_rotate_speed", 200.0)

	v.SetDefault("content.effects_dir", "content/effects")
	v.SetDefault("content.abilities_dir", "content/abilities")
	v.SetDefault("content.armaments_dir", "content/armaments")
	v.SetDefault("content.characters_dir", "content/characters")

	v.SetDefault("scripting.script_dir", "")
	v.SetDefault("scripting.instruction_limit", 100000)

	v.SetDefault("arena.reach", 1.5)
	v.SetDefault("arena.hit_radius", 0.5)
	v.SetDefault("arena.body_radius", 0.5)
	v.SetDefault("arena.spawn_distance", 6.0)
	v.SetDefault("arena.sensor_range", 10.0)
}
