package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Tuning holds every gameplay constant that product may want to tweak
// without a rebuild. Zero-config deployments run on Defaults(); a YAML
// file passed via -tuning overrides individual fields.
type Tuning struct {
	TickMs        int     `yaml:"tick_ms"`
	WorldWidth    float64 `yaml:"world_width"`
	WorldHeight   float64 `yaml:"world_height"`
	Gravity       float64 `yaml:"gravity"`
	MoveSpeed     float64 `yaml:"move_speed"`
	JumpImpulse   float64 `yaml:"jump_impulse"`
	MaxFallSpeed  float64 `yaml:"max_fall_speed"`
	ActorRadius   float64 `yaml:"actor_radius"`
	ItemRadius    float64 `yaml:"item_radius"`
	ItemPoints    int     `yaml:"item_points"`
	SpawnChance   float64 `yaml:"spawn_chance"`
	EffectSecs    float64 `yaml:"effect_secs"`
	SpeedBoost    float64 `yaml:"speed_boost"`
	AISpeed       float64 `yaml:"ai_speed"`
	AIJitter      float64 `yaml:"ai_jitter"`
	TimeLimitSecs float64 `yaml:"time_limit_secs"`
	GraceSecs     float64 `yaml:"grace_secs"`
	RetentionSecs float64 `yaml:"retention_secs"`
	RoomCapacity  int     `yaml:"room_capacity"`
	MaxRooms      int     `yaml:"max_rooms"`

	// EndOnDesertion decides what happens when a participant leaves an
	// active match: true finishes it immediately with the remaining
	// player as winner, false keeps the match running until timeout.
	EndOnDesertion bool `yaml:"end_on_desertion"`
}

// Defaults returns the stock tuning values.
func Defaults() Tuning {
	return Tuning{
		TickMs:         50,
		WorldWidth:     800,
		WorldHeight:    600,
		Gravity:        0.4,
		MoveSpeed:      5.0,
		JumpImpulse:    10.0,
		MaxFallSpeed:   12.0,
		ActorRadius:    25,
		ItemRadius:     20,
		ItemPoints:     10,
		SpawnChance:    0.1,
		EffectSecs:     5,
		SpeedBoost:     1.5,
		AISpeed:        5.0,
		AIJitter:       1.0,
		TimeLimitSecs:  180,
		GraceSecs:      10,
		RetentionSecs:  300,
		RoomCapacity:   2,
		MaxRooms:       100,
		EndOnDesertion: true,
	}
}

// LoadTuning reads overrides from a YAML file on top of Defaults.
func LoadTuning(path string) (Tuning, error) {
	t := Defaults()
	if path == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning file %s: %w", path, err)
	}
	return t, t.Validate()
}

// Validate rejects values that would corrupt the simulation.
func (t Tuning) Validate() error {
	if t.TickMs <= 0 {
		return fmt.Errorf("tick_ms must be positive, got %d", t.TickMs)
	}
	if t.WorldWidth <= 0 || t.WorldHeight <= 0 {
		return fmt.Errorf("world bounds must be positive, got %gx%g", t.WorldWidth, t.WorldHeight)
	}
	if t.RoomCapacity <= 0 {
		return fmt.Errorf("room_capacity must be positive, got %d", t.RoomCapacity)
	}
	if t.MoveSpeed <= 0 {
		return fmt.Errorf("move_speed must be positive, got %g", t.MoveSpeed)
	}
	if t.SpawnChance < 0 || t.SpawnChance > 1 {
		return fmt.Errorf("spawn_chance must be in [0,1], got %g", t.SpawnChance)
	}
	return nil
}

// TickDuration returns the simulation step as a time.Duration.
func (t Tuning) TickDuration() time.Duration {
	return time.Duration(t.TickMs) * time.Millisecond
}

// GracePeriod is how long a disconnected client keeps its actor alive.
func (t Tuning) GracePeriod() time.Duration {
	return time.Duration(t.GraceSecs * float64(time.Second))
}

// Retention is how long finished rooms linger before Sweep reclaims them.
func (t Tuning) Retention() time.Duration {
	return time.Duration(t.RetentionSecs * float64(time.Second))
}
