package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsAreValid(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Fatalf("stock tuning must validate: %v", err)
	}
}

func TestLoadTuningOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yml")
	yml := "gravity: 0.8\nmax_rooms: 5\nend_on_desertion: false\n"
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}

	tn, err := LoadTuning(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tn.Gravity != 0.8 || tn.MaxRooms != 5 || tn.EndOnDesertion {
		t.Errorf("overrides not applied: %+v", tn)
	}
	// Untouched fields keep their defaults.
	if tn.MoveSpeed != Defaults().MoveSpeed {
		t.Errorf("unrelated field changed: %g", tn.MoveSpeed)
	}
}

func TestLoadTuningEmptyPath(t *testing.T) {
	tn, err := LoadTuning("")
	if err != nil {
		t.Fatalf("empty path should mean defaults: %v", err)
	}
	if tn != Defaults() {
		t.Error("expected stock tuning")
	}
}

func TestLoadTuningMissingFile(t *testing.T) {
	if _, err := LoadTuning("/does/not/exist.yml"); err == nil {
		t.Error("missing file should surface an error")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []func(*Tuning){
		func(t *Tuning) { t.TickMs = 0 },
		func(t *Tuning) { t.WorldWidth = -1 },
		func(t *Tuning) { t.RoomCapacity = 0 },
		func(t *Tuning) { t.MoveSpeed = 0 },
		func(t *Tuning) { t.SpawnChance = 1.5 },
	}
	for i, corrupt := range cases {
		tn := Defaults()
		corrupt(&tn)
		if err := tn.Validate(); err == nil {
			t.Errorf("case %d: corrupt tuning passed validation", i)
		}
	}
}
