package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/oukeidos/iconic/internal/apperrors"
	"github.com/oukeidos/iconic/internal/selection"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Fatalf("Load() = %+v, want defaults", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	want := Config{
		Mode:             "random",
		RotationInterval: 42,
		DefaultIcon:      "logo.png",
		DateIcons:        map[string]string{"24.12": "xmas.png", "01.01": "new-year.png"},
	}
	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip = %+v, want %+v", got, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	text := string(data)
	for _, fragment := range []string{`icon-selection-mode = "random"`, `icon-rotation-interval = 42`, `[date-specific-icons]`, `"24.12" = "xmas.png"`} {
		if !strings.Contains(text, fragment) {
			t.Errorf("saved config missing %q:\n%s", fragment, text)
		}
	}
}

func TestSave_OmitsEmptyDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := Save(path, Default()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "default-icon") {
		t.Fatalf("empty default-icon should be omitted:\n%s", data)
	}
}

func TestLoad_ParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("icon-rotation-interval = \"soon\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestNormalize(t *testing.T) {
	in := Config{
		Mode:             "per-ping-random",
		RotationInterval: 0,
		DefaultIcon:      " logo.png ",
		DateIcons: map[string]string{
			"1.1":   "a.png",
			"31.02": "b.png",
			"24.12": "",
			"05.05": "c.png",
		},
	}
	out, notes := in.Normalize()
	if out.Mode != string(selection.ModePerQueryRandom) {
		t.Errorf("Mode = %q", out.Mode)
	}
	if out.RotationInterval != 300 {
		t.Errorf("RotationInterval = %d", out.RotationInterval)
	}
	if out.DefaultIcon != "logo.png" {
		t.Errorf("DefaultIcon = %q", out.DefaultIcon)
	}
	wantDates := map[string]string{"01.01": "a.png", "05.05": "c.png"}
	if !reflect.DeepEqual(out.DateIcons, wantDates) {
		t.Errorf("DateIcons = %v, want %v", out.DateIcons, wantDates)
	}
	if len(notes) != 5 {
		t.Errorf("expected 5 notes, got %d: %v", len(notes), notes)
	}
	if err := out.Validate(); err != nil {
		t.Errorf("normalized config must validate: %v", err)
	}
	if len(in.DateIcons) != 4 {
		t.Errorf("Normalize must not modify the receiver's map")
	}
}

func TestNormalize_UnknownMode(t *testing.T) {
	out, notes := Config{Mode: "shuffle", RotationInterval: 10}.Normalize()
	if out.Mode != string(selection.DefaultMode) || len(notes) != 1 {
		t.Fatalf("unexpected normalize result %+v notes=%v", out, notes)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"unknown mode", Config{Mode: "x", RotationInterval: 1}},
		{"legacy mode", Config{Mode: "per-ping-random", RotationInterval: 1}},
		{"zero interval", Config{Mode: "cycle", RotationInterval: 0}},
		{"bad date", Config{Mode: "cycle", RotationInterval: 1, DateIcons: map[string]string{"32.01": "a.png"}}},
		{"unpadded date", Config{Mode: "cycle", RotationInterval: 1, DateIcons: map[string]string{"1.1": "a.png"}}},
		{"empty file", Config{Mode: "cycle", RotationInterval: 1, DateIcons: map[string]string{"01.01": " "}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cfg.Validate(); !apperrors.Is(err, apperrors.KindInvalidArgument) {
				t.Fatalf("Validate() = %v, want invalid argument", err)
			}
		})
	}
}

func TestSelectionModeFallback(t *testing.T) {
	if got := (Config{Mode: "STATIC"}).SelectionMode(); got != selection.ModeStatic {
		t.Fatalf("SelectionMode = %q", got)
	}
	if got := (Config{Mode: "bogus"}).SelectionMode(); got != selection.DefaultMode {
		t.Fatalf("SelectionMode = %q", got)
	}
}
