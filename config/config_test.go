// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"hlbsp/bsp"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if got := cfg.Collision.Params(); got != bsp.DefaultCollisionParams() {
		t.Errorf("collision params = %+v", got)
	}
	if cfg.Lightmap.MaxWidth != 1024 {
		t.Errorf("expected lightmap width 1024, got %d", cfg.Lightmap.MaxWidth)
	}
	if !reflect.DeepEqual(cfg.Models.AttachedClasses, bsp.DefaultAttachedClasses) {
		t.Errorf("attached classes = %v", cfg.Models.AttachedClasses)
	}
	if !cfg.Render.BSPFilter || !cfg.Render.FrustumCull {
		t.Error("expected bsp filter and frustum culling by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "hlbsp.yaml", `
level:
  base_dirs: ["valve", "cstrike"]
  map: maps/de_dust.bsp
collision:
  max_bounces: 8
  snap_one: 0.95
models:
  attached_classes: [func_wall]
probe:
  position: [1, 2, 3]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Level.Map != "maps/de_dust.bsp" || len(cfg.Level.BaseDirs) != 2 {
		t.Errorf("level = %+v", cfg.Level)
	}
	p := cfg.Collision.Params()
	if p.MaxBounces != 8 || p.SnapOne != 0.95 || p.Margin != 1.0/32 {
		t.Errorf("collision params = %+v", p)
	}
	if !reflect.DeepEqual(cfg.Models.AttachedClasses, []string{"func_wall"}) {
		t.Errorf("attached classes = %v", cfg.Models.AttachedClasses)
	}
	if cfg.Probe.Position != [3]float32{1, 2, 3} || cfg.Probe.Radius != 16 {
		t.Errorf("probe = %+v", cfg.Probe)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeConfig(t, "hlbsp.toml", `
[level]
map = "maps/crossfire.bsp"

[lightmap]
max_width = 512

[logging]
level = "debug"
file = "hlbsp.log"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Level.Map != "maps/crossfire.bsp" {
		t.Errorf("map = %s", cfg.Level.Map)
	}
	if cfg.Lightmap.MaxWidth != 512 || cfg.LoadOptions().MaxLightmapWidth != 512 {
		t.Errorf("lightmap width = %d", cfg.Lightmap.MaxWidth)
	}
	if lc := cfg.Logging.Conlog(); lc.Level != "debug" || lc.File != "hlbsp.log" {
		t.Errorf("logging = %+v", lc)
	}
	if cfg.Render.FOV != 75 {
		t.Errorf("defaults lost: fov = %v", cfg.Render.FOV)
	}
}

func TestLoadInvalid(t *testing.T) {
	path := writeConfig(t, "bad.yaml", "level:\n  map: [unterminated\n")
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid yaml")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{"out.yaml", "out.toml"} {
		path := filepath.Join(t.TempDir(), "sub", name)
		cfg := Default()
		cfg.Level.Map = "maps/x.bsp"
		cfg.Collision.MaxBounces = 3
		if err := cfg.SaveTo(path); err != nil {
			t.Fatalf("SaveTo(%s): %v", name, err)
		}
		got, err := Load(path)
		if err != nil {
			t.Fatalf("Load(%s): %v", name, err)
		}
		if got.Level.Map != "maps/x.bsp" || got.Collision.MaxBounces != 3 {
			t.Errorf("%s: got %+v", name, got)
		}
	}
}

func TestFlags(t *testing.T) {
	f, err := ParseFlags("hlbsp", []string{"-debug", "-nocull", "-base", "valve,mod", "maps/a.bsp"})
	if err != nil {
		t.Fatal(err)
	}
	cfg := Default()
	f.Apply(cfg)
	if cfg.Level.Map != "maps/a.bsp" {
		t.Errorf("map = %s", cfg.Level.Map)
	}
	if !reflect.DeepEqual(cfg.Level.BaseDirs, []string{"valve", "mod"}) {
		t.Errorf("base dirs = %v", cfg.Level.BaseDirs)
	}
	if cfg.Logging.Level != "debug" || cfg.Render.FrustumCull || !cfg.Render.BSPFilter {
		t.Errorf("config = %+v", cfg)
	}
	if _, err := ParseFlags("hlbsp", []string{"-unknown"}); err == nil {
		t.Error("expected error for unknown flag")
	}
}
