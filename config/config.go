// SPDX-License-Identifier: GPL-2.0-or-later

// Package config holds the settings of the level tool.
package config

import (
	"hlbsp/bsp"
	"hlbsp/conlog"
)

type Config struct {
	Level     LevelConfig     `yaml:"level" toml:"level"`
	Render    RenderConfig    `yaml:"render" toml:"render"`
	Collision CollisionConfig `yaml:"collision" toml:"collision"`
	Lightmap  LightmapConfig  `yaml:"lightmap" toml:"lightmap"`
	Models    ModelsConfig    `yaml:"models" toml:"models"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
	Probe     ProbeConfig     `yaml:"probe" toml:"probe"`
}

// LevelConfig selects the level and where files are searched.
type LevelConfig struct {
	BaseDirs []string `yaml:"base_dirs" toml:"base_dirs"` // lowest priority first
	Map      string   `yaml:"map" toml:"map"`
	Watch    bool     `yaml:"watch" toml:"watch"`
}

type RenderConfig struct {
	Width       int     `yaml:"width" toml:"width"`
	Height      int     `yaml:"height" toml:"height"`
	FOV         float32 `yaml:"fov" toml:"fov"` // vertical, degrees
	Near        float32 `yaml:"near" toml:"near"`
	Far         float32 `yaml:"far" toml:"far"`
	BSPFilter   bool    `yaml:"bsp_filter" toml:"bsp_filter"`
	FrustumCull bool    `yaml:"frustum_cull" toml:"frustum_cull"`
}

type CollisionConfig struct {
	Margin     float32 `yaml:"margin" toml:"margin"`
	MaxBounces int     `yaml:"max_bounces" toml:"max_bounces"`
	SnapZero   float32 `yaml:"snap_zero" toml:"snap_zero"`
	SnapOne    float32 `yaml:"snap_one" toml:"snap_one"`
}

type LightmapConfig struct {
	MaxWidth int `yaml:"max_width" toml:"max_width"`
}

type ModelsConfig struct {
	AttachedClasses []string `yaml:"attached_classes" toml:"attached_classes"`
}

type LoggingConfig struct {
	Level      string `yaml:"level" toml:"level"`
	File       string `yaml:"file" toml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" toml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" toml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" toml:"max_age_days"`
}

// ProbeConfig describes the camera and movement the tool checks after
// loading.
type ProbeConfig struct {
	Position [3]float32 `yaml:"position" toml:"position"`
	Yaw      float32    `yaml:"yaw" toml:"yaw"`
	Pitch    float32    `yaml:"pitch" toml:"pitch"`
	Movement [3]float32 `yaml:"movement" toml:"movement"`
	Radius   float32    `yaml:"radius" toml:"radius"`
}

func Default() *Config {
	p := bsp.DefaultCollisionParams()
	return &Config{
		Level: LevelConfig{
			BaseDirs: []string{"valve"},
		},
		Render: RenderConfig{
			Width:       1024,
			Height:      768,
			FOV:         75,
			Near:        4,
			Far:         bsp.DefaultSkyRange,
			BSPFilter:   true,
			FrustumCull: true,
		},
		Collision: CollisionConfig{
			Margin:     p.Margin,
			MaxBounces: p.MaxBounces,
			SnapZero:   p.SnapZero,
			SnapOne:    p.SnapOne,
		},
		Lightmap: LightmapConfig{
			MaxWidth: bsp.DefaultMaxLightmapWidth,
		},
		Models: ModelsConfig{
			AttachedClasses: append([]string(nil), bsp.DefaultAttachedClasses...),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Probe: ProbeConfig{
			Position: [3]float32{0, 64, 0},
			Movement: [3]float32{0, 0, 256},
			Radius:   16,
		},
	}
}

func (c CollisionConfig) Params() bsp.CollisionParams {
	return bsp.CollisionParams{
		Margin:     c.Margin,
		MaxBounces: c.MaxBounces,
		SnapZero:   c.SnapZero,
		SnapOne:    c.SnapOne,
	}
}

func (c LoggingConfig) Conlog() conlog.Config {
	return conlog.Config{
		Level:      c.Level,
		File:       c.File,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Console:    true,
	}
}

// LoadOptions returns the level loading settings. The texture source is left
// to the caller.
func (c *Config) LoadOptions() bsp.LoadOptions {
	return bsp.LoadOptions{
		AttachedClasses:  c.Models.AttachedClasses,
		MaxLightmapWidth: c.Lightmap.MaxWidth,
	}
}
