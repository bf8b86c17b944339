// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"flag"
	"strings"
)

// Flags are the command line overrides.
type Flags struct {
	Config   string
	Map      string
	BaseDirs string
	Debug    bool
	Watch    bool
	NoBSP    bool
	NoCull   bool
	DumpDir  string
}

// Register adds the flags to fs.
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.Config, "config", "", "Path to config file (.yaml or .toml)")
	fs.StringVar(&f.Map, "map", "", "Level to load, relative to the search path")
	fs.StringVar(&f.BaseDirs, "base", "", "Comma separated search directories, lowest priority first")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&f.Watch, "watch", false, "Reload the level when the file changes")
	fs.BoolVar(&f.NoBSP, "nobsp", false, "Draw all faces instead of using the potentially visible set")
	fs.BoolVar(&f.NoCull, "nocull", false, "Disable frustum culling")
	fs.StringVar(&f.DumpDir, "dump", "", "Write the lightmap atlases as png into this directory")
}

// ParseFlags parses args with a new flag set.
func ParseFlags(name string, args []string) (*Flags, error) {
	f := &Flags{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	f.Register(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if f.Map == "" && fs.NArg() > 0 {
		f.Map = fs.Arg(0)
	}
	return f, nil
}

// Apply overwrites cfg with the flags that were set.
func (f *Flags) Apply(cfg *Config) {
	if f.Map != "" {
		cfg.Level.Map = f.Map
	}
	if f.BaseDirs != "" {
		cfg.Level.BaseDirs = strings.Split(f.BaseDirs, ",")
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.Watch {
		cfg.Level.Watch = true
	}
	if f.NoBSP {
		cfg.Render.BSPFilter = false
	}
	if f.NoCull {
		cfg.Render.FrustumCull = false
	}
}
