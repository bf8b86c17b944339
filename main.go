// SPDX-License-Identifier: GPL-2.0-or-later

// Command hlbsp loads a Half-Life level, prints a summary and checks
// visibility and movement from a probe position.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protojson"

	"hlbsp/bsp"
	"hlbsp/camera"
	"hlbsp/config"
	"hlbsp/conlog"
	"hlbsp/filesystem"
	"hlbsp/image"
	"hlbsp/level"
	"hlbsp/math/vec"
	"hlbsp/wad"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		conlog.Errorf("%v", err)
		conlog.Sync()
		os.Exit(1)
	}
	conlog.Sync()
}

func run(args []string) error {
	flags, err := config.ParseFlags("hlbsp", args)
	if err != nil {
		return err
	}
	cfg, err := config.Load(flags.Config)
	if err != nil {
		return err
	}
	flags.Apply(cfg)
	if err := conlog.Init(cfg.Logging.Conlog()); err != nil {
		return err
	}
	if cfg.Level.Map == "" {
		return errors.New("no map given")
	}

	fs := filesystem.New(cfg.Level.BaseDirs...)
	defer fs.Close()
	opts := cfg.LoadOptions()
	opts.Textures = image.NewSource(fs)
	opts.Archives = wad.Opener(fs)
	m := level.NewManager(fs, opts)
	l, err := m.Load(cfg.Level.Map)
	if err != nil {
		return err
	}
	if err := report(cfg, l); err != nil {
		return err
	}
	if flags.DumpDir != "" {
		if err := dumpLightmaps(flags.DumpDir, l); err != nil {
			return err
		}
	}
	if !cfg.Level.Watch {
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	m.OnReload = func(l *bsp.Level, err error) {
		if err != nil {
			return
		}
		if err := report(cfg, l); err != nil {
			conlog.Errorf("%v", err)
		}
	}
	return m.Watch(ctx)
}

func report(cfg *config.Config, l *bsp.Level) error {
	s, err := level.Summarize(l)
	if err != nil {
		return err
	}
	b, err := protojson.MarshalOptions{Multiline: true}.Marshal(s)
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	probe(cfg, l)
	return nil
}

// drawCounter stands in for a graphics backend.
type drawCounter struct {
	opaque, transparent int
	skyAt               int
}

func (d *drawCounter) DrawSky() { d.skyAt = d.opaque + d.transparent }

func (d *drawCounter) DrawFace(e bsp.DrawEntry) {
	if e.Blend.Enabled {
		d.transparent++
	} else {
		d.opaque++
	}
}

func probe(cfg *config.Config, l *bsp.Level) {
	p := cfg.Probe
	r := cfg.Render
	c := camera.New(r.Width, r.Height, r.FOV, r.Near, r.Far)
	c.Position = vec.VFromA(p.Position)
	c.Turn(p.Yaw, p.Pitch)
	f := c.Frustum()

	leaf := l.PointInLeaf(c.Position)
	d := l.VisibleFaces(c.Position, &f, r.BSPFilter, r.FrustumCull)
	dc := &drawCounter{skyAt: -1}
	d.Submit(dc)
	conlog.Printf("probe %v in leaf %d: %d opaque, %d transparent faces, sky at %d",
		c.Position, leaf, dc.opaque, dc.transparent, dc.skyAt)

	col := bsp.NewCollider(l, cfg.Collision.Params())
	mv := col.Resolve(c.Position, vec.VFromA(p.Movement), p.Radius)
	conlog.Printf("probe move %v resolved to %v", vec.VFromA(p.Movement), mv)
}

func dumpLightmaps(dir string, l *bsp.Level) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for i, t := range l.Lightmaps {
		it, ok := t.(*bsp.ImageTexture)
		if !ok {
			continue
		}
		name := filepath.Join(dir, fmt.Sprintf("%s_lightmap%d.png", l.Name, i))
		if err := image.Write(name, it.Image()); err != nil {
			return err
		}
		conlog.DPrintf("wrote %s", name)
	}
	return nil
}
