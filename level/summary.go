// SPDX-License-Identifier: GPL-2.0-or-later

package level

import (
	"google.golang.org/protobuf/types/known/structpb"

	"hlbsp/bsp"
)

func stringList(s []string) []interface{} {
	r := make([]interface{}, len(s))
	for i, v := range s {
		r[i] = v
	}
	return r
}

// Summarize describes l for tools.
func Summarize(l *bsp.Level) (*structpb.Struct, error) {
	textures := make([]string, len(l.Textures))
	for i, t := range l.Textures {
		textures[i] = t.Name()
	}
	lightmaps := make([]interface{}, len(l.Lightmaps))
	for i, t := range l.Lightmaps {
		lightmaps[i] = map[string]interface{}{
			"width":  t.Width(),
			"height": t.Height(),
		}
	}
	var classes []string
	for _, e := range l.Entities {
		if n, ok := e.Name(); ok {
			classes = append(classes, n)
		}
	}
	m := map[string]interface{}{
		"id":         l.ID.String(),
		"name":       l.Name,
		"planes":     len(l.Planes),
		"vertices":   len(l.Vertices),
		"faces":      len(l.Faces),
		"leaves":     len(l.Leaves),
		"nodes":      len(l.Nodes),
		"models":     len(l.Models),
		"modelFaces": len(l.ModelFaces),
		"entities":   stringList(classes),
		"textures":   stringList(textures),
		"lightmaps":  lightmaps,
		"wads":       stringList(l.WADs()),
	}
	if l.Sky != nil {
		m["sky"] = map[string]interface{}{
			"name":    l.Sky.Name,
			"range":   l.Sky.Range,
			"texture": l.Sky.Texture.Name(),
		}
	}
	return structpb.NewStruct(m)
}

// Summary describes the current level.
func (m *Manager) Summary() (*structpb.Struct, error) {
	l := m.Current()
	if l == nil {
		return nil, errNoLevel
	}
	return Summarize(l)
}
