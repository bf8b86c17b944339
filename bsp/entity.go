// SPDX-License-Identifier: GPL-2.0-or-later
package bsp

import (
	"bytes"
	"strconv"
	"strings"
)

type Entity struct {
	properties map[string]string
	src        []byte
}

func NewEntity(p []byte) *Entity {
	e := &Entity{properties: make(map[string]string), src: p}
	// parse the entity line by line
	lines := bytes.Split(p, []byte("\n"))
	for _, l := range lines {
		// look for something of the form
		// "key" "value"
		q := bytes.IndexByte(l, '"')
		if q == -1 {
			continue
		}
		r := l[q+1:]
		q = bytes.IndexByte(r, '"')
		if q == -1 {
			continue
		}
		key := string(r[:q])
		r = r[q+1:]
		q = bytes.IndexByte(r, '"')
		if q == -1 {
			continue
		}
		r = r[q+1:]
		q = bytes.IndexByte(r, '"')
		if q == -1 {
			continue
		}
		value := string(r[:q])
		if _, ok := e.properties[key]; !ok {
			e.properties[key] = value
		}
	}
	return e
}

func (e *Entity) Property(name string) (string, bool) {
	v, ok := e.properties[name]
	return v, ok
}

// Int returns the property parsed as an integer.
func (e *Entity) Int(name string) (int, bool) {
	v, ok := e.properties[name]
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return i, true
}

func (e *Entity) Float(name string) (float32, bool) {
	v, ok := e.properties[name]
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 32)
	if err != nil {
		return 0, false
	}
	return float32(f), true
}

func (e *Entity) Name() (string, bool) {
	v, ok := e.properties["classname"]
	return v, ok
}

func (e *Entity) PropertyNames() []string {
	n := []string{}
	for k := range e.properties {
		n = append(n, k)
	}
	return n
}

func (e *Entity) Source() string {
	return string(e.src)
}

func ParseEntities(data []byte) []*Entity {
	/*
		The data looks like:
		{
		  "name" "value"
		  "name2" "value2"
		}
		{
		  "name3" "value"
		}
	*/
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	es := []*Entity{}
	var ess [][]byte
	var ob, q int
	start := -1
	for i, b := range data {
		switch b {
		case '{':
			if q != 0 {
				break
			}
			if start == -1 {
				start = i
			} else {
				ob++
			}
		case '}':
			if q != 0 {
				break
			}
			if start == -1 {
				// Bad input
				return es
			}
			if ob == 0 {
				ess = append(ess, data[start:i+1])
				start = -1
			} else {
				ob--
			}
		case '"':
			if q == 0 {
				q++
			} else {
				q--
			}
		}
	}
	for _, e := range ess {
		es = append(es, NewEntity(e))
	}
	return es
}

// FindEntities returns all entities with one of the given classnames in file
// order. A single argument may also list several classnames separated by ';'.
func (l *Level) FindEntities(classes ...string) []*Entity {
	want := map[string]bool{}
	for _, c := range classes {
		for _, s := range strings.Split(c, ";") {
			if s != "" {
				want[s] = true
			}
		}
	}
	var r []*Entity
	for _, e := range l.Entities {
		if n, ok := e.Name(); ok && want[n] {
			r = append(r, e)
		}
	}
	return r
}

func (l *Level) worldspawn() *Entity {
	if w := l.FindEntities("worldspawn"); len(w) > 0 {
		return w[0]
	}
	return nil
}

// WADs returns the base names of the texture archives the level refers to.
func (l *Level) WADs() []string {
	w := l.worldspawn()
	if w == nil {
		return nil
	}
	list, ok := w.Property("wad")
	if !ok {
		return nil
	}
	var r []string
	for _, s := range strings.Split(list, ";") {
		if i := strings.LastIndexAny(s, `\/`); i >= 0 {
			s = s[i+1:]
		}
		if s != "" {
			r = append(r, s)
		}
	}
	return r
}
