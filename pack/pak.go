// SPDX-License-Identifier: GPL-2.0-or-later

package pack

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"
)

var ErrNotPack = errors.New("not a pack")

type header struct {
	ID     [4]byte
	Offset int32
	Size   int32
}

type entry struct {
	Name   [56]byte
	Offset int32
	Size   int32
}

const entrySize = 64

type Pack struct {
	r      io.ReaderAt
	closer io.Closer
	files  map[string]*qfile
	name   string
}

type qfile struct {
	offset int64
	size   int64
}

// Open returns a io.SectionReader of the entry name or os.ErrNotExist.
func (p *Pack) Open(name string) (*io.SectionReader, error) {
	q, ok := p.files[name]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NewSectionReader(p.r, q.offset, q.size), nil
}

func (p *Pack) ReadFile(name string) ([]byte, error) {
	s, err := p.Open(name)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(s)
}

// List returns the entry names in sorted order.
func (p *Pack) List() []string {
	r := make([]string, 0, len(p.files))
	for n := range p.files {
		r = append(r, n)
	}
	sort.Strings(r)
	return r
}

func (p *Pack) String() string {
	return p.name
}

func (p *Pack) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

// New reads the directory of a pack of the given size.
func New(r io.ReaderAt, size int64, name string) (*Pack, error) {
	p := &Pack{r: r, name: name}
	if err := p.init(size); err != nil {
		return nil, errors.WithMessage(err, name)
	}
	return p, nil
}

func (p *Pack) init(size int64) error {
	var h header
	if err := binary.Read(io.NewSectionReader(p.r, 0, size), binary.LittleEndian, &h); err != nil {
		return errors.Wrap(ErrNotPack, err.Error())
	}
	if !bytes.Equal([]byte("PACK"), h.ID[:]) {
		return ErrNotPack
	}
	if h.Offset < 0 || h.Size < 0 || int64(h.Offset)+int64(h.Size) > size {
		return errors.Wrapf(ErrNotPack, "directory at %d size %d outside of file", h.Offset, h.Size)
	}
	filenum := h.Size / entrySize
	es := make([]entry, filenum)
	if err := binary.Read(io.NewSectionReader(p.r, int64(h.Offset), int64(h.Size)), binary.LittleEndian, es); err != nil {
		return errors.Wrap(ErrNotPack, err.Error())
	}
	p.files = make(map[string]*qfile, filenum)
	for _, e := range es {
		n := bytes.IndexByte(e.Name[:], 0)
		if n < 0 {
			n = len(e.Name)
		}
		name := string(e.Name[:n])
		if p.files[name] != nil {
			return errors.Errorf("files in pack are not unique: %s", name)
		}
		if e.Offset < 0 || e.Size < 0 || int64(e.Offset)+int64(e.Size) > size {
			return errors.Wrapf(ErrNotPack, "entry %s outside of file", name)
		}
		p.files[name] = &qfile{
			offset: int64(e.Offset),
			size:   int64(e.Size),
		}
	}
	return nil
}

// NewPackReader opens the pack file name.
func NewPackReader(name string) (*Pack, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	p, err := New(f, fi.Size(), name)
	if err != nil {
		f.Close()
		return nil, err
	}
	p.closer = f
	return p, nil
}

// Write creates a pack holding files.
func Write(w io.Writer, files map[string][]byte) error {
	names := make([]string, 0, len(files))
	for n := range files {
		if len(n) >= 56 {
			return errors.Errorf("pack entry name too long: %s", n)
		}
		names = append(names, n)
	}
	sort.Strings(names)
	offset := int32(binary.Size(header{}))
	var data bytes.Buffer
	es := make([]entry, len(names))
	for i, n := range names {
		copy(es[i].Name[:], n)
		es[i].Offset = offset + int32(data.Len())
		es[i].Size = int32(len(files[n]))
		data.Write(files[n])
	}
	h := header{
		Offset: offset + int32(data.Len()),
		Size:   int32(len(es) * entrySize),
	}
	copy(h.ID[:], "PACK")
	if err := binary.Write(w, binary.LittleEndian, h); err != nil {
		return err
	}
	if _, err := w.Write(data.Bytes()); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, es)
}
