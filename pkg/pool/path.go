// Package pool provides sync.Pool backed builders for field paths and byte buffers.
package pool

import (
	"strconv"
	"strings"
	"sync"
)

// PathBuilder builds dotted field paths such as "people[1].address.city".
// Instances are reused via sync.Pool.
type PathBuilder struct {
	buf []byte
}

var pathBuilderPool = sync.Pool{
	New: func() any {
		return &PathBuilder{
			buf: make([]byte, 0, 64),
		}
	},
}

// AcquirePathBuilder gets a PathBuilder from the pool.
// Call Release() when done to return it to the pool.
func AcquirePathBuilder() *PathBuilder {
	pb := pathBuilderPool.Get().(*PathBuilder)
	pb.Reset()
	return pb
}

// Release returns the PathBuilder to the pool.
func (b *PathBuilder) Release() {
	if b == nil {
		return
	}
	// Don't return oversized buffers to the pool
	if cap(b.buf) <= 1024 {
		pathBuilderPool.Put(b)
	}
}

// Reset clears the buffer without deallocating.
func (b *PathBuilder) Reset() {
	b.buf = b.buf[:0]
}

// Len returns the current length of the path.
func (b *PathBuilder) Len() int {
	return len(b.buf)
}

// WriteString appends s verbatim.
func (b *PathBuilder) WriteString(s string) {
	b.buf = append(b.buf, s...)
}

// AppendField appends a field name with a leading dot if the path is not empty.
func (b *PathBuilder) AppendField(name string) {
	if len(b.buf) > 0 {
		b.buf = append(b.buf, '.')
	}
	b.buf = append(b.buf, name...)
}

// AppendIndex appends a list index in brackets [n].
func (b *PathBuilder) AppendIndex(index int) {
	b.buf = append(b.buf, '[')
	b.buf = strconv.AppendInt(b.buf, int64(index), 10)
	b.buf = append(b.buf, ']')
}

// String returns the built path.
func (b *PathBuilder) String() string {
	return string(b.buf)
}

// Field returns base.name, or name when base is empty.
func Field(base, name string) string {
	if base == "" {
		return name
	}
	pb := AcquirePathBuilder()
	defer pb.Release()
	pb.WriteString(base)
	pb.AppendField(name)
	return pb.String()
}

// Index returns base[i].
func Index(base string, i int) string {
	pb := AcquirePathBuilder()
	defer pb.Release()
	pb.WriteString(base)
	pb.AppendIndex(i)
	return pb.String()
}

// JoinPath joins path fragments with dots. Empty fragments are skipped and a
// fragment starting with an index ("[0].city") attaches without a dot.
func JoinPath(segments ...string) string {
	pb := AcquirePathBuilder()
	defer pb.Release()
	for _, s := range segments {
		switch {
		case s == "":
		case s[0] == '[':
			pb.WriteString(s)
		default:
			pb.AppendField(s)
		}
	}
	return pb.String()
}

// Segment is one step of a field path: a field name or a list index.
type Segment struct {
	Name    string
	Index   int
	IsIndex bool
}

// SplitPath parses a path built by PathBuilder back into segments.
// "people[1].address" yields people, [1], address.
func SplitPath(path string) []Segment {
	if path == "" {
		return nil
	}
	var out []Segment
	for _, part := range strings.Split(path, ".") {
		name := part
		rest := ""
		if i := strings.IndexByte(part, '['); i >= 0 {
			name, rest = part[:i], part[i:]
		}
		if name != "" {
			out = append(out, Segment{Name: name})
		}
		for strings.HasPrefix(rest, "[") {
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				break
			}
			n, err := strconv.Atoi(rest[1:end])
			if err != nil {
				out = append(out, Segment{Name: rest[:end+1]})
			} else {
				out = append(out, Segment{Index: n, IsIndex: true})
			}
			rest = rest[end+1:]
		}
	}
	return out
}
