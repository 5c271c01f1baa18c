// Package serialize turns validated instances back into ordered maps and JSON text.
//
// Fields are emitted in declaration order, followed by computed fields. Nested
// instances are expanded recursively and free-form maps are emitted with sorted
// keys. Include and Exclude take dotted paths ("address.city"); include is
// applied first and exclude is applied to what remains.
//
//	m, err := serialize.DumpMap(inst, serialize.Include("name", "gender"))
//	text, err := serialize.DumpText(inst, serialize.Indent("", "  "))
package serialize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/gofhir/modelvalidator/pkg/pool"
	"github.com/gofhir/modelvalidator/pkg/schema"
)

// Config controls what a dump contains.
type Config struct {
	Include         []string
	Exclude         []string
	ExcludeComputed bool
	ExcludeAbsent   bool

	IndentPrefix string
	IndentValue  string
}

// Option configures a dump.
type Option func(*Config)

// Include keeps only the given paths.
func Include(paths ...string) Option {
	return func(c *Config) {
		c.Include = append(c.Include, paths...)
	}
}

// Exclude drops the given paths.
func Exclude(paths ...string) Option {
	return func(c *Config) {
		c.Exclude = append(c.Exclude, paths...)
	}
}

// ExcludeComputed leaves computed fields out of the dump.
func ExcludeComputed() Option {
	return func(c *Config) {
		c.ExcludeComputed = true
	}
}

// ExcludeAbsent leaves absent optional fields out instead of emitting null.
func ExcludeAbsent() Option {
	return func(c *Config) {
		c.ExcludeAbsent = true
	}
}

// Indent formats DumpText output like json.Indent. It has no effect on DumpMap.
func Indent(prefix, indent string) Option {
	return func(c *Config) {
		c.IndentPrefix = prefix
		c.IndentValue = indent
	}
}

func newConfig(opts []Option) *Config {
	c := &Config{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DumpMap returns the instance as an ordered map.
// A computed field that fails to evaluate fails the dump with its
// *schema.ComputationError, wrapped with the path of the instance holding it.
func DumpMap(inst *schema.Instance, opts ...Option) (*Map, error) {
	if inst == nil {
		return nil, fmt.Errorf("serialize: nil instance")
	}
	cfg := newConfig(opts)
	f := filter{
		include: newPathSet(cfg.Include),
		exclude: newPathSet(cfg.Exclude),
	}
	d := &dumper{cfg: cfg}
	return d.instance(inst, "", f)
}

type dumper struct {
	cfg *Config
}

func (d *dumper) instance(inst *schema.Instance, path string, f filter) (*Map, error) {
	s := inst.Schema()
	out := newMap(len(s.Fields()) + len(s.ComputedFields()))

	var err error
	inst.Range(func(name string, value any, present bool) bool {
		ok, sub := f.keep(name)
		if !ok {
			return true
		}
		if !present {
			if !d.cfg.ExcludeAbsent {
				out.set(name, nil)
			}
			return true
		}
		var v any
		v, err = d.value(value, pool.Field(path, name), sub)
		if err != nil {
			return false
		}
		out.set(name, v)
		return true
	})
	if err != nil {
		return nil, err
	}

	if d.cfg.ExcludeComputed {
		return out, nil
	}
	for _, c := range s.ComputedFields() {
		ok, sub := f.keep(c.Name)
		if !ok {
			continue
		}
		v, err := inst.Computed(c.Name)
		if err != nil {
			if path == "" {
				return nil, err
			}
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if v, err = d.value(v, pool.Field(path, c.Name), sub); err != nil {
			return nil, err
		}
		out.set(c.Name, v)
	}
	return out, nil
}

func (d *dumper) value(v any, path string, f filter) (any, error) {
	switch x := v.(type) {
	case *schema.Instance:
		return d.instance(x, path, f)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			ev, err := d.value(e, pool.Index(path, i), f)
			if err != nil {
				return nil, err
			}
			out[i] = ev
		}
		return out, nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		out := newMap(len(keys))
		for _, k := range keys {
			ok, sub := f.keep(k)
			if !ok {
				continue
			}
			ev, err := d.value(x[k], pool.Field(path, k), sub)
			if err != nil {
				return nil, err
			}
			out.set(k, ev)
		}
		return out, nil
	}
	return v, nil
}

// DumpText returns the instance as JSON text with the same ordering and
// filtering as DumpMap.
func DumpText(inst *schema.Instance, opts ...Option) ([]byte, error) {
	m, err := DumpMap(inst, opts...)
	if err != nil {
		return nil, err
	}
	cfg := newConfig(opts)

	bp := pool.AcquireBuffer()
	defer pool.ReleaseBuffer(bp)

	w := &sliceWriter{buf: *bp}
	if err := writeJSON(w, m); err != nil {
		return nil, fmt.Errorf("serialize: %w", err)
	}
	*bp = w.buf

	if cfg.IndentPrefix == "" && cfg.IndentValue == "" {
		return append([]byte(nil), w.buf...), nil
	}
	var indented bytes.Buffer
	if err := json.Indent(&indented, w.buf, cfg.IndentPrefix, cfg.IndentValue); err != nil {
		return nil, fmt.Errorf("serialize: %w", err)
	}
	return indented.Bytes(), nil
}

// sliceWriter appends to a pooled byte slice.
type sliceWriter struct {
	buf []byte
}

func (w *sliceWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}

func (w *sliceWriter) WriteByte(c byte) error {
	w.buf = append(w.buf, c)
	return nil
}

func (w *sliceWriter) WriteString(s string) (int, error) {
	w.buf = append(w.buf, s...)
	return len(s), nil
}
