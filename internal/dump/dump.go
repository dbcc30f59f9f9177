// Package dump renders dissected packets for humans: flat text, an
// indented tree, or YAML documents.
package dump

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"firestige.xyz/pdukit/internal/address"
	"firestige.xyz/pdukit/internal/core"
)

// Options tune how values are rendered.
type Options struct {
	// OUINames renders MAC addresses as Vendor_xx:xx:xx.
	OUINames bool
}

// Backend is a core.Dumper writing to a stream. Close reports the first
// write error and flushes anything buffered.
type Backend interface {
	core.Dumper
	Close() error
}

// Factory builds a back-end writing to w.
type Factory func(w io.Writer, opts Options) Backend

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register makes a back-end available by name.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := factories[name]; dup {
		panic(fmt.Sprintf("dump: back-end %q registered twice", name))
	}
	factories[name] = f
}

// New builds the named back-end.
func New(name string, w io.Writer, opts Options) (Backend, error) {
	mu.RLock()
	f, ok := factories[name]
	mu.RUnlock()
	if !ok {
		return nil, &core.UserError{Err: fmt.Errorf("unknown dump format %q", name)}
	}
	return f(w, opts), nil
}

// Names lists the registered back-ends.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for n := range factories {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (o Options) render(v core.Value) string {
	if o.OUINames && v.Kind == core.KindAddress {
		if mac, ok := v.Address().(address.MAC); ok {
			return address.FormatOUI(mac)
		}
	}
	return v.String()
}

// annotate appends descr to s unless it adds nothing.
func annotate(s, descr string) string {
	if descr == "" || descr == s {
		return s
	}
	if s == "" {
		return descr
	}
	return s + " (" + descr + ")"
}

// errWriter keeps the first write error and drops later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) error {
	if e.err == nil {
		_, e.err = fmt.Fprintf(e.w, format, args...)
	}
	return e.err
}
