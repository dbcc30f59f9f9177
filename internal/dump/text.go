package dump

import (
	"io"
	"strconv"
	"strings"

	"firestige.xyz/pdukit/internal/core"
)

func init() {
	Register("text", func(w io.Writer, opts Options) Backend { return NewText(w, opts) })
}

type textFrame struct {
	name  string
	items int
}

// Text writes one "path.field: value" line per field, with nodes and
// lists folded into the dotted path. Packets are separated by a blank line.
type Text struct {
	out     errWriter
	opts    Options
	stack   []textFrame
	packets int
}

func NewText(w io.Writer, opts Options) *Text {
	return &Text{out: errWriter{w: w}, opts: opts}
}

func (t *Text) path() string {
	var b strings.Builder
	for _, f := range t.stack {
		if b.Len() > 0 && !strings.HasPrefix(f.name, "[") {
			b.WriteByte('.')
		}
		b.WriteString(f.name)
	}
	return b.String()
}

func (t *Text) key(name string) string {
	if p := t.path(); p != "" {
		return p + "." + name
	}
	return name
}

func (t *Text) top() *textFrame { return &t.stack[len(t.stack)-1] }

func (t *Text) StartPacket() error {
	t.packets++
	t.stack = t.stack[:0]
	if t.packets > 1 {
		return t.out.printf("\n")
	}
	return t.out.err
}

func (t *Text) EndPacket() {}

func (t *Text) StartNode(name, descr string) error {
	t.stack = append(t.stack, textFrame{name: name})
	if descr == "" {
		return t.out.err
	}
	return t.out.printf("%s: %s\n", t.path(), descr)
}

func (t *Text) EndNode() { t.stack = t.stack[:len(t.stack)-1] }

func (t *Text) AddField(name string, v core.Value, descr string) error {
	return t.out.printf("%s: %s\n", t.key(name), annotate(t.opts.render(v), descr))
}

func (t *Text) AddInfo(name, descr string) error {
	return t.out.printf("%s: %s\n", t.key(name), descr)
}

func (t *Text) StartList(name, descr string) error {
	t.stack = append(t.stack, textFrame{name: name})
	if descr == "" {
		return t.out.err
	}
	return t.out.printf("%s: %s\n", t.path(), descr)
}

func (t *Text) EndList() { t.stack = t.stack[:len(t.stack)-1] }

func (t *Text) AddListItem(v core.Value, descr string) error {
	f := t.top()
	idx := f.items
	f.items++
	return t.out.printf("%s[%d]: %s\n", t.path(), idx, annotate(t.opts.render(v), descr))
}

func (t *Text) StartListNode(descr string) error {
	f := t.top()
	idx := f.items
	f.items++
	t.stack = append(t.stack, textFrame{name: "[" + strconv.Itoa(idx) + "]"})
	if descr == "" {
		return t.out.err
	}
	return t.out.printf("%s: %s\n", t.path(), descr)
}

func (t *Text) EndListNode() { t.stack = t.stack[:len(t.stack)-1] }

func (t *Text) Close() error { return t.out.err }
