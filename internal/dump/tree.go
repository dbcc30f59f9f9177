package dump

import (
	"io"
	"strings"

	"firestige.xyz/pdukit/internal/core"
)

func init() {
	Register("tree", func(w io.Writer, opts Options) Backend { return NewTree(w, opts) })
}

// Tree writes each packet as an indented outline headed "Packet N".
type Tree struct {
	out     errWriter
	opts    Options
	depth   int
	packets int
}

func NewTree(w io.Writer, opts Options) *Tree {
	return &Tree{out: errWriter{w: w}, opts: opts}
}

func (t *Tree) line(text string) error {
	return t.out.printf("%s%s\n", strings.Repeat("  ", t.depth), text)
}

func (t *Tree) StartPacket() error {
	t.packets++
	t.depth = 0
	if t.packets > 1 {
		if err := t.out.printf("\n"); err != nil {
			return err
		}
	}
	if err := t.out.printf("Packet %d\n", t.packets); err != nil {
		return err
	}
	t.depth = 1
	return nil
}

func (t *Tree) EndPacket() { t.depth = 0 }

func (t *Tree) open(text string) error {
	err := t.line(text)
	t.depth++
	return err
}

func (t *Tree) close() {
	if t.depth > 0 {
		t.depth--
	}
}

func (t *Tree) StartNode(name, descr string) error {
	if descr == "" {
		return t.open(name)
	}
	return t.open(name + ": " + descr)
}

func (t *Tree) EndNode() { t.close() }

func (t *Tree) AddField(name string, v core.Value, descr string) error {
	return t.line(name + ": " + annotate(t.opts.render(v), descr))
}

func (t *Tree) AddInfo(name, descr string) error {
	return t.line(name + ": " + descr)
}

func (t *Tree) StartList(name, descr string) error {
	return t.open(annotate(name+":", descr))
}

func (t *Tree) EndList() { t.close() }

func (t *Tree) AddListItem(v core.Value, descr string) error {
	return t.line("- " + annotate(t.opts.render(v), descr))
}

func (t *Tree) StartListNode(descr string) error {
	return t.open(strings.TrimRight("- "+descr, " "))
}

func (t *Tree) EndListNode() { t.close() }

func (t *Tree) Close() error { return t.out.err }
