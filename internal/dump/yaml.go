package dump

import (
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	"firestige.xyz/pdukit/internal/core"
)

func init() {
	Register("yaml", func(w io.Writer, opts Options) Backend { return NewYAML(w, opts) })
}

// YAML emits one document per packet. Nodes become mappings, lists become
// sequences and descriptions are attached as line comments.
type YAML struct {
	enc   *yaml.Encoder
	opts  Options
	stack []*yaml.Node
	err   error
}

func NewYAML(w io.Writer, opts Options) *YAML {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	return &YAML{enc: enc, opts: opts}
}

func (y *YAML) top() *yaml.Node { return y.stack[len(y.stack)-1] }

func (y *YAML) pop() {
	if len(y.stack) > 1 {
		y.stack = y.stack[:len(y.stack)-1]
	}
}

func (y *YAML) push(key, descr string, kind yaml.Kind) {
	child := &yaml.Node{Kind: kind}
	parent := y.top()
	if parent.Kind == yaml.SequenceNode {
		child.LineComment = descr
		parent.Content = append(parent.Content, child)
	} else {
		k := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key, LineComment: descr}
		parent.Content = append(parent.Content, k, child)
	}
	y.stack = append(y.stack, child)
}

func (y *YAML) scalar(v core.Value, descr string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: y.opts.render(v)}
	switch v.Kind {
	case core.KindBool:
		n.Tag, n.Value = "!!bool", strconv.FormatBool(v.Interface().(bool))
	case core.KindInt:
		n.Tag, n.Value = "!!int", strconv.FormatInt(v.Interface().(int64), 10)
	case core.KindUInt:
		n.Tag, n.Value = "!!int", strconv.FormatUint(v.Interface().(uint64), 10)
	case core.KindFloat:
		n.Tag, n.Value = "!!float", strconv.FormatFloat(v.Interface().(float64), 'g', -1, 64)
	}
	if descr != n.Value {
		n.LineComment = descr
	}
	return n
}

func (y *YAML) StartPacket() error {
	if y.err != nil {
		return y.err
	}
	y.stack = []*yaml.Node{{Kind: yaml.MappingNode}}
	return nil
}

func (y *YAML) EndPacket() {
	if y.err == nil && len(y.stack) > 0 {
		doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{y.stack[0]}}
		y.err = y.enc.Encode(doc)
	}
	y.stack = nil
}

func (y *YAML) StartNode(name, descr string) error {
	y.push(name, descr, yaml.MappingNode)
	return y.err
}

func (y *YAML) EndNode() { y.pop() }

func (y *YAML) AddField(name string, v core.Value, descr string) error {
	k := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name}
	y.top().Content = append(y.top().Content, k, y.scalar(v, descr))
	return y.err
}

func (y *YAML) AddInfo(name, descr string) error {
	return y.AddField(name, core.StringValue(descr), "")
}

func (y *YAML) StartList(name, descr string) error {
	y.push(name, descr, yaml.SequenceNode)
	return y.err
}

func (y *YAML) EndList() { y.pop() }

func (y *YAML) AddListItem(v core.Value, descr string) error {
	y.top().Content = append(y.top().Content, y.scalar(v, descr))
	return y.err
}

func (y *YAML) StartListNode(descr string) error {
	y.push("", descr, yaml.MappingNode)
	return y.err
}

func (y *YAML) EndListNode() { y.pop() }

func (y *YAML) Close() error {
	if err := y.enc.Close(); y.err == nil {
		y.err = err
	}
	return y.err
}
