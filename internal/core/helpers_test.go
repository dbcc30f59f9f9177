package core

import (
	"fmt"
	"strings"

	"firestige.xyz/pdukit/internal/ende"
)

var (
	tagType   = NewPDUType("test-tag")
	trailType = NewPDUType("test-trailer")
)

const tagTable TableID = "test-tag-next"

// tag is a two byte header: an id and the tagTable key of its payload.
type tag struct {
	Base
	ID   uint8
	Next uint8
}

func (t *tag) Type() PDUType  { return tagType }
func (t *tag) HeaderLen() int { return 2 }

func (t *tag) SerializeHeader(e *ende.Encoder) error {
	e.U8(t.ID)
	e.U8(t.Next)
	return nil
}

func (t *tag) Dump(d *NodeDumper) error {
	return d.Node("Tag", "", func(n *NodeDumper) error {
		if err := n.Field("id", UIntValue(uint64(t.ID)), ""); err != nil {
			return err
		}
		return n.Field("next", UIntValue(uint64(t.Next)), "payload kind")
	})
}

func (t *tag) Clone() PDU {
	c := *t
	c.Base = Base{}
	return &c
}

func dissectTag(buf []byte, s *Session, parent *TempPDU) ([]byte, PDU, error) {
	d := ende.NewDecoder(buf, ende.BigEndian)
	id, err := d.U8()
	if err != nil {
		return nil, nil, err
	}
	next, err := d.U8()
	if err != nil {
		return nil, nil, err
	}
	t := &tag{ID: id, Next: next}
	rest, inner, err := s.Dissect(tagTable, uint64(next), d.Rest(), NewTempPDU(t, parent))
	if err != nil {
		return nil, nil, err
	}
	MustSetInner(t, inner)
	return rest, t, nil
}

// trailed wraps its inner PDU with a one byte trailer.
type trailed struct {
	Base
	End uint8
}

func (t *trailed) Type() PDUType            { return trailType }
func (t *trailed) HeaderLen() int           { return 1 }
func (t *trailed) TrailerLen() int          { return 1 }
func (t *trailed) Dump(d *NodeDumper) error { return d.Info("Trailed", "") }
func (t *trailed) Clone() PDU               { return &trailed{End: t.End} }

func (t *trailed) SerializeHeader(e *ende.Encoder) error {
	e.U8(0xAA)
	return nil
}

func (t *trailed) SerializeTrailer(e *ende.Encoder) error {
	e.U8(t.End)
	return nil
}

// recorder is a Dumper that logs every call.
type recorder struct {
	events []string
}

func (r *recorder) add(format string, args ...any) error {
	r.events = append(r.events, fmt.Sprintf(format, args...))
	return nil
}

func (r *recorder) StartPacket() error { return r.add("packet") }
func (r *recorder) EndPacket()         { _ = r.add("/packet") }
func (r *recorder) StartNode(name, descr string) error {
	return r.add("node %s", name)
}
func (r *recorder) EndNode() { _ = r.add("/node") }
func (r *recorder) AddField(name string, v Value, descr string) error {
	return r.add("field %s=%s", name, v)
}
func (r *recorder) AddInfo(name, descr string) error { return r.add("info %s %s", name, descr) }
func (r *recorder) StartList(name, descr string) error {
	return r.add("list %s", name)
}
func (r *recorder) EndList()                                { _ = r.add("/list") }
func (r *recorder) AddListItem(v Value, descr string) error { return r.add("item %s", v) }
func (r *recorder) StartListNode(descr string) error        { return r.add("listnode %s", descr) }
func (r *recorder) EndListNode()                            { _ = r.add("/listnode") }

func (r *recorder) String() string { return strings.Join(r.events, "\n") }

// sliceSource replays frames, then reports end of input.
type sliceSource struct {
	frames []*RawPacket
	err    error
	live   bool
	closed bool
}

func (s *sliceSource) NextRaw() (*RawPacket, error) {
	if len(s.frames) == 0 {
		if s.err != nil {
			err := s.err
			s.err = nil
			return nil, err
		}
		return nil, nil
	}
	f := s.frames[0]
	s.frames = s.frames[1:]
	return f, nil
}

func (s *sliceSource) Close() error {
	s.closed = true
	return nil
}

func (s *sliceSource) Live() bool { return s.live }

// sinkRecorder collects transmitted frames.
type sinkRecorder struct {
	frames []RawPacket
	err    error
}

func (s *sinkRecorder) TransmitRaw(raw RawPacket) error {
	if s.err != nil {
		return s.err
	}
	s.frames = append(s.frames, raw)
	return nil
}

const tagLinkType LinkType = 147

// tagRegistry roots tag dissection at link type 147.
func tagRegistry() *Registry {
	r := NewRegistry()
	if err := r.RegisterTable(tagTable); err != nil {
		panic(err)
	}
	if err := r.Register(Entry{Table: LinkTypeTable, Key: uint64(tagLinkType), PDUType: tagType, Name: "tag", Fn: dissectTag}); err != nil {
		panic(err)
	}
	if err := r.RegisterLinkLayer(tagType, tagLinkType); err != nil {
		panic(err)
	}
	return r
}
