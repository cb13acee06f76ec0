package shortcuts

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// NodeType is the tag byte preceding each binary VDF value.
type NodeType byte

// Binary VDF tags.
const (
	TypeMap     NodeType = 0x00
	TypeString  NodeType = 0x01
	TypeInt32   NodeType = 0x02
	TypeFloat32 NodeType = 0x03
	TypeUint64  NodeType = 0x07
	TypeEnd     NodeType = 0x08
	TypeInt64   NodeType = 0x0A
)

var errTruncated = errors.New("truncated vdf data")

// Node is one key of a binary VDF document. Children keep file order so an
// unmodified document encodes to the same bytes it was decoded from.
type Node struct {
	Type     NodeType
	Key      string
	Str      string
	Raw      []byte
	Children []*Node
}

// NewString creates a string node.
func NewString(key, value string) *Node {
	return &Node{Type: TypeString, Key: key, Str: value}
}

// NewInt32 creates an int32 node.
func NewInt32(key string, value int32) *Node {
	raw := make([]byte, 4)
	binary.LittleEndian.PutUint32(raw, uint32(value)) //nolint:gosec // bit pattern is preserved

	return &Node{Type: TypeInt32, Key: key, Raw: raw}
}

// NewMap creates a map node.
func NewMap(key string, children ...*Node) *Node {
	return &Node{Type: TypeMap, Key: key, Children: children}
}

// Int32 returns the value of an int32 node.
func (n *Node) Int32() (int32, bool) {
	if n.Type != TypeInt32 || len(n.Raw) != 4 {
		return 0, false
	}

	return int32(binary.LittleEndian.Uint32(n.Raw)), true //nolint:gosec // bit pattern is preserved
}

// Float32 returns the value of a float32 node.
func (n *Node) Float32() (float32, bool) {
	if n.Type != TypeFloat32 || len(n.Raw) != 4 {
		return 0, false
	}

	return math.Float32frombits(binary.LittleEndian.Uint32(n.Raw)), true
}

// Child returns the first child with key, or nil.
func (n *Node) Child(key string) *Node {
	for _, child := range n.Children {
		if child.Key == key {
			return child
		}
	}

	return nil
}

// Append adds child at the end of n's children.
func (n *Node) Append(child *Node) {
	n.Children = append(n.Children, child)
}

// Decode parses a binary VDF document. The root is a map without a key whose
// children are the top-level entries.
func Decode(data []byte) (*Node, error) {
	d := &decoder{data: data}
	root := &Node{Type: TypeMap}

	if err := d.children(root); err != nil {
		return nil, err
	}

	if d.pos != len(d.data) {
		return nil, fmt.Errorf("trailing data at offset %d", d.pos) //nolint:err113 // carries the offset
	}

	return root, nil
}

type decoder struct {
	data []byte
	pos  int
}

func (d *decoder) children(parent *Node) error {
	for {
		if d.pos >= len(d.data) {
			return errTruncated
		}

		tag := NodeType(d.data[d.pos])
		d.pos++

		if tag == TypeEnd {
			return nil
		}

		key, err := d.cstring()
		if err != nil {
			return err
		}

		node := &Node{Type: tag, Key: key}

		switch tag {
		case TypeMap:
			if err := d.children(node); err != nil {
				return err
			}
		case TypeString:
			if node.Str, err = d.cstring(); err != nil {
				return err
			}
		case TypeInt32, TypeFloat32:
			if node.Raw, err = d.fixed(4); err != nil { //nolint:mnd // 32-bit width
				return err
			}
		case TypeUint64, TypeInt64:
			if node.Raw, err = d.fixed(8); err != nil { //nolint:mnd // 64-bit width
				return err
			}
		default:
			return fmt.Errorf("unknown vdf type 0x%02x at offset %d", byte(tag), d.pos-1) //nolint:err113 // carries the tag
		}

		parent.Children = append(parent.Children, node)
	}
}

func (d *decoder) cstring() (string, error) {
	end := bytes.IndexByte(d.data[d.pos:], 0)
	if end < 0 {
		return "", errTruncated
	}

	s := string(d.data[d.pos : d.pos+end])
	d.pos += end + 1

	return s, nil
}

func (d *decoder) fixed(n int) ([]byte, error) {
	if d.pos+n > len(d.data) {
		return nil, errTruncated
	}

	raw := append([]byte(nil), d.data[d.pos:d.pos+n]...)
	d.pos += n

	return raw, nil
}

// Encode serializes a document produced by Decode.
func Encode(root *Node) []byte {
	var buf bytes.Buffer
	encodeChildren(&buf, root.Children)

	return buf.Bytes()
}

func encodeChildren(buf *bytes.Buffer, children []*Node) {
	for _, node := range children {
		buf.WriteByte(byte(node.Type))
		buf.WriteString(node.Key)
		buf.WriteByte(0)

		switch node.Type {
		case TypeMap:
			encodeChildren(buf, node.Children)
		case TypeString:
			buf.WriteString(node.Str)
			buf.WriteByte(0)
		default:
			buf.Write(node.Raw)
		}
	}

	buf.WriteByte(byte(TypeEnd))
}
