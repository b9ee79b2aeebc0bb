// Package dom holds the styled document tree consumed by the layout core.
//
// Nodes live in an index arena owned by the Tree. Parent links are stored in
// the compact ParentRef encoding (0 = no parent, n = node n-1) so that a tree
// can be serialized and grafted without pointer fix-ups.
package dom

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTree reports a structural violation: a dangling child index, a
// parent/child mismatch or a cyclic parent chain.
var ErrInvalidTree = errors.New("dom: invalid tree")

// NodeID indexes a node in its Tree.
type NodeID int

// NoNode is the absent node.
const NoNode NodeID = -1

// Index returns the arena index.
func (id NodeID) Index() int { return int(id) }

// Valid reports whether id can index some tree.
func (id NodeID) Valid() bool { return id >= 0 }

// NodeType is the node-type variant of a Node.
type NodeType int

const (
	ElementNode NodeType = iota
	TextNode
	ImageNode
	IFrameNode
)

func (t NodeType) String() string {
	switch t {
	case TextNode:
		return "text"
	case ImageNode:
		return "image"
	case IFrameNode:
		return "iframe"
	default:
		return "element"
	}
}

// PseudoState selects one of the four declaration bags of a node.
type PseudoState int

const (
	PseudoNormal PseudoState = iota
	PseudoHover
	PseudoActive
	PseudoFocus
)

// NumPseudoStates is the number of pseudo-states tracked per node.
const NumPseudoStates = 4

func (p PseudoState) String() string {
	switch p {
	case PseudoHover:
		return "hover"
	case PseudoActive:
		return "active"
	case PseudoFocus:
		return "focus"
	default:
		return "normal"
	}
}

// ParsePseudoState maps a pseudo-class name to its state.
func ParsePseudoState(name string) (PseudoState, bool) {
	switch strings.ToLower(name) {
	case "hover":
		return PseudoHover, true
	case "active":
		return PseudoActive, true
	case "focus":
		return PseudoFocus, true
	}
	return PseudoNormal, false
}

// Declaration is one specified `property: value` pair.
type Declaration struct {
	Property  string
	Value     string
	Important bool
}

// Node is the payload of one tree node.
type Node struct {
	Tag        string
	Type       NodeType
	Text       string // TextNode content
	Image      string // ImageNode reference (hash key into the image cache)
	Frame      *Tree  // IFrameNode nested document
	ID         string
	Classes    []string
	Attributes map[string]string

	// Style holds the inline declarations per pseudo-state.
	Style [NumPseudoStates][]Declaration
}

// HasClass reports whether the node carries class c.
func (n *Node) HasClass(c string) bool {
	for _, have := range n.Classes {
		if have == c {
			return true
		}
	}
	return false
}

// Attribute returns the named attribute. id and class are served from their
// dedicated fields.
func (n *Node) Attribute(name string) (string, bool) {
	switch name {
	case "id":
		return n.ID, n.ID != ""
	case "class":
		return strings.Join(n.Classes, " "), len(n.Classes) > 0
	}
	if n.Attributes == nil {
		return "", false
	}
	v, ok := n.Attributes[name]
	return v, ok
}

// ParentRef is the encoded optional parent: 0 means none, n means node n-1.
type ParentRef uint32

// NoParent is the encoding of an absent parent.
const NoParent ParentRef = 0

// EncodeParent encodes an optional parent id.
func EncodeParent(id NodeID) ParentRef {
	if id < 0 {
		return NoParent
	}
	return ParentRef(id + 1)
}

// Decode returns the parent id, applying the -1 shift of the encoding.
func (p ParentRef) Decode() (NodeID, bool) {
	if p == NoParent {
		return NoNode, false
	}
	return NodeID(p - 1), true
}

// Shift moves an encoded reference by offset nodes, leaving NoParent alone.
func (p ParentRef) Shift(offset int) ParentRef {
	if p == NoParent {
		return p
	}
	return p + ParentRef(offset)
}

type links struct {
	parent   ParentRef
	children []NodeID
}

// Tree is a forest of nodes in an index arena.
type Tree struct {
	nodes []Node
	links []links
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{}
}

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// Node returns the node with the given id, or nil if id is out of range.
func (t *Tree) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(t.nodes) {
		return nil
	}
	return &t.nodes[id]
}

// Contains reports whether id indexes this tree.
func (t *Tree) Contains(id NodeID) bool {
	return id >= 0 && int(id) < len(t.nodes)
}

// ParentRef returns the raw encoded parent of id.
func (t *Tree) ParentRef(id NodeID) ParentRef {
	if !t.Contains(id) {
		return NoParent
	}
	return t.links[id].parent
}

// Parent returns the decoded parent of id.
func (t *Tree) Parent(id NodeID) (NodeID, bool) {
	return t.ParentRef(id).Decode()
}

// Children returns the ordered children of id. The slice must not be modified.
func (t *Tree) Children(id NodeID) []NodeID {
	if !t.Contains(id) {
		return nil
	}
	return t.links[id].children
}

// Roots returns the nodes without a parent, in arena order.
func (t *Tree) Roots() []NodeID {
	var roots []NodeID
	for i := range t.links {
		if t.links[i].parent == NoParent {
			roots = append(roots, NodeID(i))
		}
	}
	return roots
}

// AppendChild adds n under parent, or as a new root when parent is NoNode.
// It returns NoNode when parent does not exist.
func (t *Tree) AppendChild(parent NodeID, n Node) NodeID {
	if parent != NoNode && !t.Contains(parent) {
		return NoNode
	}
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, n)
	t.links = append(t.links, links{parent: EncodeParent(parent)})
	if parent != NoNode {
		t.links[parent].children = append(t.links[parent].children, id)
	}
	return id
}

// AddElement is a convenience for appending an element with an inline style.
func (t *Tree) AddElement(parent NodeID, tag, style string) NodeID {
	n := Node{Tag: tag, Type: ElementNode}
	n.Style[PseudoNormal] = ParseDeclarations(style)
	return t.AppendChild(parent, n)
}

// AddText appends a text node.
func (t *Tree) AddText(parent NodeID, text string) NodeID {
	return t.AppendChild(parent, Node{Type: TextNode, Text: text})
}

// PrevSibling returns the element sibling preceding id.
func (t *Tree) PrevSibling(id NodeID) (NodeID, bool) {
	parent, ok := t.Parent(id)
	if !ok {
		return NoNode, false
	}
	prev := NoNode
	for _, c := range t.Children(parent) {
		if c == id {
			return prev, prev != NoNode
		}
		if t.nodes[c].Type == ElementNode {
			prev = c
		}
	}
	return NoNode, false
}

// Depth returns the number of ancestors of id.
func (t *Tree) Depth(id NodeID) int {
	d := 0
	for p, ok := t.Parent(id); ok && d <= len(t.nodes); p, ok = t.Parent(p) {
		d++
	}
	return d
}

// Walk visits every node in document (pre-)order starting at the roots.
// Returning false from fn skips the node's subtree.
func (t *Tree) Walk(fn func(id NodeID) bool) {
	var visit func(id NodeID, depth int)
	visit = func(id NodeID, depth int) {
		if depth > len(t.nodes) {
			return
		}
		if !fn(id) {
			return
		}
		for _, c := range t.links[id].children {
			if t.Contains(c) {
				visit(c, depth+1)
			}
		}
	}
	for _, r := range t.Roots() {
		visit(r, 0)
	}
}

// Validate checks the structural invariants: every child index is in range,
// every child points back at its parent, and no parent chain loops.
func (t *Tree) Validate() error {
	n := len(t.nodes)
	if len(t.links) != n {
		return fmt.Errorf("%w: %d nodes but %d link records", ErrInvalidTree, n, len(t.links))
	}
	for i := range t.links {
		for _, c := range t.links[i].children {
			if c < 0 || int(c) >= n {
				return fmt.Errorf("%w: node %d has dangling child %d", ErrInvalidTree, i, c)
			}
			if p, ok := t.links[c].parent.Decode(); !ok || p != NodeID(i) {
				return fmt.Errorf("%w: child %d of node %d points at parent %v", ErrInvalidTree, c, i, t.links[c].parent)
			}
		}
		if p, ok := t.links[i].parent.Decode(); ok && (p < 0 || int(p) >= n) {
			return fmt.Errorf("%w: node %d has dangling parent %d", ErrInvalidTree, i, p)
		}
	}
	for i := range t.links {
		steps := 0
		for p, ok := t.links[i].parent.Decode(); ok; p, ok = t.links[p].parent.Decode() {
			if p == NodeID(i) || steps > n {
				return fmt.Errorf("%w: cyclic parent chain at node %d", ErrInvalidTree, i)
			}
			steps++
		}
	}
	return nil
}

// FromParts rebuilds a tree from its flat encoded form. The result is
// validated, so a decoder bug that produces a self-parented node is rejected.
func FromParts(nodes []Node, parents []ParentRef, children [][]NodeID) (*Tree, error) {
	if len(parents) != len(nodes) || len(children) != len(nodes) {
		return nil, fmt.Errorf("%w: part lengths differ", ErrInvalidTree)
	}
	t := &Tree{nodes: append([]Node(nil), nodes...), links: make([]links, len(nodes))}
	for i := range nodes {
		t.links[i] = links{parent: parents[i], children: append([]NodeID(nil), children[i]...)}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Parts returns the flat encoded form of the tree.
func (t *Tree) Parts() ([]Node, []ParentRef, [][]NodeID) {
	parents := make([]ParentRef, len(t.links))
	children := make([][]NodeID, len(t.links))
	for i, l := range t.links {
		parents[i] = l.parent
		children[i] = append([]NodeID(nil), l.children...)
	}
	return append([]Node(nil), t.nodes...), parents, children
}

// Graft appends every node of sub to t, attaching sub's roots under at (or
// as new roots when at is NoNode). Node ids of sub are shifted by the
// pre-graft length of t, which is returned as the offset.
func (t *Tree) Graft(sub *Tree, at NodeID) (int, error) {
	if at != NoNode && !t.Contains(at) {
		return 0, fmt.Errorf("%w: graft point %d out of range", ErrInvalidTree, at)
	}
	if err := sub.Validate(); err != nil {
		return 0, err
	}
	offset := len(t.nodes)
	for i, n := range sub.nodes {
		l := sub.links[i]
		shifted := make([]NodeID, len(l.children))
		for j, c := range l.children {
			shifted[j] = c + NodeID(offset)
		}
		parent := l.parent.Shift(offset)
		if l.parent == NoParent && at != NoNode {
			parent = EncodeParent(at)
			t.links[at].children = append(t.links[at].children, NodeID(offset+i))
		}
		t.nodes = append(t.nodes, n)
		t.links = append(t.links, links{parent: parent, children: shifted})
	}
	return offset, nil
}
