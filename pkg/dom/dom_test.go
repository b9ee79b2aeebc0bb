package dom

import (
	"errors"
	"testing"
)

func TestParentRef_RoundTrip(t *testing.T) {
	if got := EncodeParent(NoNode); got != NoParent {
		t.Fatalf("EncodeParent(NoNode) = %d, want 0", got)
	}
	if _, ok := NoParent.Decode(); ok {
		t.Error("decode(encode(None)) should be None")
	}
	for k := NodeID(0); k < 1000; k++ {
		id, ok := EncodeParent(k).Decode()
		if !ok || id != k {
			t.Fatalf("decode(encode(%d)) = %d,%v", k, id, ok)
		}
	}
}

func TestTree_FirstChildIsNotItsOwnParent(t *testing.T) {
	tree := NewTree()
	body := tree.AddElement(NoNode, "body", "font-size: 16px")
	h1 := tree.AddElement(body, "h1", "font-size: 2em")

	if tree.ParentRef(h1) != 1 {
		t.Errorf("h1 parent ref = %d, want 1 (body encoded as 0+1)", tree.ParentRef(h1))
	}
	p, ok := tree.Parent(h1)
	if !ok || p != body {
		t.Fatalf("parent of h1 = %d,%v, want body", p, ok)
	}
	if p == h1 {
		t.Fatal("h1 decoded as its own parent")
	}
}

func TestFromParts_RejectsSelfParent(t *testing.T) {
	nodes := []Node{{Tag: "body"}, {Tag: "h1"}}
	// A decoder that forgot the -1 would produce parent ref 2 for h1 -> node 1 (itself).
	parents := []ParentRef{NoParent, 2}
	children := [][]NodeID{{1}, nil}
	_, err := FromParts(nodes, parents, children)
	if !errors.Is(err, ErrInvalidTree) {
		t.Fatalf("expected ErrInvalidTree, got %v", err)
	}
}

func TestValidate_DanglingChild(t *testing.T) {
	nodes := []Node{{Tag: "div"}}
	_, err := FromParts(nodes, []ParentRef{NoParent}, [][]NodeID{{5}})
	if !errors.Is(err, ErrInvalidTree) {
		t.Fatalf("expected ErrInvalidTree, got %v", err)
	}
}

func TestGraft_ShiftsIDs(t *testing.T) {
	host := NewTree()
	root := host.AddElement(NoNode, "body", "")
	host.AddElement(root, "div", "")
	host.AddElement(root, "div", "")

	sub := NewTree()
	sr := sub.AddElement(NoNode, "section", "")
	sc := sub.AddElement(sr, "p", "")
	sub.AddText(sc, "hello")

	offset, err := host.Graft(sub, root)
	if err != nil {
		t.Fatalf("graft: %v", err)
	}
	if offset != 3 {
		t.Fatalf("offset = %d, want 3", offset)
	}
	if host.Len() != 6 {
		t.Fatalf("len = %d, want 6", host.Len())
	}
	section := NodeID(offset) + sr
	if p, _ := host.Parent(section); p != root {
		t.Errorf("grafted root parent = %d, want %d", p, root)
	}
	p := NodeID(offset) + sc
	if parent, _ := host.Parent(p); parent != section {
		t.Errorf("grafted p parent = %d, want %d", parent, section)
	}
	if kids := host.Children(root); len(kids) != 3 || kids[2] != section {
		t.Errorf("root children = %v", kids)
	}
	if err := host.Validate(); err != nil {
		t.Errorf("validate after graft: %v", err)
	}
}

func TestParseDeclarations(t *testing.T) {
	decls := ParseDeclarations(`color: red; background: url("a;b.png") ; width:10px !important; junk; :x`)
	if len(decls) != 3 {
		t.Fatalf("got %d declarations: %+v", len(decls), decls)
	}
	if decls[1].Value != `url("a;b.png")` {
		t.Errorf("background = %q", decls[1].Value)
	}
	if !decls[2].Important || decls[2].Value != "10px" {
		t.Errorf("width decl = %+v", decls[2])
	}
}

func TestParseHTML(t *testing.T) {
	doc, err := ParseHTMLString(`<html><head><style>h1 { color: red }</style></head>
<body style="font-size:16px"><h1 class="a b" id="t">X</h1><img src="k1"></body></html>`)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Stylesheets) != 1 {
		t.Fatalf("stylesheets = %d", len(doc.Stylesheets))
	}
	var h1, img NodeID = NoNode, NoNode
	doc.Tree.Walk(func(id NodeID) bool {
		n := doc.Tree.Node(id)
		switch n.Tag {
		case "h1":
			h1 = id
		case "img":
			img = id
		}
		return true
	})
	if h1 == NoNode || img == NoNode {
		t.Fatalf("missing nodes h1=%d img=%d", h1, img)
	}
	n := doc.Tree.Node(h1)
	if n.ID != "t" || !n.HasClass("b") {
		t.Errorf("h1 attrs = %+v", n)
	}
	if kids := doc.Tree.Children(h1); len(kids) != 1 || doc.Tree.Node(kids[0]).Text != "X" {
		t.Errorf("h1 children = %v", kids)
	}
	if doc.Tree.Node(img).Type != ImageNode || doc.Tree.Node(img).Image != "k1" {
		t.Errorf("img = %+v", doc.Tree.Node(img))
	}
}
