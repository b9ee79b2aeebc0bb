package css

import (
	"reflect"
	"testing"

	"azul/pkg/dom"
)

func TestParseStylesheetRecovery(t *testing.T) {
	tests := []struct {
		name  string
		css   string
		rules int
	}{
		{"stray closing brace before a rule", `} { color: red; } p { color: blue; }`, 1},
		{"semicolon selector", `{; color: red; } p { color: blue; }`, 1},
		{"unbalanced bracket", `[} { color: red; } p { color: green; }`, 1},
		{"empty selector", ` { color: red; } p { color: blue; }`, 1},
		{"valid rules around a bad one", `body { color: red; } [} { bad: true; } h1 { font-size: 20px; }`, 2},
		{"unknown block at-rule", `@three-dee { body { color: red; } } p { color: blue; }`, 1},
		{"statement at-rule", `@import url("foo.css"); p { color: blue; }`, 1},
		{"several unknown at-rules", `@foo { x: y; } @bar { a: b; } div { color: red; }`, 1},
		{"media block", `@media screen { p { color: red; } h1 { color: blue; } }`, 2},
		{"unclosed trailing block", `p { color: red; } h1 { font-size: 20px`, 1},
		{"unclosed string", `p { content: "unclosed; } h1 { color: red; }`, 2},
		{"unclosed string in a selector", `p[attr="unclosed { color: red; }`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ss, _ := ParseStylesheet(tt.css, OriginAuthor)
			if len(ss.Rules) != tt.rules {
				t.Errorf("got %d rules, want %d: %+v", len(ss.Rules), tt.rules, ss.Rules)
			}
		})
	}
}

func TestParseStylesheetReportsErrors(t *testing.T) {
	sheet := `
		.eyes { background: yellow; }
		@three-dee {
			@background-lighting { azimuth: 30deg; }
			h1 { color: red; }
		}
		[} { color: red; }
		.nose { width: 0; }
		{; color: red; }
		/* .chin { color: red; } */
		.mouth { border: 1px solid black; }
	`
	ss, errs := ParseStylesheet(sheet, OriginAuthor)
	if len(errs) != 3 {
		t.Errorf("got %d errors, want 3: %v", len(errs), errs)
	}
	var got []string
	for _, r := range ss.Rules {
		got = append(got, r.Selectors[0].Raw)
	}
	if want := []string{".eyes", ".nose", ".mouth"}; !reflect.DeepEqual(got, want) {
		t.Errorf("rules = %v, want %v", got, want)
	}
	if ss.Origin != OriginAuthor {
		t.Errorf("origin = %v", ss.Origin)
	}
}

func TestRuleDeclarations(t *testing.T) {
	tests := []struct {
		css  string
		want []dom.Declaration
	}{
		{`p { badstuff; color: red; }`, []dom.Declaration{{Property: "color", Value: "red"}}},
		{`p { bad: ; color: green; }`, []dom.Declaration{{Property: "color", Value: "green"}}},
		{`p { -webkit-thing: value; COLOR: red !important }`, []dom.Declaration{
			{Property: "-webkit-thing", Value: "value"},
			{Property: "color", Value: "red", Important: true},
		}},
		{`p { content: "a;b"; --Gap: 4px }`, []dom.Declaration{
			{Property: "content", Value: `"a;b"`},
			{Property: "--Gap", Value: "4px"},
		}},
	}
	for _, tt := range tests {
		ss, _ := ParseStylesheet(tt.css, OriginAuthor)
		if len(ss.Rules) != 1 {
			t.Fatalf("%s: got %d rules", tt.css, len(ss.Rules))
		}
		if got := ss.Rules[0].Declarations; !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s: declarations = %+v, want %+v", tt.css, got, tt.want)
		}
	}
}

func TestStripComments(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"body { color: red; } /* c */ p { color: blue; }", "body { color: red; }  p { color: blue; }"},
		{"body { /* c */ color: red; }", "body {  color: red; }"},
		{"body { color: red; } /* unterminated", "body { color: red; } "},
		{"/* outer /* inner */ still-outside */", " still-outside */"},
		{"/**/", ""},
		{"/*** stars ***/", ""},
		{`p { content: "/* kept */"; }`, `p { content: "/* kept */"; }`},
		{"", ""},
	}
	for _, tt := range tests {
		if got := stripComments(tt.in); got != tt.want {
			t.Errorf("stripComments(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSplitRules(t *testing.T) {
	got := splitRules(`@media screen { p { color: red; } } } h1 { x: y; } @charset "x"; a { }`)
	want := []string{`@media screen { p { color: red; } }`, `h1 { x: y; }`, `a { }`}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("splitRules = %q, want %q", got, want)
	}
}

func TestParseSelectorValidity(t *testing.T) {
	tests := []struct {
		selector string
		valid    bool
	}{
		{"p", true},
		{".class", true},
		{"#id", true},
		{"div.class", true},
		{"[attr=val]", true},
		{"a:hover", true},
		{"li:first-child", true},
		{"*", true},
		{"", false},
		{"}", false},
		{";", false},
		{"[}", false},
		{"[attr", false},
		{"div { }", false},
		{"div >", false},
		{"> div", false},
		{"a:visited", false},
		{"p.", false},
	}
	for _, tt := range tests {
		if _, err := ParseSelector(tt.selector); (err == nil) != tt.valid {
			t.Errorf("ParseSelector(%q) error = %v, want valid=%v", tt.selector, err, tt.valid)
		}
	}
}

func TestParseSelectorStructure(t *testing.T) {
	sel, err := ParseSelector(`ul#nav > li.item.active + a[href^="http"]:hover ~ span`)
	if err != nil {
		t.Fatalf("ParseSelector: %v", err)
	}
	wantParts := []SelectorPart{
		{Element: "ul", ID: "nav"},
		{Element: "li", Classes: []string{"item", "active"}},
		{Element: "a", Attributes: []AttributeSelector{{Name: "href", Operator: "^=", Value: "http"}}},
		{Element: "span"},
	}
	if !reflect.DeepEqual(sel.Parts, wantParts) {
		t.Errorf("parts = %+v, want %+v", sel.Parts, wantParts)
	}
	wantComb := []Combinator{ChildCombinator, AdjacentSiblingCombinator, GeneralSiblingCombinator}
	if !reflect.DeepEqual(sel.Combinators, wantComb) {
		t.Errorf("combinators = %v, want %v", sel.Combinators, wantComb)
	}
	// one id, two classes, one attribute, one pseudo-class, four types
	if want := specID + 4*specClass + 4*specElement; sel.Specificity != want {
		t.Errorf("specificity = %d, want %d", sel.Specificity, want)
	}
	if sel.State != dom.PseudoHover {
		t.Errorf("state = %v, want hover", sel.State)
	}
}
