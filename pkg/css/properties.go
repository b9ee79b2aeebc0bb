package css

import "slices"

// Property is a longhand CSS property name.
type Property string

const (
	PropDisplay    Property = "display"
	PropPosition   Property = "position"
	PropFloat      Property = "float"
	PropClear      Property = "clear"
	PropOverflowX  Property = "overflow-x"
	PropOverflowY  Property = "overflow-y"
	PropBoxSizing  Property = "box-sizing"
	PropVisibility Property = "visibility"

	PropWidth     Property = "width"
	PropHeight    Property = "height"
	PropMinWidth  Property = "min-width"
	PropMinHeight Property = "min-height"
	PropMaxWidth  Property = "max-width"
	PropMaxHeight Property = "max-height"

	PropMarginTop    Property = "margin-top"
	PropMarginRight  Property = "margin-right"
	PropMarginBottom Property = "margin-bottom"
	PropMarginLeft   Property = "margin-left"

	PropPaddingTop    Property = "padding-top"
	PropPaddingRight  Property = "padding-right"
	PropPaddingBottom Property = "padding-bottom"
	PropPaddingLeft   Property = "padding-left"

	PropBorderTopWidth    Property = "border-top-width"
	PropBorderRightWidth  Property = "border-right-width"
	PropBorderBottomWidth Property = "border-bottom-width"
	PropBorderLeftWidth   Property = "border-left-width"
	PropBorderTopStyle    Property = "border-top-style"
	PropBorderRightStyle  Property = "border-right-style"
	PropBorderBottomStyle Property = "border-bottom-style"
	PropBorderLeftStyle   Property = "border-left-style"
	PropBorderTopColor    Property = "border-top-color"
	PropBorderRightColor  Property = "border-right-color"
	PropBorderBottomColor Property = "border-bottom-color"
	PropBorderLeftColor   Property = "border-left-color"

	PropBorderTopLeftRadius     Property = "border-top-left-radius"
	PropBorderTopRightRadius    Property = "border-top-right-radius"
	PropBorderBottomRightRadius Property = "border-bottom-right-radius"
	PropBorderBottomLeftRadius  Property = "border-bottom-left-radius"

	PropOutlineWidth Property = "outline-width"
	PropOutlineStyle Property = "outline-style"
	PropOutlineColor Property = "outline-color"

	PropTop    Property = "top"
	PropRight  Property = "right"
	PropBottom Property = "bottom"
	PropLeft   Property = "left"

	PropZIndex    Property = "z-index"
	PropOpacity   Property = "opacity"
	PropTransform Property = "transform"
	PropFilter    Property = "filter"
	PropIsolation Property = "isolation"

	PropColor           Property = "color"
	PropBackgroundColor Property = "background-color"
	PropBackgroundImage Property = "background-image"

	PropFontSize    Property = "font-size"
	PropFontFamily  Property = "font-family"
	PropFontWeight  Property = "font-weight"
	PropFontStyle   Property = "font-style"
	PropFontKerning Property = "font-kerning"
	PropLineHeight  Property = "line-height"

	PropTextAlign          Property = "text-align"
	PropTextJustify        Property = "text-justify"
	PropLetterSpacing      Property = "letter-spacing"
	PropWordSpacing        Property = "word-spacing"
	PropTabSize            Property = "tab-size"
	PropHyphens            Property = "hyphens"
	PropWhiteSpace         Property = "white-space"
	PropDirection          Property = "direction"
	PropWritingMode        Property = "writing-mode"
	PropTextCombineUpright Property = "text-combine-upright"

	PropFlexDirection  Property = "flex-direction"
	PropFlexWrap       Property = "flex-wrap"
	PropFlexGrow       Property = "flex-grow"
	PropFlexShrink     Property = "flex-shrink"
	PropFlexBasis      Property = "flex-basis"
	PropJustifyContent Property = "justify-content"
	PropAlignItems     Property = "align-items"
	PropAlignSelf      Property = "align-self"
	PropRowGap         Property = "row-gap"
	PropColumnGap      Property = "column-gap"
	PropOrder          Property = "order"
)

// Axis selects which containing-block dimension a percentage reads.
type Axis uint8

const (
	AxisNone       Axis = iota
	AxisHorizontal      // containing block width
	AxisVertical        // containing block height
	AxisContext         // the axis supplied by the resolution context
)

type valueKind uint8

const (
	parseKeyword    valueKind = iota // one of keywords
	parseLength                      // <length-percentage> | keywords
	parseColor                       // <color> | currentcolor
	parseNumber                      // <number> | keywords
	parseImages                      // none | <image>#
	parseFamilies                    // <family-name>#
	parseFontSize                    // <length-percentage> | size keywords
	parseLineHeight                  // normal | <number> | <length-percentage>
	parseRaw                         // none | anything (transform, filter)
)

type propertyInfo struct {
	inherited   bool
	initial     string
	kind        valueKind
	axis        Axis
	keywords    []string
	nonNegative bool
}

var (
	boxDisplay    = []string{"block", "inline", "inline-block", "flex", "inline-flex", "none", "list-item"}
	overflowKinds = []string{"visible", "hidden", "scroll", "auto", "clip"}
	borderStyles  = []string{"none", "hidden", "solid", "dashed", "dotted", "double", "groove", "ridge", "inset", "outset"}
	autoKW        = []string{"auto"}
	sizeMaxKW     = []string{"none"}
	borderWidthKW = []string{"thin", "medium", "thick"}
	alignKW       = []string{"flex-start", "flex-end", "center", "baseline", "stretch", "start", "end"}
)

var properties = map[Property]propertyInfo{
	PropDisplay:    {initial: "inline", kind: parseKeyword, keywords: boxDisplay},
	PropPosition:   {initial: "static", kind: parseKeyword, keywords: []string{"static", "relative", "absolute", "fixed", "sticky"}},
	PropFloat:      {initial: "none", kind: parseKeyword, keywords: []string{"none", "left", "right"}},
	PropClear:      {initial: "none", kind: parseKeyword, keywords: []string{"none", "left", "right", "both"}},
	PropOverflowX:  {initial: "visible", kind: parseKeyword, keywords: overflowKinds},
	PropOverflowY:  {initial: "visible", kind: parseKeyword, keywords: overflowKinds},
	PropBoxSizing:  {initial: "content-box", kind: parseKeyword, keywords: []string{"content-box", "border-box"}},
	PropVisibility: {inherited: true, initial: "visible", kind: parseKeyword, keywords: []string{"visible", "hidden", "collapse"}},

	PropWidth:     {initial: "auto", kind: parseLength, axis: AxisHorizontal, keywords: []string{"auto", "min-content", "max-content", "fit-content"}, nonNegative: true},
	PropHeight:    {initial: "auto", kind: parseLength, axis: AxisVertical, keywords: []string{"auto", "min-content", "max-content", "fit-content"}, nonNegative: true},
	PropMinWidth:  {initial: "auto", kind: parseLength, axis: AxisHorizontal, keywords: autoKW, nonNegative: true},
	PropMinHeight: {initial: "auto", kind: parseLength, axis: AxisVertical, keywords: autoKW, nonNegative: true},
	PropMaxWidth:  {initial: "none", kind: parseLength, axis: AxisHorizontal, keywords: sizeMaxKW, nonNegative: true},
	PropMaxHeight: {initial: "none", kind: parseLength, axis: AxisVertical, keywords: sizeMaxKW, nonNegative: true},

	// margins and paddings resolve percentages against the containing block width on every side
	PropMarginTop:    {initial: "0", kind: parseLength, axis: AxisHorizontal, keywords: autoKW},
	PropMarginRight:  {initial: "0", kind: parseLength, axis: AxisHorizontal, keywords: autoKW},
	PropMarginBottom: {initial: "0", kind: parseLength, axis: AxisHorizontal, keywords: autoKW},
	PropMarginLeft:   {initial: "0", kind: parseLength, axis: AxisHorizontal, keywords: autoKW},

	PropPaddingTop:    {initial: "0", kind: parseLength, axis: AxisHorizontal, nonNegative: true},
	PropPaddingRight:  {initial: "0", kind: parseLength, axis: AxisHorizontal, nonNegative: true},
	PropPaddingBottom: {initial: "0", kind: parseLength, axis: AxisHorizontal, nonNegative: true},
	PropPaddingLeft:   {initial: "0", kind: parseLength, axis: AxisHorizontal, nonNegative: true},

	PropBorderTopWidth:    {initial: "medium", kind: parseLength, keywords: borderWidthKW, nonNegative: true},
	PropBorderRightWidth:  {initial: "medium", kind: parseLength, keywords: borderWidthKW, nonNegative: true},
	PropBorderBottomWidth: {initial: "medium", kind: parseLength, keywords: borderWidthKW, nonNegative: true},
	PropBorderLeftWidth:   {initial: "medium", kind: parseLength, keywords: borderWidthKW, nonNegative: true},
	PropBorderTopStyle:    {initial: "none", kind: parseKeyword, keywords: borderStyles},
	PropBorderRightStyle:  {initial: "none", kind: parseKeyword, keywords: borderStyles},
	PropBorderBottomStyle: {initial: "none", kind: parseKeyword, keywords: borderStyles},
	PropBorderLeftStyle:   {initial: "none", kind: parseKeyword, keywords: borderStyles},
	PropBorderTopColor:    {initial: "currentcolor", kind: parseColor},
	PropBorderRightColor:  {initial: "currentcolor", kind: parseColor},
	PropBorderBottomColor: {initial: "currentcolor", kind: parseColor},
	PropBorderLeftColor:   {initial: "currentcolor", kind: parseColor},

	PropBorderTopLeftRadius:     {initial: "0", kind: parseLength, axis: AxisHorizontal, nonNegative: true},
	PropBorderTopRightRadius:    {initial: "0", kind: parseLength, axis: AxisHorizontal, nonNegative: true},
	PropBorderBottomRightRadius: {initial: "0", kind: parseLength, axis: AxisHorizontal, nonNegative: true},
	PropBorderBottomLeftRadius:  {initial: "0", kind: parseLength, axis: AxisHorizontal, nonNegative: true},

	PropOutlineWidth: {initial: "medium", kind: parseLength, keywords: borderWidthKW, nonNegative: true},
	PropOutlineStyle: {initial: "none", kind: parseKeyword, keywords: borderStyles},
	PropOutlineColor: {initial: "currentcolor", kind: parseColor},

	PropTop:    {initial: "auto", kind: parseLength, axis: AxisVertical, keywords: autoKW},
	PropRight:  {initial: "auto", kind: parseLength, axis: AxisHorizontal, keywords: autoKW},
	PropBottom: {initial: "auto", kind: parseLength, axis: AxisVertical, keywords: autoKW},
	PropLeft:   {initial: "auto", kind: parseLength, axis: AxisHorizontal, keywords: autoKW},

	PropZIndex:    {initial: "auto", kind: parseNumber, keywords: autoKW},
	PropOpacity:   {initial: "1", kind: parseNumber},
	PropTransform: {initial: "none", kind: parseRaw},
	PropFilter:    {initial: "none", kind: parseRaw},
	PropIsolation: {initial: "auto", kind: parseKeyword, keywords: []string{"auto", "isolate"}},

	PropColor:           {inherited: true, initial: "black", kind: parseColor},
	PropBackgroundColor: {initial: "transparent", kind: parseColor},
	PropBackgroundImage: {initial: "none", kind: parseImages},

	PropFontSize:    {inherited: true, initial: "medium", kind: parseFontSize},
	PropFontFamily:  {inherited: true, initial: "sans-serif", kind: parseFamilies},
	PropFontWeight:  {inherited: true, initial: "normal", kind: parseNumber, keywords: []string{"normal", "bold", "bolder", "lighter"}},
	PropFontStyle:   {inherited: true, initial: "normal", kind: parseKeyword, keywords: []string{"normal", "italic", "oblique"}},
	PropFontKerning: {inherited: true, initial: "auto", kind: parseKeyword, keywords: []string{"auto", "normal", "none"}},
	PropLineHeight:  {inherited: true, initial: "normal", kind: parseLineHeight},

	PropTextAlign:          {inherited: true, initial: "start", kind: parseKeyword, keywords: []string{"start", "end", "left", "right", "center", "justify", "justify-all"}},
	PropTextJustify:        {inherited: true, initial: "auto", kind: parseKeyword, keywords: []string{"auto", "none", "inter-word", "inter-character", "distribute"}},
	PropLetterSpacing:      {inherited: true, initial: "normal", kind: parseLength, keywords: []string{"normal"}},
	PropWordSpacing:        {inherited: true, initial: "normal", kind: parseLength, keywords: []string{"normal"}},
	PropTabSize:            {inherited: true, initial: "8", kind: parseNumber, nonNegative: true},
	PropHyphens:            {inherited: true, initial: "manual", kind: parseKeyword, keywords: []string{"none", "manual", "auto"}},
	PropWhiteSpace:         {inherited: true, initial: "normal", kind: parseKeyword, keywords: []string{"normal", "nowrap", "pre", "pre-wrap", "pre-line"}},
	PropDirection:          {inherited: true, initial: "ltr", kind: parseKeyword, keywords: []string{"ltr", "rtl"}},
	PropWritingMode:        {inherited: true, initial: "horizontal-tb", kind: parseKeyword, keywords: []string{"horizontal-tb", "vertical-rl", "vertical-lr"}},
	PropTextCombineUpright: {inherited: true, initial: "none", kind: parseKeyword, keywords: []string{"none", "all"}},

	PropFlexDirection:  {initial: "row", kind: parseKeyword, keywords: []string{"row", "row-reverse", "column", "column-reverse"}},
	PropFlexWrap:       {initial: "nowrap", kind: parseKeyword, keywords: []string{"nowrap", "wrap", "wrap-reverse"}},
	PropFlexGrow:       {initial: "0", kind: parseNumber, nonNegative: true},
	PropFlexShrink:     {initial: "1", kind: parseNumber, nonNegative: true},
	PropFlexBasis:      {initial: "auto", kind: parseLength, axis: AxisContext, keywords: []string{"auto", "content"}, nonNegative: true},
	PropJustifyContent: {initial: "flex-start", kind: parseKeyword, keywords: []string{"flex-start", "flex-end", "center", "space-between", "space-around", "space-evenly", "start", "end"}},
	PropAlignItems:     {initial: "stretch", kind: parseKeyword, keywords: alignKW},
	PropAlignSelf:      {initial: "auto", kind: parseKeyword, keywords: append([]string{"auto"}, alignKW...)},
	PropRowGap:         {initial: "0", kind: parseLength, axis: AxisVertical, keywords: []string{"normal"}, nonNegative: true},
	PropColumnGap:      {initial: "0", kind: parseLength, axis: AxisHorizontal, keywords: []string{"normal"}, nonNegative: true},
	PropOrder:          {initial: "0", kind: parseNumber},
}

// allProperties lists the longhands in a fixed order so the cascade is
// deterministic.
var allProperties []Property

func init() {
	for p := range properties {
		allProperties = append(allProperties, p)
	}
	slices.Sort(allProperties)
}

// Known reports whether p is a supported longhand.
func Known(p Property) bool {
	_, ok := properties[p]
	return ok
}

// Inherited reports whether p inherits by default.
func Inherited(p Property) bool {
	return properties[p].inherited
}

// PercentAxis reports which containing-block dimension percentages of p
// resolve against.
func PercentAxis(p Property) Axis {
	return properties[p].axis
}

func hasKeyword(list []string, k string) bool {
	for _, have := range list {
		if have == k {
			return true
		}
	}
	return false
}
