package text

import "math"

// Line breaking policy. These are tuning constants, not invariants.
const (
	HyphenPenalty = 50.0
	StretchRatio  = 0.5
	ShrinkRatio   = 0.33

	maxBadness       = 10000.0
	emergencyPenalty = 1e7
)

var (
	forcedBreak = math.Inf(-1)
	noBreak     = math.Inf(1)
)

type nodeKind int

const (
	boxNode nodeKind = iota
	glueNode
	penaltyNode
)

// node is a Knuth-Plass box, glue or penalty. item is the shaped item the
// node came from; end is the exclusive item index where the line's content
// stops when the paragraph breaks at this node.
type node struct {
	kind    nodeKind
	width   float64
	stretch float64
	shrink  float64
	cost    float64
	flagged bool
	item    int
	end     int
}

func (n node) forced() bool { return n.kind == penaltyNode && math.IsInf(n.cost, -1) }

// buildNodes converts shaped items into the box/glue/penalty stream. The
// stream always ends with a forced penalty.
func buildNodes(items []ShapedItem, wrap bool) []node {
	nodes := make([]node, 0, len(items)+len(items)/4+1)
	lastIsBox := func() bool { return len(nodes) > 0 && nodes[len(nodes)-1].kind == boxNode }
	for i := range items {
		it := &items[i]
		switch {
		case it.Kind == ItemBreak:
			nodes = append(nodes, node{kind: penaltyNode, cost: forcedBreak, item: i, end: i + 1})
			continue
		case it.Kind == ItemTab && wrap:
			nodes = append(nodes, node{kind: glueNode, width: it.Advance, item: i, end: i})
			continue
		case it.WordSeparator && it.Kind == ItemCluster && wrap && i+1 < len(items) && items[i+1].BreakBefore:
			w := it.Advance
			nodes = append(nodes, node{kind: glueNode, width: w, stretch: w * StretchRatio, shrink: w * ShrinkRatio, item: i, end: i})
			continue
		}
		if wrap && it.BreakBefore && lastIsBox() && !(i > 0 && items[i-1].HyphenAfter) {
			nodes = append(nodes, node{kind: penaltyNode, item: i, end: i})
		}
		nodes = append(nodes, node{kind: boxNode, width: it.Advance, item: i, end: i + 1})
		if wrap && it.HyphenAfter && i+1 < len(items) {
			nodes = append(nodes, node{kind: penaltyNode, width: it.HyphenAdvance, cost: HyphenPenalty, flagged: true, item: i, end: i + 1})
		}
	}
	return append(nodes, node{kind: penaltyNode, cost: forcedBreak, item: len(items), end: len(items)})
}

// breakable reports whether the paragraph may break at node k.
func breakable(nodes []node, k int) bool {
	switch n := nodes[k]; n.kind {
	case glueNode:
		return k > 0 && nodes[k-1].kind == boxNode
	case penaltyNode:
		return n.cost < noBreak
	}
	return false
}

// breaker holds prefix sums over a node stream.
type breaker struct {
	nodes                  []node
	width, stretch, shrink []float64
}

func newBreaker(nodes []node) *breaker {
	b := &breaker{
		nodes:   nodes,
		width:   make([]float64, len(nodes)+1),
		stretch: make([]float64, len(nodes)+1),
		shrink:  make([]float64, len(nodes)+1),
	}
	for i, n := range nodes {
		b.width[i+1], b.stretch[i+1], b.shrink[i+1] = b.width[i], b.stretch[i], b.shrink[i]
		switch n.kind {
		case boxNode:
			b.width[i+1] += n.width
		case glueNode:
			b.width[i+1] += n.width
			b.stretch[i+1] += n.stretch
			b.shrink[i+1] += n.shrink
		}
	}
	return b
}

// lineStart returns the first node of the line following a break at k:
// discardable glue and penalties after the break are skipped.
func (b *breaker) lineStart(k int) int {
	if k < 0 {
		return 0
	}
	j := k + 1
	for j < len(b.nodes) {
		n := b.nodes[j]
		if n.kind == boxNode || n.forced() {
			break
		}
		j++
	}
	return j
}

// measure returns natural width, stretch and shrink of the line made of
// nodes [s, k) broken at k.
func (b *breaker) measure(s, k int) (natural, stretch, shrink float64) {
	natural = b.width[k] - b.width[s]
	if n := b.nodes[k]; n.kind == penaltyNode {
		natural += n.width
	}
	return natural, b.stretch[k] - b.stretch[s], b.shrink[k] - b.shrink[s]
}

// lineDemerits scores one line. ok is false when the line cannot shrink
// enough to fit. Lines ended by a forced break are not penalized for being
// underfull.
func lineDemerits(natural, stretch, shrink, target, cost float64, last bool) (float64, bool) {
	var badness float64
	switch {
	case natural > target:
		if shrink <= 0 || natural-shrink > target {
			return 0, false
		}
		r := (natural - target) / shrink
		badness = r * r
	case natural < target && !last:
		if stretch <= 0 {
			badness = maxBadness
		} else {
			r := (target - natural) / stretch
			badness = math.Min(r*r, maxBadness)
		}
	}
	if !math.IsInf(cost, 0) {
		badness += cost
	}
	return badness, true
}

func (b *breaker) demerits(s, k int, target float64) (float64, bool) {
	natural, stretch, shrink := b.measure(s, k)
	return lineDemerits(natural, stretch, shrink, target, b.nodes[k].cost, b.nodes[k].forced())
}

// optimal finds the break set minimizing total demerits by dynamic
// programming over legal breakpoints. When no feasible set exists it reruns
// in emergency mode, accepting overfull lines at a large cost.
func (b *breaker) optimal(target float64) []int {
	if breaks, ok := b.solve(target, false); ok {
		return breaks
	}
	breaks, _ := b.solve(target, true)
	return breaks
}

func (b *breaker) solve(target float64, emergency bool) ([]int, bool) {
	var cands []int
	for k := range b.nodes {
		if breakable(b.nodes, k) {
			cands = append(cands, k)
		}
	}
	// best[i] is the minimal total for a break at cands[i]; index -1 is the
	// paragraph start
	best := make([]float64, len(cands))
	prev := make([]int, len(cands))
	for i, k := range cands {
		best[i], prev[i] = math.Inf(1), -2
		for j := i - 1; j >= -1; j-- {
			base, s := 0.0, 0
			if j >= 0 {
				base, s = best[j], b.lineStart(cands[j])
			}
			if s > k || math.IsInf(base, 1) {
				if j >= 0 && b.nodes[cands[j]].forced() {
					break
				}
				continue
			}
			d, ok := b.demerits(s, k, target)
			if !ok {
				if !emergency {
					// earlier starts only make the line longer
					break
				}
				natural, _, shrink := b.measure(s, k)
				over := natural - shrink - target
				d = emergencyPenalty + over*over
			}
			if total := base + d; total < best[i] {
				best[i], prev[i] = total, j
			}
			if j >= 0 && b.nodes[cands[j]].forced() {
				break
			}
		}
	}
	last := len(cands) - 1
	if last < 0 || math.IsInf(best[last], 1) {
		return nil, false
	}
	var breaks []int
	for i := last; i >= 0; i = prev[i] {
		breaks = append(breaks, cands[i])
	}
	for l, r := 0, len(breaks)-1; l < r; l, r = l+1, r-1 {
		breaks[l], breaks[r] = breaks[r], breaks[l]
	}
	return breaks, true
}

// greedy fills each line with as much as fits at natural width. widthAt
// returns the target width of line n.
func (b *breaker) greedy(widthAt func(line int) float64) []int {
	var breaks []int
	s, lastFit := 0, -1
	for k := 0; k < len(b.nodes); k++ {
		if !breakable(b.nodes, k) || k < s {
			continue
		}
		natural, _, _ := b.measure(s, k)
		if natural > widthAt(len(breaks)) && lastFit >= 0 {
			breaks = append(breaks, lastFit)
			s, lastFit = b.lineStart(lastFit), -1
			k--
			continue
		}
		if b.nodes[k].forced() {
			breaks = append(breaks, k)
			s, lastFit = b.lineStart(k), -1
			continue
		}
		lastFit = k
	}
	return breaks
}

// forcedOnly breaks at forced penalties, for unbounded widths.
func (b *breaker) forcedOnly() []int {
	var breaks []int
	for k, n := range b.nodes {
		if n.forced() {
			breaks = append(breaks, k)
		}
	}
	return breaks
}

// totalDemerits scores a break set under the same line metric the optimal
// breaker minimizes. Infeasible sets score +Inf.
func (b *breaker) totalDemerits(breaks []int, target float64) float64 {
	total, s := 0.0, 0
	for _, k := range breaks {
		d, ok := b.demerits(s, k, target)
		if !ok {
			return math.Inf(1)
		}
		total += d
		s = b.lineStart(k)
	}
	return total
}
