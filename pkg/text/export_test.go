package text

// BreakerDemerits runs both breakers over items and scores their break
// sets with the shared line metric.
func BreakerDemerits(items []ShapedItem, width float64) (optimal, greedy float64) {
	b := newBreaker(buildNodes(items, true))
	opt := b.optimal(width)
	gr := b.greedy(func(int) float64 { return width })
	return b.totalDemerits(opt, width), b.totalDemerits(gr, width)
}
