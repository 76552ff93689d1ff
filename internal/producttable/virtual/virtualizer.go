// Package virtual computes which rows of a long list need rendering.
package virtual

// DefaultOverscan is the number of extra rows rendered on each side of the viewport.
const DefaultOverscan = 1

// Item is a row to render: its index in the list and its absolute offset.
type Item struct {
	Index int
	Start int
	Size  int
}

// Virtualizer lays out count rows of a fixed estimated size. Offsets and
// sizes share one unit (terminal lines here, pixels elsewhere).
// The zero value is not usable; create one with New.
type Virtualizer struct {
	count    int
	size     int
	overscan int
	viewport int
	offset   int
}

// Option customizes a Virtualizer.
type Option func(*Virtualizer)

// WithOverscan sets the rows rendered beyond each viewport edge. Negative values are treated as 0.
func WithOverscan(n int) Option {
	return func(v *Virtualizer) {
		v.overscan = max(n, 0)
	}
}

// New creates a Virtualizer for count rows of size units shown through a
// viewport of viewport units. size is clamped to at least 1.
func New(count, size, viewport int, opts ...Option) *Virtualizer {
	v := &Virtualizer{
		count:    max(count, 0),
		size:     max(size, 1),
		overscan: DefaultOverscan,
		viewport: max(viewport, 0),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *Virtualizer) Count() int        { return v.count }
func (v *Virtualizer) ScrollOffset() int { return v.offset }
func (v *Virtualizer) ViewportSize() int { return v.viewport }

// TotalSize is the space the whole list occupies.
func (v *Virtualizer) TotalSize() int {
	return v.count * v.size
}

// Start is the absolute offset of row index.
func (v *Virtualizer) Start(index int) int {
	return index * v.size
}

// SetCount changes the number of rows and re-clamps the offset.
func (v *Virtualizer) SetCount(count int) {
	v.count = max(count, 0)
	v.offset = v.clamp(v.offset)
}

// SetViewport changes the viewport size and re-clamps the offset.
func (v *Virtualizer) SetViewport(viewport int) {
	v.viewport = max(viewport, 0)
	v.offset = v.clamp(v.offset)
}

// ScrollTo moves the viewport to offset, clamped to [0, TotalSize-viewport].
func (v *Virtualizer) ScrollTo(offset int) {
	v.offset = v.clamp(offset)
}

// ScrollBy moves the viewport by delta units.
func (v *Virtualizer) ScrollBy(delta int) {
	v.ScrollTo(v.offset + delta)
}

// ScrollToIndex scrolls the least amount that brings row index fully into view.
func (v *Virtualizer) ScrollToIndex(index int) {
	if v.count == 0 {
		return
	}
	index = min(max(index, 0), v.count-1)
	start := v.Start(index)
	end := start + v.size
	switch {
	case start < v.offset:
		v.ScrollTo(start)
	case end > v.offset+v.viewport:
		v.ScrollTo(end - v.viewport)
	}
}

// Range returns the half-open index range [first, last) that intersects the
// viewport, widened by overscan rows on both sides and bounded by the list.
func (v *Virtualizer) Range() (first, last int) {
	if v.count == 0 || v.viewport == 0 {
		return 0, 0
	}
	first = v.offset / v.size
	last = (v.offset + v.viewport + v.size - 1) / v.size
	first = max(first-v.overscan, 0)
	last = min(last+v.overscan, v.count)
	return first, last
}

// VisibleRange is Range without overscan: the rows actually inside the viewport.
func (v *Virtualizer) VisibleRange() (first, last int) {
	if v.count == 0 || v.viewport == 0 {
		return 0, 0
	}
	first = v.offset / v.size
	last = min((v.offset+v.viewport+v.size-1)/v.size, v.count)
	return first, last
}

// Items returns the rows to materialize, in index order.
func (v *Virtualizer) Items() []Item {
	first, last := v.Range()
	items := make([]Item, 0, last-first)
	for i := first; i < last; i++ {
		items = append(items, Item{Index: i, Start: v.Start(i), Size: v.size})
	}
	return items
}

func (v *Virtualizer) clamp(offset int) int {
	maxOffset := max(v.TotalSize()-v.viewport, 0)
	return min(max(offset, 0), maxOffset)
}
