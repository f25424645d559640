package paging

// Viewport abstracts the scrollable container so anchor preservation can
// be computed (and tested) without a rendering layer. Implementations
// must reflect the materialized message list synchronously: after the
// thread mutates its list, ContentHeight reports the post-update height.
type Viewport interface {
	ContentHeight() float64
	ScrollOffset() float64
	SetScrollOffset(offset float64)
}
