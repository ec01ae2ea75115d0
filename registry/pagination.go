package registry

import "strconv"

// Page represents a single page of results with an optional cursor for
// fetching the next page.
//
// Items is never nil; NewPage normalizes nil input to an empty slice so list
// results always serialize as JSON arrays.
type Page[T any] struct {
	Items      []T
	NextCursor *string
}

// PageOption configures a Page constructed via NewPage.
type PageOption[T any] func(*Page[T])

// WithNextCursor sets the next cursor on the Page to indicate that more
// results are available.
func WithNextCursor[T any](cursor string) PageOption[T] {
	return func(p *Page[T]) {
		p.NextCursor = &cursor
	}
}

// NewPage constructs a Page with the provided items and options.
func NewPage[T any](items []T, opts ...PageOption[T]) Page[T] {
	if items == nil {
		items = make([]T, 0)
	}
	p := Page[T]{Items: items}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// parseCursor interprets an opaque list cursor as a slice offset. Absent or
// unparseable cursors restart from the beginning.
func parseCursor(cursor *string) int {
	if cursor == nil {
		return 0
	}
	n, err := strconv.Atoi(*cursor)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// pageSlice cuts one page out of a snapshot, returning the page items and
// the next cursor when more items remain.
func pageSlice[T any](all []T, cursor *string, pageSize int) Page[T] {
	start := parseCursor(cursor)
	if start > len(all) {
		start = 0
	}
	end := start + pageSize
	if pageSize <= 0 || end > len(all) {
		end = len(all)
	}
	items := make([]T, end-start)
	copy(items, all[start:end])
	if end < len(all) {
		return NewPage(items, WithNextCursor[T](strconv.Itoa(end)))
	}
	return NewPage(items)
}
