// Package utils provides small helpers shared by the HTTP layer.
package utils

import "strconv"

// AtoiDefault parses s as an int, returning def when s is empty or invalid.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// Window is one page over an in-memory list of Total items. Start and End
// are slice bounds, always within [0, Total].
type Window struct {
	Page       int
	Size       int
	Total      int
	TotalPages int
	Start      int
	End        int
	HasNext    bool
}

// Paginate clamps page to >= 1 and size to [1, maxSize] (maxSize <= 0 means
// unbounded), then computes the bounds of that page. Pages past the end
// yield an empty window.
func Paginate(total, page, size, maxSize int) Window {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 1
	}
	if maxSize > 0 && size > maxSize {
		size = maxSize
	}
	if total < 0 {
		total = 0
	}
	w := Window{Page: page, Size: size, Total: total}
	w.TotalPages = (total + size - 1) / size
	w.Start = min((page-1)*size, total)
	w.End = min(w.Start+size, total)
	w.HasNext = page < w.TotalPages
	return w
}
