package domain

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page selects a window of a sequence. Numbers start from 1.
type Page struct {
	Number int
	Size   int
}

// NewPage returns a page with defaults applied to non positive values. The
// size is capped at MaxPageSize.
func NewPage(pageNumber, pageSize int) Page {
	pNumber := 1
	if pageNumber > 0 {
		pNumber = pageNumber
	}

	pSize := DefaultPageSize
	if pageSize > 0 {
		pSize = pageSize
	}
	if pSize > MaxPageSize {
		pSize = MaxPageSize
	}

	return Page{
		Number: pNumber,
		Size:   pSize,
	}
}

// Offset returns the number of items preceding the page.
func (p Page) Offset() int {
	if p.Number <= 0 {
		return 0
	}
	return (p.Number - 1) * p.Size
}
