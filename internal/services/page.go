package services

// Page is one slice of a paged listing. Number is 1-based.
type Page[T any] struct {
	Items  []T
	Number int
	Size   int
	Total  int
}

func (p Page[T]) Pages() int {
	if p.Size <= 0 || p.Total == 0 {
		return 1
	}
	return (p.Total + p.Size - 1) / p.Size
}

func (p Page[T]) HasPrev() bool { return p.Number > 1 }
func (p Page[T]) HasNext() bool { return p.Number < p.Pages() }
func (p Page[T]) Prev() int     { return p.Number - 1 }
func (p Page[T]) Next() int     { return p.Number + 1 }

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}
