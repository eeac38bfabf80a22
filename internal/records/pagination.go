package records

import "fmt"

const maxVisiblePages = 5

type PageLink struct {
	Index  int  `json:"index"`
	Label  int  `json:"label"`
	Active bool `json:"active"`
}

// Pagination is the navigation bar under the records table
type Pagination struct {
	Number        int        `json:"number"`
	Size          int        `json:"size"`
	TotalPages    int        `json:"totalPages"`
	TotalElements int64      `json:"totalElements"`
	Start         int64      `json:"start"`
	End           int64      `json:"end"`
	Info          string     `json:"info"`
	FirstDisabled bool       `json:"firstDisabled"`
	PrevDisabled  bool       `json:"prevDisabled"`
	NextDisabled  bool       `json:"nextDisabled"`
	LastDisabled  bool       `json:"lastDisabled"`
	Pages         []PageLink `json:"pages"`
}

// Paginate computes the bar for page number (0-based) of totalPages. At most
// five page numbers are shown, centred on the current page where possible.
func Paginate(number, size, totalPages int, totalElements int64) Pagination {
	p := Pagination{
		Number:        number,
		Size:          size,
		TotalPages:    totalPages,
		TotalElements: totalElements,
		FirstDisabled: number == 0,
		PrevDisabled:  number == 0,
		NextDisabled:  number >= totalPages-1,
		LastDisabled:  number >= totalPages-1,
	}

	if totalElements > 0 {
		p.Start = int64(number)*int64(size) + 1
		p.End = min(int64(number+1)*int64(size), totalElements)
	}
	p.Info = fmt.Sprintf("Records %d-%d of %d", p.Start, p.End, totalElements)

	startPage := max(0, number-maxVisiblePages/2)
	endPage := min(totalPages-1, startPage+maxVisiblePages-1)
	if endPage-startPage < maxVisiblePages-1 {
		startPage = max(0, endPage-maxVisiblePages+1)
	}
	for i := startPage; i <= endPage; i++ {
		p.Pages = append(p.Pages, PageLink{Index: i, Label: i + 1, Active: i == number})
	}
	return p
}
