package records

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func labels(p Pagination) []int {
	var out []int
	for _, l := range p.Pages {
		out = append(out, l.Label)
	}
	return out
}

func TestPaginateWindow(t *testing.T) {
	tests := []struct {
		name   string
		number int
		pages  int
		want   []int
	}{
		{"first page", 0, 10, []int{1, 2, 3, 4, 5}},
		{"second page", 1, 10, []int{1, 2, 3, 4, 5}},
		{"centred", 5, 10, []int{4, 5, 6, 7, 8}},
		{"near the end", 8, 10, []int{6, 7, 8, 9, 10}},
		{"last page", 9, 10, []int{6, 7, 8, 9, 10}},
		{"few pages", 1, 3, []int{1, 2, 3}},
		{"single page", 0, 1, []int{1}},
		{"no pages", 0, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, labels(Paginate(tt.number, 20, tt.pages, int64(tt.pages*20))))
		})
	}
}

func TestPaginateInfoAndButtons(t *testing.T) {
	p := Paginate(2, 20, 3, 45)
	assert.Equal(t, "Records 41-45 of 45", p.Info)
	assert.False(t, p.FirstDisabled)
	assert.False(t, p.PrevDisabled)
	assert.True(t, p.NextDisabled)
	assert.True(t, p.LastDisabled)
	assert.True(t, p.Pages[2].Active)

	p = Paginate(0, 20, 3, 45)
	assert.Equal(t, "Records 1-20 of 45", p.Info)
	assert.True(t, p.FirstDisabled)
	assert.True(t, p.PrevDisabled)
	assert.False(t, p.NextDisabled)

	p = Paginate(0, 20, 0, 0)
	assert.Equal(t, "Records 0-0 of 0", p.Info)
	assert.True(t, p.NextDisabled)
}
