package db

import "strings"

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

type Page struct {
	Limit  int
	Offset int
	Order  string // asc | desc
}

// Normalize clamps limit/offset and lower-cases the order (desc unless "asc").
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	if strings.ToLower(p.Order) == "asc" {
		p.Order = "asc"
	} else {
		p.Order = "desc"
	}
	return p
}

func (p Page) Asc() bool { return p.Order == "asc" }

// NextOffset は次ページの offset、終端なら 0
func (p Page) NextOffset(total int64) int {
	next := p.Offset + p.Limit
	if next >= int(total) {
		return 0
	}
	return next
}
