package repository

import "database/sql"

// Paging bounds GET /admin/orders. Default applies when the request gives no
// limit; Max caps whatever it asks for.
type Paging struct {
	Default int
	Max     int
}

var DefaultPaging = Paging{Default: 50, Max: 200}

func (p Paging) normalize() Paging {
	if p.Max <= 0 {
		p.Max = DefaultPaging.Max
	}
	if p.Default <= 0 {
		p.Default = DefaultPaging.Default
	}
	if p.Default > p.Max {
		p.Default = p.Max
	}
	return p
}

func (p Paging) clamp(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = p.Default
	}
	if limit > p.Max {
		limit = p.Max
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// Repository holds the stores backing the order service. Order items live
// in the order store since they are only ever written together with their order.
type Repository struct {
	Orders OrderRepositoryInterface
}

func New(db *sql.DB, paging Paging) *Repository {
	return &Repository{
		Orders: NewOrderRepository(db, paging),
	}
}
