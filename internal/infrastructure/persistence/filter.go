package persistence

import (
	"github.com/ledgersg/backend/internal/domain/shared"
)

const maxPageSize = 200

// normalizeFilter fills in pagination defaults and caps the page size
func normalizeFilter(f shared.Filter) shared.Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 20
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}
	return f
}
