package service

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// normalizePagination clamps page/limit to sane values and returns the
// row offset: skip = (page-1)*limit.
func normalizePagination(page, limit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit, (page - 1) * limit
}

// totalPages возвращает ceil(total/limit); 0 при отсутствии совпадений.
func totalPages(total int64, limit int) int64 {
	if total == 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}
