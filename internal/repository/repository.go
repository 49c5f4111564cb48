package repository

import (
	"errors"
	"strings"

	"github.com/lib/pq"
)

// Sentinel errors surfaced by transactional flows so services can map them
// to referential-integrity responses.
var (
	ErrRoomInUse       = errors.New("room is referenced by groups")
	ErrTeacherAssigned = errors.New("employee is assigned as a group teacher")
	ErrDuplicate       = errors.New("unique constraint violated")
)

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation. Uniqueness is pre-checked in the services; insert paths use
// this to surface ErrDuplicate when a concurrent write slips past that
// check.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

// sortColumn resolves a requested sort field against an allow-list.
func sortColumn(requested, fallback string, allowed map[string]string) string {
	if column, ok := allowed[requested]; ok {
		return column
	}
	return allowed[fallback]
}

// sortOrder normalises a requested sort direction.
func sortOrder(requested string) string {
	order := strings.ToUpper(requested)
	if order != "ASC" && order != "DESC" {
		return "DESC"
	}
	return order
}

// pageWindow clamps pagination inputs and returns limit/offset.
func pageWindow(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return size, (page - 1) * size
}
