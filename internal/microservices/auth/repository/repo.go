package repository

import "database/sql"

type Repository struct {
	AdminRepo AdminRepositoryInterface
}

func New(db *sql.DB) *Repository {
	return &Repository{
		AdminRepo: NewAdminRepository(db),
	}
}
