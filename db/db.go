package db

import (
	"context"

	"github.com/jmoiron/sqlx"

	"procurement/models"
)

type Storage struct {
	db *sqlx.DB
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

// Project

func (s *Storage) CreateProject(ctx context.Context, p *models.Project) error {
	query := `
        INSERT INTO project (name)
        VALUES ($1)
        RETURNING id, created_at`
	return s.db.QueryRowContext(ctx, query, p.Name).Scan(&p.ID, &p.CreatedAt)
}

func (s *Storage) GetProject(ctx context.Context, id int) (*models.Project, error) {
	p := &models.Project{}
	query := `SELECT * FROM project WHERE id=$1`
	err := s.db.GetContext(ctx, p, query, id)
	return p, err
}

// Supplier

func (s *Storage) CreateSupplier(ctx context.Context, sp *models.Supplier) error {
	query := `
        INSERT INTO supplier (name, contact_email)
        VALUES ($1, $2)
        RETURNING id, created_at`
	return s.db.QueryRowContext(ctx, query, sp.Name, sp.ContactEmail).
		Scan(&sp.ID, &sp.CreatedAt)
}

func (s *Storage) GetSupplier(ctx context.Context, id int) (*models.Supplier, error) {
	sp := &models.Supplier{}
	query := `SELECT * FROM supplier WHERE id=$1`
	err := s.db.GetContext(ctx, sp, query, id)
	return sp, err
}
