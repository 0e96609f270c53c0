package repository

import (
	"context"
	"database/sql"
	"time"

	"annealer_control/internal/models"
	"annealer_control/internal/repository/db"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

// EventRepo is the append-only run event log.
type EventRepo interface {
	Append(ctx context.Context, e models.RunEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.RunEvent, error)
}

// RunRepo stores one row per process execution.
type RunRepo interface {
	Create(ctx context.Context, r models.Run) error
	Finish(ctx context.Context, runID, finalStatus string, endedAt time.Time) error
	List(ctx context.Context, limit int) ([]models.Run, error)
}

type Repository struct {
	Events EventRepo
	Runs   RunRepo
	Auth   Authorization
}

func NewRepository(conn *sql.DB) *Repository {
	return &Repository{
		Events: NewEventSQLite(conn),
		Runs:   NewRunSQLite(conn),
		Auth:   NewUserRepository(conn),
	}
}

// Open opens the backing SQLite database, creating the schema when needed.
func Open(path string) (*sql.DB, error) {
	return db.Open(path)
}
