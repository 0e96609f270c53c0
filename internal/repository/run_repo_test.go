package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"annealer_control/internal/models"
)

func TestRunSQLite_CreateFormatsStartTime(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRunSQLite(db)

	started := time.Date(2026, 3, 4, 12, 30, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO runs")).
		WithArgs("run-1", "/data/anneal.json", "copper anneal", "2026-03-04 12:30:00").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Create(context.Background(), models.Run{
		RunID:       "run-1",
		ProcessPath: "/data/anneal.json",
		Description: "copper anneal",
		StartedAt:   started,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
}

func TestRunSQLite_FinishStampsTerminalStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRunSQLite(db)

	ended := time.Date(2026, 3, 4, 13, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE runs SET ended_at = ?, final_status = ? WHERE id = ?")).
		WithArgs("2026-03-04 13:00:00", "STOPPED", "run-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Finish(context.Background(), "run-1", "STOPPED", ended); err != nil {
		t.Fatalf("Finish: %v", err)
	}
}

func TestRunSQLite_FinishUnknownRunFails(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRunSQLite(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE runs")).
		WithArgs(sqlmock.AnyArg(), "ERROR", "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Finish(context.Background(), "missing", "ERROR", time.Now()); err == nil {
		t.Fatalf("expected error for unknown run")
	}
}

func TestRunSQLite_ListParsesRows(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRunSQLite(db)

	started := time.Date(2026, 3, 4, 12, 30, 0, 0, time.UTC)
	ended := started.Add(30 * time.Minute)
	rows := sqlmock.NewRows([]string{"id", "process_path", "description", "started_at", "ended_at", "final_status"}).
		AddRow("run-2", "/data/b.json", "second", started.Add(time.Hour), nil, nil).
		AddRow("run-1", "/data/a.json", "first", started, ended, "STOPPED")

	mock.ExpectQuery(regexp.QuoteMeta("FROM runs ORDER BY started_at DESC LIMIT ?")).
		WithArgs(2).
		WillReturnRows(rows)

	runs, err := repo.List(context.Background(), 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].FinalStatus != "" || !runs[0].EndedAt.IsZero() {
		t.Fatalf("active run must have no terminal fields: %+v", runs[0])
	}
	if runs[1].FinalStatus != "STOPPED" || !runs[1].EndedAt.Equal(ended) {
		t.Fatalf("finished run fields wrong: %+v", runs[1])
	}
}
