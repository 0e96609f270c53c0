package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"annealer_control/internal/models"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet sqlmock expectations: %v", err)
		}
		_ = db.Close()
	})
	return db, mock
}

func TestEventSQLite_Append_FillsDefaultsAndUppercasesType(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEventSQLite(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO run_events")).
		WithArgs(
			sqlmock.AnyArg(), // generated event id
			"run-1",
			sqlmock.AnyArg(), // generated timestamp
			"START",
			"process started",
			nil,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Append(context.Background(), models.RunEvent{
		RunID:       "run-1",
		Type:        " start ",
		Description: "process started",
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
}

func TestEventSQLite_Append_MarshalsMetadata(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEventSQLite(db)

	meta := `{"step_index":2}`
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO run_events")).
		WithArgs(
			"ev-1",
			"run-1",
			sqlmock.AnyArg(),
			"STEP_ADVANCE",
			"advanced",
			meta,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Append(context.Background(), models.RunEvent{
		EventID:     "ev-1",
		RunID:       "run-1",
		Type:        "STEP_ADVANCE",
		Description: "advanced",
		Metadata:    map[string]any{"step_index": 2},
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
}

func TestEventSQLite_List_BuildsFiltersAndParsesRows(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEventSQLite(db)

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	occurred := from.Add(6 * time.Hour)

	rows := sqlmock.NewRows([]string{"id", "run_id", "occurred_at", "type", "message", "meta"}).
		AddRow("ev-1", "run-1", occurred, "ERROR", "thermocouple unplugged", `{"step_index":1}`).
		AddRow("ev-2", nil, occurred.Add(time.Hour), "ERROR", "again", nil)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, run_id, occurred_at, type, message, meta FROM run_events WHERE occurred_at >= ? AND occurred_at <= ? AND type = ? ORDER BY occurred_at ASC",
	)).
		WithArgs(from, to, "ERROR").
		WillReturnRows(rows)

	events, err := repo.List(context.Background(), from, to, "error")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].RunID != "run-1" {
		t.Fatalf("expected run id preserved, got %q", events[0].RunID)
	}
	metaMap, ok := events[0].Metadata.(map[string]any)
	if !ok || metaMap["step_index"] != float64(1) {
		t.Fatalf("expected decoded metadata, got %#v", events[0].Metadata)
	}
	if events[1].RunID != "" || events[1].Metadata != nil {
		t.Fatalf("expected empty run id and metadata on second row")
	}
}

func TestEventSQLite_List_QueryErrorPropagates(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEventSQLite(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, run_id, occurred_at")).
		WillReturnError(errors.New("db down"))

	if _, err := repo.List(context.Background(), time.Time{}, time.Time{}, ""); err == nil {
		t.Fatalf("expected error")
	}
}
