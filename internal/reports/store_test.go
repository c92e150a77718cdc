package reports

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

var headerCols = []string{"report_ulid", "client_ulid", "technician_ulid", "elevator_id",
	"report_date", "remarks", "status", "created_at", "submitted_at"}

// ヘッダとチェックリストは1つの読み取り専用Txで読む（途中でSubmitが挟まっても混ざらない）。
func TestStoreGetByULIDReadsInOneTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)
	created := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM maintenance_reports WHERE report_ulid").
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows(headerCols).
			AddRow("r1", "c1", "t1", "EL-0042", "2026-03-02", nil, "draft", created, nil))
	mock.ExpectQuery("SELECT (.+) FROM report_checklist_items").
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"item_key", "result", "remark"}).
			AddRow("cabin_lighting", "ok", nil).
			AddRow("brake_system", "defect", "pads worn"))
	mock.ExpectCommit()

	got, err := store.GetByULID(context.Background(), "r1")
	require.NoError(t, err)
	require.Equal(t, "r1", got.ReportULID)
	require.Equal(t, "draft", got.Status)
	require.Len(t, got.Checklist, 2)
	require.Equal(t, "Cabin lighting", got.Checklist[0].Label)
	require.Equal(t, "defect", got.Checklist[1].Result)
	require.Nil(t, got.SubmittedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreGetByULIDNotFoundRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM maintenance_reports WHERE report_ulid").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err = store.GetByULID(context.Background(), "missing")
	require.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}
