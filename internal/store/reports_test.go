package store

import (
	"bytes"
	"context"
	"database/sql/driver"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"production_report/internal/dpr"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return &DB{sqlDB}, mock
}

// jsonHaving matches a JSON document argument containing the given text.
type jsonHaving string

func (j jsonHaving) Match(v driver.Value) bool {
	b, ok := v.([]byte)
	return ok && json.Valid(b) && bytes.Contains(b, []byte(j))
}

func twoLineReport() *dpr.DPRData {
	d := &dpr.DPRData{
		ID:            1,
		Date:          "2026-10-14",
		Shift:         dpr.ShiftNight,
		ShiftIncharge: "Mehta",
		Origin:        dpr.OriginManual,
		CreatedBy:     7,
		Machines: []dpr.MachineData{
			{
				LineID:   "M1",
				Operator: "Ravi",
				Current:  dpr.ProductionRun{Product: "CAP-28MM", Cavity: 4, TargetCycle: 10, TargetRunTime: 720},
			},
			{
				LineID:     "M2",
				Operator:   "Sunil",
				Current:    dpr.ProductionRun{Product: "JAR-1L", Cavity: 1, TargetCycle: 30, TargetRunTime: 600},
				Changeover: &dpr.ProductionRun{Product: "JAR-2L", Cavity: 1, TargetCycle: 35, TargetRunTime: 120},
			},
		},
	}
	dpr.Rebuild(d)
	return d
}

func expectLines(mock sqlmock.Sqlmock, reportID int64) {
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO dpr_lines")).
		WithArgs(reportID, 0, "M1", "Ravi", jsonHaving(`"product":"CAP-28MM"`), nil).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO dpr_lines")).
		WithArgs(reportID, 1, "M2", "Sunil", jsonHaving(`"product":"JAR-1L"`), jsonHaving(`"product":"JAR-2L"`)).
		WillReturnResult(sqlmock.NewResult(2, 1))
}

func TestCreateReport(t *testing.T) {
	db, mock := newMockDB(t)
	d := twoLineReport()
	d.ID = 0
	now := time.Date(2026, 10, 14, 20, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO dpr_reports")).
		WithArgs("2026-10-14", dpr.ShiftNight, "Mehta", jsonHaving(`"target_qty"`), jsonHaving(`"total_time"`),
			false, dpr.OriginManual, "", 7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(42), now, now))
	expectLines(mock, 42)
	mock.ExpectCommit()

	require.NoError(t, db.CreateReport(context.Background(), d))
	assert.Equal(t, int64(42), d.ID)
	assert.True(t, now.Equal(d.CreatedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReport_LineFailureRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	d := twoLineReport()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO dpr_reports")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(43), now, now))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO dpr_lines")).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := db.CreateReport(context.Background(), d)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "line M1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateReport(t *testing.T) {
	t.Run("draft lines are replaced", func(t *testing.T) {
		db, mock := newMockDB(t)
		d := twoLineReport()
		now := time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("SELECT posting_status FROM dpr_reports WHERE id = $1 FOR UPDATE")).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"posting_status"}).AddRow(""))
		mock.ExpectQuery(regexp.QuoteMeta("UPDATE dpr_reports SET")).
			WithArgs("2026-10-14", dpr.ShiftNight, "Mehta", jsonHaving(`"target_qty"`), jsonHaving(`"total_time"`),
				false, dpr.OriginManual, "", int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM dpr_lines WHERE report_id = $1")).
			WithArgs(int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 3))
		expectLines(mock, 1)
		mock.ExpectCommit()

		require.NoError(t, db.UpdateReport(context.Background(), d))
		assert.True(t, now.Equal(d.UpdatedAt))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("posted report is left alone", func(t *testing.T) {
		db, mock := newMockDB(t)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("SELECT posting_status FROM dpr_reports")).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"posting_status"}).AddRow(string(dpr.StatusPosted)))
		mock.ExpectRollback()

		assert.ErrorIs(t, db.UpdateReport(context.Background(), twoLineReport()), dpr.ErrPosted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing report", func(t *testing.T) {
		db, mock := newMockDB(t)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("SELECT posting_status FROM dpr_reports")).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"posting_status"}))
		mock.ExpectRollback()

		assert.ErrorIs(t, db.UpdateReport(context.Background(), twoLineReport()), ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMarkPosted(t *testing.T) {
	at := time.Date(2026, 10, 14, 19, 5, 0, 0, time.UTC)
	guarded := regexp.QuoteMeta("WHERE id = $4 AND posting_status <> $1 AND NOT is_reference")

	t.Run("draft", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(guarded).
			WithArgs(dpr.StatusPosted, "shiftlead", at, int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, db.MarkPosted(context.Background(), 5, "shiftlead", at))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reference or posted report matches no row", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(guarded).
			WithArgs(dpr.StatusPosted, "shiftlead", at, int64(6)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, db.MarkPosted(context.Background(), 6, "shiftlead", at), dpr.ErrAlreadyPosted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeleteReport(t *testing.T) {
	deleteDraft := regexp.QuoteMeta("DELETE FROM dpr_reports WHERE id = $1 AND posting_status <> $2")
	exists := regexp.QuoteMeta("SELECT EXISTS")

	t.Run("draft", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(deleteDraft).WithArgs(int64(3), dpr.StatusPosted).WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, db.DeleteReport(context.Background(), 3))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("posted", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(deleteDraft).WithArgs(int64(3), dpr.StatusPosted).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(exists).WithArgs(int64(3)).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		assert.ErrorIs(t, db.DeleteReport(context.Background(), 3), dpr.ErrPosted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(deleteDraft).WithArgs(int64(3), dpr.StatusPosted).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(exists).WithArgs(int64(3)).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		assert.ErrorIs(t, db.DeleteReport(context.Background(), 3), ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetReport_SingleRunLine(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Date(2026, 10, 14, 20, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM dpr_reports WHERE id = $1")).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "report_date", "shift", "shift_incharge", "summary", "shift_total",
			"posting_status", "posted_by", "posted_at", "is_reference", "origin", "import_batch",
			"created_by", "created_at", "updated_at",
		}).AddRow(int64(9), "2026-10-14", "DAY", "Mehta", []byte(`{"target_qty":1440}`), []byte(`{"stoppage_time":30}`),
			"", "", nil, false, "manual", "", int64(7), now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM dpr_lines WHERE report_id = $1")).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"line_id", "operator", "current_run", "changeover_run"}).
			AddRow("M1", "Ravi", []byte(`{"product":"CAP-28MM"}`), nil))

	d, err := db.GetReport(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, dpr.ShiftDay, d.Shift)
	assert.Equal(t, int64(1440), d.Summary.TargetQty)
	assert.Equal(t, 30, d.ShiftTotal.StoppageTime)
	assert.Nil(t, d.PostedAt)
	require.Len(t, d.Machines, 1)
	assert.Equal(t, "CAP-28MM", d.Machines[0].Current.Product)
	assert.Nil(t, d.Machines[0].Changeover)
	assert.NoError(t, mock.ExpectationsWereMet())
}
