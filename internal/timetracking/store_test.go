package timetracking

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestStoreAppend(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)
	addr := "Hauptstr. 12, Berlin"
	notes := "Aufzug A"
	ev := ClockEvent{
		EventULID:      "01JEV0000000000000000000001",
		TechnicianULID: testTech,
		Type:           EventClockIn,
		Timestamp:      at("09:00"),
		Location:       &Location{Latitude: 52.52, Longitude: 13.405, Address: &addr},
		Notes:          &notes,
	}

	mock.ExpectExec("INSERT INTO clock_events").
		WithArgs(ev.EventULID, ev.TechnicianULID, "clock_in", ev.Timestamp.UTC(),
			52.52, 13.405, &addr, &notes).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.Append(context.Background(), ev))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreAppendWithoutLocation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)
	ev := ClockEvent{
		EventULID:      "01JEV0000000000000000000002",
		TechnicianULID: testTech,
		Type:           EventClockOut,
		Timestamp:      at("17:00"),
	}

	mock.ExpectExec("INSERT INTO clock_events").
		WithArgs(ev.EventULID, ev.TechnicianULID, "clock_out", ev.Timestamp.UTC(),
			nil, nil, (*string)(nil), (*string)(nil)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.Append(context.Background(), ev))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreAllFor(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)

	cols := []string{"event_ulid", "technician_ulid", "event_type", "occurred_at",
		"latitude", "longitude", "address", "notes"}
	// event_ulid順はtimestamp順とは限らない（storeは並べ替えない、sortはreconstruct側）
	rows := sqlmock.NewRows(cols).
		AddRow("e2", testTech, "clock_out", at("17:00"), nil, nil, nil, nil).
		AddRow("e1", testTech, "clock_in", at("09:00"), 52.52, 13.405, "Berlin", nil)

	mock.ExpectQuery("SELECT (.+) FROM clock_events WHERE technician_ulid = (.+) ORDER BY event_ulid").
		WithArgs(testTech).
		WillReturnRows(rows)

	events, err := store.AllFor(context.Background(), testTech)
	require.NoError(t, err)
	require.Len(t, events, 2)

	require.Equal(t, "e2", events[0].EventULID)
	require.Equal(t, EventClockOut, events[0].Type)
	require.Nil(t, events[0].Location)

	require.Equal(t, "e1", events[1].EventULID)
	require.NotNil(t, events[1].Location)
	require.Equal(t, 52.52, events[1].Location.Latitude)
	require.Equal(t, "Berlin", *events[1].Location.Address)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceClockRejectsInvalidTransition(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := NewService(db, time.UTC).WithClock(func() time.Time { return at("18:00") })

	// ログは空 → OUT状態。clock_outは不正。
	mock.ExpectQuery("SELECT (.+) FROM clock_events").
		WithArgs(testTech).
		WillReturnRows(sqlmock.NewRows([]string{"event_ulid", "technician_ulid", "event_type",
			"occurred_at", "latitude", "longitude", "address", "notes"}))

	_, err = svc.Clock(context.Background(), ClockActionRequest{
		TechnicianULID: testTech,
		Type:           EventClockOut,
	})
	require.Error(t, err)
	api, ok := err.(*APIError)
	require.True(t, ok)
	require.Equal(t, CodeConflict, api.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceClockAppendsLegalAction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := at("08:00")
	svc := NewService(db, time.UTC).WithClock(func() time.Time { return now })

	mock.ExpectQuery("SELECT (.+) FROM clock_events").
		WithArgs(testTech).
		WillReturnRows(sqlmock.NewRows([]string{"event_ulid", "technician_ulid", "event_type",
			"occurred_at", "latitude", "longitude", "address", "notes"}))
	mock.ExpectExec("INSERT INTO clock_events").
		WithArgs(sqlmock.AnyArg(), testTech, "clock_in", now,
			nil, nil, (*string)(nil), (*string)(nil)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	res, err := svc.Clock(context.Background(), ClockActionRequest{
		TechnicianULID: testTech,
		Type:           EventClockIn,
	})
	require.NoError(t, err)
	require.Equal(t, EventClockIn, res.Type)
	require.Equal(t, now, res.Timestamp)
	require.NotEmpty(t, res.EventULID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceCurrentNotFoundWhenClockedOut(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := NewService(db, time.UTC).WithClock(func() time.Time { return at("18:00") })

	rows := sqlmock.NewRows([]string{"event_ulid", "technician_ulid", "event_type",
		"occurred_at", "latitude", "longitude", "address", "notes"}).
		AddRow("e1", testTech, "clock_in", at("09:00"), nil, nil, nil, nil).
		AddRow("e2", testTech, "clock_out", at("17:00"), nil, nil, nil, nil)
	mock.ExpectQuery("SELECT (.+) FROM clock_events").WithArgs(testTech).WillReturnRows(rows)

	_, err = svc.Current(context.Background(), testTech)
	require.Error(t, err)
	api, ok := err.(*APIError)
	require.True(t, ok)
	require.Equal(t, CodeNotFound, api.Code)
}
