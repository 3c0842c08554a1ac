package sink

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/domain"
)

func TestTimescaleSinkWriteBatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	sink, err := NewTimescaleSink(db, "vitals")
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	entries := []*domain.CaptureEntry{
		{
			Timestamp: "2024-05-01T10:00:00.000Z",
			Sample: domain.Sample{
				Source:    "push",
				HeartRate: domain.Float(72),
				SpO2:      domain.Float(98),
				ECGStatus: "Leads off",
			},
		},
	}

	expectedQuery := regexp.QuoteMeta("INSERT INTO vitals (captured_at, source, heart_rate, spo2, temperature, ecg, ecg_status) VALUES ($1,$2,$3,$4,$5,$6,$7) ON CONFLICT (captured_at, source) DO NOTHING")
	mock.ExpectExec(expectedQuery).
		WithArgs(at, "push", 72.0, 98.0, nil, nil, "Leads off").
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := sink.WriteBatch(entries); err != nil {
		t.Fatalf("write batch: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTimescaleSinkWriteBatchPropagatesErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	sink, _ := NewTimescaleSink(db, "vitals")
	mock.ExpectExec("INSERT INTO vitals").WillReturnError(errors.New("connection refused"))

	err = sink.WriteBatch([]*domain.CaptureEntry{{Timestamp: "2024-05-01T10:00:00.000Z"}, {Timestamp: "2024-05-01T10:00:01.000Z"}})
	if err == nil {
		t.Fatalf("expected sink error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTimescaleSinkWriteBatchNoEntries(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	sink, _ := NewTimescaleSink(db, "vitals")
	if err := sink.WriteBatch(nil); err != nil {
		t.Fatalf("expected nil error for empty batch, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTimescaleSinkEnsureTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	sink, _ := NewTimescaleSink(db, "public.vitals")
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS public.vitals")).WillReturnResult(sqlmock.NewResult(0, 0))
	if err := sink.EnsureTable(); err != nil {
		t.Fatalf("ensure table: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTimescaleSinkRejectsBadTableNames(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	if _, err := NewTimescaleSink(db, "vitals; DROP TABLE x"); err == nil {
		t.Fatalf("expected invalid table name to be rejected")
	}
	sink, err := NewTimescaleSink(db, "vitals")
	if err != nil || sink.Name() != "timescaledb" {
		t.Fatalf("expected sink name timescaledb, got %v err=%v", sink, err)
	}
}
