package sink

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/domain"
	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/ports"
)

const timescaleColumns = 7

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// TimescaleSink archives capture entries into a Postgres/TimescaleDB table,
// one row per entry.
type TimescaleSink struct {
	db        *sql.DB
	tableName string
}

var _ ports.Sink = (*TimescaleSink)(nil)

func NewTimescaleSink(db *sql.DB, table string) (*TimescaleSink, error) {
	if db == nil {
		return nil, fmt.Errorf("timescale sink: db is nil")
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("timescale sink: invalid table name %q", table)
	}
	return &TimescaleSink{db: db, tableName: table}, nil
}

func (t *TimescaleSink) Name() string { return "timescaledb" }

// EnsureTable creates the archive table when it does not exist yet.
func (t *TimescaleSink) EnsureTable() error {
	_, err := t.db.Exec(`CREATE TABLE IF NOT EXISTS ` + t.tableName + ` (
	captured_at TIMESTAMPTZ NOT NULL,
	source TEXT NOT NULL DEFAULT '',
	heart_rate DOUBLE PRECISION,
	spo2 DOUBLE PRECISION,
	temperature DOUBLE PRECISION,
	ecg DOUBLE PRECISION,
	ecg_status TEXT,
	UNIQUE (captured_at, source)
)`)
	return err
}

func (t *TimescaleSink) WriteBatch(entries []*domain.CaptureEntry) error {
	if len(entries) == 0 {
		return nil
	}

	// idempotent on replay through the unique key
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(t.tableName)
	b.WriteString(" (captured_at, source, heart_rate, spo2, temperature, ecg, ecg_status) VALUES ")

	args := make([]any, 0, len(entries)*timescaleColumns)
	for i, e := range entries {
		if i > 0 {
			b.WriteString(",")
		}
		n := len(args)
		fmt.Fprintf(&b, "($%d,$%d,$%d,$%d,$%d,$%d,$%d)", n+1, n+2, n+3, n+4, n+5, n+6, n+7)

		var at any = e.Timestamp
		if parsed, ok := e.CapturedAt(); ok {
			at = parsed
		}
		var status any
		if e.Sample.ECGStatus != "" {
			status = e.Sample.ECGStatus
		}
		args = append(args,
			at,
			e.Sample.Source,
			nullable(e.Sample.HeartRate),
			nullable(e.Sample.SpO2),
			nullable(e.Sample.Temperature),
			nullable(e.Sample.ECG),
			status,
		)
	}

	b.WriteString(" ON CONFLICT (captured_at, source) DO NOTHING")

	_, err := t.db.Exec(b.String(), args...)
	return err
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
