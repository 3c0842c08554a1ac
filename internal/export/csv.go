// Package export turns a finished capture log into downloadable files.
package export

import (
	"errors"
	"strings"

	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/domain"
)

// ErrEmptyLog is returned when there is nothing to export.
var ErrEmptyLog = errors.New("capture log is empty")

const csvHeader = "Timestamp,HR,SpO2,Temperature,ECG"

// CSV renders the log with one row per entry. Rows are newline separated with
// no trailing newline; values are not quoted.
func CSV(log []domain.CaptureEntry) ([]byte, error) {
	if len(log) == 0 {
		return nil, ErrEmptyLog
	}
	var b strings.Builder
	b.WriteString(csvHeader)
	for _, e := range log {
		b.WriteByte('\n')
		b.WriteString(strings.Join([]string{
			e.Timestamp,
			cell(e.Sample.HeartRate),
			cell(e.Sample.SpO2),
			cell(e.Sample.Temperature),
			cell(e.Sample.ECG),
		}, ","))
	}
	return []byte(b.String()), nil
}

func cell(v *float64) string {
	if v == nil {
		return ""
	}
	return domain.FormatValue(*v)
}
