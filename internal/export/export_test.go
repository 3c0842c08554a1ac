package export

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/internal/domain"
	"github.com/OpenPSG/edf"
	"github.com/stretchr/testify/require"
)

func TestCSVSingleEntry(t *testing.T) {
	log := []domain.CaptureEntry{{
		Timestamp: "T1",
		Sample: domain.Sample{
			HeartRate:   domain.Float(72),
			SpO2:        domain.Float(98),
			Temperature: domain.Float(36.8),
			ECG:         domain.Float(0.2),
		},
	}}

	out, err := CSV(log)
	require.NoError(t, err)
	require.Equal(t, "Timestamp,HR,SpO2,Temperature,ECG\nT1,72,98,36.8,0.2", string(out))
}

func TestCSVAbsentFieldsAreEmpty(t *testing.T) {
	log := []domain.CaptureEntry{
		{Timestamp: "2024-05-01T10:00:00.000Z", Sample: domain.Sample{HeartRate: domain.Float(60.5)}},
		{Timestamp: "2024-05-01T10:00:01.000Z", Sample: domain.Sample{ECG: domain.Float(-0.25)}},
	}

	out, err := CSV(log)
	require.NoError(t, err)
	lines := bytes.Split(out, []byte("\n"))
	require.Len(t, lines, 3)
	require.Equal(t, "2024-05-01T10:00:00.000Z,60.5,,,", string(lines[1]))
	require.Equal(t, "2024-05-01T10:00:01.000Z,,,,-0.25", string(lines[2]))
	require.False(t, bytes.HasSuffix(out, []byte("\n")))
}

func TestExportEmptyLog(t *testing.T) {
	_, err := CSV(nil)
	require.ErrorIs(t, err, ErrEmptyLog)

	_, err = EDF([]domain.CaptureEntry{}, EDFOptions{})
	require.ErrorIs(t, err, ErrEmptyLog)
}

func TestRecordDuration(t *testing.T) {
	require.Equal(t, time.Second, RecordDuration(0))
	require.Equal(t, time.Second, RecordDuration(250*time.Millisecond))
	require.Equal(t, 2*time.Second, RecordDuration(1500*time.Millisecond))
	require.Equal(t, 5*time.Second, RecordDuration(5*time.Second))
}

func TestWriteEDFRoundTrip(t *testing.T) {
	f, err := os.OpenFile(filepath.Join(t.TempDir(), "capture.edf"), os.O_RDWR|os.O_CREATE, 0o644)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, f.Close())
	})

	log := []domain.CaptureEntry{
		{Timestamp: "2024-05-01T10:00:00.000Z", Sample: domain.Sample{HeartRate: domain.Float(72), SpO2: domain.Float(98), Temperature: domain.Float(36.8), ECG: domain.Float(0.2)}},
		{Timestamp: "2024-05-01T10:00:01.000Z", Sample: domain.Sample{HeartRate: domain.Float(80), SpO2: domain.Float(97), ECGStatus: "Leads off"}},
	}
	require.NoError(t, WriteEDF(f, log, EDFOptions{PatientID: "bed-1", RecordingID: "session", Interval: time.Second}))

	_, err = f.Seek(0, io.SeekStart)
	require.NoError(t, err)

	er, err := edf.Open(f)
	require.NoError(t, err)

	want := [][]float64{
		{72, 80},
		{98, 97},
		{36.8, 25},
		{0.2, -1},
	}
	for i, expected := range want {
		sr, err := er.Signal(i)
		require.NoError(t, err)

		got := make([]float64, len(expected))
		n, err := sr.Read(got)
		require.NoError(t, err)
		require.Equal(t, len(expected), n)
		for j := range expected {
			require.InDelta(t, expected[j], got[j], 0.01, "signal %d sample %d", i, j)
		}

		_, err = sr.Read(got)
		require.Equal(t, io.EOF, err)
	}
}

func TestEDFInMemory(t *testing.T) {
	log := []domain.CaptureEntry{{Timestamp: "2024-05-01T10:00:00.000Z", Sample: domain.Sample{HeartRate: domain.Float(72)}}}

	out, err := EDF(log, EDFOptions{Interval: 2 * time.Second})
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("0       ")), "edf version field")

	er, err := edf.Open(bytes.NewReader(out))
	require.NoError(t, err)
	sr, err := er.Signal(0)
	require.NoError(t, err)
	got := make([]float64, 1)
	_, err = sr.Read(got)
	require.NoError(t, err)
	require.InDelta(t, 72, got[0], 0.01)
}
