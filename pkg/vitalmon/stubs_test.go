package vitalmon

type stubSource struct{}

func (s *stubSource) Start(out chan<- *Sample) error { return nil }
func (s *stubSource) Stop() error                    { return nil }

type stubSink struct{}

func (s *stubSink) WriteBatch(entries []*CaptureEntry) error { return nil }
func (s *stubSink) Name() string                             { return "stub" }

type stubTransformer struct{}

func (s *stubTransformer) Transform(sample *Sample) (*Sample, error) {
	return sample, nil
}
func (s *stubTransformer) Version() uint16 { return 42 }

type stubQueue struct{}

func (s *stubQueue) Enqueue(id EntryID, e *CaptureEntry) bool { return true }
func (s *stubQueue) DequeueBatch(max int) []QueuedEntry       { return nil }
func (s *stubQueue) Len() int                                 { return 0 }

type stubJournal struct{}

func (s *stubJournal) Append(e *CaptureEntry) (EntryID, error) { return 0, nil }
func (s *stubJournal) Iterate(from EntryID, fn func(id EntryID, e *CaptureEntry) error) error {
	return nil
}
func (s *stubJournal) Commit(upto EntryID) error { return nil }
func (s *stubJournal) Reset() error              { return nil }
func (s *stubJournal) Stats() JournalStats       { return JournalStats{} }

type stubObservability struct{}

func (s *stubObservability) LogDebug(string, ...Field)               {}
func (s *stubObservability) LogInfo(string, ...Field)                {}
func (s *stubObservability) LogError(string, error, ...Field)        {}
func (s *stubObservability) LogCritical(string, error, ...Field)     {}
func (s *stubObservability) IncCounter(string, float64)              {}
func (s *stubObservability) ObserveLatency(string, float64)          {}
func (s *stubObservability) SetGauge(string, float64)                {}
func (s *stubObservability) RecordDLQ(EntryID, *CaptureEntry, error) {}
