package metrics

import "time"

// StageResult represents one optimization stage outcome to be recorded.
type StageResult struct {
	RunID     string
	Stage     string
	Status    string
	Duration  time.Duration
	Objective float64
	Stations  int
	Time      time.Time
}

// Sink records stage results for observability purposes.
type Sink interface {
	RecordStageResult(results []StageResult) error
}

// Config carries the endpoints a sink may need.
type Config struct {
	InfluxURL    string
	InfluxToken  string
	InfluxOrg    string
	InfluxBucket string
}

// NopSink implements Sink with no-op methods.
type NopSink struct{}

func (NopSink) RecordStageResult([]StageResult) error { return nil }
