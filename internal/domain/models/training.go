package models

import "time"

// TrainingResult reports the outcome for one symbol of a training run.
type TrainingResult struct {
	Symbol    string
	Samples   int
	TrainLoss float64
	ValLoss   float64
	Duration  time.Duration
	Err       error
}

// OK reports whether the symbol trained and persisted.
func (r TrainingResult) OK() bool { return r.Err == nil }
