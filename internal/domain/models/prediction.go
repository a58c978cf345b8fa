package models

import "time"

// PredictRequest is the inbound query of GET /predict.
type PredictRequest struct {
	Crypto string `query:"crypto" validate:"max=16"`
	Price  string `query:"price" validate:"max=64"`
	Period string `query:"period" validate:"omitempty,max=8"`
	UserID string `query:"userId" validate:"omitempty,max=128"`
	Lang   string `query:"lang" default:"en" validate:"oneof=en ru"`
}

// PredictResponse is the success body of GET /predict.
type PredictResponse struct {
	Prediction float64 `json:"prediction"`
}

// PredictionInput is a validated request handed to the use case.
type PredictionInput struct {
	Symbol    string
	LivePrice float64
	Period    string
	UserID    string
	Lang      string
}

// Prediction is the outcome of one served request.
type Prediction struct {
	ID            string
	Symbol        string
	Period        string
	Engine        string
	LivePrice     float64
	RawPrediction float64
	Value         float64
	Adjusted      bool
	WindowAverage float64
	DeviationPct  float64
	Notified      bool
	CreatedAt     time.Time
}

// PredictionEvent is the published form of a Prediction.
type PredictionEvent struct {
	ID            string    `json:"id"`
	Symbol        string    `json:"symbol"`
	Period        string    `json:"period"`
	Engine        string    `json:"engine"`
	LivePrice     float64   `json:"live_price"`
	RawPrediction float64   `json:"raw_prediction"`
	Prediction    float64   `json:"prediction"`
	Adjusted      bool      `json:"adjusted"`
	DeviationPct  float64   `json:"deviation_pct"`
	Notified      bool      `json:"notified"`
	CreatedAt     time.Time `json:"created_at"`
}

// Event converts p into its published form.
func (p *Prediction) Event() PredictionEvent {
	return PredictionEvent{
		ID:            p.ID,
		Symbol:        p.Symbol,
		Period:        p.Period,
		Engine:        p.Engine,
		LivePrice:     p.LivePrice,
		RawPrediction: p.RawPrediction,
		Prediction:    p.Value,
		Adjusted:      p.Adjusted,
		DeviationPct:  p.DeviationPct,
		Notified:      p.Notified,
		CreatedAt:     p.CreatedAt,
	}
}
