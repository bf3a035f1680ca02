package bridge

import (
	"encoding/json"

	"goldsys/internal/model"
	"goldsys/internal/strategy"
)

// TickPayload is the live quote document posted to the dashboard API.
// Field names follow the dashboard's tick endpoint contract.
type TickPayload struct {
	Symbol     string              `json:"symbol"`
	Bid        float64             `json:"bid"`
	Ask        float64             `json:"ask"`
	Equity     float64             `json:"equity"`
	Balance    float64             `json:"balance"`
	Profit     float64             `json:"profit"`
	Timestamp  int64               `json:"timestamp"` // epoch milliseconds
	Prediction strategy.Prediction `json:"prediction"`
}

// Candle is one OHLCV row in a history payload. Time is bar open in Unix
// seconds, which is what the dashboard chart expects.
type Candle struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// HistoryPayload is a batch of bars for one timeframe posted to the
// dashboard's history endpoint.
type HistoryPayload struct {
	Candles   []Candle `json:"candles"`
	Timeframe string   `json:"timeframe"`
}

// toHistory converts a bar series into the dashboard history document.
func toHistory(bars []model.Bar, tf model.Timeframe) HistoryPayload {
	candles := make([]Candle, len(bars))
	for i, b := range bars {
		candles[i] = Candle{
			Time:   b.TS.Unix(),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
	}
	return HistoryPayload{Candles: candles, Timeframe: string(tf)}
}

// payloadJSON marshals a document for the Redis live cache, ignoring errors
// for hot-path usage.
func payloadJSON(v any) []byte {
	data, _ := json.Marshal(v)
	return data
}
