package strategy

import "fmt"

// Prediction is the per-tick strategy assessment pushed to the dashboard.
// Field names mirror the dashboard's tick payload contract.
type Prediction struct {
	Status    string  `json:"status"` // LONG, SHORT, NEUTRAL
	Long      float64 `json:"long"`
	LongHold  float64 `json:"long_hold"`
	Short     float64 `json:"short"`
	ShortHold float64 `json:"short_hold"`
	Flat      float64 `json:"flat"`
	Neutral   float64 `json:"neutral"`
	Analysis  string  `json:"analysis"`
}

// NeutralPrediction is the assessment when no evaluation could run.
func NeutralPrediction() Prediction {
	return Prediction{
		Status:   None.String(),
		Neutral:  100,
		Analysis: "No signal detected.",
	}
}

// BuildPrediction converts the latest bar's signal state into the dashboard
// assessment. When neutral, the analysis string explains which gate blocked
// the signal so the dashboard shows the bot is waiting, not stuck.
func BuildPrediction(kind Kind, volRatio float64, volOK, inSession bool, window string) Prediction {
	switch kind {
	case Long:
		return Prediction{
			Status: Long.String(), Long: 85, Neutral: 15,
			Analysis: fmt.Sprintf("Institutional BUY detected. Vol Ratio: %.2f", volRatio),
		}
	case Short:
		return Prediction{
			Status: Short.String(), Short: 85, Neutral: 15,
			Analysis: fmt.Sprintf("Institutional SELL detected. Vol Ratio: %.2f", volRatio),
		}
	}

	p := NeutralPrediction()
	switch {
	case !inSession:
		p.Analysis = fmt.Sprintf("Waiting for the %s session window.", window)
	case volOK && volRatio <= VolumeThreshold:
		p.Analysis = fmt.Sprintf("Session active but volume low (%.2fx). Waiting for an institutional surge.", volRatio)
	default:
		p.Analysis = "Monitoring the 4H high/low for a breakout."
	}
	return p
}
