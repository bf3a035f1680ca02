package indicator

import "goldsys/internal/model"

// VolumeRatio calculates the ratio of the current bar's volume to its
// trailing mean over the window (current bar included). A ratio above 1
// means participation is running hotter than recent average.
// Uses a preallocated circular buffer for zero-allocation updates.
type VolumeRatio struct {
	period  int
	buf     []float64 // preallocated circular buffer
	idx     int       // current write position
	count   int       // total values received
	sum     float64
	current float64
}

// NewVolumeRatio creates a volume ratio indicator with the given window.
func NewVolumeRatio(period int) *VolumeRatio {
	return &VolumeRatio{
		period: period,
		buf:    make([]float64, period),
	}
}

func (v *VolumeRatio) Name() string { return "VOL_RATIO_" + itoa(v.period) }

func (v *VolumeRatio) Update(bar model.Bar) {
	vol := bar.Volume

	if v.count >= v.period {
		// Subtract the oldest value being overwritten
		v.sum -= v.buf[v.idx]
	}

	v.buf[v.idx] = vol
	v.sum += vol
	v.idx = (v.idx + 1) % v.period
	v.count++

	if v.count >= v.period {
		mean := v.sum / float64(v.period)
		if mean > 0 {
			v.current = vol / mean
		} else {
			v.current = 0
		}
	}
}

func (v *VolumeRatio) Value() float64 { return v.current }
func (v *VolumeRatio) Ready() bool    { return v.count >= v.period }
