package model

// Side is the direction of an open or closed position.
// An explicit enum instead of a signed numeric convention; sign tricks in
// signal columns are a standing source of bugs.
type Side int

const (
	Long Side = iota
	Short
)

func (s Side) String() string {
	if s == Short {
		return "SELL"
	}
	return "BUY"
}
