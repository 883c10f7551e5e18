// Package bittiming derives CAN bit-timing register values from a reference
// clock and a target bitrate. The bit period is divided into time quanta; one
// quantum for synchronization, Seg1 quanta up to the sample point and Seg2
// quanta after it. A solution is only accepted when the clock divides into
// the target bitrate without remainder, never approximated.
package bittiming

import "errors"

var ErrInvalidTiming = errors.New("no valid bit timing for clock/bitrate combination")

const (
	// Search range for quanta per bit. Hardware limits Seg1 to 16 and Seg2
	// to 8 quanta; fewer than 10 quanta per bit puts the sample point
	// resolution outside what the 75-87.5% window can express.
	minQuanta = 10
	maxQuanta = 17

	maxPrescaler = 1024
)

// Timing holds the resolved bit-timing parameters.
// Quanta per bit = 1 (sync) + Seg1 + Seg2.
type Timing struct {
	Prescaler uint16
	Seg1      uint8 // propagation + phase 1, quanta before the sample point
	Seg2      uint8 // phase 2, quanta after the sample point
	SJW       uint8 // synchronization jump width
}

// Quanta returns the number of time quanta in one bit period.
func (t Timing) Quanta() int {
	return 1 + int(t.Seg1) + int(t.Seg2)
}

// SamplePoint returns the position of the sample point as a fraction of the
// bit period.
func (t Timing) SamplePoint() float64 {
	return float64(1+int(t.Seg1)) / float64(t.Quanta())
}

// Bitrate returns the effective bitrate this timing yields at the given
// reference clock.
func (t Timing) Bitrate(clockHz uint32) uint32 {
	return clockHz / (uint32(t.Prescaler) * uint32(t.Quanta()))
}

// Resolve computes a Timing such that prescaler * quanta == clockHz/bitrateHz
// exactly and the sample point falls within 75-87.5% of the bit period.
// Preference goes to higher quanta counts for finer sample point placement.
func Resolve(clockHz, bitrateHz uint32) (Timing, error) {
	if bitrateHz == 0 || clockHz == 0 || clockHz%bitrateHz != 0 {
		return Timing{}, ErrInvalidTiming
	}
	ratio := clockHz / bitrateHz

	for quanta := uint32(maxQuanta); quanta >= minQuanta; quanta-- {
		if ratio%quanta != 0 {
			continue
		}
		prescaler := ratio / quanta
		if prescaler > maxPrescaler {
			continue
		}
		// Sample at 87.5% or the nearest quantum boundary below it.
		seg1 := quanta*875/1000 - 1
		seg2 := quanta - 1 - seg1
		if seg1 > 16 || seg2 < 1 || seg2 > 8 {
			continue
		}
		t := Timing{
			Prescaler: uint16(prescaler),
			Seg1:      uint8(seg1),
			Seg2:      uint8(seg2),
			SJW:       1,
		}
		sp := t.SamplePoint()
		if sp < 0.75 || sp > 0.875 {
			continue
		}
		return t, nil
	}
	return Timing{}, ErrInvalidTiming
}
