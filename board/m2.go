package board

import (
	"fmt"
	"math"
)

const (
	// Gearing of the M2 stepper clock; slow speeds use the low gear
	m2SlowB     = 255.97
	m2SlowM     = 100.21
	m2FastB     = 236.0
	m2FastM     = 1202.5
	m2SlowLimit = 7.0

	// MaxVectorSpeed is the fastest vector speed the M2 accepts. Faster
	// requests fall back to VectorFallbackSpeed.
	MaxVectorSpeed      = 240.0
	VectorFallbackSpeed = 19.05

	// MinSpeed keeps the encoded period positive in the low gear
	MinSpeed = 0.4

	DefaultDiagonalRatio = 0.261199033289
	maxStepValue         = 128
)

// M2 is the speed table of the LASER-M2 board.
//
// Raster codes and the speed and step fields of vector codes match codes
// captured from the stock software. The trailing diagonal correction field
// of vector codes has not been checked against a board.
type M2 struct {
	// DiagonalRatio scales the diagonal correction term of vector speeds
	DiagonalRatio float64
}

// NewM2 creates an M2 speed table with the stock diagonal ratio
func NewM2() *M2 {
	return &M2{DiagonalRatio: DefaultDiagonalRatio}
}

// MakeSpeed encodes speed (mm/s). A non-zero step yields a raster speed with
// harmonic step correction, otherwise a vector cut speed.
func (b *M2) MakeSpeed(speed float64, step int) SpeedCode {
	return ParseSpeedCode([]byte(b.speedText(speed, step)))
}

func (b *M2) speedText(speed float64, step int) string {
	if speed > MaxVectorSpeed && step == 0 {
		speed = VectorFallbackSpeed
	}
	if speed < MinSpeed {
		speed = MinSpeed
	}

	base, slope := m2FastB, m2FastM
	if speed < m2SlowLimit {
		base, slope = m2SlowB, m2SlowM
	}

	v := base - slope/speed
	c1 := math.Floor(v)
	c2 := math.Floor((v - c1) * 255.0)
	speedValue := fmt.Sprintf("%03d%03d", int(c1), int(c2))

	if step != 0 {
		return fmt.Sprintf("V%s1G%03d", speedValue, step)
	}

	stepValue := int(math.Floor(speed/2)) + 1
	if stepValue > maxStepValue {
		stepValue = maxStepValue
	}
	diagonal := int(b.DiagonalRatio*slope*256/speed) / stepValue
	diagonal &= 0xFFFF
	return fmt.Sprintf("CV%s1%03d%03d%03dC", speedValue, stepValue, diagonal>>8, diagonal&0xFF)
}
