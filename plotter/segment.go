package plotter

// Axis names a straight run direction
type Axis int

const (
	AxisX Axis = iota
	AxisY
)

func (a Axis) String() string {
	if a == AxisX {
		return "x"
	}
	return "y"
}

// Runs receives the output of SegmentLine
type Runs interface {
	// Straight is a signed run of n mils along one axis
	Straight(axis Axis, n int)

	// Diagonal is a 45 degree run, |dx| == |dy|
	Diagonal(dx, dy int)
}

// SegmentLine decomposes the relative move (dx, dy) into alternating straight
// and diagonal runs using Bresenham's line algorithm on integers only.
// Consecutive unit steps of the same kind are merged into one run, so the
// straight runs are always along the major axis. The runs sum to (dx, dy).
func SegmentLine(dx, dy int, runs Runs) {
	stepX, stepY := 1, 1
	if dx < 0 {
		dx = -dx
		stepX = -1
	}
	if dy < 0 {
		dy = -dy
		stepY = -1
	}

	// Walk the major axis. The doubled error decides per unit step whether
	// the minor axis advances too.
	major, minor, axis, step := dx, dy, AxisX, stepX
	if dy >= dx {
		major, minor, axis, step = dy, dx, AxisY, stepY
	}

	straight, diagonal := 0, 0
	fraction := 2*minor - major
	for i := 0; i < major; i++ {
		if fraction >= 0 {
			fraction -= 2 * major
			if straight != 0 {
				runs.Straight(axis, straight*step)
				straight = 0
			}
			diagonal++
		} else {
			if diagonal != 0 {
				runs.Diagonal(diagonal*stepX, diagonal*stepY)
				diagonal = 0
			}
			straight++
		}
		fraction += 2 * minor
	}

	if straight != 0 {
		runs.Straight(axis, straight*step)
	}
	if diagonal != 0 {
		runs.Diagonal(diagonal*stepX, diagonal*stepY)
	}
}
