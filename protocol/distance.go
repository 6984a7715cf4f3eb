package protocol

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

var (
	ErrInvalidDistance     = errors.New("distance must be a non-negative integer number of mils")
	ErrEncodingOverflow    = errors.New("distance remainder outside encodable range")
	ErrInvalidDistanceCode = errors.New("invalid distance code")
)

const (
	// DistanceFullScale is the value of one full-scale marker byte
	DistanceFullScale = 255
	distanceFullMark  = 'z'
	distancePairMark  = '|'

	// Integer tolerance for float inputs
	distanceEpsilon = 0.000001
)

// EncodeDistanceTo encodes a distance in mils to the board's compact form.
//
// Every full 255 mils emit a 'z'. The remainder r is then written as a single
// letter for 1..25 ('a'..'y'), '|' plus a letter for 26..51 and a three digit
// decimal for 52..254. Zero adds nothing.
func EncodeDistanceTo(output OutputBuffer, distance int) error {
	if distance < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDistance, distance)
	}
	for distance >= DistanceFullScale {
		output.Output([]byte{distanceFullMark})
		distance -= DistanceFullScale
	}
	switch {
	case distance == 0:
		return nil
	case distance < 26:
		output.Output([]byte{byte('a' + distance - 1)})
	case distance < 52:
		output.Output([]byte{distancePairMark, byte('a' + distance - 26)})
	case distance < DistanceFullScale:
		output.Output([]byte(fmt.Sprintf("%03d", distance)))
	default:
		// Unreachable after the full-scale loop
		return fmt.Errorf("%w: %d", ErrEncodingOverflow, distance)
	}
	return nil
}

// EncodeDistance is a helper that returns encoded bytes
func EncodeDistance(distance int) ([]byte, error) {
	output := NewScratchOutput()
	if err := EncodeDistanceTo(output, distance); err != nil {
		return nil, err
	}
	return output.Result(), nil
}

// EncodeDistanceFloat encodes a distance given as a float. Device units are
// integral so anything with a fractional part is rejected.
func EncodeDistanceFloat(distance float64) ([]byte, error) {
	if math.IsNaN(distance) || math.IsInf(distance, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDistance, distance)
	}
	rounded := math.Round(distance)
	if math.Abs(distance-rounded) > distanceEpsilon {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDistance, distance)
	}
	return EncodeDistance(int(rounded))
}

// DecodeDistance decodes one distance from the front of data.
// Returns the distance in mils and the number of bytes consumed.
// Decoding stops at the first byte that cannot continue the code.
func DecodeDistance(data []byte) (int, int, error) {
	value := 0
	pos := 0
	for pos < len(data) && data[pos] == distanceFullMark {
		value += DistanceFullScale
		pos++
	}
	if pos >= len(data) {
		return value, pos, nil
	}

	c := data[pos]
	switch {
	case c >= 'a' && c <= 'y':
		return value + int(c-'a') + 1, pos + 1, nil
	case c == distancePairMark:
		if pos+1 >= len(data) || data[pos+1] < 'a' || data[pos+1] > 'z' {
			return 0, 0, fmt.Errorf("%w: dangling '|' at %d", ErrInvalidDistanceCode, pos)
		}
		return value + int(data[pos+1]-'a') + 26, pos + 2, nil
	case c >= '0' && c <= '9':
		if pos+3 > len(data) {
			return 0, 0, fmt.Errorf("%w: short decimal at %d", ErrInvalidDistanceCode, pos)
		}
		n, err := strconv.Atoi(string(data[pos : pos+3]))
		if err != nil || n >= DistanceFullScale {
			return 0, 0, fmt.Errorf("%w: bad decimal %q", ErrInvalidDistanceCode, data[pos:pos+3])
		}
		return value + n, pos + 3, nil
	}
	return value, pos, nil
}
