package tokenize

import (
	"fmt"
	"strings"

	"github.com/cognicore/docdeid/pkg/docdeid/internalerr"
)

// Direction is the order in which tokens or pattern positions are visited.
type Direction int

const (
	Left  Direction = -1
	Right Direction = 1
)

// ParseDirection accepts "left" or "right" in any case.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(s) {
	case "LEFT":
		return Left, nil
	case "RIGHT":
		return Right, nil
	}
	return 0, &internalerr.ValidationError{Message: fmt.Sprintf("Invalid direction: '%s'", s)}
}

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction { return -d }

// Indices returns 0..n-1 in this direction.
func (d Direction) Indices(n int) []int {
	out := make([]int, n)
	for i := range out {
		if d == Left {
			out[i] = n - 1 - i
		} else {
			out[i] = i
		}
	}
	return out
}

func (d Direction) String() string {
	if d == Left {
		return "left"
	}
	return "right"
}
