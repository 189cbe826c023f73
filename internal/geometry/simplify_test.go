package geometry

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestSimplifyLine(t *testing.T) {
	line := orb.LineString{
		{-105.29, 39.99},
		{-105.285, 39.990001}, // well under a 5 m tolerance
		{-105.28, 39.99},
	}

	got := SimplifyLine(line, 5.0)
	assert.Len(t, got, 2)
	assert.Equal(t, line[0], got[0])
	assert.Equal(t, line[2], got[1])

	// Zero tolerance and short lines pass through untouched.
	assert.Len(t, SimplifyLine(line, 0), 3)
	short := orb.LineString{{-105.29, 39.99}, {-105.28, 39.99}}
	assert.Len(t, SimplifyLine(short, 5.0), 2)

	// The input is not mutated.
	assert.Len(t, line, 3)
}
