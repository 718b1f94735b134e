// SPDX-License-Identifier: GPL-3.0-or-later

package backoff_test

import (
	"testing"

	"github.com/svxlink-go/asynclink/backoff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextGrowsTowardMax(t *testing.T) {
	p := backoff.New(100, 1000, 100, 0) // no jitter, doubles each time
	require.Equal(t, int64(100), p.CurrentMs())

	d1 := p.Next()
	assert.Equal(t, int64(100), d1)
	assert.Equal(t, int64(200), p.CurrentMs())

	d2 := p.Next()
	assert.Equal(t, int64(200), d2)
	assert.Equal(t, int64(400), p.CurrentMs())
}

func TestNextClampsToMax(t *testing.T) {
	p := backoff.New(100, 150, 100, 0)
	p.Next()
	assert.Equal(t, int64(150), p.CurrentMs())
	p.Next()
	assert.Equal(t, int64(150), p.CurrentMs(), "stays clamped at max")
}

func TestNextAdvancesByAtLeastOneMillisecond(t *testing.T) {
	p := backoff.New(1, 1000, 0, 0) // backoffPct 0 would stall without the floor-of-1 rule
	p.Next()
	assert.Equal(t, int64(2), p.CurrentMs())
}

func TestResetReturnsToMin(t *testing.T) {
	p := backoff.New(100, 1000, 100, 0)
	p.Next()
	p.Next()
	require.NotEqual(t, int64(100), p.CurrentMs())

	p.Reset()
	assert.Equal(t, int64(100), p.CurrentMs())
}

func TestNextIncludesJitterWithinBounds(t *testing.T) {
	p := backoff.New(1000, 10000, 100, 50)
	for i := 0; i < 50; i++ {
		p2 := backoff.New(1000, 10000, 100, 50)
		d := p2.Next()
		assert.GreaterOrEqual(t, d, int64(1000))
		assert.LessOrEqual(t, d, int64(1500))
	}
	_ = p
}
