package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCostScaling(t *testing.T) {
	assert.Equal(t, 2500, scaleCost(2.5))
	assert.Equal(t, 2501, scaleCost(2.5009))
	assert.Equal(t, 3, scaleCost(0.0025))

	assert.Equal(t, 2.5, unscaleCost(2500))
	assert.Equal(t, 0.001, unscaleCost(1))
}
