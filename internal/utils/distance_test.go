package utils_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"swiftserve/internal/utils"
)

func TestCalculateDistance(t *testing.T) {
	tests := []struct {
		name       string
		lat1, lon1 float64
		lat2, lon2 float64
		wantKM     float64
		deltaKM    float64
	}{
		{
			name: "same point",
			lat1: 40.7128, lon1: -74.0060,
			lat2: 40.7128, lon2: -74.0060,
			wantKM:  0,
			deltaKM: 0.001,
		},
		{
			name: "paris to london",
			lat1: 48.8566, lon1: 2.3522,
			lat2: 51.5074, lon2: -0.1278,
			wantKM:  343.5,
			deltaKM: 3,
		},
		{
			name: "across the date line",
			lat1: 0, lon1: 179.5,
			lat2: 0, lon2: -179.5,
			wantKM:  111.2,
			deltaKM: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := utils.CalculateDistance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.wantKM, got, tt.deltaKM)
		})
	}
}

func TestCalculateETA(t *testing.T) {
	t.Run("zero distance", func(t *testing.T) {
		eta := utils.CalculateETA(40.0, -74.0, 40.0, -74.0, 30)
		assert.Equal(t, 0, eta.Minutes)
		assert.Equal(t, 0.0, eta.DistanceMeters)
	})

	t.Run("minutes grow with distance", func(t *testing.T) {
		near := utils.CalculateETA(40.0, -74.0, 40.01, -74.0, 30)
		far := utils.CalculateETA(40.0, -74.0, 40.1, -74.0, 30)
		assert.Greater(t, far.Minutes, near.Minutes)
		assert.Greater(t, far.DistanceMeters, near.DistanceMeters)
	})

	t.Run("non-positive speed falls back to default", func(t *testing.T) {
		withDefault := utils.CalculateETA(40.0, -74.0, 40.1, -74.0, utils.DefaultDriverSpeedKMH)
		withZero := utils.CalculateETA(40.0, -74.0, 40.1, -74.0, 0)
		assert.Equal(t, withDefault, withZero)
	})

	t.Run("traffic buffer is applied", func(t *testing.T) {
		// ~11.1 km due north at 30 km/h is 22.2 minutes raw; the 20%
		// buffer pushes it past 26.
		eta := utils.CalculateETA(40.0, -74.0, 40.1, -74.0, 30)
		assert.GreaterOrEqual(t, eta.Minutes, 26)
		assert.LessOrEqual(t, eta.Minutes, 28)
	})
}

func TestEstimateETAMinutes(t *testing.T) {
	assert.Equal(t, 60, utils.EstimateETAMinutes(30, 30))
	assert.Equal(t, 1, utils.EstimateETAMinutes(0.1, 30))
	// Rounds up, never down.
	assert.Equal(t, 3, utils.EstimateETAMinutes(1.2, 30))
}

func TestIsWithinRadius(t *testing.T) {
	center := [2]float64{40.7128, -74.0060}
	assert.True(t, utils.IsWithinRadius(center[0], center[1], 40.7138, -74.0070, 1))
	assert.False(t, utils.IsWithinRadius(center[0], center[1], 41.0, -74.0, 1))
}

func TestCalculateBearing(t *testing.T) {
	assert.InDelta(t, 0, utils.CalculateBearing(0, 0, 1, 0), 0.5)
	assert.InDelta(t, 90, utils.CalculateBearing(0, 0, 0, 1), 0.5)
	assert.InDelta(t, 180, utils.CalculateBearing(1, 0, 0, 0), 0.5)
	assert.InDelta(t, 270, utils.CalculateBearing(0, 1, 0, 0), 0.5)
}
