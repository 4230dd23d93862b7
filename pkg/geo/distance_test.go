package geo

import (
	"math"
	"testing"

	"github.com/citypark/platform/pkg/common/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceKnownValue(t *testing.T) {
	km, err := Distance(46.58595805, 0.35129543, 46.57505318, 0.33712631, Kilometers)
	require.NoError(t, err)
	assert.InDelta(t, 1.6256619596830109, km, 1e-9)
}

func TestDistanceIdentity(t *testing.T) {
	points := []models.Position{
		{Latitude: 46.58595805, Longitude: 0.35129543},
		{Latitude: 0, Longitude: 0},
		{Latitude: -89.9999, Longitude: 179.9999},
		{Latitude: 48.8566, Longitude: 2.3522},
	}
	for _, p := range points {
		km, err := Distance(p.Latitude, p.Longitude, p.Latitude, p.Longitude, Kilometers)
		require.NoError(t, err)
		assert.Equal(t, 0.0, km)
	}
}

func TestDistanceIsSymmetric(t *testing.T) {
	ab, err := Distance(46.58595805, 0.35129543, 46.57505318, 0.33712631, Kilometers)
	require.NoError(t, err)
	ba, err := Distance(46.57505318, 0.33712631, 46.58595805, 0.35129543, Kilometers)
	require.NoError(t, err)
	assert.InDelta(t, ab, ba, 1e-12)
}

func TestDistanceAntipodesStayInDomain(t *testing.T) {
	km, err := Distance(0, 0, 0, 180, Kilometers)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(km))
	assert.InDelta(t, 20015, km, 20)
}

func TestDistanceUnits(t *testing.T) {
	for _, unit := range []Unit{Miles, NauticalMiles} {
		_, err := Distance(1, 1, 2, 2, unit)
		require.ErrorIs(t, err, ErrUnitNotImplemented)
	}

	_, err := Distance(1, 1, 2, 2, Unit("X"))
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrUnitNotImplemented)
}

func TestParseUnit(t *testing.T) {
	cases := []struct {
		raw     string
		want    Unit
		wantErr bool
	}{
		{"K", Kilometers, false},
		{"k", Kilometers, false},
		{" m ", Miles, false},
		{"N", NauticalMiles, false},
		{"km", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := ParseUnit(tc.raw)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestInRange(t *testing.T) {
	palais := &models.Position{Latitude: 46.58595805, Longitude: 0.35129543}
	other := &models.Position{Latitude: 46.57505318, Longitude: 0.33712631}

	cases := []struct {
		name     string
		ref      *models.Position
		facility models.Facility
		rangeKm  float64
		want     bool
	}{
		{"exact position with zero range", palais, models.Facility{Position: palais}, 0, true},
		{"exact position with tiny range", palais, models.Facility{Position: palais}, 0.001, true},
		{"within range", palais, models.Facility{Position: other}, 2, true},
		{"range just above the distance", palais, models.Facility{Position: other}, 1.6256619596830109 + 1e-6, true},
		{"out of range", palais, models.Facility{Position: other}, 1.5, false},
		{"facility without position", palais, models.Facility{}, 1e9, false},
		{"no reference position", nil, models.Facility{Position: palais}, 1e9, false},
		{"negative range", palais, models.Facility{Position: palais}, -1, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, InRange(tc.ref, tc.facility, tc.rangeKm))
		})
	}
}
