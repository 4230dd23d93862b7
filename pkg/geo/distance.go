package geo

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/citypark/platform/pkg/common/models"
)

type Unit string

const (
	Kilometers    Unit = "K"
	Miles         Unit = "M"
	NauticalMiles Unit = "N"
)

var ErrUnitNotImplemented = errors.New("distance unit not implemented")

// ParseUnit accepts the unit tags K, M and N in any case.
func ParseUnit(raw string) (Unit, error) {
	switch u := Unit(strings.ToUpper(strings.TrimSpace(raw))); u {
	case Kilometers, Miles, NauticalMiles:
		return u, nil
	default:
		return "", fmt.Errorf("unknown distance unit %q", raw)
	}
}

// Distance returns the great-circle distance between two points given in
// decimal degrees, using the spherical law of cosines. Only kilometers are
// supported for now.
func Distance(lat1, lon1, lat2, lon2 float64, unit Unit) (float64, error) {
	if unit != Kilometers {
		if unit == Miles || unit == NauticalMiles {
			return 0, fmt.Errorf("%w: %s", ErrUnitNotImplemented, unit)
		}
		return 0, fmt.Errorf("unknown distance unit %q", unit)
	}
	if lat1 == lat2 && lon1 == lon2 {
		return 0, nil
	}

	theta := lon1 - lon2
	d := math.Sin(deg2rad(lat1))*math.Sin(deg2rad(lat2)) +
		math.Cos(deg2rad(lat1))*math.Cos(deg2rad(lat2))*math.Cos(deg2rad(theta))
	// Rounding can push d slightly outside acos' domain.
	d = math.Max(-1, math.Min(1, d))
	d = rad2deg(math.Acos(d))

	miles := d * 60 * 1.1515
	return miles * 1.609344, nil
}

// InRange reports whether the facility lies within rangeKm kilometers of ref.
// A missing position on either side excludes the facility.
func InRange(ref *models.Position, facility models.Facility, rangeKm float64) bool {
	if ref == nil || facility.Position == nil {
		return false
	}
	km, err := Distance(ref.Latitude, ref.Longitude, facility.Position.Latitude, facility.Position.Longitude, Kilometers)
	if err != nil {
		return false
	}
	return km <= rangeKm
}

func deg2rad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

func rad2deg(rad float64) float64 {
	return rad * 180.0 / math.Pi
}
