package citymanager

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrCityConfigNotFound      = errors.New("city configuration not found")
	ErrCityConfigAlreadyExists = errors.New("city configuration already exists")
)

// CityError ties one of the sentinel errors above to the city it concerns.
type CityError struct {
	City string
	Err  error
}

func (e *CityError) Error() string {
	if errors.Is(e.Err, ErrCityConfigAlreadyExists) {
		return fmt.Sprintf("City configuration already exists for city %s", e.City)
	}
	return fmt.Sprintf("No city configuration found for city %s", e.City)
}

func (e *CityError) Unwrap() error { return e.Err }

func notFound(city string) error {
	return &CityError{City: city, Err: ErrCityConfigNotFound}
}

func alreadyExists(city string) error {
	return &CityError{City: city, Err: ErrCityConfigAlreadyExists}
}

// ValidationError lists every problem found in a configuration document.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid city configuration: " + strings.Join(e.Problems, "; ")
}
