package noaa

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var stationIDPattern = regexp.MustCompile(`^\d{6}-\d{5}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation("stationid", func(fl validator.FieldLevel) bool {
		return stationIDPattern.MatchString(fl.Field().String())
	})
	return v
}

// Messages maps "Field.tag" to the message reported when that constraint fails.
type Messages map[string]string

// Check validates req with its `validate` struct tags. Failures are returned wrapping
// ErrInvalidInput with the message registered for each violated constraint.
func Check(req any, messages Messages) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
			msgs = append(msgs, msg)
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s failed constraint %q", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(msgs, "; "))
}

type stationsRequest struct {
	Country string `validate:"alpha,len=2"`
}

var stationsMessages = Messages{
	"Country.alpha": "invalid country parameter: parameter should be a string",
	"Country.len":   "invalid country parameter: parameter should be length 2",
}

type observationsRequest struct {
	StationID string `validate:"stationid"`
	Year      int    `validate:"gt=0"`
}

var observationsMessages = Messages{
	"StationID.stationid": `invalid station number: should match ^\d{6}-\d{5}$ (e.g. 010015-99999)`,
	"Year.gt":             "invalid year: should be a positive integer",
}

// ValidateCountry checks a country filter: the wildcard "all" or a two-letter code.
func ValidateCountry(country string) error {
	if strings.EqualFold(country, AllCountries) {
		return nil
	}
	return Check(stationsRequest{Country: country}, stationsMessages)
}

// ValidateStationYear checks a station id and year pair.
func ValidateStationYear(stationID string, year int) error {
	return Check(observationsRequest{StationID: stationID, Year: year}, observationsMessages)
}
