package http

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/couchcryptid/issue-locator/internal/domain"
	"github.com/go-playground/validator/v10"
)

type reverseQuery struct {
	Lat string `query:"lat" validate:"required,latitude"`
	Lon string `query:"lon" validate:"required,longitude"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("query")
	})
	return v
}

func (s *Server) handleReverse(w http.ResponseWriter, r *http.Request) {
	q := reverseQuery{
		Lat: strings.TrimSpace(r.URL.Query().Get("lat")),
		Lon: strings.TrimSpace(r.URL.Query().Get("lon")),
	}
	if err := s.validate.Struct(q); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	lat, latErr := strconv.ParseFloat(q.Lat, 64)
	lon, lonErr := strconv.ParseFloat(q.Lon, 64)
	if err := errors.Join(latErr, lonErr); err != nil {
		writeError(w, http.StatusBadRequest, "lat and lon must be decimal numbers")
		return
	}

	coord, err := domain.NewCoordinate(lat, lon)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.geocoder.ReverseGeocode(r.Context(), coord)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidLatitude) || errors.Is(err, domain.ErrInvalidLongitude) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Warn("reverse geocode failed", "lat", lat, "lon", lon, "error", err)
		writeError(w, http.StatusBadGateway, "unable to resolve address")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "latitude":
			msgs = append(msgs, fmt.Sprintf("%s must be a latitude between -90 and 90", fe.Field()))
		case "longitude":
			msgs = append(msgs, fmt.Sprintf("%s must be a longitude between -180 and 180", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return strings.Join(msgs, "; ")
}
