package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"stayfinder-service/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("amenity", func(fl validator.FieldLevel) bool {
		return domain.IsAmenity(fl.Field().String())
	})
	return v
}

// validationError reports the first failing field in client terms.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.InvalidRequest(err.Error())
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return domain.InvalidRequest(fmt.Sprintf("%s is required", fe.Field()))
	case "amenity":
		return domain.InvalidRequest(fmt.Sprintf("%q is not a supported amenity", fe.Value()))
	case "max", "min":
		return domain.InvalidRequest(fmt.Sprintf("%s must have %s %s", fe.Field(), tagBound(fe.Tag()), fe.Param()))
	default:
		return domain.InvalidRequest(fmt.Sprintf("Invalid value for %s", fe.Field()))
	}
}

func tagBound(tag string) string {
	if tag == "max" {
		return "at most"
	}
	return "at least"
}
