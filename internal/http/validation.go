package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/availability"
)

const dateLayout = "2006-01-02"

// requestDecoder decodes JSON bodies and validates the resulting DTO using its
// `validate` struct tags. Field names in validation errors follow the json tags.
type requestDecoder struct {
	validate *validator.Validate
}

func newRequestDecoder() requestDecoder {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// Times use timeofday rather than datetime=15:04, which accepts "9:00" and rejects "24:00".
	_ = v.RegisterValidation("timeofday", func(fl validator.FieldLevel) bool {
		_, err := availability.ParseTimeOfDay(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		_, ok := availability.ParseWeekday(fl.Field().String())
		return ok
	})
	return requestDecoder{validate: v}
}

// decode reads r's body into dst. Malformed JSON yields errBadRequestBody; tag
// violations yield *application.ValidationError.
func (d requestDecoder) decode(r *http.Request, dst any) error {
	if r.Body == nil {
		return errBadRequestBody
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequestBody, err)
	}
	return d.check(dst)
}

// check validates an already populated DTO, e.g. one built from query parameters.
func (d requestDecoder) check(dst any) error {
	if d.validate == nil {
		return nil
	}
	err := d.validate.Struct(dst)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	vErr := &application.ValidationError{FieldErrors: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		vErr.FieldErrors[fe.Field()] = fieldMessage(fe)
	}
	return vErr
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gt":
		return "must be greater than " + fe.Param()
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "datetime":
		if fe.Param() == dateLayout {
			return "must be a date in YYYY-MM-DD format"
		}
		return "must match the layout " + fe.Param()
	case "timeofday":
		return "must be a time between 00:00 and 24:00 in HH:MM format"
	case "weekday":
		return "must be a weekday name such as monday or an ISO number from 1 to 7"
	default:
		return "is invalid"
	}
}

// writeDecodeError reports a decode failure as 400 for malformed bodies and
// through the service error mapping otherwise.
func (r responder) writeDecodeError(w http.ResponseWriter, req *http.Request, err error) {
	if errors.Is(err, errBadRequestBody) {
		r.writeError(req.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	r.handleServiceError(req.Context(), w, err)
}

// fieldParseError reports a value the validator accepted but the domain parser rejected.
func fieldParseError(field, message string) error {
	return &application.ValidationError{FieldErrors: map[string]string{field: message}}
}

func decodeErrorKind(err error) string {
	if errors.Is(err, errBadRequestBody) {
		return "bad_request"
	}
	return application.ErrorKind(err)
}
