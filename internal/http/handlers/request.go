package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/yuirsilva/deadline-daddy/internal/auth"
	"github.com/yuirsilva/deadline-daddy/internal/http/respond"
	"github.com/yuirsilva/deadline-daddy/internal/models"
	"github.com/yuirsilva/deadline-daddy/internal/payment"
	"github.com/yuirsilva/deadline-daddy/internal/storage"
)

const maxBodyBytes = 1 << 20

// encoding/json has no typed error for DisallowUnknownFields.
const unknownFieldPrefix = "json: unknown field "

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads a JSON body into dst and runs struct validation. Keys outside
// dst's schema are rejected. On failure it writes a 400 response and returns false.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			respond.Fields(w, "invalid request body", map[string]string{typeErr.Field: "has invalid type"})
			return false
		}
		if field, ok := strings.CutPrefix(err.Error(), unknownFieldPrefix); ok {
			respond.Fields(w, "invalid request body", map[string]string{strings.Trim(field, `"`): "is not allowed"})
			return false
		}
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			respond.Error(w, http.StatusBadRequest, "invalid request body")
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = describe(fe)
		}
		respond.Fields(w, "invalid request body", fields)
		return false
	}
	return true
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "min":
		return fmt.Sprintf("must be at least %s characters long", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters long", fe.Param())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

func userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := auth.UserID(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
	}
	return id, ok
}

// writeError maps domain errors onto HTTP statuses. Anything unrecognised is
// logged and reported as a 500 without detail.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		respond.Fields(w, verr.Error(), map[string]string{verr.Field: verr.Message})
	case errors.Is(err, models.ErrUnauthorized):
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, storage.ErrNotFound):
		respond.Error(w, http.StatusNotFound, "not found")
	case errors.Is(err, models.ErrTaskFinalized), errors.Is(err, storage.ErrAlreadyExists):
		respond.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrInsufficientFunds), errors.Is(err, models.ErrProfileIncomplete):
		respond.Error(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, payment.ErrProvider):
		log.Error("payment provider error", zap.Error(err))
		respond.Error(w, http.StatusBadGateway, "payment provider unavailable")
	default:
		log.Error("request failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
