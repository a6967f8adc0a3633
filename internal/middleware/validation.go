package middleware

import (
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apierrors "siteoutage/internal/errors"
	"siteoutage/internal/outage"
)

// RequestValidator validates decoded request forms using struct tags.
type RequestValidator struct {
	validator *validator.Validate
	logger    *slog.Logger
}

// NewRequestValidator creates a validator with the outage date rule
// registered and field names taken from the form tags.
func NewRequestValidator(logger *slog.Logger) *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterValidation("outagedate", isOutageDate)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"form", "json"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	return &RequestValidator{
		validator: v,
		logger:    logger.With(slog.String("component", "request_validator")),
	}
}

// ValidateStruct returns validator.ValidationErrors for an invalid struct.
func (v *RequestValidator) ValidateStruct(s interface{}) error {
	err := v.validator.Struct(s)
	if err != nil {
		v.logger.Debug("request validation failed", slog.String("error", err.Error()))
	}
	return err
}

// isOutageDate accepts any layout the aggregator can parse.
func isOutageDate(fl validator.FieldLevel) bool {
	_, err := outage.ParseDate(fl.Field().String())
	return err == nil
}

// ContentTypeValidator ensures requests have proper content type
func ContentTypeValidator(errorHandler *apierrors.ErrorHandler, contentTypes ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			for _, allowed := range contentTypes {
				if strings.HasPrefix(contentType, allowed) {
					next.ServeHTTP(w, r)
					return
				}
			}

			errorHandler.HandleError(w, r, apierrors.NewWithDetails(
				http.StatusUnsupportedMediaType,
				apierrors.CodeUnsupportedMedia,
				"Unsupported content type",
				map[string]interface{}{
					"content_type": contentType,
					"allowed":      contentTypes,
				},
			))
		})
	}
}
