package handler

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/SantiagoDeStefano/ml-ops/internal/domain/service"
)

var registerOnce sync.Once

// RegisterJSONFieldNames makes validation errors report JSON field names
// instead of Go struct field names
func RegisterJSONFieldNames() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(jsonFieldName)
	})
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

// validationReasons maps validator tags to client-facing reasons
var validationReasons = map[string]string{
	"required": "field required",
}

// BindingError converts a request binding failure into a ValidationError
func BindingError(err error) *service.ValidationError {
	var (
		fieldErrs validator.ValidationErrors
		typeErr   *json.UnmarshalTypeError
		syntaxErr *json.SyntaxError
	)

	switch {
	case errors.As(err, &fieldErrs) && len(fieldErrs) > 0:
		fe := fieldErrs[0]
		reason, ok := validationReasons[fe.Tag()]
		if !ok {
			reason = "failed on " + fe.Tag() + " rule"
		}
		return &service.ValidationError{Field: fe.Field(), Reason: reason}
	case errors.As(err, &typeErr):
		if typeErr.Field == "" {
			return &service.ValidationError{Field: "body", Reason: "expected object"}
		}
		return &service.ValidationError{Field: typeErr.Field, Reason: "expected " + typeErr.Type.String()}
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return &service.ValidationError{Field: "body", Reason: "invalid JSON"}
	case errors.Is(err, io.EOF):
		return &service.ValidationError{Field: "body", Reason: "field required"}
	default:
		return &service.ValidationError{Field: "body", Reason: err.Error()}
	}
}
