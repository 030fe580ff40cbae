package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/pageza/saveurs/backend/internal/logging"
	"github.com/pageza/saveurs/backend/internal/middleware"
	"github.com/pageza/saveurs/backend/internal/model"
	"github.com/pageza/saveurs/backend/internal/service"
)

// StatusClientClosedRequest is answered when the caller went away mid-search
const StatusClientClosedRequest = 499

// Error codes carried in the "code" field of error bodies
const (
	CodeInvalidRequest     = "invalid_request"
	CodeCatalogUnavailable = "catalog_unavailable"
	CodeSearchUnavailable  = "search_unavailable"
	CodeCancelled          = "request_cancelled"
	CodeInternal           = "internal_error"
)

var errInvalidBody = errors.New("invalid request body")

// respondError maps service and binding errors to the JSON error shape.
// Every handler goes through here so status codes stay consistent.
func respondError(c *gin.Context, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		logging.Ctx(c.Request.Context()).Error().Err(err).Str("code", body.Code).Msg("request failed")
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

func classify(err error) (int, middleware.ErrorResponse) {
	var (
		verrs validator.ValidationErrors
		typed *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &verrs):
		return http.StatusBadRequest, middleware.ErrorResponse{Error: validationMessage(verrs), Code: CodeInvalidRequest}
	case errors.As(err, &typed):
		return http.StatusBadRequest, middleware.ErrorResponse{
			Error: fmt.Sprintf("%s must be %s", typed.Field, typed.Type),
			Code:  CodeInvalidRequest,
		}
	case errors.Is(err, errInvalidBody):
		return http.StatusBadRequest, middleware.ErrorResponse{Error: "request body is not valid JSON", Code: CodeInvalidRequest}
	case errors.Is(err, model.ErrInvalidLocale):
		return http.StatusBadRequest, middleware.ErrorResponse{Error: "locale must be fr or en", Code: CodeInvalidRequest}
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, middleware.ErrorResponse{Error: "request cancelled", Code: CodeCancelled}
	case errors.Is(err, service.ErrCatalogUnavailable):
		return http.StatusServiceUnavailable, middleware.ErrorResponse{
			Error:     "ingredient list could not be loaded",
			Code:      CodeCatalogUnavailable,
			Retryable: true,
		}
	case errors.Is(err, service.ErrSearchUnavailable), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, middleware.ErrorResponse{
			Error:     "recipe search is temporarily unavailable",
			Code:      CodeSearchUnavailable,
			Retryable: true,
		}
	default:
		return http.StatusInternalServerError, middleware.ErrorResponse{Error: "Internal Server Error", Code: CodeInternal}
	}
}

func validationMessage(verrs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := jsonName(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s", field, fe.Param()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		case "gt":
			msgs = append(msgs, fmt.Sprintf("%s must be greater than %s", field, fe.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of %s", field, strings.ReplaceAll(fe.Param(), " ", ", ")))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid (%s)", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// jsonName turns a struct field name such as IngredientIDs[2] into its wire
// name ingredientIds[2].
func jsonName(field string) string {
	name, index, _ := strings.Cut(field, "[")
	if index != "" {
		index = "[" + index
	}
	switch name {
	case "IngredientIDs":
		name = "ingredientIds"
	case "MinPercentage":
		name = "minPercentage"
	default:
		name = strings.ToLower(name[:1]) + name[1:]
	}
	return name + index
}
