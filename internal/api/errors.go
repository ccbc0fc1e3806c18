package api

import (
	"errors"
	"net/http"

	"txn-api/internal/domain"
)

// httpStatusFromDomainError maps domain errors to HTTP status codes.
func httpStatusFromDomainError(err error) int {
	var notFound *domain.NotFoundError
	var validation *domain.ValidationError
	var compat *domain.SchemaCompatibilityError
	var dbErr *domain.DatabaseError

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &compat):
		return http.StatusConflict
	case domain.IsQueryBuildError(err):
		return http.StatusBadRequest
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &dbErr) && dbErr.Timeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// errorKind returns the machine-readable error name used in error bodies.
func errorKind(err error) string {
	var notFound *domain.NotFoundError
	var validation *domain.ValidationError
	var compat *domain.SchemaCompatibilityError
	var dbErr *domain.DatabaseError
	var qb domain.QueryBuildError

	switch {
	case errors.As(err, &notFound):
		return "not_found"
	case errors.As(err, &compat):
		return "schema_compatibility_error"
	case errors.As(err, &qb):
		return qb.Kind()
	case errors.As(err, &validation):
		return "validation_error"
	case errors.As(err, &dbErr) && dbErr.Timeout:
		return "query_timeout"
	case errors.As(err, &dbErr):
		return "database_error"
	default:
		return "internal_error"
	}
}
