package errutil

import "net/http"

// CoreStatus is the closed set of error kinds the command surface may return.
type CoreStatus string

const (
	StatusBadRequest       CoreStatus = "BAD_REQUEST"
	StatusValidationFailed CoreStatus = "VALIDATION_FAILED"
	StatusUnauthorized     CoreStatus = "UNAUTHORIZED"
	StatusForbidden        CoreStatus = "FORBIDDEN"
	StatusNotFound         CoreStatus = "NOT_FOUND"
	StatusConflict         CoreStatus = "CONFLICT"
	StatusInternal         CoreStatus = "INTERNAL"
	StatusUnknown          CoreStatus = "UNKNOWN"

	// Domain statuses for the product lifecycle and settlement workflow.
	StatusInvalidTransition   CoreStatus = "INVALID_TRANSITION"
	StatusProductNotApproved  CoreStatus = "PRODUCT_NOT_APPROVED"
	StatusInsufficientBalance CoreStatus = "INSUFFICIENT_BALANCE"
	StatusDuplicateAction     CoreStatus = "DUPLICATE_ACTION"
	StatusStorageCorrupted    CoreStatus = "STORAGE_CORRUPTED"
)

// HTTPStatus converts the CoreStatus to its closest HTTP status code equivalent.
func (s CoreStatus) HTTPStatus() int {
	switch s {
	case StatusBadRequest, StatusValidationFailed:
		return http.StatusBadRequest
	case StatusUnauthorized:
		return http.StatusUnauthorized
	case StatusForbidden:
		return http.StatusForbidden
	case StatusNotFound:
		return http.StatusNotFound
	case StatusConflict, StatusInvalidTransition, StatusDuplicateAction:
		return http.StatusConflict
	case StatusProductNotApproved, StatusInsufficientBalance:
		return http.StatusUnprocessableEntity
	case StatusInternal, StatusStorageCorrupted:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
