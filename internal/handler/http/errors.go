package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/anmar534/loctah-sub000/internal/domain"
	apperrors "github.com/anmar534/loctah-sub000/pkg/errors"
	"github.com/anmar534/loctah-sub000/pkg/httputil"
	"github.com/anmar534/loctah-sub000/pkg/validator"
)

type rejectionStatus struct {
	code     string
	status   int
	sentinel error
}

var rejectionStatuses = map[domain.ErrorCode]rejectionStatus{
	domain.CodeNotFound:          {"NOT_FOUND", http.StatusNotFound, apperrors.ErrNotFound},
	domain.CodeForbidden:         {"FORBIDDEN", http.StatusForbidden, apperrors.ErrForbidden},
	domain.CodeDuplicateSlug:     {"DUPLICATE_SLUG", http.StatusConflict, apperrors.ErrConflict},
	domain.CodeParentNotFound:    {"PARENT_NOT_FOUND", http.StatusBadRequest, apperrors.ErrInvalidInput},
	domain.CodeCircularReference: {"CIRCULAR_REFERENCE", http.StatusConflict, apperrors.ErrConflict},
	domain.CodeHasProducts:       {"HAS_PRODUCTS", http.StatusConflict, apperrors.ErrConflict},
	domain.CodeHasChildren:       {"HAS_CHILDREN", http.StatusConflict, apperrors.ErrConflict},
	domain.CodeInvalidPrice:      {"INVALID_PRICE", http.StatusUnprocessableEntity, apperrors.ErrUnprocessable},
	domain.CodeInvalidDateRange:  {"INVALID_DATE_RANGE", http.StatusUnprocessableEntity, apperrors.ErrUnprocessable},
	domain.CodeInvalidInput:      {"INVALID_INPUT", http.StatusBadRequest, apperrors.ErrInvalidInput},
}

// toAppError turns a guard rejection into the AppError the envelope writer
// understands. Other errors pass through unchanged.
func toAppError(err error) error {
	var rej *domain.Rejection
	if !errors.As(err, &rej) {
		return err
	}
	rs, ok := rejectionStatuses[rej.Code]
	if !ok {
		return err
	}
	msg := rej.Detail
	if msg == "" {
		msg = string(rej.Code)
	}
	return &apperrors.AppError{Code: rs.code, Message: msg, Status: rs.status, Err: rs.sentinel}
}

// concealForbidden reports a foreign offer as missing so callers cannot probe
// which offers other stores run.
func concealForbidden(err error) error {
	if errors.Is(err, domain.ErrForbidden) {
		return domain.Reject(domain.CodeNotFound, "offer not found")
	}
	return err
}

func writeError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	httputil.WriteError(w, r, toAppError(err), logger)
}

// decode reads and validates a JSON body. Malformed JSON is a 400, never a
// 500.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	err := validator.DecodeAndValidate(w, r, dst)
	if err == nil {
		return nil
	}
	var valErr *validator.ValidationError
	var tooLarge *http.MaxBytesError
	if errors.As(err, &valErr) || errors.As(err, &tooLarge) {
		return err
	}
	return apperrors.InvalidInput("invalid request body: " + err.Error())
}
