package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"vitalflow/internal/assistant"
	"vitalflow/internal/auth"
	"vitalflow/internal/ledger"
	"vitalflow/internal/otp"
	"vitalflow/pkg/types"

	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

// httpError is a failure whose status and message are decided by the handler.
type httpError struct {
	status  int
	message string
}

func (e *httpError) Error() string {
	return e.message
}

func statusError(status int, message string) error {
	return &httpError{status: status, message: message}
}

var (
	errUnauthorized    = statusError(http.StatusUnauthorized, "authentication required")
	errTooManyRequests = statusError(http.StatusTooManyRequests, "too many requests, please try again later")
	errNotConfigured   = statusError(http.StatusServiceUnavailable, "this feature is not configured")
)

// fieldErrors maps request fields to what is wrong with them.
type fieldErrors map[string]string

func (fe fieldErrors) Error() string {
	return "please fix the highlighted fields"
}

func (fe fieldErrors) orNil() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

func (s *Service) respond(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, types.NewAPIResponse(status, data, message))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Service) fail(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := errorResponse(err)
	if apiErr.StatusCode >= http.StatusInternalServerError {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("request failed")
	}
	writeJSON(w, apiErr.StatusCode, apiErr)
}

// errorResponse classifies err into the error envelope. Unknown errors become
// a 500 with a generic message.
func errorResponse(err error) *types.APIError {
	out := &types.APIError{StatusCode: http.StatusInternalServerError, Message: "something went wrong"}

	var (
		herr         *httpError
		fields       fieldErrors
		validation   *ledger.ValidationError
		insufficient *ledger.InsufficientQuantityError
	)

	switch {
	case errors.As(err, &herr):
		out.StatusCode, out.Message = herr.status, herr.message
	case errors.As(err, &fields):
		out.StatusCode, out.Message, out.Errors = http.StatusBadRequest, fields.Error(), map[string]string(fields)
	case errors.As(err, &validation):
		out.StatusCode, out.Message = http.StatusBadRequest, validation.Error()
		out.Errors = map[string]string{validation.Field: validation.Message}
	case errors.As(err, &insufficient):
		out.StatusCode, out.Message = http.StatusConflict, insufficient.Error()
		out.Errors = map[string]any{"component": insufficient.Component, "remaining": insufficient.Remaining}

	case errors.Is(err, types.ErrDonationNotFound),
		errors.Is(err, types.ErrDonorNotFound),
		errors.Is(err, types.ErrRecipientNotFound),
		errors.Is(err, types.ErrBloodBankNotFound),
		errors.Is(err, types.ErrCampNotFound):
		out.StatusCode, out.Message = http.StatusNotFound, rootMessage(err)

	case errors.Is(err, ledger.ErrExceedsDonatedQuantity),
		errors.Is(err, ledger.ErrExtractionBelowAllocated),
		errors.Is(err, ledger.ErrInsufficientQuantity),
		errors.Is(err, types.ErrRevisionConflict),
		errors.Is(err, types.ErrAlreadyExists),
		errors.Is(err, otp.ErrOTPAlreadySent):
		out.StatusCode, out.Message = http.StatusConflict, rootMessage(err)

	case errors.Is(err, ledger.ErrInvalidComponent),
		errors.Is(err, ledger.ErrNotWholeBlood):
		out.StatusCode, out.Message = http.StatusUnprocessableEntity, rootMessage(err)

	case errors.Is(err, otp.ErrInvalidOTP),
		errors.Is(err, otp.ErrInvalidDestination),
		errors.Is(err, assistant.ErrEmptyQuestion):
		out.StatusCode, out.Message = http.StatusBadRequest, rootMessage(err)

	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrInvalidCredentials):
		out.StatusCode, out.Message = http.StatusUnauthorized, rootMessage(err)
	case errors.Is(err, auth.ErrForbidden),
		errors.Is(err, ledger.ErrCampNotApproved):
		out.StatusCode, out.Message = http.StatusForbidden, rootMessage(err)

	case errors.Is(err, otp.ErrDeliveryFailed):
		out.StatusCode, out.Message = http.StatusBadGateway, rootMessage(err)
	case errors.Is(err, assistant.ErrUnavailable):
		out.StatusCode, out.Message = http.StatusServiceUnavailable, rootMessage(err)
	}

	return out
}

// rootMessage strips wrapping context so internal details stay out of
// client responses.
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return statusError(http.StatusBadRequest, "request body is required")
		}
		return statusError(http.StatusBadRequest, "invalid request body")
	}
	return nil
}
