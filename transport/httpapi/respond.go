package httpapi

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	msgMalformedBody = "malformed request body"
	msgInternal      = "internal error"
	msgCanceled      = "request canceled"
)

// Validation fields renamed to the request field names of the API.
var (
	loanFieldNames = map[string]string{
		"item_code":     "book_code",
		"borrower_name": "name",
		"contact_id":    "phone",
	}
	itemFieldNames = map[string]string{
		"item_code": "code",
	}
)

type errorResponse struct {
	Error         string         `json:"error"`
	Fields []fieldProblem `json:"fields,omitempty"`
}

// unavailableResponse always carries next_available, null when no open loan exists.
type unavailableResponse struct {
	Error         string        `json:"error"`
	NextAvailable *lending.Date `json:"next_available"`
}

type fieldProblem struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, target any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err != nil {
		return err
	}

	return json.Unmarshal(body, target)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("encoding response failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (s *Server) writeMalformedBody(w http.ResponseWriter) {
	s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgMalformedBody})
}

// writeError maps err to a status code and a client safe body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch lending.KindOf(err) {
	case lending.KindValidation:
		s.writeJSON(w, http.StatusBadRequest, validationResponse(err, loanFieldNames))

	case lending.KindNotFound:
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: notFoundMessage(err)})

	case lending.KindConflict:
		var unavailable *lending.UnavailableError
		if errors.As(err, &unavailable) {
			s.writeJSON(w, http.StatusConflict, unavailableResponse{
				Error:         "not available",
				NextAvailable: unavailable.NextAvailable,
			})

			return
		}

		s.writeJSON(w, http.StatusConflict, errorResponse{Error: lending.ErrAlreadyOnLoan.Error()})

	case lending.KindDuplicate:
		s.writeJSON(w, http.StatusConflict, errorResponse{Error: lending.ErrDuplicateItemCode.Error()})

	case lending.KindCanceled:
		s.logger.Warn("request canceled",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		s.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: msgCanceled})

	default:
		s.logger.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.String("error_type", lending.KindOf(err).String()),
			slog.String("error", err.Error()))
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgInternal})
	}
}

func validationResponse(err error, fieldNames map[string]string) errorResponse {
	response := errorResponse{Error: "missing or invalid fields"}

	for _, problem := range lending.ValidationErrors(err) {
		field := problem.Field
		if wireName, ok := fieldNames[field]; ok {
			field = wireName
		}

		response.Fields = append(response.Fields, fieldProblem{Field: field, Reason: problem.Reason})
	}

	return response
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, lending.ErrItemNotFound):
		return lending.ErrItemNotFound.Error()
	case errors.Is(err, lending.ErrBorrowerNotFound):
		return lending.ErrBorrowerNotFound.Error()
	default:
		return lending.ErrNoActiveLoan.Error()
	}
}
