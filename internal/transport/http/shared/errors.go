package shared

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"

	"hrconsole/internal/transport/http/api"
)

// ErrorCase maps one domain sentinel to a response.
type ErrorCase struct {
	Err     error
	Status  int
	Code    string
	Message string
}

// WriteError writes the first matching case. Unique violations become 409;
// anything else is logged and answered with a 500 carrying fallbackCode.
func WriteError(w http.ResponseWriter, requestID string, err error, fallbackCode, fallbackMessage string, cases ...ErrorCase) {
	for _, c := range cases {
		if errors.Is(err, c.Err) {
			message := c.Message
			if message == "" {
				message = c.Err.Error()
			}
			api.Fail(w, c.Status, c.Code, message, requestID)
			return
		}
	}
	if IsUniqueViolation(err) {
		api.Fail(w, http.StatusConflict, "conflict", "resource already exists", requestID)
		return
	}
	slog.Error(fallbackMessage, "code", fallbackCode, "requestId", requestID, "err", err)
	api.Fail(w, http.StatusInternalServerError, fallbackCode, fallbackMessage, requestID)
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func NotFound(err error) ErrorCase {
	return ErrorCase{Err: err, Status: http.StatusNotFound, Code: "not_found"}
}

func Forbidden(err error) ErrorCase {
	return ErrorCase{Err: err, Status: http.StatusForbidden, Code: "forbidden"}
}

func Conflict(err error, code string) ErrorCase {
	return ErrorCase{Err: err, Status: http.StatusConflict, Code: code}
}

func BadRequest(err error, code string) ErrorCase {
	return ErrorCase{Err: err, Status: http.StatusBadRequest, Code: code}
}
