// Package response writes JSON bodies for the API server
package response

import (
	"bytes"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	apperrors "github.com/alchemorsel/nutrition/pkg/errors"
)

// JSON writes data with the given status. The body is encoded before anything is
// written, so an unencodable value turns into a 500 error body.
func JSON(w http.ResponseWriter, status int, data interface{}, logger *zap.Logger) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		logger.Error("Failed to encode JSON response", zap.Error(err))
		appErr := apperrors.NewInternalError("")
		status = appErr.StatusCode()
		buf.Reset()
		_ = json.NewEncoder(&buf).Encode(apperrors.ToErrorResponse(appErr, ""))
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logger.Debug("Failed to write JSON response", zap.Error(err))
	}
}

// Error writes err as the flat error body, using the status its code maps to
func Error(w http.ResponseWriter, err *apperrors.AppError, requestID string, logger *zap.Logger) {
	JSON(w, err.StatusCode(), apperrors.ToErrorResponse(err, requestID), logger)
}
