package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/idelchi/gostego/internal/stego"
)

// errBadRequest marks client mistakes unrelated to the codec.
var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

type statusRecorder struct {
	http.ResponseWriter

	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func requestID() string {
	return uuid.NewString()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logrus.WithError(err).Error("encoding response")
	}
}

// statusOf maps an error to its HTTP status and kind name.
func statusOf(err error) (int, string) {
	var tooLarge *http.MaxBytesError

	switch kind := stego.KindOf(err); {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "upload_too_large"
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "bad_request"
	case kind == stego.KindCapacityExceeded:
		return http.StatusRequestEntityTooLarge, kind.String()
	case kind == stego.KindDecryption, kind == stego.KindDecompression,
		kind == stego.KindCorruptHeader, kind == stego.KindExtraction:
		return http.StatusUnprocessableEntity, kind.String()
	default:
		return http.StatusInternalServerError, kind.String()
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := statusOf(err)

	entry := s.log.WithError(err).WithFields(logrus.Fields{
		"request_id": w.Header().Get("X-Request-Id"),
		"path":       r.URL.Path,
		"kind":       kind,
	})

	message := err.Error()

	if status == http.StatusInternalServerError {
		entry.Error("request failed")

		message = http.StatusText(status)
	} else {
		entry.Warn("request rejected")
	}

	writeJSON(w, status, errorResponse{Error: message, Kind: kind})
}
