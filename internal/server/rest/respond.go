package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/gophtodo/internal/common"
)

type detailResponse struct {
	Detail string `json:"detail"`
}

type batchDetailResponse struct {
	Detail  string   `json:"detail"`
	TaskIDs []string `json:"task_ids"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeDetail(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, detailResponse{Detail: detail})
}

var statusBySentinel = []struct {
	err  error
	code int
}{
	{common.ErrorUnauthenticated, http.StatusUnauthorized},
	{common.ErrorForbidden, http.StatusForbidden},
	{common.ErrorNotFound, http.StatusNotFound},
	{common.ErrorConflict, http.StatusConflict},
	{common.ErrorInvalidArgument, http.StatusBadRequest},
	{common.ErrorInvalidCredentials, http.StatusBadRequest},
	{common.ErrorNotVerified, http.StatusBadRequest},
}

// statusOf maps err to an HTTP status and the message shown to the client.
func statusOf(err error) (int, string) {
	for _, m := range statusBySentinel {
		if errors.Is(err, m.err) {
			return m.code, detail(err, m.err)
		}
	}
	return http.StatusInternalServerError, "internal server error"
}

// detail drops the "<sentinel>: " prefix added by %w wrapping.
func detail(err, sentinel error) string {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok {
		return rest
	}
	return msg
}

func writeError(w http.ResponseWriter, err error) {
	var batch *common.BatchAuthorizationError
	if errors.As(err, &batch) {
		writeJSON(w, http.StatusForbidden, batchDetailResponse{Detail: batch.Error(), TaskIDs: batch.IDs})
		return
	}

	code, msg := statusOf(err)
	writeDetail(w, code, msg)
}

// decode reads a JSON body into dst, rejecting trailing garbage.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return errInvalidBody
	}
	if dec.More() {
		return errInvalidBody
	}
	return nil
}

var errInvalidBody = fmt.Errorf("%w: invalid request payload", common.ErrorInvalidArgument)
