package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/voxagent/memoryd/internal/memerr"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeMemErr maps a tier error to an HTTP status, keeping the structured
// code in the body so clients can branch without parsing the message.
func writeMemErr(w http.ResponseWriter, err error) {
	var me *memerr.Error
	if !errors.As(err, &me) {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	status := http.StatusInternalServerError
	switch me.Code {
	case memerr.CodeValidation:
		status = http.StatusBadRequest
	case memerr.CodeNotFound:
		status = http.StatusNotFound
	case memerr.CodeConflict:
		status = http.StatusConflict
	case memerr.CodeStoreUnavailable:
		status = http.StatusServiceUnavailable
	case memerr.CodeTimeout:
		status = http.StatusGatewayTimeout
	case memerr.CodePartialFailure:
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, errorBody{Error: me.Error(), Code: me.Code})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
