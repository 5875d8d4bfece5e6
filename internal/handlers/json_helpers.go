package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"time"

	"github.com/pwannenmacher/credvault/internal/service"
	"github.com/pwannenmacher/credvault/pkg/validator"
)

// maxBodyBytes bounds JSON request bodies
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// respondWithJSON writes payload as JSON. Nil slices anywhere in payload are
// encoded as [] so clients never see null where they expect an array.
func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(normalizeSlices(payload))
	if err != nil {
		slog.Error("Failed to encode response", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Internal server error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

// respondWithServiceError maps the service error kinds onto HTTP status codes.
// Anything unrecognised is logged and reported as a 500 without detail.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		vErr *service.ValidationError
		pErr *service.PermissionError
		sErr *service.InvalidStateError
		nErr *service.NotFoundError
	)

	switch {
	case errors.As(err, &vErr):
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: vErr.Error(), Field: vErr.Field})
	case errors.As(err, &pErr):
		respondWithError(w, http.StatusForbidden, pErr.Error())
	case errors.As(err, &sErr):
		respondWithError(w, http.StatusConflict, sErr.Error())
	case errors.As(err, &nErr):
		respondWithError(w, http.StatusNotFound, nErr.Error())
	default:
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		respondWithError(w, http.StatusInternalServerError, ErrMsgInternal)
	}
}

// decodeJSON reads a bounded JSON body into dst and validates its struct tags.
// It writes the 400 response itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	return decodeBody(w, r, dst, false)
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be empty, whatever the Content-Length
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	return decodeBody(w, r, dst, true)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any, optional bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !(optional && errors.Is(err, io.EOF)) {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidRequestBody)
		return false
	}

	if err := validator.ValidateStruct(dst); err != nil {
		var fErr *validator.FieldError
		if errors.As(err, &fErr) {
			respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: fErr.Error(), Field: fErr.Field})
			return false
		}
		respondWithError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

var timeType = reflect.TypeOf(time.Time{})

// normalizeSlices recursively ensures all nil slices become empty slices
func normalizeSlices(data any) any {
	if data == nil {
		return data
	}
	normalized := normalizeValue(reflect.ValueOf(data))
	if !normalized.IsValid() {
		return data
	}
	return normalized.Interface()
}

func normalizeValue(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() || v.Elem().Type() == timeType {
			return v
		}
		result := reflect.New(v.Elem().Type())
		result.Elem().Set(normalizeValue(v.Elem()))
		return result

	case reflect.Slice:
		if v.IsNil() {
			return reflect.MakeSlice(v.Type(), 0, 0)
		}
		result := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			result.Index(i).Set(normalizeValue(v.Index(i)))
		}
		return result

	case reflect.Struct:
		if v.Type() == timeType {
			return v
		}
		result := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			if !v.Type().Field(i).IsExported() {
				continue
			}
			result.Field(i).Set(normalizeValue(v.Field(i)))
		}
		return result

	default:
		return v
	}
}

// queryInt parses an optional positive integer query parameter capped at max.
// It writes the 400 response itself on malformed input.
func queryInt(w http.ResponseWriter, r *http.Request, name string, def, max int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: ErrMsgInvalidPagination, Field: name})
		return 0, false
	}
	return min(n, max), true
}
