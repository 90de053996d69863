package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/isdelr/blog-api/internal/api/response"
	"github.com/isdelr/blog-api/internal/auth"
	"github.com/isdelr/blog-api/internal/services"
	"github.com/rs/zerolog/log"
)

const (
	msgInvalidBody = "Invalid request body"
	msgInternal    = "Internal server error"
)

var errBadBody = errors.New("malformed request body")

// decode reads a JSON body into v. An empty body leaves v untouched so that
// validation reports the missing fields.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", errBadBody, err)
	}
	return nil
}

// typeErrors reports a JSON value of the wrong type against the field it was
// meant for. It returns nil for any other decode failure.
func typeErrors(err error) map[string][]string {
	var typeErr *json.UnmarshalTypeError
	if !errors.As(err, &typeErr) || typeErr.Field == "" {
		return nil
	}
	msg := "Invalid value."
	switch typeErr.Type.Kind() {
	case reflect.Int, reflect.Int32, reflect.Int64:
		msg = "Not a valid integer value."
	case reflect.String:
		msg = "Not a valid string value."
	}
	return map[string][]string{typeErr.Field: {msg}}
}

// writeError maps a service error onto the JSON envelope. Anything that is not
// a *services.Error is logged and hidden behind a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var svcErr *services.Error
	if !errors.As(err, &svcErr) {
		log.Error().Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("path", r.URL.Path).
			Msg("Request failed")
		response.Error(w, http.StatusInternalServerError, msgInternal)
		return
	}

	code := http.StatusInternalServerError
	switch svcErr.Kind {
	case services.KindValidation, services.KindConflict:
		code = http.StatusBadRequest
	case services.KindUnauthorized:
		code = http.StatusUnauthorized
	case services.KindForbidden:
		code = http.StatusForbidden
	case services.KindNotFound:
		code = http.StatusNotFound
	}

	if len(svcErr.Fields) > 0 {
		response.Fail(w, code, svcErr.Message, svcErr.Fields)
		return
	}
	response.Error(w, code, svcErr.Message)
}

// currentUser returns the id the auth middleware stored on the request.
func currentUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		log.Error().Msg("Could not retrieve user id from context")
		response.Error(w, http.StatusUnauthorized, auth.MsgTokenMissing)
	}
	return userID, ok
}

// pathID parses the {id} route parameter. The router only matches digits, so
// a failure here means the value overflowed int64.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(w, http.StatusNotFound, services.MsgPostNotFound)
		return 0, false
	}
	return id, true
}
