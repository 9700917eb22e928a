package transport

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"storefront/internal/middleware"
	"storefront/internal/session"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProductRef is a product id submitted as either a JSON number or a string
type ProductRef string

func (p *ProductRef) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = ProductRef(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(bytes.TrimSpace(data), &n); err != nil {
		return err
	}
	*p = ProductRef(n.String())
	return nil
}

func (p ProductRef) String() string {
	return string(p)
}

// decodeRequest decodes and validates the body, writing the error response itself on failure
func decodeRequest(w http.ResponseWriter, r *http.Request, v interface{}, logger *zap.Logger) bool {
	if err := middleware.DecodeAndValidate(r, v); err != nil {
		logger.Debug("Request validation failed", zap.String("path", r.URL.Path), zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return false
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// currentSession returns the visitor session attached by the session middleware
func currentSession(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (*session.Session, bool) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		logger.Error("Session missing from request context", zap.String("path", r.URL.Path))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return nil, false
	}
	return sess, true
}

// pathID parses the {id} URL parameter
func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}
