package services

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/Abh1nav004/Really/cartstore"
	"github.com/Abh1nav004/Really/catalog"
	"github.com/Abh1nav004/Really/checkout"
	"github.com/Abh1nav004/Really/historystore"
)

type errorResponse struct {
	Error string `json:"error"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, cartstore.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, checkout.ErrPanelNotOpen),
		errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrCheckoutPending),
		errors.Is(err, checkout.ErrCheckoutCancelled):
		return http.StatusConflict
	case errors.Is(err, historystore.ErrPersistence):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger, err error) {
	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		// client went away; nobody reads the response
		requestLogger(r.Context(), log).WithError(err).Info("request cancelled by client")
		return
	}
	code := statusFor(err)
	l := requestLogger(r.Context(), log).WithError(err).WithField("http.resp.status", code)
	if code >= http.StatusInternalServerError {
		l.Error("request failed")
	} else {
		l.Debug("request rejected")
	}
	writeJSON(w, code, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrapf(cartstore.ErrInvalidInput, "malformed request body: %v", err)
	}
	return nil
}
