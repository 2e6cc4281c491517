package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hossamsharif/shopledger/backend/src/logger"
	"github.com/hossamsharif/shopledger/backend/src/services"
)

type contextKey string

const (
	userIDContextKey contextKey = "userID"
	shopIDContextKey contextKey = "shopID"
)

func sendJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	logger.L.Warn("Sending JSON error to client", "message", message, "statusCode", statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func sendJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.L.Error("Failed to encode JSON response", "error", err)
	}
}

// sendDomainError maps a domain error kind to a stable external status.
// Storage internals never cross this boundary; unknown errors become a
// generic 500 with the detail kept in the server log.
func sendDomainError(w http.ResponseWriter, r *http.Request, err error) {
	ctxLogger := logger.FromContext(r.Context())
	switch {
	case errors.Is(err, services.ErrNotFound):
		sendJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrConflict):
		sendJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, services.ErrForbidden):
		sendJSONError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, services.ErrInvalid),
		errors.Is(err, services.ErrDepthExceeded),
		errors.Is(err, services.ErrCircularReference):
		sendJSONError(w, err.Error(), http.StatusBadRequest)
	default:
		ctxLogger.Error("Unhandled error in handler", "path", r.URL.Path, "error", err)
		sendJSONError(w, "internal server error", http.StatusInternalServerError)
	}
}

func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDContextKey).(int64)
	return userID, ok
}

func GetShopIDFromContext(ctx context.Context) (int64, bool) {
	shopID, ok := ctx.Value(shopIDContextKey).(int64)
	return shopID, ok
}

// requireIdentity pulls the resolved shop and user from the request context.
// A missing identity means the auth middleware did not run for this route.
func requireIdentity(w http.ResponseWriter, r *http.Request) (shopID, userID int64, ok bool) {
	shopID, shopOK := GetShopIDFromContext(r.Context())
	userID, userOK := GetUserIDFromContext(r.Context())
	if !shopOK || !userOK {
		sendJSONError(w, "authentication required", http.StatusUnauthorized)
		return 0, 0, false
	}
	return shopID, userID, true
}

func urlParamInt64(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func errInvalidQueryParam(name string) error {
	return fmt.Errorf("invalid query parameter %q", name)
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	if v, err := strconv.Atoi(raw); err == nil {
		return v
	}
	return fallback
}
