package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// apiResponse is the common JSON envelope for API endpoints.
type apiResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// writeJSON encodes a payload with a status code.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeSuccess writes a 200 envelope.
func writeSuccess(w http.ResponseWriter, message string, data interface{}) {
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: message, Data: data})
}

// writeError writes an error envelope.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiResponse{Success: false, Message: message})
}

// atoiDefault converts string to int or returns a default when conversion
// fails or value <= 0.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

// atoi64Default converts string to int64 or returns a default.
func atoi64Default(s string, def int64) int64 {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil && v > 0 {
		return v
	}
	return def
}

// parseFloatDefault converts string to float64 or returns a default.
func parseFloatDefault(s string, def float64) float64 {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return def
}

// parseDate parses a date string in the format "2006-01-02" from the request
// (HTML input format).
func parseDate(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}
	}
	return t
}
