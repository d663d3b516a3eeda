package server

import (
	"context"
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel/trace"
)

type Meta struct {
	TraceID   string `json:"trace_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Meta    *Meta  `json:"meta,omitempty"`
}

// PlateRequest is the JSON body for park and remove. Type is free text and
// falls back to Car.
type PlateRequest struct {
	Plate string `json:"plate"`
	Type  string `json:"type,omitempty"`
}

// LegacySlot and LegacyStatusResponse keep the original status payload:
// {"slots":[{"slot":"Slot-1","vehicle":"Empty"}]}.
type LegacySlot struct {
	Slot    string `json:"slot"`
	Vehicle string `json:"vehicle"`
}

type LegacyStatusResponse struct {
	Slots []LegacySlot `json:"slots"`
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func extractMeta(ctx context.Context) *Meta {
	meta := &Meta{}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		meta.TraceID = span.SpanContext().TraceID().String()
	}

	if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
		meta.RequestID = reqID
	}

	return meta
}

func WriteSuccess(ctx context.Context, w http.ResponseWriter, message string, data any) {
	WriteJSON(w, http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    extractMeta(ctx),
	})
}

// WriteFailure carries a user-facing message alongside the error, as park and
// remove do when the lot is full or the vehicle is unknown.
func WriteFailure(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	WriteJSON(w, status, Response{
		Success: false,
		Message: message,
		Error:   err.Error(),
		Meta:    extractMeta(ctx),
	})
}

func WriteError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Response{
		Success: false,
		Error:   message,
		Meta:    extractMeta(ctx),
	})
}
