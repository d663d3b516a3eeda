package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"parking-core/internal/logging"
	"parking-core/internal/parking"
)

const maxBodyBytes = 4 << 10

type Handler struct {
	lot         *parking.InstrumentedLot
	serviceName string
	now         func() time.Time
}

func NewHandler(lot *parking.InstrumentedLot, serviceName string) *Handler {
	return &Handler{
		lot:         lot,
		serviceName: serviceName,
		now:         time.Now,
	}
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: h.serviceName,
		Meta:    extractMeta(r.Context()),
	})
}

// LegacyStatus renders the lot in the original {slots:[{slot, vehicle}]} shape.
func (h *Handler) LegacyStatus(w http.ResponseWriter, r *http.Request) {
	snapshot := h.lot.Snapshot(r.Context())

	slots := make([]LegacySlot, 0, len(snapshot.Slots))
	for _, slot := range snapshot.Slots {
		vehicle := parking.SlotEmpty.String()
		if slot.Vehicle != nil {
			vehicle = slot.Vehicle.Plate
		}
		slots = append(slots, LegacySlot{Slot: parking.SlotLabel(slot.ID), Vehicle: vehicle})
	}

	WriteJSON(w, http.StatusOK, LegacyStatusResponse{Slots: slots})
}

func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	WriteSuccess(ctx, w, "Status retrieved successfully", h.lot.Snapshot(ctx))
}

func (h *Handler) ParkVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := decodePlateRequest(w, r)
	if err != nil {
		writeDecodeError(w, r, err)
		return
	}

	outcome, err := h.lot.EnterVehicle(ctx, req.Plate, req.Type, h.now())
	if err != nil {
		h.handleError(w, r, outcome.Message, err)
		return
	}

	WriteSuccess(ctx, w, outcome.Message, outcome)
}

func (h *Handler) RemoveVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := decodePlateRequest(w, r)
	if err != nil {
		writeDecodeError(w, r, err)
		return
	}

	outcome, err := h.lot.ExitVehicle(ctx, req.Plate, h.now())
	if err != nil {
		h.handleError(w, r, outcome.Message, err)
		return
	}

	WriteSuccess(ctx, w, outcome.Message, outcome)
}

func (h *Handler) ParkAtSlot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	slotNumber, ok := slotParam(r)
	if !ok {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid slot number")
		return
	}

	req, err := decodePlateRequest(w, r)
	if err != nil {
		writeDecodeError(w, r, err)
		return
	}

	outcome, err := h.lot.EnterVehicleAtSlot(ctx, slotNumber, req.Plate, req.Type, h.now())
	if err != nil {
		h.handleError(w, r, "", err)
		return
	}

	WriteSuccess(ctx, w, outcome.Message, outcome)
}

func (h *Handler) LeaveSlot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	slotNumber, ok := slotParam(r)
	if !ok {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid slot number")
		return
	}

	outcome, err := h.lot.ExitSlot(ctx, slotNumber, h.now())
	if err != nil {
		h.handleError(w, r, "", err)
		return
	}

	WriteSuccess(ctx, w, outcome.Message, outcome)
}

func (h *Handler) FindByPlate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	view, err := h.lot.FindVehicle(ctx, chi.URLParam(r, "plate"))
	if err != nil {
		h.handleError(w, r, parking.MessageVehicleNotFound, err)
		return
	}

	WriteSuccess(ctx, w, "Vehicle found", view)
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, message string, err error) {
	ctx := r.Context()

	switch {
	case errors.Is(err, parking.ErrInvalidPlate), errors.Is(err, parking.ErrSlotNotFound):
		WriteFailure(ctx, w, http.StatusBadRequest, message, err)
	case errors.Is(err, parking.ErrVehicleNotFound):
		WriteFailure(ctx, w, http.StatusNotFound, message, err)
	case errors.Is(err, parking.ErrNoFreeSlot),
		errors.Is(err, parking.ErrSlotOccupied),
		errors.Is(err, parking.ErrSlotAlreadyEmpty),
		errors.Is(err, parking.ErrVehicleAlreadyParked):
		WriteFailure(ctx, w, http.StatusConflict, message, err)
	default:
		logging.Error(ctx).Err(err).Msg("handler error")
		WriteError(ctx, w, http.StatusInternalServerError, "internal error")
	}
}

func writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		WriteError(r.Context(), w, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}
	WriteError(r.Context(), w, http.StatusBadRequest, "Invalid request body")
}

// decodePlateRequest accepts a JSON body, or the raw body text as the plate
// with an optional ?type= query parameter.
func decodePlateRequest(w http.ResponseWriter, r *http.Request) (PlateRequest, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return PlateRequest{}, err
	}

	var req PlateRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.Unmarshal(body, &req); err != nil {
			return PlateRequest{}, err
		}
		return req, nil
	}

	req.Plate = string(body)
	req.Type = r.URL.Query().Get("type")
	return req, nil
}

func slotParam(r *http.Request) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "slot"))
	if err != nil {
		return 0, false
	}
	return n, true
}
