package parking

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"parking-core/internal/logging"
)

type InstrumentedLot struct {
	*Lot
	telemetry *TelemetryProvider

	// Metrics
	entryOperations   metric.Int64Counter
	exitOperations    metric.Int64Counter
	occupancyGauge    metric.Int64UpDownCounter
	revenueCounter    metric.Float64Counter
	feeHistogram      metric.Float64Histogram
	operationDuration metric.Float64Histogram
	totalSlotsGauge   metric.Int64UpDownCounter
}

func NewInstrumentedLot(lot *Lot, telemetry *TelemetryProvider) (*InstrumentedLot, error) {
	meter := telemetry.Meter()

	entryOperations, err := meter.Int64Counter("parking_entry_operations_total",
		metric.WithDescription("Total number of vehicle entry operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	exitOperations, err := meter.Int64Counter("parking_exit_operations_total",
		metric.WithDescription("Total number of vehicle exit operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	occupancyGauge, err := meter.Int64UpDownCounter("parking_lot_occupancy",
		metric.WithDescription("Current number of occupied parking slots"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	revenueCounter, err := meter.Float64Counter("parking_revenue",
		metric.WithDescription("Fees charged on exit"),
		metric.WithUnit("{currency}"))
	if err != nil {
		return nil, err
	}

	feeHistogram, err := meter.Float64Histogram("parking_fee",
		metric.WithDescription("Distribution of fees charged per stay"),
		metric.WithUnit("{currency}"))
	if err != nil {
		return nil, err
	}

	operationDuration, err := meter.Float64Histogram("operation_duration_seconds",
		metric.WithDescription("Duration of parking lot operations"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	totalSlotsGauge, err := meter.Int64UpDownCounter("parking_lot_total_slots",
		metric.WithDescription("Total number of parking slots"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	ipl := &InstrumentedLot{
		Lot:               lot,
		telemetry:         telemetry,
		entryOperations:   entryOperations,
		exitOperations:    exitOperations,
		occupancyGauge:    occupancyGauge,
		revenueCounter:    revenueCounter,
		feeHistogram:      feeHistogram,
		operationDuration: operationDuration,
		totalSlotsGauge:   totalSlotsGauge,
	}

	ctx := context.Background()
	totalSlotsGauge.Add(ctx, int64(lot.Capacity()))
	if occupied := lot.Snapshot().Occupied; occupied > 0 {
		occupancyGauge.Add(ctx, int64(occupied))
	}

	return ipl, nil
}

func (ipl *InstrumentedLot) EnterVehicle(ctx context.Context, rawPlate, typeText string, now time.Time) (EntryOutcome, error) {
	ctx, span := ipl.telemetry.Tracer().Start(ctx, "parking_lot.enter_vehicle",
		trace.WithAttributes(
			attribute.String("vehicle.raw_plate", rawPlate),
			attribute.String("vehicle.type_text", typeText),
		))
	defer span.End()

	start := time.Now()
	span.AddEvent("finding_available_slot")

	outcome, err := ipl.Lot.EnterVehicle(rawPlate, typeText, now)
	ipl.recordEntry(ctx, span, "enter_vehicle", start, outcome, err)

	return outcome, err
}

func (ipl *InstrumentedLot) EnterVehicleAtSlot(ctx context.Context, slotID int, rawPlate, typeText string, now time.Time) (EntryOutcome, error) {
	ctx, span := ipl.telemetry.Tracer().Start(ctx, "parking_lot.enter_vehicle_at_slot",
		trace.WithAttributes(
			attribute.Int("slot_number", slotID),
			attribute.String("vehicle.raw_plate", rawPlate),
			attribute.String("vehicle.type_text", typeText),
		))
	defer span.End()

	start := time.Now()

	outcome, err := ipl.Lot.EnterVehicleAtSlot(slotID, rawPlate, typeText, now)
	ipl.recordEntry(ctx, span, "enter_vehicle_at_slot", start, outcome, err)

	return outcome, err
}

func (ipl *InstrumentedLot) ExitVehicle(ctx context.Context, rawPlate string, now time.Time) (ExitOutcome, error) {
	ctx, span := ipl.telemetry.Tracer().Start(ctx, "parking_lot.exit_vehicle",
		trace.WithAttributes(
			attribute.String("vehicle.raw_plate", rawPlate),
		))
	defer span.End()

	start := time.Now()
	span.AddEvent("searching_by_plate")

	outcome, err := ipl.Lot.ExitVehicle(rawPlate, now)
	ipl.recordExit(ctx, span, "exit_vehicle", start, outcome, err)

	return outcome, err
}

func (ipl *InstrumentedLot) ExitSlot(ctx context.Context, slotID int, now time.Time) (ExitOutcome, error) {
	ctx, span := ipl.telemetry.Tracer().Start(ctx, "parking_lot.exit_slot",
		trace.WithAttributes(
			attribute.Int("slot_number", slotID),
		))
	defer span.End()

	start := time.Now()
	span.AddEvent("releasing_slot")

	outcome, err := ipl.Lot.ExitSlot(slotID, now)
	ipl.recordExit(ctx, span, "exit_slot", start, outcome, err)

	return outcome, err
}

func (ipl *InstrumentedLot) FindVehicle(ctx context.Context, rawPlate string) (SlotView, error) {
	ctx, span := ipl.telemetry.Tracer().Start(ctx, "parking_lot.find_vehicle",
		trace.WithAttributes(
			attribute.String("vehicle.raw_plate", rawPlate),
		))
	defer span.End()

	start := time.Now()

	view, err := ipl.Lot.FindVehicle(rawPlate)

	labels := []attribute.KeyValue{attribute.String("operation", "find_vehicle")}
	if err != nil {
		span.AddEvent("vehicle_not_found")
		labels = append(labels, attribute.String("status", "not_found"))
	} else {
		span.SetAttributes(attribute.Int("found_slot_number", view.ID))
		span.AddEvent("vehicle_found", trace.WithAttributes(
			attribute.Int("slot_number", view.ID),
		))
		labels = append(labels, attribute.String("status", "found"))
	}

	ipl.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(labels...))

	return view, err
}

func (ipl *InstrumentedLot) Snapshot(ctx context.Context) Snapshot {
	ctx, span := ipl.telemetry.Tracer().Start(ctx, "parking_lot.snapshot")
	defer span.End()

	start := time.Now()

	snapshot := ipl.Lot.Snapshot()

	span.SetAttributes(
		attribute.Int("occupied_slots_count", snapshot.Occupied),
		attribute.Int("total_capacity", snapshot.Capacity),
	)

	ipl.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
		attribute.String("operation", "snapshot"),
		attribute.String("status", "success"),
	))

	return snapshot
}

func (ipl *InstrumentedLot) recordEntry(ctx context.Context, span trace.Span, operation string, start time.Time, outcome EntryOutcome, err error) {
	duration := time.Since(start).Seconds()

	labels := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.String("vehicle_type", outcome.Type.String()),
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		labels = append(labels,
			attribute.String("status", "failed"),
			attribute.String("reason", ErrorReason(err)),
		)
		logging.Warn(ctx).
			Err(err).
			Str("operation", operation).
			Str("plate", outcome.Plate).
			Msg("vehicle entry rejected")
	} else {
		labels = append(labels, attribute.String("status", "success"))
		span.SetAttributes(
			attribute.Int("allocated_slot_number", outcome.SlotID),
			attribute.String("vehicle.plate", outcome.Plate),
		)
		span.AddEvent("slot_allocated", trace.WithAttributes(
			attribute.Int("slot_number", outcome.SlotID),
		))
		ipl.occupancyGauge.Add(ctx, 1)
		logging.Info(ctx).
			Int("slot", outcome.SlotID).
			Str("plate", outcome.Plate).
			Str("vehicle_type", outcome.Type.String()).
			Time("entry_time", outcome.EntryTime).
			Msg("vehicle parked")
	}

	ipl.entryOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	ipl.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))
}

func (ipl *InstrumentedLot) recordExit(ctx context.Context, span trace.Span, operation string, start time.Time, outcome ExitOutcome, err error) {
	duration := time.Since(start).Seconds()

	labels := []attribute.KeyValue{
		attribute.String("operation", operation),
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		labels = append(labels,
			attribute.String("status", "failed"),
			attribute.String("reason", ErrorReason(err)),
		)
		logging.Warn(ctx).
			Err(err).
			Str("operation", operation).
			Int("slot", outcome.SlotID).
			Str("plate", outcome.Plate).
			Msg("vehicle exit rejected")
	} else {
		typeLabel := attribute.String("vehicle_type", outcome.Type.String())
		labels = append(labels, typeLabel, attribute.String("status", "success"))
		span.SetAttributes(
			attribute.Int("released_slot_number", outcome.SlotID),
			attribute.String("vehicle.plate", outcome.Plate),
			attribute.Int64("billing.hours", outcome.Hours),
			attribute.Float64("billing.fee", outcome.Fee),
		)
		span.AddEvent("slot_released")
		ipl.occupancyGauge.Add(ctx, -1)
		ipl.revenueCounter.Add(ctx, outcome.Fee, metric.WithAttributes(typeLabel))
		ipl.feeHistogram.Record(ctx, outcome.Fee, metric.WithAttributes(typeLabel))
		logging.Info(ctx).
			Int("slot", outcome.SlotID).
			Str("plate", outcome.Plate).
			Str("vehicle_type", outcome.Type.String()).
			Int64("hours", outcome.Hours).
			Float64("fee", outcome.Fee).
			Msg("vehicle left")
	}

	ipl.exitOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	ipl.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))
}

// ErrorReason gives a stable, low-cardinality label for a lot error.
func ErrorReason(err error) string {
	switch {
	case errors.Is(err, ErrNoFreeSlot):
		return "no_free_slot"
	case errors.Is(err, ErrSlotOccupied):
		return "slot_occupied"
	case errors.Is(err, ErrSlotAlreadyEmpty):
		return "slot_already_empty"
	case errors.Is(err, ErrVehicleNotFound):
		return "vehicle_not_found"
	case errors.Is(err, ErrSlotNotFound):
		return "slot_not_found"
	case errors.Is(err, ErrInvalidPlate):
		return "invalid_plate"
	case errors.Is(err, ErrVehicleAlreadyParked):
		return "already_parked"
	default:
		return "internal"
	}
}
