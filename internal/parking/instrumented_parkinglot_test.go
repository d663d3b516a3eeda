package parking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type instrumentedFixture struct {
	lot    *InstrumentedLot
	spans  *tracetest.SpanRecorder
	reader *sdkmetric.ManualReader
}

func newInstrumentedFixture(t *testing.T, capacity int) instrumentedFixture {
	t.Helper()

	spans := tracetest.NewSpanRecorder()
	reader := sdkmetric.NewManualReader()
	telemetry := NewLocalTelemetryProvider("parking-test", spans, reader)
	t.Cleanup(func() { _ = telemetry.Shutdown(context.Background()) })

	lot, err := NewLot(capacity, nil)
	require.NoError(t, err)

	ipl, err := NewInstrumentedLot(lot, telemetry)
	require.NoError(t, err)

	return instrumentedFixture{lot: ipl, spans: spans, reader: reader}
}

func (f instrumentedFixture) collect(t *testing.T) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, f.reader.Collect(context.Background(), &rm))
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) (metricdata.Metrics, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

func sumInt64(t *testing.T, rm metricdata.ResourceMetrics, name string, filter ...attribute.KeyValue) int64 {
	t.Helper()
	m, ok := findMetric(rm, name)
	require.True(t, ok, "metric %s not recorded", name)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", name)

	var total int64
	for _, dp := range sum.DataPoints {
		if matches(dp.Attributes, filter) {
			total += dp.Value
		}
	}
	return total
}

func sumFloat64(t *testing.T, rm metricdata.ResourceMetrics, name string) float64 {
	t.Helper()
	m, ok := findMetric(rm, name)
	require.True(t, ok, "metric %s not recorded", name)
	sum, ok := m.Data.(metricdata.Sum[float64])
	require.True(t, ok, "metric %s is not a float64 sum", name)

	var total float64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func matches(set attribute.Set, filter []attribute.KeyValue) bool {
	for _, kv := range filter {
		v, ok := set.Value(kv.Key)
		if !ok || v != kv.Value {
			return false
		}
	}
	return true
}

func TestInstrumentedLotIntegration(t *testing.T) {
	f := newInstrumentedFixture(t, 3)
	ctx := context.Background()

	out, err := f.lot.EnterVehicle(ctx, "KA01HH1234", "Car", t0)
	require.NoError(t, err)
	assert.Equal(t, 1, out.SlotID)

	out, err = f.lot.EnterVehicleAtSlot(ctx, 3, "KA01HH9999", "Truck", t0)
	require.NoError(t, err)
	assert.Equal(t, 3, out.SlotID)

	view, err := f.lot.FindVehicle(ctx, "ka01hh1234")
	require.NoError(t, err)
	assert.Equal(t, 1, view.ID)

	s := f.lot.Snapshot(ctx)
	assert.Equal(t, 2, s.Occupied)

	exit, err := f.lot.ExitVehicle(ctx, "KA01HH1234", t0.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 40.0, exit.Fee)

	exit, err = f.lot.ExitSlot(ctx, 3, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 40.0, exit.Fee)

	assert.Zero(t, f.lot.Snapshot(ctx).Occupied)

	var names []string
	for _, span := range f.spans.Ended() {
		names = append(names, span.Name())
	}
	assert.Subset(t, names, []string{
		"parking_lot.enter_vehicle",
		"parking_lot.enter_vehicle_at_slot",
		"parking_lot.find_vehicle",
		"parking_lot.snapshot",
		"parking_lot.exit_vehicle",
		"parking_lot.exit_slot",
	})

	rm := f.collect(t)
	assert.Equal(t, int64(2), sumInt64(t, rm, "parking_entry_operations_total", attribute.String("status", "success")))
	assert.Equal(t, int64(2), sumInt64(t, rm, "parking_exit_operations_total", attribute.String("status", "success")))
	assert.Equal(t, int64(0), sumInt64(t, rm, "parking_lot_occupancy"))
	assert.Equal(t, int64(3), sumInt64(t, rm, "parking_lot_total_slots"))
	assert.Equal(t, 80.0, sumFloat64(t, rm, "parking_revenue"))
}

func TestInstrumentedLotRecordsFailures(t *testing.T) {
	f := newInstrumentedFixture(t, 1)
	ctx := context.Background()

	_, err := f.lot.EnterVehicle(ctx, "A1", "Bike", t0)
	require.NoError(t, err)

	_, err = f.lot.EnterVehicle(ctx, "A2", "Bike", t0)
	assert.ErrorIs(t, err, ErrNoFreeSlot)

	_, err = f.lot.ExitVehicle(ctx, "ZZ", t0)
	assert.ErrorIs(t, err, ErrVehicleNotFound)

	rm := f.collect(t)
	assert.Equal(t, int64(1), sumInt64(t, rm, "parking_entry_operations_total",
		attribute.String("status", "failed"),
		attribute.String("reason", "no_free_slot"),
	))
	assert.Equal(t, int64(1), sumInt64(t, rm, "parking_exit_operations_total",
		attribute.String("reason", "vehicle_not_found"),
	))
	assert.Equal(t, int64(1), sumInt64(t, rm, "parking_lot_occupancy"))

	var failed int
	for _, span := range f.spans.Ended() {
		if span.Status().Code.String() == "Error" {
			failed++
		}
	}
	assert.Equal(t, 2, failed)
}

func TestErrorReason(t *testing.T) {
	assert.Equal(t, "slot_occupied", ErrorReason(ErrSlotOccupied))
	assert.Equal(t, "slot_already_empty", ErrorReason(ErrSlotAlreadyEmpty))
	assert.Equal(t, "slot_not_found", ErrorReason(ErrSlotNotFound))
	assert.Equal(t, "invalid_plate", ErrorReason(ErrInvalidPlate))
	assert.Equal(t, "already_parked", ErrorReason(ErrVehicleAlreadyParked))
	assert.Equal(t, "internal", ErrorReason(assert.AnError))
}
