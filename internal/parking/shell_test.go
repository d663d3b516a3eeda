package parking

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runShell(t *testing.T, capacity int, clock []time.Time, script ...string) (string, *InstrumentedLot) {
	t.Helper()

	f := newInstrumentedFixture(t, capacity)
	var out bytes.Buffer
	shell := NewShell(f.lot, NewLocalTelemetryProvider("shell-test", nil, nil), strings.NewReader(strings.Join(script, "\n")), &out)

	i := 0
	shell.now = func() time.Time {
		if i < len(clock) {
			i++
			return clock[i-1]
		}
		return clock[len(clock)-1]
	}

	shell.Run(context.Background())
	return out.String(), f.lot
}

func TestShellParkAndLeave(t *testing.T) {
	out, lot := runShell(t, 3, []time.Time{t0, t0, t0.Add(2 * time.Hour)},
		"park KA01HH1234",
		"park mh 12 ab 1234 truck",
		"leave ka01hh1234",
		"status",
	)

	assert.Contains(t, out, "KA01HH1234 parked in Slot-1")
	assert.Contains(t, out, "MH12AB1234 parked in Slot-2")
	assert.Contains(t, out, "KA01HH1234 removed from Slot-1")
	assert.Contains(t, out, "Fee: 40 (2 h Car)")
	assert.Contains(t, out, "Available: 2  Occupied: 1  Revenue: 40")

	s := lot.Snapshot(context.Background())
	require.NotNil(t, s.Slots[1].Vehicle)
	assert.Equal(t, Truck, s.Slots[1].Vehicle.Type)
}

func TestShellSlotCommands(t *testing.T) {
	out, lot := runShell(t, 2, []time.Time{t0, t0, t0.Add(30 * time.Minute)},
		"park_at 2 B1 bike",
		"park_at 2 B2",
		"park_at x B2",
		"leave_slot 1",
		"leave_slot 2",
		"revenue",
	)

	assert.Contains(t, out, "B1 parked in Slot-2")
	assert.Contains(t, out, "Error: slot is already occupied: Slot-2")
	assert.Contains(t, out, "Invalid slot number")
	assert.Contains(t, out, "Error: slot is already empty: Slot-1")
	assert.Contains(t, out, "B1 removed from Slot-2")
	assert.Contains(t, out, "Fee: 10 (1 h Bike)")
	assert.Contains(t, out, "Total revenue: 10")
	assert.Zero(t, lot.Snapshot(context.Background()).Occupied)
}

func TestShellFullLotAndLookups(t *testing.T) {
	out, _ := runShell(t, 1, []time.Time{t0},
		"park A1",
		"park A2",
		"find a1",
		"slot_number_for_registration_number A9",
		"leave A9",
		"fly away",
		"rates",
	)

	assert.Contains(t, out, MessageNoFreeSlot)
	assert.Contains(t, out, "1\n")
	assert.Contains(t, out, "Not found")
	assert.Contains(t, out, MessageVehicleNotFound)
	assert.Contains(t, out, "Unknown command: fly")
	assert.Contains(t, out, "Truck (40/hr)")
}

func TestShellFindRejectsInvalidPlate(t *testing.T) {
	out, _ := runShell(t, 1, []time.Time{t0},
		"find ---",
	)

	assert.Contains(t, out, "Error: invalid plate")
	assert.NotContains(t, out, "Not found")
}

func TestShellStopsOnExit(t *testing.T) {
	out, lot := runShell(t, 2, []time.Time{t0},
		"park A1",
		"exit",
		"park A2",
	)

	assert.Contains(t, out, "A1 parked in Slot-1")
	assert.NotContains(t, out, "A2")
	assert.Equal(t, 1, lot.Snapshot(context.Background()).Occupied)
}

func TestShellUsage(t *testing.T) {
	out, _ := runShell(t, 1, []time.Time{t0},
		"park",
		"park_at 1",
		"leave",
		"leave_slot",
		"find",
		"help",
	)

	assert.Contains(t, out, "Usage: park <plate> [car|bike|truck]")
	assert.Contains(t, out, "Usage: park_at <slot_number> <plate> [car|bike|truck]")
	assert.Contains(t, out, "Usage: leave <plate>")
	assert.Contains(t, out, "Usage: leave_slot <slot_number>")
	assert.Contains(t, out, "Usage: find <plate>")
	assert.Contains(t, out, "Commands:")
}

func TestSplitPlateAndType(t *testing.T) {
	plate, typeText := splitPlateAndType([]string{"MH", "12", "Truck"})
	assert.Equal(t, "MH 12", plate)
	assert.Equal(t, "Truck", typeText)

	plate, typeText = splitPlateAndType([]string{"CAR"})
	assert.Equal(t, "CAR", plate)
	assert.Empty(t, typeText)
}
