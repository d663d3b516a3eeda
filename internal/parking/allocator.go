package parking

import (
	"fmt"
	"strings"
	"time"
)

// Allocator places vehicles first-fit by ascending slot id and finds them
// again by case-insensitive plate.
type Allocator struct {
	registry *Registry
}

func NewAllocator(registry *Registry) *Allocator {
	return &Allocator{registry: registry}
}

type Departure struct {
	SlotID     int
	Vehicle    Vehicle
	DepartedAt time.Time
}

func (a *Allocator) FindFreeSlot() (*Slot, bool) {
	for _, slot := range a.registry.slots {
		if !slot.IsOccupied() {
			return slot, true
		}
	}
	return nil, false
}

func (a *Allocator) FindOccupantSlot(plate string) (*Slot, bool) {
	for _, slot := range a.registry.slots {
		if slot.IsOccupied() && strings.EqualFold(slot.Vehicle.Plate, plate) {
			return slot, true
		}
	}
	return nil, false
}

func (a *Allocator) Park(plate string, vehicleType VehicleType, now time.Time) (int, error) {
	if _, parked := a.FindOccupantSlot(plate); parked {
		return 0, fmt.Errorf("%w: %s", ErrVehicleAlreadyParked, plate)
	}

	slot, ok := a.FindFreeSlot()
	if !ok {
		return 0, ErrNoFreeSlot
	}

	if err := a.registry.SetOccupant(slot.Number, NewVehicle(plate, vehicleType, now)); err != nil {
		return 0, err
	}
	return slot.Number, nil
}

func (a *Allocator) ParkAt(id int, plate string, vehicleType VehicleType, now time.Time) error {
	slot, err := a.registry.slot(id)
	if err != nil {
		return err
	}
	if slot.IsOccupied() {
		return fmt.Errorf("%w: %s", ErrSlotOccupied, slot.Label())
	}
	if _, parked := a.FindOccupantSlot(plate); parked {
		return fmt.Errorf("%w: %s", ErrVehicleAlreadyParked, plate)
	}

	return a.registry.SetOccupant(id, NewVehicle(plate, vehicleType, now))
}

func (a *Allocator) Remove(plate string, now time.Time) (Departure, error) {
	slot, ok := a.FindOccupantSlot(plate)
	if !ok {
		return Departure{}, fmt.Errorf("%w: %s", ErrVehicleNotFound, plate)
	}
	return a.release(slot, now)
}

func (a *Allocator) RemoveAt(id int, now time.Time) (Departure, error) {
	slot, err := a.registry.slot(id)
	if err != nil {
		return Departure{}, err
	}
	if !slot.IsOccupied() {
		return Departure{}, fmt.Errorf("%w: %s", ErrSlotAlreadyEmpty, slot.Label())
	}
	return a.release(slot, now)
}

func (a *Allocator) release(slot *Slot, now time.Time) (Departure, error) {
	departure := Departure{
		SlotID:     slot.Number,
		Vehicle:    *slot.Vehicle,
		DepartedAt: now,
	}
	if err := a.registry.SetOccupant(slot.Number, nil); err != nil {
		return Departure{}, err
	}
	return departure, nil
}
