package parking

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
)

const (
	MessageNoFreeSlot      = "No empty slots available!"
	MessageVehicleNotFound = "Vehicle not found!"
)

type EntryOutcome struct {
	SlotID    int         `json:"slot_id,omitempty"`
	Plate     string      `json:"plate"`
	Type      VehicleType `json:"type"`
	EntryTime time.Time   `json:"entry_time"`
	Message   string      `json:"message"`
}

type ExitOutcome struct {
	SlotID    int         `json:"slot_id,omitempty"`
	Plate     string      `json:"plate"`
	Type      VehicleType `json:"type"`
	EntryTime time.Time   `json:"entry_time"`
	ExitTime  time.Time   `json:"exit_time"`
	Hours     int64       `json:"hours"`
	Fee       float64     `json:"fee"`
	Message   string      `json:"message"`
}

type Snapshot struct {
	Capacity     int                `json:"capacity"`
	Occupied     int                `json:"occupied"`
	Available    int                `json:"available"`
	TotalRevenue float64            `json:"total_revenue"`
	Rates        map[string]float64 `json:"rates"`
	Slots        []SlotView         `json:"slots"`
}

// Lot is the facade front-ends talk to. All state lives behind mu: entries and
// exits take the write lock, reads take the read lock and return copies.
type Lot struct {
	mu        sync.RWMutex
	registry  *Registry
	allocator *Allocator
	rates     RateTable
	revenue   float64
	listeners []func(Snapshot)
}

func NewLot(capacity int, rates RateTable) (*Lot, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("capacity must be greater than 0, got %d", capacity)
	}
	if rates == nil {
		rates = DefaultRates()
	}
	for t, rate := range rates {
		if rate < 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
			return nil, fmt.Errorf("rate for %s must be a finite, non-negative number", t)
		}
	}
	if _, ok := rates[Car]; !ok {
		return nil, errors.New("rate table must define a Car rate")
	}

	registry := NewRegistry(capacity)
	return &Lot{
		registry:  registry,
		allocator: NewAllocator(registry),
		rates:     rates.clone(),
	}, nil
}

func (l *Lot) Capacity() int {
	return l.registry.Capacity()
}

func (l *Lot) Rates() RateTable {
	return l.rates.clone()
}

// OnChange registers fn to receive the lot state after every successful
// mutation. fn runs while the lot is locked and must not call back into it.
func (l *Lot) OnChange(fn func(Snapshot)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, fn)
}

func (l *Lot) EnterVehicle(rawPlate, typeText string, now time.Time) (EntryOutcome, error) {
	plate, err := normalize(rawPlate)
	if err != nil {
		return EntryOutcome{}, err
	}
	vehicleType := ParseVehicleType(typeText)

	l.mu.Lock()
	defer l.mu.Unlock()

	outcome := EntryOutcome{Plate: plate, Type: vehicleType, EntryTime: now}

	slotID, err := l.allocator.Park(plate, vehicleType, now)
	if err != nil {
		if errors.Is(err, ErrNoFreeSlot) {
			outcome.Message = MessageNoFreeSlot
		}
		return outcome, err
	}

	outcome.SlotID = slotID
	outcome.Message = fmt.Sprintf("%s parked in %s", plate, SlotLabel(slotID))
	l.notifyLocked()
	return outcome, nil
}

func (l *Lot) EnterVehicleAtSlot(slotID int, rawPlate, typeText string, now time.Time) (EntryOutcome, error) {
	plate, err := normalize(rawPlate)
	if err != nil {
		return EntryOutcome{}, err
	}
	vehicleType := ParseVehicleType(typeText)

	l.mu.Lock()
	defer l.mu.Unlock()

	outcome := EntryOutcome{Plate: plate, Type: vehicleType, EntryTime: now}
	if err := l.allocator.ParkAt(slotID, plate, vehicleType, now); err != nil {
		return outcome, err
	}

	outcome.SlotID = slotID
	outcome.Message = fmt.Sprintf("%s parked in %s", plate, SlotLabel(slotID))
	l.notifyLocked()
	return outcome, nil
}

func (l *Lot) ExitVehicle(rawPlate string, now time.Time) (ExitOutcome, error) {
	plate, err := normalize(rawPlate)
	if err != nil {
		return ExitOutcome{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	departure, err := l.allocator.Remove(plate, now)
	if err != nil {
		return ExitOutcome{Plate: plate, ExitTime: now, Message: MessageVehicleNotFound}, err
	}
	return l.settleLocked(departure), nil
}

func (l *Lot) ExitSlot(slotID int, now time.Time) (ExitOutcome, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	departure, err := l.allocator.RemoveAt(slotID, now)
	if err != nil {
		return ExitOutcome{SlotID: slotID, ExitTime: now}, err
	}
	return l.settleLocked(departure), nil
}

func (l *Lot) settleLocked(d Departure) ExitOutcome {
	hours, fee := Charge(d.Vehicle, d.DepartedAt, l.rates)
	l.revenue += fee

	l.notifyLocked()

	return ExitOutcome{
		SlotID:    d.SlotID,
		Plate:     d.Vehicle.Plate,
		Type:      d.Vehicle.Type,
		EntryTime: d.Vehicle.EntryTime,
		ExitTime:  d.DepartedAt,
		Hours:     hours,
		Fee:       fee,
		Message:   fmt.Sprintf("%s removed from %s", d.Vehicle.Plate, SlotLabel(d.SlotID)),
	}
}

func (l *Lot) FindVehicle(rawPlate string) (SlotView, error) {
	plate, err := normalize(rawPlate)
	if err != nil {
		return SlotView{}, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	slot, ok := l.allocator.FindOccupantSlot(plate)
	if !ok {
		return SlotView{}, fmt.Errorf("%w: %s", ErrVehicleNotFound, plate)
	}
	return slot.View(), nil
}

func (l *Lot) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshotLocked()
}

func (l *Lot) snapshotLocked() Snapshot {
	occupied := l.registry.occupiedCount()

	rates := make(map[string]float64, len(l.rates))
	for t, rate := range l.rates {
		rates[t.String()] = rate
	}

	return Snapshot{
		Capacity:     l.registry.Capacity(),
		Occupied:     occupied,
		Available:    l.registry.Capacity() - occupied,
		TotalRevenue: l.revenue,
		Rates:        rates,
		Slots:        l.registry.Slots(),
	}
}

func (l *Lot) notifyLocked() {
	if len(l.listeners) == 0 {
		return
	}
	snapshot := l.snapshotLocked()
	for _, fn := range l.listeners {
		fn(snapshot)
	}
}

func normalize(rawPlate string) (string, error) {
	plate := NormalizePlate(rawPlate)
	if plate == "" {
		return "", fmt.Errorf("%w: plate cannot be empty after normalization", ErrInvalidPlate)
	}
	return plate, nil
}
