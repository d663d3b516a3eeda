package parking

import "fmt"

// Registry owns the ordered slots. It is not safe for concurrent use; Lot
// serializes every access.
type Registry struct {
	capacity int
	slots    []*Slot
}

func NewRegistry(capacity int) *Registry {
	slots := make([]*Slot, capacity)
	for i := 0; i < capacity; i++ {
		slots[i] = NewSlot(i + 1)
	}

	return &Registry{
		capacity: capacity,
		slots:    slots,
	}
}

func (r *Registry) Capacity() int {
	return r.capacity
}

// Slots returns detached views in ascending id order.
func (r *Registry) Slots() []SlotView {
	views := make([]SlotView, len(r.slots))
	for i, slot := range r.slots {
		views[i] = slot.View()
	}
	return views
}

func (r *Registry) slot(id int) (*Slot, error) {
	if id < 1 || id > r.capacity {
		return nil, fmt.Errorf("%w: %d", ErrSlotNotFound, id)
	}
	return r.slots[id-1], nil
}

// SetOccupant parks vehicle in slot id, or empties the slot when vehicle is nil.
func (r *Registry) SetOccupant(id int, vehicle *Vehicle) error {
	slot, err := r.slot(id)
	if err != nil {
		return err
	}

	if vehicle == nil {
		slot.Leave()
		return nil
	}
	slot.Park(vehicle)
	return nil
}

func (r *Registry) occupiedCount() int {
	n := 0
	for _, slot := range r.slots {
		if slot.IsOccupied() {
			n++
		}
	}
	return n
}
