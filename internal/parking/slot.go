package parking

import (
	"encoding/json"
	"fmt"
)

type SlotStatus int

const (
	SlotEmpty SlotStatus = iota
	SlotOccupied
)

func (s SlotStatus) String() string {
	if s == SlotOccupied {
		return "Occupied"
	}
	return "Empty"
}

func (s SlotStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *SlotStatus) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}
	switch text {
	case "Occupied":
		*s = SlotOccupied
	case "Empty":
		*s = SlotEmpty
	default:
		return fmt.Errorf("unknown slot status %q", text)
	}
	return nil
}

type Slot struct {
	Number  int
	Status  SlotStatus
	Vehicle *Vehicle
}

func NewSlot(number int) *Slot {
	return &Slot{
		Number: number,
		Status: SlotEmpty,
	}
}

func (s *Slot) IsOccupied() bool {
	return s.Status == SlotOccupied
}

func (s *Slot) Park(vehicle *Vehicle) {
	s.Vehicle = vehicle
	s.Status = SlotOccupied
}

func (s *Slot) Leave() *Vehicle {
	vehicle := s.Vehicle
	s.Vehicle = nil
	s.Status = SlotEmpty
	return vehicle
}

// Label is the display name used in outcome messages and the legacy status payload.
func (s *Slot) Label() string {
	return SlotLabel(s.Number)
}

func SlotLabel(number int) string {
	return fmt.Sprintf("Slot-%d", number)
}

// SlotView is a detached copy of a slot; mutating it never touches the lot.
type SlotView struct {
	ID      int        `json:"id"`
	Status  SlotStatus `json:"status"`
	Vehicle *Vehicle   `json:"vehicle,omitempty"`
}

func (s *Slot) View() SlotView {
	view := SlotView{ID: s.Number, Status: s.Status}
	if s.Vehicle != nil {
		v := *s.Vehicle
		view.Vehicle = &v
	}
	return view
}
