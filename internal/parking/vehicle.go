package parking

import (
	"encoding/json"
	"strings"
	"time"
)

type VehicleType int

const (
	Car VehicleType = iota
	Bike
	Truck
)

var vehicleTypeNames = map[VehicleType]string{
	Car:   "Car",
	Bike:  "Bike",
	Truck: "Truck",
}

func (t VehicleType) String() string {
	if name, ok := vehicleTypeNames[t]; ok {
		return name
	}
	return vehicleTypeNames[Car]
}

func (t VehicleType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *VehicleType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = ParseVehicleType(s)
	return nil
}

// ParseVehicleType maps free text onto a vehicle type. Unrecognized text is a Car.
func ParseVehicleType(text string) VehicleType {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "bike":
		return Bike
	case "truck":
		return Truck
	default:
		return Car
	}
}

// NormalizePlate drops everything outside [A-Za-z0-9] and upper-cases the rest.
func NormalizePlate(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9', r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
		}
	}
	return b.String()
}

type Vehicle struct {
	Plate     string      `json:"plate"`
	Type      VehicleType `json:"type"`
	EntryTime time.Time   `json:"entry_time"`
}

func NewVehicle(plate string, vehicleType VehicleType, entryTime time.Time) *Vehicle {
	return &Vehicle{
		Plate:     plate,
		Type:      vehicleType,
		EntryTime: entryTime,
	}
}
