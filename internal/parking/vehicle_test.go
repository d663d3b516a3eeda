package parking

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewVehicle(t *testing.T) {
	plate := "KA01HH1234"
	entry := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	vehicle := NewVehicle(plate, Truck, entry)

	if vehicle.Plate != plate {
		t.Errorf("Expected plate %s, got %s", plate, vehicle.Plate)
	}

	if vehicle.Type != Truck {
		t.Errorf("Expected type Truck, got %s", vehicle.Type)
	}

	if !vehicle.EntryTime.Equal(entry) {
		t.Errorf("Expected entry time %v, got %v", entry, vehicle.EntryTime)
	}
}

func TestParseVehicleType(t *testing.T) {
	tests := map[string]VehicleType{
		"Car":     Car,
		"car":     Car,
		" BIKE ":  Bike,
		"truck":   Truck,
		"":        Car,
		"bus":     Car,
		"Car (₹20/hr)": Car,
	}

	for input, want := range tests {
		if got := ParseVehicleType(input); got != want {
			t.Errorf("ParseVehicleType(%q) = %s, want %s", input, got, want)
		}
	}
}

func TestNormalizePlate(t *testing.T) {
	tests := map[string]string{
		"MH12AB1234":      "MH12AB1234",
		"mh 12 ab 1234":   "MH12AB1234",
		"ka-01-hh-9999\n": "KA01HH9999",
		`"A1"`:            "A1",
		"  ":              "",
		"ünï-42":          "N42",
	}

	for input, want := range tests {
		if got := NormalizePlate(input); got != want {
			t.Errorf("NormalizePlate(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestVehicleTypeJSON(t *testing.T) {
	data, err := json.Marshal(Bike)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if string(data) != `"Bike"` {
		t.Errorf("Expected \"Bike\", got %s", data)
	}

	var vt VehicleType
	if err := json.Unmarshal([]byte(`"truck"`), &vt); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if vt != Truck {
		t.Errorf("Expected Truck, got %s", vt)
	}
}
