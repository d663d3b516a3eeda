package parking

import "time"

// RateTable maps a vehicle type to its hourly rate in currency units.
type RateTable map[VehicleType]float64

func DefaultRates() RateTable {
	return RateTable{
		Car:   20,
		Bike:  10,
		Truck: 40,
	}
}

// Rate falls back to the Car rate for unmapped types.
func (rt RateTable) Rate(t VehicleType) float64 {
	if rate, ok := rt[t]; ok {
		return rate
	}
	return rt[Car]
}

func (rt RateTable) clone() RateTable {
	out := make(RateTable, len(rt))
	for k, v := range rt {
		out[k] = v
	}
	return out
}

// BilledHours is the stay truncated to whole hours, never less than one.
func BilledHours(entry, exit time.Time) int64 {
	hours := int64(exit.Sub(entry) / time.Hour)
	if hours < 1 {
		return 1
	}
	return hours
}

func Charge(v Vehicle, now time.Time, rates RateTable) (int64, float64) {
	hours := BilledHours(v.EntryTime, now)
	return hours, float64(hours) * rates.Rate(v.Type)
}
