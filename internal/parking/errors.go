package parking

import "errors"

var (
	ErrNoFreeSlot           = errors.New("no empty slots available")
	ErrSlotOccupied         = errors.New("slot is already occupied")
	ErrSlotAlreadyEmpty     = errors.New("slot is already empty")
	ErrVehicleNotFound      = errors.New("vehicle not found")
	ErrSlotNotFound         = errors.New("invalid slot number")
	ErrInvalidPlate         = errors.New("invalid plate")
	ErrVehicleAlreadyParked = errors.New("vehicle is already parked")
)
