package parking

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
)

const timeLayout = "2006-01-02 15:04"

func formatMoney(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

// renderStatus prints every slot in id order followed by the lot totals.
func renderStatus(out io.Writer, s Snapshot) {
	tw := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "Slot No.\tStatus\tRegistration No\tType\tSince")
	for _, slot := range s.Slots {
		if slot.Vehicle == nil {
			fmt.Fprintf(tw, "%d\t%s\t-\t-\t-\n", slot.ID, slot.Status)
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			slot.ID, slot.Status, slot.Vehicle.Plate, slot.Vehicle.Type, slot.Vehicle.EntryTime.Format(timeLayout))
	}
	tw.Flush()

	fmt.Fprintf(out, "Available: %d  Occupied: %d  Revenue: %s\n",
		s.Available, s.Occupied, formatMoney(s.TotalRevenue))
}

func renderRates(out io.Writer, rates RateTable) {
	for _, t := range []VehicleType{Car, Bike, Truck} {
		fmt.Fprintf(out, "%s (%s/hr)\n", t, formatMoney(rates.Rate(t)))
	}
}

func isVehicleTypeName(s string) bool {
	switch strings.ToLower(s) {
	case "car", "bike", "truck":
		return true
	}
	return false
}

// splitPlateAndType treats a trailing vehicle type name as the type and joins
// the remaining words into the plate, so "MH 12 AB 1234 truck" works.
func splitPlateAndType(args []string) (string, string) {
	if len(args) > 1 && isVehicleTypeName(args[len(args)-1]) {
		return strings.Join(args[:len(args)-1], " "), args[len(args)-1]
	}
	return strings.Join(args, " "), ""
}

func parseSlotNumber(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrSlotNotFound, s)
	}
	return n, nil
}
