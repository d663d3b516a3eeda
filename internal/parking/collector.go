package parking

import "github.com/prometheus/client_golang/prometheus"

// LotCollector exposes the lot's current state to Prometheus, read at scrape time.
type LotCollector struct {
	lot *Lot

	capacity  *prometheus.Desc
	occupied  *prometheus.Desc
	available *prometheus.Desc
	revenue   *prometheus.Desc
	slot      *prometheus.Desc
}

func NewLotCollector(lot *Lot) *LotCollector {
	return &LotCollector{
		lot: lot,
		capacity: prometheus.NewDesc("parking_lot_capacity",
			"Total number of parking slots.", nil, nil),
		occupied: prometheus.NewDesc("parking_lot_occupied_slots",
			"Number of occupied parking slots.", nil, nil),
		available: prometheus.NewDesc("parking_lot_available_slots",
			"Number of empty parking slots.", nil, nil),
		revenue: prometheus.NewDesc("parking_lot_revenue_total",
			"Fees collected since startup.", nil, nil),
		slot: prometheus.NewDesc("parking_lot_slot_occupied",
			"1 when the slot holds a vehicle.", []string{"slot"}, nil),
	}
}

func (c *LotCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.capacity
	ch <- c.occupied
	ch <- c.available
	ch <- c.revenue
	ch <- c.slot
}

func (c *LotCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.lot.Snapshot()

	ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(s.Capacity))
	ch <- prometheus.MustNewConstMetric(c.occupied, prometheus.GaugeValue, float64(s.Occupied))
	ch <- prometheus.MustNewConstMetric(c.available, prometheus.GaugeValue, float64(s.Available))
	ch <- prometheus.MustNewConstMetric(c.revenue, prometheus.CounterValue, s.TotalRevenue)

	for _, slot := range s.Slots {
		v := 0.0
		if slot.Status == SlotOccupied {
			v = 1
		}
		ch <- prometheus.MustNewConstMetric(c.slot, prometheus.GaugeValue, v, SlotLabel(slot.ID))
	}
}
