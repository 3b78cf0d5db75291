package aggregate

import (
	"sort"

	"github.com/kazkleen/crm/internal/storage"
)

type Point struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

type Dashboard struct {
	Stats    Stats           `json:"stats"`
	Services []Point         `json:"services"`
	Dates    []Point         `json:"dates"`
	Recent   []storage.Order `json:"recent"`
}

// BuildDashboard assembles the manager overview: stats, the service and date
// chart series and the most recent orders.
func BuildDashboard(orders []storage.Order) Dashboard {
	totals := ServiceTotals(orders)
	services := make([]Point, 0, len(totals))
	for name, qty := range totals {
		services = append(services, Point{Label: name, Value: qty})
	}
	sort.Slice(services, func(i, j int) bool {
		if services[i].Value != services[j].Value {
			return services[i].Value > services[j].Value
		}
		return services[i].Label < services[j].Label
	})

	perDate := OrdersPerDate(orders)
	dates := make([]Point, 0, len(perDate))
	for _, d := range SortedDates(perDate) {
		dates = append(dates, Point{Label: d, Value: perDate[d]})
	}

	return Dashboard{
		Stats:    ComputeStats(orders),
		Services: services,
		Dates:    dates,
		Recent:   Recent(orders, DashboardLimit),
	}
}

type OrderSummary struct {
	Floors   int `json:"floors"`
	Rooms    int `json:"rooms"`
	Quantity int `json:"quantity"`
}

func OrderTotals(o storage.Order) OrderSummary {
	s := OrderSummary{Floors: len(o.Floors)}
	for _, f := range o.Floors {
		s.Rooms += len(f.Rooms)
	}
	forEachItem(o, func(item storage.ServiceItem) {
		s.Quantity += item.Quantity
	})
	return s
}
