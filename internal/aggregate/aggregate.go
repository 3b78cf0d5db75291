// Package aggregate derives dashboard figures from a collection of orders.
// Nothing here mutates its input.
package aggregate

import (
	"sort"

	"github.com/kazkleen/crm/internal/storage"
)

// DashboardLimit is the number of orders shown in the recent list.
const DashboardLimit = 10

type Stats struct {
	TotalOrders          int `json:"totalOrders"`
	CompletedOrders      int `json:"completedOrders"`
	TotalServiceQuantity int `json:"totalServiceQuantity"`
	UniqueClientCount    int `json:"uniqueClientCount"`
}

// ServiceTotals sums item quantities per service across every order.
func ServiceTotals(orders []storage.Order) map[string]int {
	totals := make(map[string]int)
	for _, o := range orders {
		forEachItem(o, func(item storage.ServiceItem) {
			totals[item.Service] += item.Quantity
		})
	}
	return totals
}

func OrdersPerDate(orders []storage.Order) map[string]int {
	perDate := make(map[string]int)
	for _, o := range orders {
		perDate[o.Date]++
	}
	return perDate
}

func ComputeStats(orders []storage.Order) Stats {
	var s Stats
	clients := make(map[string]struct{})
	for _, o := range orders {
		s.TotalOrders++
		if o.IsCompleted() {
			s.CompletedOrders++
		}
		clients[o.ClientName] = struct{}{}
		forEachItem(o, func(item storage.ServiceItem) {
			s.TotalServiceQuantity += item.Quantity
		})
	}
	s.UniqueClientCount = len(clients)
	return s
}

// SortedDates returns the keys of perDate in chronological order. Dates are
// YYYY-MM-DD so string order is enough.
func SortedDates(perDate map[string]int) []string {
	dates := make([]string, 0, len(perDate))
	for d := range perDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// Recent returns up to n orders, newest date first. Orders sharing a date
// keep their stored order. n <= 0 returns all of them.
func Recent(orders []storage.Order, n int) []storage.Order {
	sorted := make([]storage.Order, len(orders))
	copy(sorted, orders)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date > sorted[j].Date
	})
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func forEachItem(o storage.Order, fn func(storage.ServiceItem)) {
	for _, f := range o.Floors {
		for _, r := range f.Rooms {
			for _, item := range r.Items {
				fn(item)
			}
		}
	}
}
