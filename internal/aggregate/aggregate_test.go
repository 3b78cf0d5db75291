package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazkleen/crm/internal/storage"
)

func order(id int, client, date string, items ...storage.ServiceItem) storage.Order {
	return storage.Order{
		ID:         id,
		ClientName: client,
		Date:       date,
		Floors: []storage.Floor{{
			Name:  "Ground",
			Rooms: []storage.Room{{Name: "Hall", Items: items}},
		}},
	}
}

func item(service string, qty int) storage.ServiceItem {
	return storage.ServiceItem{Service: service, Quantity: qty}
}

func TestEmptyInput(t *testing.T) {
	assert.Equal(t, map[string]int{}, ServiceTotals(nil))
	assert.Equal(t, map[string]int{}, OrdersPerDate([]storage.Order{}))
	assert.Equal(t, Stats{}, ComputeStats(nil))
	assert.Empty(t, SortedDates(nil))
	assert.Empty(t, Recent(nil, 10))

	d := BuildDashboard(nil)
	assert.Equal(t, Stats{}, d.Stats)
	assert.Empty(t, d.Services)
	assert.Empty(t, d.Dates)
}

func TestOrdersPerDate(t *testing.T) {
	orders := []storage.Order{
		order(1, "A", "2024-01-01"),
		order(2, "B", "2024-01-02"),
		order(3, "C", "2024-01-01"),
	}

	perDate := OrdersPerDate(orders)
	assert.Equal(t, map[string]int{"2024-01-01": 2, "2024-01-02": 1}, perDate)
	assert.Equal(t, []string{"2024-01-01", "2024-01-02"}, SortedDates(perDate))
}

func TestServiceTotals(t *testing.T) {
	multiRoom := order(1, "A", "2024-01-01", item("Carpet Cleaning", 1), item("Window Cleaning", 3))
	multiRoom.Floors = append(multiRoom.Floors, storage.Floor{
		Name:  "First",
		Rooms: []storage.Room{{Name: "Office", Items: []storage.ServiceItem{item("Window Cleaning", 2)}}},
	})
	orders := []storage.Order{
		multiRoom,
		order(2, "B", "2024-01-02", item("Deep Cleaning", 2), item("Window Cleaning", 5)),
	}

	want := map[string]int{"Carpet Cleaning": 1, "Window Cleaning": 10, "Deep Cleaning": 2}
	assert.Equal(t, want, ServiceTotals(orders))

	reversed := []storage.Order{orders[1], orders[0]}
	assert.Equal(t, want, ServiceTotals(reversed))
}

func TestComputeStats(t *testing.T) {
	completed := order(2, "Acme", "2024-01-02", item("Deep Cleaning", 4))
	completed.Completion = &storage.Completion{Date: "2024-01-03", By: "admin"}
	orders := []storage.Order{
		order(1, "Acme", "2024-01-01", item("Carpet Cleaning", 1), item("Window Cleaning", 3)),
		completed,
		order(3, "Beta", "2024-01-02", item("Office Cleaning", 2)),
	}

	assert.Equal(t, Stats{
		TotalOrders:          3,
		CompletedOrders:      1,
		TotalServiceQuantity: 10,
		UniqueClientCount:    2,
	}, ComputeStats(orders))
}

func TestRecent(t *testing.T) {
	orders := []storage.Order{
		order(1, "A", "2024-01-01"),
		order(2, "B", "2024-03-01"),
		order(3, "C", "2024-02-01"),
		order(4, "D", "2024-03-01"),
	}

	got := Recent(orders, 3)
	require.Len(t, got, 3)
	assert.Equal(t, []int{2, 4, 3}, []int{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, 1, orders[0].ID, "input must not be reordered")

	assert.Len(t, Recent(orders, 0), 4)
	assert.Len(t, Recent(orders, 10), 4)
}

func TestBuildDashboard(t *testing.T) {
	orders := make([]storage.Order, 0, 12)
	for i := 1; i <= 12; i++ {
		date := "2024-01-01"
		if i%2 == 0 {
			date = "2024-01-02"
		}
		orders = append(orders, order(i, "Client", date, item("Deep Cleaning", 1)))
	}
	orders[0].Floors[0].Rooms[0].Items = append(orders[0].Floors[0].Rooms[0].Items, item("Carpet Cleaning", 20))

	d := BuildDashboard(orders)
	assert.Equal(t, 12, d.Stats.TotalOrders)
	assert.Equal(t, []Point{{"Carpet Cleaning", 20}, {"Deep Cleaning", 12}}, d.Services)
	assert.Equal(t, []Point{{"2024-01-01", 6}, {"2024-01-02", 6}}, d.Dates)
	require.Len(t, d.Recent, DashboardLimit)
	assert.Equal(t, "2024-01-02", d.Recent[0].Date)
}

func TestOrderTotals(t *testing.T) {
	o := order(1, "A", "2024-01-01", item("Carpet Cleaning", 1), item("Window Cleaning", 3))
	o.Floors[0].Rooms = append(o.Floors[0].Rooms, storage.Room{Name: "Kitchen", Items: []storage.ServiceItem{item("Deep Cleaning", 2)}})

	assert.Equal(t, OrderSummary{Floors: 1, Rooms: 2, Quantity: 6}, OrderTotals(o))
}
