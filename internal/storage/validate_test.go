package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateOrder(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *Order)
		message string
	}{
		{"valid", func(o *Order) {}, ""},
		{"missing client", func(o *Order) { o.ClientName = "" }, "Please fill in all required fields."},
		{"bad date", func(o *Order) { o.Date = "01/02/2024" }, "must be YYYY-MM-DD"},
		{"no floors", func(o *Order) { o.Floors = nil }, "Please add at least one floor."},
		{"floor without rooms", func(o *Order) { o.Floors[0].Rooms = nil }, "Each floor must have at least one room."},
		{"room without items", func(o *Order) { o.Floors[0].Rooms[0].Items = nil }, `Room "Hall" must have at least one service.`},
		{"unknown service", func(o *Order) { o.Floors[0].Rooms[0].Items[0].Service = "Painting" }, "Please select a service for all items."},
		{"zero quantity", func(o *Order) { o.Floors[0].Rooms[0].Items[0].Quantity = 0 }, "must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := sampleOrder("Client")
			tt.mutate(&o)

			err := ValidateOrder(o)
			if tt.message == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrValidation)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestNormalizeOrder(t *testing.T) {
	o := Order{
		ClientName: "  Acme ",
		Date:       "2024-01-01",
		Floors: []Floor{{
			Name:  " ",
			Rooms: []Room{{Name: "", Items: []ServiceItem{{Service: "Deep Cleaning", Quantity: 1}}}},
		}},
	}

	n := NormalizeOrder(o)
	assert.Equal(t, "Acme", n.ClientName)
	assert.Equal(t, "Unnamed Floor", n.Floors[0].Name)
	assert.Equal(t, "Unnamed Room", n.Floors[0].Rooms[0].Name)
	assert.Equal(t, " ", o.Floors[0].Name)
}

func TestValidateCredentials(t *testing.T) {
	assert.NoError(t, ValidateCredentials("jane", "pw"))
	assert.ErrorIs(t, ValidateCredentials(" ", "pw"), ErrValidation)
	assert.ErrorIs(t, ValidateCredentials("jane", ""), ErrValidation)

	assert.NoError(t, ValidateCredentials("jane", strings.Repeat("p", MaxPasswordLength)))
	err := ValidateCredentials("jane", strings.Repeat("p", MaxPasswordLength+1))
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorContains(t, err, "at most 72 bytes")
}

func TestAddItem(t *testing.T) {
	var o Order
	AddItem(&o, "Ground", "Lobby", ServiceItem{Service: "Carpet Cleaning", Quantity: 1})
	AddItem(&o, "First", "Office", ServiceItem{Service: "Office Cleaning", Quantity: 2})
	AddItem(&o, "Ground", "Lobby", ServiceItem{Service: "Window Cleaning", Quantity: 3})
	AddItem(&o, "Ground", "Kitchen", ServiceItem{Service: "Deep Cleaning", Quantity: 1})

	assert.Equal(t, []Floor{
		{Name: "Ground", Rooms: []Room{
			{Name: "Lobby", Items: []ServiceItem{{Service: "Carpet Cleaning", Quantity: 1}, {Service: "Window Cleaning", Quantity: 3}}},
			{Name: "Kitchen", Items: []ServiceItem{{Service: "Deep Cleaning", Quantity: 1}}},
		}},
		{Name: "First", Rooms: []Room{
			{Name: "Office", Items: []ServiceItem{{Service: "Office Cleaning", Quantity: 2}}},
		}},
	}, o.Floors)
}
