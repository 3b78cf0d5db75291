package storage

import (
	"fmt"
	"strings"
	"time"
)

const (
	unnamedFloor = "Unnamed Floor"
	unnamedRoom  = "Unnamed Room"

	// MaxPasswordLength is the longest password bcrypt accepts, in bytes.
	MaxPasswordLength = 72
)

// NormalizeOrder trims text fields and names unnamed floors and rooms.
func NormalizeOrder(o Order) Order {
	o.ClientName = strings.TrimSpace(o.ClientName)
	o.Date = strings.TrimSpace(o.Date)
	floors := make([]Floor, len(o.Floors))
	for i, f := range o.Floors {
		f.Name = strings.TrimSpace(f.Name)
		if f.Name == "" {
			f.Name = unnamedFloor
		}
		rooms := make([]Room, len(f.Rooms))
		for j, r := range f.Rooms {
			r.Name = strings.TrimSpace(r.Name)
			if r.Name == "" {
				r.Name = unnamedRoom
			}
			rooms[j] = r
		}
		f.Rooms = rooms
		floors[i] = f
	}
	o.Floors = floors
	return o
}

// ValidateOrder checks a submission before it is handed to Create.
func ValidateOrder(o Order) error {
	if o.ClientName == "" || o.Date == "" {
		return fmt.Errorf("%w: Please fill in all required fields.", ErrValidation)
	}
	if _, err := time.Parse(DateLayout, o.Date); err != nil {
		return fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrValidation, o.Date)
	}
	if len(o.Floors) == 0 {
		return fmt.Errorf("%w: Please add at least one floor.", ErrValidation)
	}
	for _, f := range o.Floors {
		if len(f.Rooms) == 0 {
			return fmt.Errorf("%w: Each floor must have at least one room.", ErrValidation)
		}
		for _, r := range f.Rooms {
			if len(r.Items) == 0 {
				return fmt.Errorf("%w: Room %q must have at least one service.", ErrValidation, r.Name)
			}
			for _, item := range r.Items {
				if !IsCatalogService(item.Service) {
					return fmt.Errorf("%w: Please select a service for all items.", ErrValidation)
				}
				if item.Quantity <= 0 {
					return fmt.Errorf("%w: quantity for %q must be positive", ErrValidation, item.Service)
				}
			}
		}
	}
	return nil
}

func ValidateCredentials(username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return fmt.Errorf("%w: Please fill in all required fields.", ErrValidation)
	}
	if len(password) > MaxPasswordLength {
		return fmt.Errorf("%w: password must be at most %d bytes", ErrValidation, MaxPasswordLength)
	}
	return nil
}

// AddItem files item under the named floor and room of o, appending the floor
// or room when o does not have it yet.
func AddItem(o *Order, floorName, roomName string, item ServiceItem) {
	fi := -1
	for i := range o.Floors {
		if o.Floors[i].Name == floorName {
			fi = i
			break
		}
	}
	if fi < 0 {
		o.Floors = append(o.Floors, Floor{Name: floorName})
		fi = len(o.Floors) - 1
	}

	floor := &o.Floors[fi]
	for i := range floor.Rooms {
		if floor.Rooms[i].Name == roomName {
			floor.Rooms[i].Items = append(floor.Rooms[i].Items, item)
			return
		}
	}
	floor.Rooms = append(floor.Rooms, Room{Name: roomName, Items: []ServiceItem{item}})
}
