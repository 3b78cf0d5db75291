// Package export turns orders into flat rows and the file formats built on
// them, and reads such files back into orders.
package export

import (
	"strconv"

	"github.com/kazkleen/crm/internal/storage"
)

// Header is the column layout shared by every tabular format.
var Header = []string{"Date", "Client", "Floor", "Room", "Service", "Quantity", "Status", "Submitted By"}

// Row is one service item together with the order, floor and room it sits in.
type Row struct {
	Date        string
	Client      string
	Floor       string
	Room        string
	Service     string
	Quantity    int
	Status      storage.Status
	SubmittedBy string
}

func (r Row) Strings() []string {
	return []string{
		r.Date,
		r.Client,
		r.Floor,
		r.Room,
		r.Service,
		strconv.Itoa(r.Quantity),
		string(r.Status),
		r.SubmittedBy,
	}
}

func Flatten(orders []storage.Order) []Row {
	var rows []Row
	for _, o := range orders {
		for _, f := range o.Floors {
			for _, room := range f.Rooms {
				for _, item := range room.Items {
					rows = append(rows, Row{
						Date:        o.Date,
						Client:      o.ClientName,
						Floor:       f.Name,
						Room:        room.Name,
						Service:     item.Service,
						Quantity:    item.Quantity,
						Status:      o.Status(),
						SubmittedBy: o.SubmittedBy,
					})
				}
			}
		}
	}
	return rows
}
