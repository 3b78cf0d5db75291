package storage

import "time"

// SeedDocument returns the document a fresh or unreadable store starts with.
// Order dates are relative to now in UTC.
func SeedDocument(now time.Time, hasher PasswordHasher) (Document, error) {
	today := now.UTC().Format(DateLayout)
	yesterday := now.UTC().AddDate(0, 0, -1).Format(DateLayout)

	workerPassword, err := hasher.Hash("worker123")
	if err != nil {
		return Document{}, err
	}
	adminPassword, err := hasher.Hash("admin123")
	if err != nil {
		return Document{}, err
	}

	return Document{
		Orders: []Order{
			{
				ID:         1,
				ClientName: "Office Building A",
				Date:       today,
				Floors: []Floor{
					{
						Name: "Ground Floor",
						Rooms: []Room{
							{
								Name: "Reception",
								Items: []ServiceItem{
									{Service: "Carpet Cleaning", Quantity: 1},
									{Service: "Window Cleaning", Quantity: 3},
								},
							},
							{
								Name: "Conference Room",
								Items: []ServiceItem{
									{Service: "Floor Polishing", Quantity: 1},
									{Service: "Upholstery Cleaning", Quantity: 8},
								},
							},
						},
					},
				},
				SubmittedBy: "worker",
			},
			{
				ID:         2,
				ClientName: "Retail Store B",
				Date:       yesterday,
				Floors: []Floor{
					{
						Name: "First Floor",
						Rooms: []Room{
							{
								Name: "Sales Floor",
								Items: []ServiceItem{
									{Service: "Deep Cleaning", Quantity: 2},
									{Service: "Window Cleaning", Quantity: 5},
								},
							},
						},
					},
				},
				SubmittedBy: "worker",
			},
		},
		Users: []User{
			{Username: "worker", Password: workerPassword, Role: RoleWorker},
			{Username: "admin", Password: adminPassword, Role: RoleManager},
		},
	}, nil
}
