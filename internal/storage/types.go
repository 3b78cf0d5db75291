package storage

import "encoding/json"

const DateLayout = "2006-01-02"

type Role string

const (
	RoleWorker  Role = "worker"
	RoleManager Role = "manager"
)

func (r Role) Valid() bool {
	return r == RoleWorker || r == RoleManager
}

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// ServiceCatalog lists the services selectable on an item row.
var ServiceCatalog = []string{
	"Carpet Cleaning",
	"Window Cleaning",
	"Floor Polishing",
	"Upholstery Cleaning",
	"Deep Cleaning",
	"Office Cleaning",
}

func IsCatalogService(service string) bool {
	for _, s := range ServiceCatalog {
		if s == service {
			return true
		}
	}
	return false
}

type ServiceItem struct {
	Service  string `json:"service"`
	Quantity int    `json:"quantity"`
}

type Room struct {
	Name  string        `json:"name"`
	Items []ServiceItem `json:"items"`
}

type Floor struct {
	Name  string `json:"name"`
	Rooms []Room `json:"rooms"`
}

// Completion is present only on completed orders.
type Completion struct {
	Date string
	By   string
}

// Order members written by other clients that this package does not know
// are kept in extra and written back unchanged.
type Order struct {
	ID          int
	ClientName  string
	Date        string
	Floors      []Floor
	SubmittedBy string
	Completion  *Completion
	extra       map[string]json.RawMessage
}

func (o Order) Status() Status {
	if o.Completion != nil {
		return StatusCompleted
	}
	return StatusActive
}

func (o Order) IsCompleted() bool {
	return o.Completion != nil
}

type User struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
	extra    map[string]json.RawMessage
}

// Document is the whole persisted state. Top-level members other than orders
// and users are kept as raw JSON and written back unchanged.
type Document struct {
	Orders []Order
	Users  []User
	extra  map[string]json.RawMessage
}
