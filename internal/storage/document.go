package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"sort"
)

var errNotObject = errors.New("document is not a JSON object")

type orderWire struct {
	ID            int     `json:"id"`
	ClientName    string  `json:"clientName"`
	Date          string  `json:"date"`
	Floors        []Floor `json:"floors"`
	SubmittedBy   string  `json:"submittedBy"`
	Status        Status  `json:"status"`
	CompletedDate string  `json:"completedDate,omitempty"`
	CompletedBy   string  `json:"completedBy,omitempty"`
}

func (o Order) MarshalJSON() ([]byte, error) {
	w := orderWire{
		ID:          o.ID,
		ClientName:  o.ClientName,
		Date:        o.Date,
		Floors:      o.Floors,
		SubmittedBy: o.SubmittedBy,
		Status:      o.Status(),
	}
	if o.Completion != nil {
		w.CompletedDate = o.Completion.Date
		w.CompletedBy = o.Completion.By
	}
	return marshalWithExtra(w, o.extra)
}

var orderFields = []string{"id", "clientName", "date", "floors", "submittedBy", "status", "completedDate", "completedBy"}

// UnmarshalJSON reads the flat stored shape. Any status other than
// "completed" is read as active. Unknown members of the order are kept;
// unknown members nested in floors, rooms and items are not.
func (o *Order) UnmarshalJSON(data []byte) error {
	var w orderWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	extra, err := extraMembers(data, orderFields)
	if err != nil {
		return err
	}
	*o = Order{
		ID:          w.ID,
		ClientName:  w.ClientName,
		Date:        w.Date,
		Floors:      w.Floors,
		SubmittedBy: w.SubmittedBy,
		extra:       extra,
	}
	if w.Status == StatusCompleted {
		o.Completion = &Completion{Date: w.CompletedDate, By: w.CompletedBy}
	}
	return nil
}

type userWire struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

var userFields = []string{"username", "password", "role"}

func (u User) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(userWire{Username: u.Username, Password: u.Password, Role: u.Role}, u.extra)
}

func (u *User) UnmarshalJSON(data []byte) error {
	var w userWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	extra, err := extraMembers(data, userFields)
	if err != nil {
		return err
	}
	*u = User{Username: w.Username, Password: w.Password, Role: w.Role, extra: extra}
	return nil
}

// extraMembers returns the members of the JSON object data not named in
// known, or nil when there are none.
func extraMembers(data []byte, known []string) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(raw, k)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return raw, nil
}

// marshalWithExtra encodes v and adds the extra members that v does not
// already set.
func marshalWithExtra(v interface{}, extra map[string]json.RawMessage) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return b, err
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(b, &merged); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		if _, ok := merged[k]; !ok {
			merged[k] = raw
		}
	}
	return json.Marshal(merged)
}

func (d Document) MarshalJSON() ([]byte, error) {
	orders := d.Orders
	if orders == nil {
		orders = []Order{}
	}
	users := d.Users
	if users == nil {
		users = []User{}
	}

	var buf bytes.Buffer
	buf.WriteString(`{"orders":`)
	if err := writeJSON(&buf, orders); err != nil {
		return nil, err
	}
	buf.WriteString(`,"users":`)
	if err := writeJSON(&buf, users); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(d.extra))
	for k := range d.extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		buf.WriteByte(',')
		if err := writeJSON(&buf, k); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		buf.Write(d.extra[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (d *Document) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return errNotObject
	}

	*d = Document{}
	if v, ok := raw["orders"]; ok {
		if err := json.Unmarshal(v, &d.Orders); err != nil {
			return err
		}
		delete(raw, "orders")
	}
	if v, ok := raw["users"]; ok {
		if err := json.Unmarshal(v, &d.Users); err != nil {
			return err
		}
		delete(raw, "users")
	}
	if len(raw) > 0 {
		d.extra = raw
	}
	return nil
}

func writeJSON(buf *bytes.Buffer, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

func nextOrderID(orders []Order) int {
	maxID := 0
	for _, o := range orders {
		if o.ID > maxID {
			maxID = o.ID
		}
	}
	return maxID + 1
}

func indexOfOrder(orders []Order, id int) int {
	for i := range orders {
		if orders[i].ID == id {
			return i
		}
	}
	return -1
}

func indexOfUser(users []User, username string) int {
	for i := range users {
		if users[i].Username == username {
			return i
		}
	}
	return -1
}
