package storage

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderJSON(t *testing.T) {
	t.Run("active order has no completion fields", func(t *testing.T) {
		raw, err := json.Marshal(Order{ID: 1, ClientName: "A", Date: "2024-01-01", SubmittedBy: "w"})
		require.NoError(t, err)
		assert.JSONEq(t,
			`{"id":1,"clientName":"A","date":"2024-01-01","floors":null,"submittedBy":"w","status":"active"}`,
			string(raw))
	})

	t.Run("completed order is flat", func(t *testing.T) {
		o := Order{ID: 2, Completion: &Completion{Date: "2024-01-03", By: "admin"}}
		raw, err := json.Marshal(o)
		require.NoError(t, err)

		var fields map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &fields))
		assert.Equal(t, "completed", fields["status"])
		assert.Equal(t, "2024-01-03", fields["completedDate"])
		assert.Equal(t, "admin", fields["completedBy"])
	})

	t.Run("unknown status reads as active", func(t *testing.T) {
		var o Order
		require.NoError(t, json.Unmarshal([]byte(`{"id":3,"status":"archived","completedBy":"x"}`), &o))
		assert.Nil(t, o.Completion)
		assert.Equal(t, StatusActive, o.Status())
	})
}

func TestDocumentJSON_ExtraMembersSorted(t *testing.T) {
	var doc Document
	require.NoError(t, json.Unmarshal([]byte(`{"zeta":1,"users":[],"alpha":{"a":true},"orders":[]}`), &doc))

	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Equal(t, `{"orders":[],"users":[],"alpha":{"a":true},"zeta":1}`, string(raw))
}

func TestDocumentJSON_KeepsUnknownOrderAndUserMembers(t *testing.T) {
	stored := `{
		"orders":[{"id":1,"clientName":"A","date":"2024-01-01","floors":[],"submittedBy":"w","status":"active","notes":"side door","priority":2}],
		"users":[{"username":"w","password":"p","role":"worker","email":"w@example.com"}]
	}`

	var doc Document
	require.NoError(t, json.Unmarshal([]byte(stored), &doc))
	require.Len(t, doc.Orders, 1)

	doc.Orders[0].Completion = &Completion{Date: "2024-01-02", By: "admin"}
	doc.Users[0].Password = "changed"

	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"orders":[{"id":1,"clientName":"A","date":"2024-01-01","floors":[],"submittedBy":"w",
			"status":"completed","completedDate":"2024-01-02","completedBy":"admin","notes":"side door","priority":2}],
		"users":[{"username":"w","password":"changed","role":"worker","email":"w@example.com"}]
	}`, string(raw))
}

func TestOrderJSON_KnownMembersWinOverStaleExtras(t *testing.T) {
	var o Order
	require.NoError(t, json.Unmarshal([]byte(`{"id":4,"status":"active","completedBy":"ghost","legacy":true}`), &o))

	raw, err := json.Marshal(o)
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, true, fields["legacy"])
	assert.NotContains(t, fields, "completedBy")
	assert.Equal(t, "active", fields["status"])
}
