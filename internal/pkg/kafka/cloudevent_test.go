package kafka

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloudEventEnvelope(t *testing.T) {
	type payload struct {
		BookingID string `json:"booking_id"`
	}

	e, err := NewCloudEvent("service-booking", "booking.created", payload{BookingID: "b-1"})
	require.NoError(t, err)
	e = e.WithSubject("b-1")

	raw, err := json.Marshal(e)
	require.NoError(t, err)

	parsed, err := ParseCloudEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, "1.0", parsed.SpecVersion)
	assert.Equal(t, "booking.created", parsed.Type)
	assert.Equal(t, "b-1", parsed.Subject)

	var got payload
	require.NoError(t, parsed.ParseData(&got))
	assert.Equal(t, "b-1", got.BookingID)
}

func TestParseCloudEventRejectsGarbage(t *testing.T) {
	_, err := ParseCloudEvent([]byte("not json"))
	assert.Error(t, err)

	_, err = ParseCloudEvent([]byte(`{"id":"x"}`))
	assert.Error(t, err)
}
