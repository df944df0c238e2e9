package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeGuestEvent(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		tag     string
		wantErr bool
	}{
		{"wifi login", `{"event":"increment.wifi.login.count","data":{"lastName":"doe","roomNumber":101}}`, IncrementWifiLoginCount, false},
		{"unknown tag", `{"event":"guest.checked.out","data":{}}`, "guest.checked.out", false},
		{"not json", `not json`, "", true},
		{"missing tag", `{"data":{}}`, "", true},
		{"tag wrong type", `{"event":42}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := DecodeGuestEvent([]byte(tt.payload))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedEvent)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.tag, ev.Event)
		})
	}
}

func TestGuestEvent_DecodeWifiLogin(t *testing.T) {
	ev, err := DecodeGuestEvent([]byte(`{"event":"increment.wifi.login.count","data":{"lastName":"Doe","roomNumber":101}}`))
	require.NoError(t, err)

	data, err := ev.DecodeWifiLogin()
	require.NoError(t, err)
	assert.Equal(t, WifiLoginEvent{LastName: "Doe", RoomNumber: 101}, data)

	_, err = GuestEvent{Event: IncrementWifiLoginCount}.DecodeWifiLogin()
	assert.ErrorIs(t, err, ErrMalformedEvent)

	_, err = GuestEvent{Event: IncrementWifiLoginCount, Data: json.RawMessage(`{"roomNumber":"abc"}`)}.DecodeWifiLogin()
	assert.ErrorIs(t, err, ErrMalformedEvent)
}

func TestNewGuestEvent_RoundTrip(t *testing.T) {
	ev, err := NewGuestEvent(IncrementWifiLoginCount, WifiLoginEvent{LastName: "doe", RoomNumber: 7})
	require.NoError(t, err)

	raw, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"increment.wifi.login.count","data":{"lastName":"doe","roomNumber":7}}`, string(raw))
}
