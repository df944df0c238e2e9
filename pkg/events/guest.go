package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Event tags carried in the envelope's "event" field on the guest events subject.
const (
	IncrementWifiLoginCount = "increment.wifi.login.count"
	GuestCheckedIn          = "guest.checked.in"
)

var ErrMalformedEvent = errors.New("malformed guest event")

// GuestEvent is the envelope published on the guest events subject.
type GuestEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type WifiLoginEvent struct {
	LastName   string `json:"lastName"`
	RoomNumber int    `json:"roomNumber"`
}

type GuestCheckedInEvent struct {
	GuestID     string    `json:"guestId"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	RoomNumber  int       `json:"roomNumber"`
	CheckedInAt time.Time `json:"checkedInAt"`
}

// NewGuestEvent wraps data into an envelope ready for Publish.
func NewGuestEvent(tag string, data interface{}) (GuestEvent, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return GuestEvent{}, fmt.Errorf("failed to marshal %s payload: %w", tag, err)
	}
	return GuestEvent{Event: tag, Data: raw}, nil
}

// DecodeGuestEvent parses an envelope. Only the envelope is validated; the
// payload is decoded by whoever recognizes the tag.
func DecodeGuestEvent(payload []byte) (GuestEvent, error) {
	var ev GuestEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return GuestEvent{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if ev.Event == "" {
		return GuestEvent{}, fmt.Errorf("%w: missing event tag", ErrMalformedEvent)
	}
	return ev, nil
}

// DecodeWifiLogin decodes the data of an increment.wifi.login.count event.
func (e GuestEvent) DecodeWifiLogin() (WifiLoginEvent, error) {
	var data WifiLoginEvent
	if len(e.Data) == 0 {
		return data, fmt.Errorf("%w: missing data", ErrMalformedEvent)
	}
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return data, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return data, nil
}
