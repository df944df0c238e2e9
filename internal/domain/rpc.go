package domain

// Request and response bodies of the registry RPC surface.

type CheckInRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type CheckInResponse struct {
	RoomNumber int `json:"roomNumber"`
}

// GuestKeyRequest addresses a guest by composite key.
type GuestKeyRequest struct {
	LastName   string `json:"lastName"`
	RoomNumber int    `json:"roomNumber"`
}

type IncrementWifiLoginCountResponse struct {
	Success bool `json:"success"`
}
