package models

// Device represents a registered push notification device. Raw tokens are
// never echoed back; only the count and a last-4 sample of the newest token
// are exposed.
type Device struct {
	ID          string    `json:"id"`
	TokenCount  int       `json:"tokenCount"`
	TokenLast4  *string   `json:"tokenLast4,omitempty"`
	LastUpdated Timestamp `json:"lastUpdated"`
}

// DeviceRegisterRequest is the request body for registering a device token.
type DeviceRegisterRequest struct {
	DeviceID string `json:"deviceId" validate:"required"`
	Token    string `json:"token" validate:"required"`
}

// DeviceList is the response body for listing a user's devices.
type DeviceList struct {
	Items []Device `json:"items"`
}
