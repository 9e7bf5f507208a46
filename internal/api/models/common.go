// Package models provides request and response models for the CartShare API.
package models

import "time"

// PushPlatform represents a push notification platform.
type PushPlatform string

const (
	PushPlatformFCM  PushPlatform = "FCM"
	PushPlatformAPNS PushPlatform = "APNS"
)

// HealthStatus represents the health status of a service.
type HealthStatus string

const (
	HealthStatusOK       HealthStatus = "OK"
	HealthStatusDegraded HealthStatus = "DEGRADED"
	HealthStatusFail     HealthStatus = "FAIL"
)

// JoinStatus reports the outcome of a join-by-invite-code request.
type JoinStatus string

const (
	JoinStatusJoined        JoinStatus = "JOINED"
	JoinStatusAlreadyMember JoinStatus = "ALREADY_MEMBER"
)

// Timestamp is a helper type for time.Time with custom JSON formatting.
type Timestamp time.Time

// MarshalJSON implements json.Marshaler for Timestamp.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(t).Format(time.RFC3339) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for Timestamp.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	// Remove quotes
	s := string(data[1 : len(data)-1])
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	*t = Timestamp(parsed)
	return nil
}

// Time returns the underlying time.Time.
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}
