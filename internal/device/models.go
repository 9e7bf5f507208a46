// Package device provides the push token registry. A device record is keyed
// by a client-generated device ID and carries the set of FCM tokens issued
// to that installation over time.
package device

import (
	"errors"
	"time"
)

// Repository errors.
var (
	ErrDeviceNotFound = errors.New("device not found")
)

// Device represents a registered push notification device.
type Device struct {
	ID          string
	UserID      string
	Tokens      []string
	LastUpdated time.Time
}

// HasToken reports whether the token is already in the device's set.
// Matching is exact: a token differing by one character is a new token.
func (d *Device) HasToken(token string) bool {
	for _, t := range d.Tokens {
		if t == token {
			return true
		}
	}
	return false
}
