package models

// Me represents the authenticated user's profile.
type Me struct {
	UserID               string     `json:"userId"`
	Email                string     `json:"email,omitempty"`
	UserName             string     `json:"userName,omitempty"`
	DisplayName          string     `json:"displayName,omitempty"`
	Birthdate            *Timestamp `json:"birthdate,omitempty"`
	NotificationsEnabled bool       `json:"notificationsEnabled"`
	CreatedAt            Timestamp  `json:"createdAt"`
}

// MeInput is the request body for updating the user's profile.
type MeInput struct {
	UserName             *string    `json:"userName,omitempty" validate:"omitempty,max=40"`
	DisplayName          *string    `json:"displayName,omitempty" validate:"omitempty,max=80"`
	Birthdate            *Timestamp `json:"birthdate,omitempty"`
	NotificationsEnabled *bool      `json:"notificationsEnabled,omitempty"`
}
