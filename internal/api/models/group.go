package models

// Group represents a shopping group as returned by the API.
type Group struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	InviteCode string    `json:"inviteCode"`
	Members    []string  `json:"members"`
	CreatedBy  string    `json:"createdBy"`
	CreatedAt  Timestamp `json:"createdAt"`
}

// GroupCreateRequest is the request body for creating a group.
type GroupCreateRequest struct {
	Name string `json:"name" validate:"required,max=80"`
}

// GroupJoinRequest is the request body for joining a group by invite code.
type GroupJoinRequest struct {
	InviteCode string `json:"inviteCode" validate:"required,len=8"`
}

// GroupJoinResponse reports the outcome of a join request.
type GroupJoinResponse struct {
	Status JoinStatus `json:"status"`
	Group  Group      `json:"group"`
}

// GroupList is the response body for listing a user's groups.
type GroupList struct {
	Items []Group `json:"items"`
}
