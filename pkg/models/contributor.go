package models

import "time"

// Contributor is a member of the group, created on first successful
// Discord login. ExternalID is the Discord user id and never changes
// once set; the two provider tokens and the local session token are
// replaced on every login.
type Contributor struct {
	ID                   int64     `json:"id"`
	Nickname             string    `json:"nickname"`
	ExternalID           string    `json:"external_id"`
	ProviderAccessToken  string    `json:"-"`
	ProviderRefreshToken string    `json:"-"`
	SessionToken         string    `json:"-"`
	LastActiveAt         time.Time `json:"last_active_at"`
}
