// Package models holds the plain data types shared by the sgtrakt client
// layers: linked-account credentials, OAuth sessions, check-in actions and
// the items they refer to.
package models

import "time"

// Credentials describes the linked trakt account. The account counts as
// linked only when AccessToken, RefreshToken and Expiry are all set.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
	Username     string
	DisplayName  string

	// Invalid is set when trakt rejected the tokens with 401. The username is
	// kept so the user can be asked to reconnect.
	Invalid bool
}

// Linked reports whether all token fields are present.
func (c Credentials) Linked() bool {
	return c.AccessToken != "" && c.RefreshToken != "" && !c.Expiry.IsZero()
}

// AuthSession is one authorization attempt awaiting its redirect.
type AuthSession struct {
	State    string
	IssuedAt time.Time
}
