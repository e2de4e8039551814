// Package models holds server-side persistence models that have no place in
// the journal domain.
package models

import "time"

type User struct {
	ID           string
	UserName     string
	PasswordHash []byte
	CreatedAt    time.Time
}
