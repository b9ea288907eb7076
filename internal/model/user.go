// Package model defines the data structures used throughout the application.
package model

// User is a registered account. Email is the primary key and is compared
// exactly as stored (no case folding).
//
// PasswordHash carries the `json:"-"` tag so the hash can never end up in a
// response body, even if a handler encodes a User by mistake. Handlers use
// their own response structs anyway (see handler/auth.go).
type User struct {
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Name         string `json:"name"`
}
