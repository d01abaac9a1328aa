package model

// Package model contains domain-level types for the presence gateway.
// It is pure and free of framework/adapter concerns.

// Account is the snapshot of a platform account row consumed by the
// presence gateway. It is fetched once at authentication time and cached
// on the session for the life of the connection.
type Account struct {
	ID          string
	DisplayName string
	Banned      bool
}
