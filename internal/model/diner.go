package model

// Diner is a customer who can hold reservations.  Email is the natural
// key and is unique across all diners.
//
// Fields:
//  ID      – primary key identifier.
//  Name    – display name of the diner.
//  Email   – unique, normalised to lower case.
//  Phone   – optional contact number.
//  Address – optional postal address.
type Diner struct {
	ID      uint64  `json:"id"`      // diners.id
	Name    string  `json:"name"`    // diners.name
	Email   string  `json:"email"`   // diners.email (unique)
	Phone   *string `json:"phone"`   // diners.phone (nullable)
	Address *string `json:"address"` // diners.address (nullable)
}
