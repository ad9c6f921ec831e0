package model

// Table is a seating unit with a fixed capacity.  TableNumber is the
// natural key; it is a free-form label ("12", "T-4", "Terrace 2").
//
// Fields:
//  ID          – primary key identifier.
//  TableNumber – unique label printed on the table.
//  Capacity    – number of seats, always at least one.
//  Location    – optional zone such as "terrace" or "main hall".
type Table struct {
	ID          uint64  `json:"id"`           // dining_tables.id
	TableNumber string  `json:"table_number"` // dining_tables.table_number (unique)
	Capacity    int     `json:"capacity"`     // dining_tables.capacity
	Location    *string `json:"location"`     // dining_tables.location (nullable)
}
