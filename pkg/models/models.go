// Package models defines the response payloads shared by the gateway and
// its clients.
package models

// RowsResponse is the /safe success body.
type RowsResponse struct {
	Rows []*string `json:"rows"`
}

// QueryRowsResponse is the success body of the vulnerable endpoints.
// Query is declared first so it is serialized first.
type QueryRowsResponse struct {
	Query string    `json:"query"`
	Rows  []*string `json:"rows"`
}

// ErrorResponse is the /safe error body and the body for 404 and 405.
type ErrorResponse struct {
	Error string `json:"error"`
}

// QueryErrorResponse is the error body of the vulnerable endpoints.
type QueryErrorResponse struct {
	Query string `json:"query"`
	Error string `json:"error"`
}

// HealthResponse is the /health body.
type HealthResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Envelope decodes any gateway body. Absent fields stay nil.
type Envelope struct {
	OK    *bool     `json:"ok,omitempty"`
	Query *string   `json:"query,omitempty"`
	Rows  []*string `json:"rows,omitempty"`
	Error *string   `json:"error,omitempty"`
}

// Fruit is one row of the fruit table.
type Fruit struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Color *string `json:"color"`
	Price int     `json:"price"`
}

// User is one row of the users table.
type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
