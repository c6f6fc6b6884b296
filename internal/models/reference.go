package models

// Permission is a permission code that doubles as a request type option.
type Permission struct {
	Code        string `db:"code" json:"code"`
	Description string `db:"description" json:"description"`
}

// City is a reference entity targeted by city change requests.
type City struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Zone is a reference entity targeted by zone change requests.
type Zone struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Creator identifies a user that has submitted requests.
type Creator struct {
	ID       string `db:"created_by_id" json:"created_by__id"`
	Username string `db:"created_by_username" json:"created_by__username"`
}

// FilterOptions feeds the request list filter dropdowns.
type FilterOptions struct {
	Statuses []string  `json:"statuses"`
	Types    []string  `json:"types"`
	Creators []Creator `json:"creators"`
}
