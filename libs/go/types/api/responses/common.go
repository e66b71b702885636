package responses

// ErrorResponse is the envelope every failed request returns.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse answers the liveness and readiness probes.
type HealthResponse struct {
	Status string `json:"status"`
}

// SuccessResponse acknowledges operations with no payload, such as
// analysis deletion.
type SuccessResponse struct {
	Message string `json:"message"`
}

// PaginatedResponse wraps one page of a list endpoint: analyses,
// imported transactions, rule versions.
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Object     string      `json:"object"`
	HasMore    bool        `json:"has_more"`
	Pagination Pagination  `json:"pagination"`
}

// Pagination locates the page inside the full result set.
type Pagination struct {
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
	TotalItems  int `json:"total_items"`
	TotalPages  int `json:"total_pages"`
}
