package order

// QueryOrdersModel represents filter parameters for querying orders.
type QueryOrdersModel struct {
	Status       string `json:"status,omitempty"`
	CustomerName string `json:"customerName,omitempty"`
	Limit        int    `json:"limit,omitempty"`
	Offset       int    `json:"offset,omitempty"`
}

// Page is one offset-paginated page of orders.
type Page struct {
	Orders     []Order `json:"orders"`
	Page       int     `json:"page"`
	PerPage    int     `json:"perPage"`
	Total      int64   `json:"total"`
	TotalPages int     `json:"totalPages"`
}

// CursorPage is one keyset-paginated page of orders. NextCursor is nil on the
// final page.
type CursorPage struct {
	Orders     []Order `json:"orders"`
	NextCursor *string `json:"nextCursor,omitempty"`
	HasMore    bool    `json:"hasMore"`
}
