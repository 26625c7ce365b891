package domain

// DatasetInfo describes one dataset in the explorer catalogue
type DatasetInfo struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	File      string `json:"file"`
	Rows      int    `json:"rows"`
	Columns   int    `json:"columns"`
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

// ColumnProfile summarizes one column for the explorer
type ColumnProfile struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	NonNull  int    `json:"non_null"`
	Distinct int    `json:"distinct"`
}

// TablePage is one page of raw dataset rows
type TablePage struct {
	Dataset string          `json:"dataset"`
	Columns []string        `json:"columns"`
	Rows    [][]interface{} `json:"rows"`
	Total   int             `json:"total"`
	Offset  int             `json:"offset"`
	Limit   int             `json:"limit"`
}

// TableQuery holds validated explorer query parameters
type TableQuery struct {
	Limit  int    `json:"limit" validate:"gte=1,lte=500"`
	Offset int    `json:"offset" validate:"gte=0"`
	Sort   string `json:"sort,omitempty"`
	Order  string `json:"order,omitempty" validate:"omitempty,oneof=asc desc"`
}
