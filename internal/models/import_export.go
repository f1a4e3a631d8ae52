package models

type ImportValidationError struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Message string `json:"message"`
	Value   string `json:"value"`
}

// BulkUploadSummary reports the outcome of a CSV user upload.
type BulkUploadSummary struct {
	TotalRows int                     `json:"total_rows"`
	Added     []User                  `json:"added"`
	Skipped   []string                `json:"skipped"`
	Errors    []ImportValidationError `json:"errors"`
}
