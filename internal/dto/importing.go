package dto

type ConfidenceStats struct {
	Avg   float64 `json:"avg"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

type PreviewResponse struct {
	PreviewID        string              `json:"preview_id"`
	Columns          []string            `json:"columns"`
	SampleRows       []map[string]string `json:"sample_rows"`
	SuggestedMapping map[string]string   `json:"suggested_mapping"`
	Source           string              `json:"source"`
	Schema           map[string]string   `json:"schema"`
	ConfidenceStats  ConfidenceStats     `json:"confidence_stats"`
}

type ConfirmRequest struct {
	PreviewID string            `json:"preview_id" validate:"required"`
	Mapping   map[string]string `json:"mapping"`
}

type ImportResultResponse struct {
	Count int `json:"count"`
}
