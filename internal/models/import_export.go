package models

type ImportSummary struct {
	TotalRows        int                     `json:"total_rows"`
	SuccessCount     int                     `json:"success_count"`
	SkippedCount     int                     `json:"skipped_count"`
	CreatedQuestions []uint                  `json:"created_questions"`
	Errors           []ImportValidationError `json:"errors,omitempty"`
}

type ImportValidationError struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Message string `json:"message"`
	Value   string `json:"value"`
}
