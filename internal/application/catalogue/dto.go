package catalogue

// BulkRequest selects products for a bulk catalogue. ProductIDs is a
// comma-separated list and wins over CategoryIDs when it is non-blank.
type BulkRequest struct {
	ProductIDs  string  `json:"product_ids" form:"product_ids"`
	CategoryIDs []int64 `json:"category_ids" form:"category_ids"`
}

// ShareRequest asks for one product catalogue to be emailed
type ShareRequest struct {
	ProductID  string `json:"product_id"`
	Recipients string `json:"recipients" binding:"required,max=2000"`
	Subject    string `json:"subject" binding:"max=200"`
	Message    string `json:"message" binding:"max=5000"`
}

// ShareResponse is the structured result of a share
type ShareResponse struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message"`
	Accepted  []string `json:"accepted,omitempty"`
	Rejected  []string `json:"rejected,omitempty"`
	Duplicate bool     `json:"duplicate,omitempty"`
}
