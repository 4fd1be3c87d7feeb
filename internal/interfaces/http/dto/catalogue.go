package dto

// BulkCatalogueRequest is the bulk generation form. product_ids is a
// comma-separated list and wins over category_ids when non-blank.
type BulkCatalogueRequest struct {
	ProductIDs  string  `json:"product_ids" form:"product_ids" binding:"max=5000"`
	CategoryIDs []int64 `json:"category_ids" form:"category_ids" binding:"max=500,dive,gt=0"`
}

// ShareCatalogueRequest is the body of a share request. The product comes
// from the path.
type ShareCatalogueRequest struct {
	Recipients string `json:"recipients" form:"recipients" binding:"required,max=2000"`
	Subject    string `json:"subject" form:"subject" binding:"max=200"`
	Message    string `json:"message" form:"message" binding:"max=5000"`
}

// ButtonStateQuery carries the optional share override
type ButtonStateQuery struct {
	ShowShare *bool `form:"show_share"`
}

// ShareCatalogueResponse is returned by the share endpoint
type ShareCatalogueResponse struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message"`
	Accepted  []string `json:"accepted"`
	Rejected  []string `json:"rejected"`
	Duplicate bool     `json:"duplicate,omitempty"`
}

// ButtonStateResponse tells a product page which buttons to render
type ButtonStateResponse struct {
	ProductID    int64  `json:"product_id"`
	ShowDownload bool   `json:"show_download"`
	DownloadText string `json:"download_text"`
	ShowShare    bool   `json:"show_share"`
	ShareText    string `json:"share_text"`
}

// HealthResponse reports liveness and dependency checks
type HealthResponse struct {
	Status    string            `json:"status"`
	Name      string            `json:"name"`
	Version   string            `json:"version"`
	GoVersion string            `json:"go_version"`
	Uptime    string            `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
}
