package catalogue

// Button defaults
const (
	DefaultDownloadText = "Download Catalog PDF"
	DefaultShareText    = "Share PDF"
)

// ButtonPolicy decides where the download and share actions are offered
type ButtonPolicy struct {
	SingleProductEnabled    bool
	ConditionalLogicEnabled bool
	ConditionalCategories   []int64
	DownloadText            string
	ShareEnabled            bool
	ShareText               string
}

// ButtonState is the evaluated policy for one product page
type ButtonState struct {
	ShowDownload bool   `json:"show_download"`
	DownloadText string `json:"download_text"`
	ShowShare    bool   `json:"show_share"`
	ShareText    string `json:"share_text"`
}

// DefaultButtonPolicy shows both buttons on every product
func DefaultButtonPolicy() ButtonPolicy {
	return ButtonPolicy{
		SingleProductEnabled: true,
		DownloadText:         DefaultDownloadText,
		ShareEnabled:         true,
		ShareText:            DefaultShareText,
	}
}

// WithDefaults fills blank labels
func (p ButtonPolicy) WithDefaults() ButtonPolicy {
	if p.DownloadText == "" {
		p.DownloadText = DefaultDownloadText
	}
	if p.ShareText == "" {
		p.ShareText = DefaultShareText
	}
	return p
}

// Eligible reports whether a product in the given categories may show the
// buttons. With conditional logic on, the product must belong to at least
// one allowed category; an empty allow-list admits nothing.
func (p ButtonPolicy) Eligible(productCategoryIDs []int64) bool {
	if !p.SingleProductEnabled {
		return false
	}
	if !p.ConditionalLogicEnabled {
		return true
	}
	allowed := make(map[int64]struct{}, len(p.ConditionalCategories))
	for _, id := range p.ConditionalCategories {
		allowed[id] = struct{}{}
	}
	for _, id := range productCategoryIDs {
		if _, ok := allowed[id]; ok {
			return true
		}
	}
	return false
}

// Evaluate returns the button state for a product. showShare, when non-nil,
// overrides the configured share toggle for an embedded button.
func (p ButtonPolicy) Evaluate(productCategoryIDs []int64, showShare *bool) ButtonState {
	p = p.WithDefaults()
	state := ButtonState{
		DownloadText: p.DownloadText,
		ShareText:    p.ShareText,
	}
	if !p.Eligible(productCategoryIDs) {
		return state
	}
	state.ShowDownload = true
	state.ShowShare = p.ShareEnabled
	if showShare != nil {
		state.ShowShare = *showShare
	}
	return state
}
