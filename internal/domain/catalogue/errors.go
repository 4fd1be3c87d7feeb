package catalogue

import (
	"errors"

	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/domain/shared"
)

// Error kinds raised by the generation pipeline. Every failure is terminal
// for the request that produced it.
const (
	CodeInvalidRequest    = "INVALID_REQUEST"
	CodeEmptySelection    = "EMPTY_SELECTION"
	CodeRenderFailure     = "RENDER_FAILURE"
	CodeInvalidRecipients = "INVALID_RECIPIENTS"
	CodeDeliveryFailure   = "DELIVERY_FAILURE"
)

// User-facing messages
const (
	MsgEmailSent          = "Email sent successfully!"
	MsgEmailFailed        = "Failed to send email. Please check your mail settings."
	MsgNoValidRecipients  = "No valid recipient email addresses provided."
	MsgInvalidShare       = "Invalid product ID or recipient email."
	MsgRenderFailed       = "Failed to generate PDF."
	MsgNoProductsFound    = "No products found for the selected criteria."
	MsgInvalidSelection   = "Please enter product IDs or select at least one category."
	MsgInvalidProductID   = "Invalid product ID."
	MsgSettingsUnreadable = "Catalogue settings are invalid."
)

var (
	ErrInvalidRequest    = shared.NewDomainError(CodeInvalidRequest, MsgInvalidSelection)
	ErrEmptySelection    = shared.NewDomainError(CodeEmptySelection, MsgNoProductsFound)
	ErrInvalidRecipients = shared.NewDomainError(CodeInvalidRecipients, MsgNoValidRecipients)
)

// NewInvalidRequest returns an InvalidRequest error with a specific message
func NewInvalidRequest(message string) error {
	return shared.NewDomainError(CodeInvalidRequest, message)
}

// NewRenderFailure wraps a renderer error
func NewRenderFailure(cause error) error {
	return shared.WrapDomainError(CodeRenderFailure, MsgRenderFailed, cause)
}

// NewDeliveryFailure wraps a transport error, keeping its detail
func NewDeliveryFailure(cause error) error {
	return shared.WrapDomainError(CodeDeliveryFailure, MsgEmailFailed, cause)
}

// IsKind reports whether err carries the given error kind code
func IsKind(err error, code string) bool {
	var de *shared.DomainError
	if !errors.As(err, &de) {
		return false
	}
	return de.Code == code
}
