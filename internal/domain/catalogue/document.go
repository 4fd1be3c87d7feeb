package catalogue

import (
	"fmt"
	"strings"
	"time"
)

// ContentTypePDF is the media type of generated documents
const ContentTypePDF = "application/pdf"

// DocumentKind distinguishes the filename selector of a document
type DocumentKind string

const (
	DocumentBulk   DocumentKind = "bulk"
	DocumentSingle DocumentKind = "product"
)

// GeneratedDocument is a rendered catalogue ready for delivery. It is never
// persisted beyond the request that produced it.
type GeneratedDocument struct {
	Filename    string
	Data        []byte
	ContentType string
	PageCount   int
}

// Size returns the document size in bytes
func (d *GeneratedDocument) Size() int {
	return len(d.Data)
}

// Stem returns the filename without its extension
func (d *GeneratedDocument) Stem() string {
	return strings.TrimSuffix(d.Filename, ".pdf")
}

// BulkFilename returns <prefix>-bulk-<YYYY-MM-DD>.pdf
func BulkFilename(prefix string, date time.Time) string {
	return fmt.Sprintf("%s-%s-%s.pdf", prefixOrDefault(prefix), DocumentBulk, date.Format("2006-01-02"))
}

// SingleFilename returns <prefix>-product-<id>.pdf
func SingleFilename(prefix string, id int64) string {
	return fmt.Sprintf("%s-%s-%d.pdf", prefixOrDefault(prefix), DocumentSingle, id)
}

func prefixOrDefault(prefix string) string {
	if prefix == "" {
		return DefaultFilenamePrefix
	}
	return prefix
}
