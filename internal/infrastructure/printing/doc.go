// Package printing renders catalogue markup to PDF.
//
// This package contains:
//   - TemplateEngine, which renders the embedded cover, listing and band templates
//   - PDFRenderer interface with Chrome and wkhtmltopdf implementations
//   - AttachmentSpool, a scoped temporary-file area for email attachments
//
// Example usage:
//
//	renderer, err := NewChromedpRenderer(&ChromedpConfig{NoSandbox: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := renderer.Render(ctx, &RenderRequest{
//	    Body:        Fragment{Title: "Product Catalog", Content: "<ul>...</ul>"},
//	    PaperSize:   catalogue.PaperSizeA4,
//	    Orientation: catalogue.OrientationPortrait,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Generated PDF: %d bytes\n", len(result.PDFData))
package printing
