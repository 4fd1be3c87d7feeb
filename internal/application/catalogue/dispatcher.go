package catalogue

import (
	"context"
	"html"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/domain/catalogue"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/infrastructure/mail"
	infra "github.com/mg-gouda/e-catalogue-for-woocommerce/internal/infrastructure/printing"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Mailer sends an email with file attachments
type Mailer interface {
	Send(ctx context.Context, msg *mail.Message) error
}

// Spool hands out temporary attachment files
type Spool interface {
	Acquire(ctx context.Context, stem string, data []byte) (*infra.SpooledFile, error)
}

// EmailEnvelope is the caller-supplied part of a share. Blank Subject and
// Message fall back to the configured defaults.
type EmailEnvelope struct {
	Recipients string
	Subject    string
	Message    string
}

// DeliveryReport describes a sent email
type DeliveryReport struct {
	Accepted []string
	Rejected []string
	Subject  string
}

// DeliveryDispatcher streams documents to HTTP responses or sends them as
// email attachments
type DeliveryDispatcher struct {
	mailer   Mailer
	spool    Spool
	validate *validator.Validate
	logger   *zap.Logger
}

// NewDeliveryDispatcher creates a new DeliveryDispatcher
func NewDeliveryDispatcher(mailer Mailer, spool Spool, logger *zap.Logger) *DeliveryDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeliveryDispatcher{
		mailer:   mailer,
		spool:    spool,
		validate: validator.New(),
		logger:   logger,
	}
}

// Stream writes doc as the complete response. Nothing may be written to w
// afterwards.
func (d *DeliveryDispatcher) Stream(w http.ResponseWriter, doc *catalogue.GeneratedDocument, asAttachment bool) error {
	disposition := "inline"
	if asAttachment {
		disposition = "attachment"
	}
	contentType := doc.ContentType
	if contentType == "" {
		contentType = catalogue.ContentTypePDF
	}

	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Length", strconv.Itoa(doc.Size()))
	h.Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": doc.Filename}))
	h.Set("Cache-Control", "private, no-store, max-age=0")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	_, err := w.Write(doc.Data)
	if err != nil {
		d.logger.Warn("client went away while streaming document",
			zap.String("filename", doc.Filename),
			zap.Error(err))
	}
	return err
}

// SplitRecipients splits a comma-separated list and sorts the addresses into
// syntactically valid and rejected ones. Duplicates are dropped.
func (d *DeliveryDispatcher) SplitRecipients(list string) (valid, rejected []string) {
	seen := make(map[string]struct{})
	for _, part := range strings.Split(list, ",") {
		addr := strings.TrimSpace(part)
		if addr == "" {
			continue
		}
		key := strings.ToLower(addr)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if err := d.validate.Var(addr, "required,email"); err != nil {
			rejected = append(rejected, addr)
			continue
		}
		valid = append(valid, addr)
	}
	return valid, rejected
}

// DeliverViaEmail sends doc to every valid recipient as an attachment. It
// fails with InvalidRecipients when no address is valid. The attachment is
// spooled to a temporary file that is removed before returning, whether or
// not the send succeeded.
func (d *DeliveryDispatcher) DeliverViaEmail(ctx context.Context, doc *catalogue.GeneratedDocument, env EmailEnvelope, cfg catalogue.RenderConfig, subjectName string) (*DeliveryReport, error) {
	valid, rejected := d.SplitRecipients(env.Recipients)
	if len(valid) == 0 {
		return nil, catalogue.ErrInvalidRecipients
	}
	if len(rejected) > 0 {
		d.logger.Info("skipping invalid recipients", zap.Strings("rejected", rejected))
	}

	subject := strings.TrimSpace(env.Subject)
	if subject == "" {
		subject = cfg.SubjectFor(subjectName)
	}
	message := strings.TrimSpace(env.Message)
	if message == "" {
		message = cfg.EmailMessage
	}
	if message == "" {
		message = catalogue.DefaultEmailMessage
	}

	file, err := d.spool.Acquire(ctx, doc.Stem(), doc.Data)
	if err != nil {
		return nil, catalogue.NewDeliveryFailure(err)
	}
	telemetry.AddEvent(telemetry.SpanFromContext(ctx), "attachment_spooled",
		"file", file.Name(),
		"size", len(doc.Data))
	defer func() {
		if releaseErr := file.Release(); releaseErr != nil {
			d.logger.Error("failed to remove temporary attachment",
				zap.String("path", file.Path),
				zap.Error(releaseErr))
		}
	}()

	err = d.mailer.Send(ctx, &mail.Message{
		To:       valid,
		Subject:  subject,
		HTMLBody: MessageHTML(message),
		Attachments: []mail.Attachment{{
			Path:        file.Path,
			Filename:    doc.Filename,
			ContentType: doc.ContentType,
		}},
	})
	if err != nil {
		return nil, catalogue.NewDeliveryFailure(err)
	}

	return &DeliveryReport{
		Accepted: valid,
		Rejected: rejected,
		Subject:  subject,
	}, nil
}

// MessageHTML escapes a plain-text message and turns blank-line separated
// paragraphs into <p> elements and single newlines into <br>
func MessageHTML(text string) string {
	text = strings.ReplaceAll(strings.TrimSpace(text), "\r\n", "\n")
	if text == "" {
		return ""
	}

	var b strings.Builder
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		lines := strings.Split(para, "\n")
		for i, line := range lines {
			lines[i] = html.EscapeString(strings.TrimSpace(line))
		}
		b.WriteString("<p>")
		b.WriteString(strings.Join(lines, "<br>\n"))
		b.WriteString("</p>\n")
	}
	return b.String()
}
