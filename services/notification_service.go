package services

import (
	"context"
	"fmt"
	"html/template"
	"log"
	"strings"
	"time"

	"conference-management-api/config"
	"conference-management-api/models"
)

// sendMailFunc is swapped out by tests.
var sendMailFunc = config.SendMail

// FlushResult summarises a pending-email flush.
type FlushResult struct {
	SentCount   int      `json:"sent_count"`
	FailedCount int      `json:"failed_count"`
	Errors      []string `json:"errors"`
}

// NotificationService turns consensus decisions into outbound email, either
// immediately or through the durable pending-email queue.
type NotificationService struct {
	pending   PendingEmailStore
	configSvc *ReviewerConfigService
	directory UserDirectory

	dashboardURL string
}

func NewNotificationService(pending PendingEmailStore, configSvc *ReviewerConfigService, directory UserDirectory, dashboardURL string) *NotificationService {
	return &NotificationService{
		pending:      pending,
		configSvc:    configSvc,
		directory:    directory,
		dashboardURL: dashboardURL,
	}
}

// NotifyDecision runs after a consensus decision has been committed. In
// manual mode it appends one queue entry; in immediate mode it renders and
// sends right away. A transport failure is logged and returned wrapped in
// ErrTransport so callers can surface a warning without unwinding the
// decision.
func (s *NotificationService) NotifyDecision(ctx context.Context, abstract *models.Abstract) error {
	cfg, err := s.configSvc.Get(ctx)
	if err != nil {
		return err
	}

	kind := models.EmailKindAcceptance
	if abstract.Status == models.AbstractStatusRejected {
		kind = models.EmailKindRejection
	}

	if cfg.EmailNotificationMode == models.NotificationModeManual {
		entry := &models.PendingEmail{
			AbstractID:   abstract.AbstractID,
			AbstractCode: abstract.AbstractCode,
			Kind:         kind,
			CreateAt:     time.Now(),
		}
		if err := s.pending.Append(ctx, entry); err != nil {
			return fmt.Errorf("failed to queue %s email for %s: %w", kind, abstract.AbstractCode, err)
		}
		return nil
	}

	if err := s.sendDecisionEmail(ctx, cfg, abstract, kind); err != nil {
		log.Printf("decision email send failed (abstract=%s kind=%s): %v", abstract.AbstractCode, kind, err)
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return nil
}

// FlushPendingEmails drains the queue: snapshot, send each entry, then delete
// only the snapshotted rows. Entries appended while the flush is running
// survive for the next flush. Send failures are counted, never fatal.
func (s *NotificationService) FlushPendingEmails(ctx context.Context, abstracts AbstractStore) (*FlushResult, error) {
	cfg, err := s.configSvc.Get(ctx)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.pending.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read pending emails: %w", err)
	}

	result := &FlushResult{Errors: []string{}}
	flushedIDs := make([]int, 0, len(snapshot))
	for _, entry := range snapshot {
		flushedIDs = append(flushedIDs, entry.PendingEmailID)

		abstract, err := abstracts.ByID(ctx, entry.AbstractID)
		if err != nil {
			result.FailedCount++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", entry.AbstractCode, err))
			continue
		}
		if err := s.sendDecisionEmail(ctx, cfg, abstract, entry.Kind); err != nil {
			result.FailedCount++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", entry.AbstractCode, err))
			continue
		}
		result.SentCount++
	}

	if len(flushedIDs) > 0 {
		if err := s.pending.DeleteIDs(ctx, flushedIDs); err != nil {
			return result, fmt.Errorf("failed to clear flushed emails: %w", err)
		}
	}
	return result, nil
}

func (s *NotificationService) sendDecisionEmail(ctx context.Context, cfg *models.ReviewerConfig, abstract *models.Abstract, kind string) error {
	name, email, err := s.directory.Contact(ctx, abstract.UserID)
	if err != nil {
		return fmt.Errorf("failed to resolve author contact: %w", err)
	}

	subjectTpl, bodyTpl := cfg.RejectionEmailSubject, cfg.RejectionEmailBody
	if kind == models.EmailKindAcceptance {
		subjectTpl, bodyTpl = cfg.AcceptanceEmailSubject, cfg.AcceptanceEmailBody
	}

	approvedFor := ""
	if abstract.ApprovedFor != nil {
		approvedFor = *abstract.ApprovedFor
	}

	replacer := strings.NewReplacer(
		"{name}", name,
		"{title}", abstract.Title,
		"{abstractId}", abstract.AbstractCode,
		"{approvedFor}", approvedFor,
		"{dashboardUrl}", s.dashboardURL,
	)
	subject := replacer.Replace(subjectTpl)
	body := replacer.Replace(bodyTpl)

	return sendMailFunc([]string{email}, subject, buildDecisionEmailHTML(subject, body))
}

func buildDecisionEmailHTML(subject, body string) string {
	escaped := template.HTMLEscapeString(strings.TrimSpace(body))
	escaped = strings.ReplaceAll(strings.ReplaceAll(escaped, "\r\n", "\n"), "\r", "\n")
	escaped = strings.ReplaceAll(escaped, "\n", "<br />")

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
</head>
<body style="margin:0;padding:0;background-color:#f9fafb;font-family:'Segoe UI',Tahoma,Arial,sans-serif;">
<div style="max-width:640px;margin:0 auto;padding:24px 20px;">
  <div style="background-color:#ffffff;border:1px solid #e5e7eb;border-radius:12px;padding:24px 24px 28px 24px;">
    <p style="margin:0 0 0 0;font-size:16px;line-height:1.7;color:#111827;word-break:break-word;">%s</p>
  </div>
</div>
</body>
</html>`, template.HTMLEscapeString(subject), escaped)
}
