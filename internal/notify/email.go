package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/mail"
	"sort"
	"strings"

	"gopkg.in/gomail.v2"

	"profile_sync/internal/config"
	"profile_sync/internal/logbus"
	"profile_sync/internal/model"
)

type EmailNotifier struct {
	cfg  config.EmailConfig
	bus  *logbus.Bus
	dial func() (gomail.SendCloser, error)
}

func NewEmailNotifier(cfg config.EmailConfig, bus *logbus.Bus) *EmailNotifier {
	d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password)
	d.SSL = cfg.SMTPPort == 465
	return &EmailNotifier{
		cfg:  cfg,
		bus:  bus,
		dial: d.Dial,
	}
}

// FromConfig returns an email notifier when email is enabled, Nop otherwise.
func FromConfig(cfg config.NotifyConfig, bus *logbus.Bus) Notifier {
	if !cfg.Email.Enabled {
		return Nop{}
	}
	return NewEmailNotifier(cfg.Email, bus)
}

func (n *EmailNotifier) NotifyBatch(ctx context.Context, summary model.BatchSummary) error {
	if err := validateEmailConfig(n.cfg); err != nil {
		n.logf("warn", "email settings invalid", map[string]any{"error": err.Error()})
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	subject := buildSummarySubject(summary)
	htmlBody, textBody, err := buildSummaryEmailBody(summary)
	if err != nil {
		return err
	}

	from := strings.TrimSpace(n.cfg.From)
	if from == "" {
		from = strings.TrimSpace(n.cfg.Username)
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", msg.FormatAddress(from, "profilesync"))
	msg.SetHeader("To", n.cfg.To...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", textBody)
	msg.AddAlternative("text/html", htmlBody)

	s, err := n.dial()
	if err != nil {
		n.logf("warn", "email dial failed", map[string]any{"error": err.Error()})
		return fmt.Errorf("dial smtp: %w", err)
	}
	defer s.Close()
	if err := gomail.Send(s, msg); err != nil {
		n.logf("warn", "email send failed", map[string]any{"error": err.Error(), "runId": summary.RunID})
		return err
	}
	n.logf("info", "batch summary email sent", map[string]any{
		"runId": summary.RunID,
		"to":    strings.Join(n.cfg.To, ","),
	})
	return nil
}

func (n *EmailNotifier) logf(level, msg string, fields map[string]any) {
	if n.bus != nil {
		n.bus.Log(level, msg, fields)
	}
}

func validateEmailConfig(c config.EmailConfig) error {
	if strings.TrimSpace(c.SMTPHost) == "" {
		return errors.New("smtp host is required")
	}
	if len(c.To) == 0 {
		return errors.New("at least one recipient is required")
	}
	for _, to := range c.To {
		if _, err := mail.ParseAddress(to); err != nil {
			return fmt.Errorf("invalid recipient %q", to)
		}
	}
	return nil
}

func buildSummarySubject(s model.BatchSummary) string {
	return fmt.Sprintf("profilesync %s: %d/%d profiles provisioned", s.Network, s.Succeeded(), len(s.Outcomes))
}

var emailSummaryHTMLTpl = template.Must(template.New("email-summary").Parse(`
<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <title>Provisioning summary</title>
  </head>
  <body style="margin:0;padding:0;background:#f6f8fb;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,Arial,sans-serif;">
    <div style="max-width:720px;margin:0 auto;padding:24px;">
      <div style="background:#ffffff;border:1px solid #e6e8ef;border-radius:14px;overflow:hidden;">
        <div style="padding:18px 22px;background:linear-gradient(135deg,#0ea5e9,#6366f1);color:#ffffff;">
          <div style="font-size:16px;font-weight:700;">{{ .Network }} provisioning summary</div>
          <div style="margin-top:6px;font-size:12px;opacity:.95;">run {{ .RunID }}</div>
        </div>
        <div style="padding:22px;">
          <div style="font-size:14px;color:#111827;">{{ .Counts }}</div>
          <table role="presentation" cellspacing="0" cellpadding="0" border="0" style="margin-top:12px;width:100%;border-collapse:collapse;">
            <thead>
              <tr style="background:#fafbff;">
                <th style="padding:10px 12px;text-align:left;font-size:12px;color:#6b7280;">Username</th>
                <th style="padding:10px 12px;text-align:left;font-size:12px;color:#6b7280;">State</th>
                <th style="padding:10px 12px;text-align:left;font-size:12px;color:#6b7280;">Profile</th>
                <th style="padding:10px 12px;text-align:left;font-size:12px;color:#6b7280;">Detail</th>
              </tr>
            </thead>
            <tbody>
              {{ range .Rows }}
              <tr>
                <td style="padding:10px 12px;font-size:12px;border-bottom:1px solid #eef0f6;">{{ .Username }}</td>
                <td style="padding:10px 12px;font-size:12px;border-bottom:1px solid #eef0f6;">{{ .State }}</td>
                <td style="padding:10px 12px;font-size:12px;border-bottom:1px solid #eef0f6;">{{ .Profile }}</td>
                <td style="padding:10px 12px;font-size:12px;border-bottom:1px solid #eef0f6;">{{ .Detail }}</td>
              </tr>
              {{ end }}
            </tbody>
          </table>
        </div>
      </div>
    </div>
  </body>
</html>
`))

type summaryRow struct {
	Username string
	State    string
	Profile  string
	Detail   string
}

func buildSummaryEmailBody(s model.BatchSummary) (htmlBody string, textBody string, err error) {
	if len(s.Outcomes) == 0 {
		return "", "", errors.New("no outcomes")
	}

	rows := make([]summaryRow, 0, len(s.Outcomes))
	for _, o := range s.Outcomes {
		state := string(o.State)
		if o.WriteBack != model.WriteBackNone {
			state += " / " + string(o.WriteBack)
		}
		detail := o.Error
		if detail == "" && len(o.Warnings) > 0 {
			detail = strings.Join(o.Warnings, "; ")
		}
		rows = append(rows, summaryRow{
			Username: o.Username,
			State:    state,
			Profile:  o.ProfileID,
			Detail:   detail,
		})
	}

	data := struct {
		Network string
		RunID   string
		Counts  string
		Rows    []summaryRow
	}{
		Network: string(s.Network),
		RunID:   s.RunID,
		Counts:  formatCounts(s),
		Rows:    rows,
	}

	var buf bytes.Buffer
	if err := emailSummaryHTMLTpl.Execute(&buf, data); err != nil {
		return "", "", err
	}

	text := new(strings.Builder)
	fmt.Fprintf(text, "%s provisioning summary (run %s)\n", s.Network, s.RunID)
	text.WriteString(data.Counts + "\n")
	for _, row := range rows {
		fmt.Fprintf(text, "- %s | %s | %s | %s\n", row.Username, row.State, row.Profile, row.Detail)
	}
	return buf.String(), text.String(), nil
}

func formatCounts(s model.BatchSummary) string {
	counts := s.Counts()
	states := make([]string, 0, len(counts))
	for st := range counts {
		states = append(states, string(st))
	}
	sort.Strings(states)
	parts := make([]string, 0, len(states)+1)
	for _, st := range states {
		parts = append(parts, fmt.Sprintf("%s=%d", st, counts[model.ProvisionState(st)]))
	}
	parts = append(parts, fmt.Sprintf("total=%d", len(s.Outcomes)))
	return strings.Join(parts, " ")
}
