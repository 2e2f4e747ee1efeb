package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/trendscope/trendscope/internal/config"
	"github.com/trendscope/trendscope/internal/models"
	"gopkg.in/gomail.v2"
)

// Service handles sending notifications via various channels
type Service struct {
	config *config.Config
	client *resty.Client
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams message
type TeamsMessage struct {
	Type       string         `json:"@type"`
	Context    string         `json:"@context"`
	ThemeColor string         `json:"themeColor,omitempty"`
	Title      string         `json:"title"`
	Text       string         `json:"text"`
	Sections   []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle    string      `json:"activityTitle,omitempty"`
	ActivitySubtitle string      `json:"activitySubtitle,omitempty"`
	ActivityText     string      `json:"activityText,omitempty"`
	Facts            []TeamsFact `json:"facts,omitempty"`
	Markdown         bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

// SendReport sends a report via configured notification channels
func (s *Service) SendReport(report *models.Report) error {
	var errors []string

	if s.config.TeamsWebhookURL != "" {
		if err := s.postToTeams(buildTeamsReport(report)); err != nil {
			logrus.Errorf("Failed to send Teams notification: %v", err)
			errors = append(errors, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Info("Successfully sent report to Teams")
		}
	}

	if s.config.NotificationEmail != "" {
		if err := s.sendReportEmail(report); err != nil {
			logrus.Errorf("Failed to send email notification: %v", err)
			errors = append(errors, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Info("Successfully sent report via email")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// SendAlert sends an urgent alert notification
func (s *Service) SendAlert(alert *models.Alert) error {
	var errors []string

	if s.config.TeamsWebhookURL != "" {
		if err := s.postToTeams(buildTeamsAlert(alert)); err != nil {
			logrus.Errorf("Failed to send Teams alert: %v", err)
			errors = append(errors, fmt.Sprintf("Teams: %v", err))
		}
	}

	if s.config.NotificationEmail != "" {
		if err := s.send(fmt.Sprintf("[%s] %s", strings.ToUpper(alert.Type), alert.Title), alert.Message, ""); err != nil {
			logrus.Errorf("Failed to send email alert: %v", err)
			errors = append(errors, fmt.Sprintf("Email: %v", err))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("alert errors: %s", strings.Join(errors, "; "))
	}

	logrus.Infof("Sent %s alert: %s", alert.Type, alert.Title)
	return nil
}

func (s *Service) postToTeams(message *TeamsMessage) error {
	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.TeamsWebhookURL)

	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}

	if !resp.IsSuccess() {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func formatScore(score *float64) string {
	if score == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *score)
}

func buildTeamsReport(report *models.Report) *TeamsMessage {
	message := &TeamsMessage{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		ThemeColor: "0078D4",
		Title:      fmt.Sprintf("Trending Report - %s", strings.Title(report.Period)),
		Text:       fmt.Sprintf("Analyzed %d watched topics", report.TotalTopics),
	}

	message.Sections = append(message.Sections, TeamsSection{
		ActivityTitle: "Summary",
		Facts: []TeamsFact{
			{Name: "Topics", Value: fmt.Sprintf("%d", report.TotalTopics)},
			{Name: "Scored", Value: fmt.Sprintf("%v", report.Summary["scored_topics"])},
			{Name: "Generated", Value: report.GeneratedAt.Format("2006-01-02 15:04:05 UTC")},
		},
		Markdown: true,
	})

	if len(report.Topics) > 0 {
		var lines []string
		limit := 5
		if len(report.Topics) < limit {
			limit = len(report.Topics)
		}

		for i := 0; i < limit; i++ {
			topic := report.Topics[i]
			line := fmt.Sprintf("**%s** - overall %s", topic.Name, formatScore(topic.OverallScore))
			if topic.TopRepository != nil {
				line += fmt.Sprintf(" | top repo %s (%d stars)", topic.TopRepository.RepoName, topic.TopRepository.Stars)
			}
			lines = append(lines, line)
		}

		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Top Topics",
			ActivityText:  strings.Join(lines, "\n\n"),
			Markdown:      true,
		})
	}

	return message
}

func buildTeamsAlert(alert *models.Alert) *TeamsMessage {
	message := &TeamsMessage{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		ThemeColor: "D13438",
		Title:      alert.Title,
		Text:       alert.Message,
	}

	if alert.Topic != nil {
		facts := []TeamsFact{
			{Name: "Query", Value: alert.Topic.Query},
			{Name: "Overall Score", Value: formatScore(alert.Topic.OverallScore)},
		}
		for _, p := range models.AllPlatforms {
			if score, ok := alert.Topic.PlatformScores[p]; ok {
				facts = append(facts, TeamsFact{Name: strings.Title(string(p)), Value: fmt.Sprintf("%.2f", score)})
			}
		}
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle:    alert.Topic.Name,
			ActivitySubtitle: alert.CreatedAt.Format("2006-01-02 15:04:05 UTC"),
			Facts:            facts,
			Markdown:         true,
		})
	}

	return message
}

func (s *Service) sendReportEmail(report *models.Report) error {
	subject := fmt.Sprintf("Trending Report - %s (%d topics)",
		strings.Title(report.Period), report.TotalTopics)

	htmlBody, err := buildEmailHTML(report)
	if err != nil {
		return fmt.Errorf("failed to build email HTML: %w", err)
	}

	return s.send(subject, BuildTextReport(report), htmlBody)
}

func (s *Service) send(subject, textBody, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", textBody)
	if htmlBody != "" {
		m.AddAlternative("text/html", htmlBody)
	}

	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

const emailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Trending Report</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #0078d4; color: white; padding: 20px; border-radius: 5px; }
        .topic { border-left: 4px solid #0078d4; padding: 10px; margin: 10px 0; background-color: #fafafa; }
        .topic-title { font-weight: bold; margin-bottom: 5px; }
        .topic-meta { color: #666; font-size: 0.9em; }
        .failed { border-left-color: #d13438; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Trending Report</h1>
        <p>{{.Period}} report generated on {{.GeneratedAt.Format "January 2, 2006 at 3:04 PM UTC"}}</p>
    </div>

    <h2>Topics ({{.TotalTopics}})</h2>
    {{range .Topics}}
    <div class="topic{{if .Error}} failed{{end}}">
        <div class="topic-title">{{.Name}}: {{score .OverallScore}}</div>
        <div class="topic-meta">
            Query: {{.Query}}
            {{range $platform, $score := .PlatformScores}} | {{$platform}} {{printf "%.2f" $score}}{{end}}
        </div>
        {{if .TopRepository}}<p>Top repository: {{.TopRepository.RepoName}} ({{.TopRepository.Stars}} stars)</p>{{end}}
        {{range $platform, $err := .PlatformErrors}}<p class="topic-meta">{{$platform}} failed: {{$err}}</p>{{end}}
        {{if .Error}}<p class="topic-meta">{{.Error}}</p>{{end}}
    </div>
    {{end}}

    <hr>
    <p><small>This report was generated automatically by trendscope.</small></p>
</body>
</html>
`

func buildEmailHTML(report *models.Report) (string, error) {
	t, err := template.New("email").Funcs(template.FuncMap{"score": formatScore}).Parse(emailTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, report); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// BuildTextReport renders a report as plain text.
func BuildTextReport(report *models.Report) string {
	var text strings.Builder

	text.WriteString(fmt.Sprintf("Trending Report - %s\n", strings.Title(report.Period)))
	text.WriteString(fmt.Sprintf("Generated: %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC")))

	text.WriteString("SUMMARY\n")
	text.WriteString("=======\n")
	text.WriteString(fmt.Sprintf("Total Topics: %d\n", report.TotalTopics))
	if scored, ok := report.Summary["scored_topics"]; ok {
		text.WriteString(fmt.Sprintf("Scored Topics: %v\n", scored))
	}

	if len(report.Topics) > 0 {
		text.WriteString("\nTOPICS\n")
		text.WriteString("======\n")

		for i, topic := range report.Topics {
			text.WriteString(fmt.Sprintf("\n%d. %s (overall %s)\n", i+1, topic.Name, formatScore(topic.OverallScore)))
			text.WriteString(fmt.Sprintf("   Query: %s\n", topic.Query))
			for _, p := range models.AllPlatforms {
				if score, ok := topic.PlatformScores[p]; ok {
					text.WriteString(fmt.Sprintf("   %s: %.2f\n", p, score))
				}
				if msg, ok := topic.PlatformErrors[p]; ok {
					text.WriteString(fmt.Sprintf("   %s failed: %s\n", p, msg))
				}
			}
			if topic.TopRepository != nil {
				text.WriteString(fmt.Sprintf("   Top repository: %s (%d stars, %d forks)\n",
					topic.TopRepository.RepoName, topic.TopRepository.Stars, topic.TopRepository.Forks))
			}
			if topic.Error != "" {
				text.WriteString(fmt.Sprintf("   Error: %s\n", topic.Error))
			}
		}
	}

	text.WriteString("\n---\nThis report was generated automatically by trendscope.\n")

	return text.String()
}
