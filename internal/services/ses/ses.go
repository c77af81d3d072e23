// Package ses provides email notification services via AWS SES
package ses

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	appConfig "campaign-filter-engine/internal/config"
	"campaign-filter-engine/internal/utils"
)

// Service handles SES email operations
type Service struct {
	client    *ses.Client
	fromEmail string
}

// EmailParams represents parameters for sending an email
type EmailParams struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
	ReplyTo  string
}

// FileLink is one downloadable campaign file.
type FileLink struct {
	Name string
	Rows int
	URL  string
}

// CampaignReadyParams contains data for the campaign ready email
type CampaignReadyParams struct {
	To           string
	JobID        string
	Agreement    string
	CampaignType string
	RowsIn       int
	RowsOut      int
	Warnings     int
	Files        []FileLink
	ExpiresAt    time.Time
}

// SendEmailResult contains the result of sending an email
type SendEmailResult struct {
	MessageID string
	SentAt    time.Time
}

// NewService creates a new SES service
func NewService(ctx context.Context, appCfg *appConfig.Config) (*Service, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(appCfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Service{
		client:    ses.NewFromConfig(cfg),
		fromEmail: appCfg.SESSenderEmail,
	}, nil
}

// SendEmail sends a basic email
func (s *Service) SendEmail(ctx context.Context, params EmailParams) (*SendEmailResult, error) {
	input := &ses.SendEmailInput{
		Source: aws.String(s.fromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{params.To},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(params.Subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{},
		},
	}

	if params.HTMLBody != "" {
		input.Message.Body.Html = &types.Content{
			Data:    aws.String(params.HTMLBody),
			Charset: aws.String("UTF-8"),
		}
	}

	if params.TextBody != "" {
		input.Message.Body.Text = &types.Content{
			Data:    aws.String(params.TextBody),
			Charset: aws.String("UTF-8"),
		}
	}

	if params.ReplyTo != "" {
		input.ReplyToAddresses = []string{params.ReplyTo}
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		utils.GetLogger().Error("Failed to send email",
			utils.String("to", params.To),
			utils.String("subject", params.Subject),
			utils.Error(err),
		)
		return nil, fmt.Errorf("failed to send email: %w", err)
	}

	utils.GetLogger().Info("Email sent successfully",
		utils.String("to", params.To),
		utils.String("subject", params.Subject),
		utils.String("messageId", aws.ToString(result.MessageId)),
	)

	return &SendEmailResult{
		MessageID: aws.ToString(result.MessageId),
		SentAt:    time.Now(),
	}, nil
}

// SendCampaignReady tells the requester that the campaign files can be downloaded
func (s *Service) SendCampaignReady(ctx context.Context, params CampaignReadyParams) (*SendEmailResult, error) {
	htmlBody, err := RenderCampaignReadyHTML(params)
	if err != nil {
		return nil, fmt.Errorf("failed to render email template: %w", err)
	}

	return s.SendEmail(ctx, EmailParams{
		To:       params.To,
		Subject:  CampaignReadySubject(params),
		HTMLBody: htmlBody,
		TextBody: RenderCampaignReadyText(params),
	})
}

// CampaignReadySubject returns the subject line of the campaign ready email.
func CampaignReadySubject(params CampaignReadyParams) string {
	agreement := params.Agreement
	if agreement == "" {
		agreement = "geral"
	}
	return fmt.Sprintf("Campanha %s (%s) pronta: %d clientes", strings.ToUpper(agreement), params.CampaignType, params.RowsOut)
}

var campaignReadyTemplate = template.Must(template.New("campaign_ready").Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #1f6f8b; color: white; padding: 24px; border-radius: 10px 10px 0 0; }
        .content { background: #f9f9f9; padding: 24px; border-radius: 0 0 10px 10px; }
        table { width: 100%; border-collapse: collapse; }
        td, th { padding: 8px; border-bottom: 1px solid #ddd; text-align: left; }
        .footer { text-align: center; margin-top: 24px; color: #999; font-size: 12px; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Campanha pronta</h1>
        <p>{{.CampaignType}} / {{if .Agreement}}{{.Agreement}}{{else}}geral{{end}}</p>
    </div>
    <div class="content">
        <p>{{.RowsOut}} de {{.RowsIn}} clientes selecionados.{{if .Warnings}} {{.Warnings}} linhas foram ignoradas na leitura.{{end}}</p>
        <table>
            <tr><th>Arquivo</th><th>Clientes</th></tr>
            {{range .Files}}
            <tr><td>{{if .URL}}<a href="{{.URL}}">{{.Name}}</a>{{else}}{{.Name}}{{end}}</td><td>{{.Rows}}</td></tr>
            {{end}}
        </table>
        {{if not .ExpiresAt.IsZero}}<p>Os links expiram em {{.ExpiresAt.Format "02/01/2006 15:04"}} UTC.</p>{{end}}
    </div>
    <div class="footer">
        <p>Job {{.JobID}}</p>
    </div>
</body>
</html>`))

// RenderCampaignReadyHTML renders the HTML body
func RenderCampaignReadyHTML(params CampaignReadyParams) (string, error) {
	var buf bytes.Buffer
	if err := campaignReadyTemplate.Execute(&buf, params); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderCampaignReadyText renders plain text version
func RenderCampaignReadyText(params CampaignReadyParams) string {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Campanha %s pronta (job %s).\n\n", params.CampaignType, params.JobID))
	buf.WriteString(fmt.Sprintf("%d de %d clientes selecionados.\n\n", params.RowsOut, params.RowsIn))

	for _, f := range params.Files {
		buf.WriteString(fmt.Sprintf("- %s (%d clientes)\n", f.Name, f.Rows))
		if f.URL != "" {
			buf.WriteString(fmt.Sprintf("  %s\n", f.URL))
		}
	}

	return buf.String()
}
