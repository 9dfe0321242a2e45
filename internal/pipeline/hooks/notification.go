package hooks

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	"recruiting-pipeline/internal/common/errors"
	"recruiting-pipeline/internal/models"
)

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// CandidateReader loads the candidate a notification is about.
type CandidateReader interface {
	GetCandidate(ctx context.Context, id string) (*models.Candidate, error)
}

type NotificationConfig struct {
	FromEmail string
	To        []string
	TopicARN  string
}

// NotificationHook emails recruiters on new applications and accepted offers and
// publishes every stage change to an SNS topic. Either client may be nil.
type NotificationHook struct {
	Base
	cfg        NotificationConfig
	email      SESService
	sms        SNSService
	candidates CandidateReader
}

func NewNotificationHook(cfg NotificationConfig, email SESService, sms SNSService, candidates CandidateReader) *NotificationHook {
	return &NotificationHook{cfg: cfg, email: email, sms: sms, candidates: candidates}
}

func (h *NotificationHook) Name() string { return "notification" }

var templates = map[string]struct{ subject, body string }{
	"candidate_created": {
		subject: "New inbound application: {{name}}",
		body:    "{{name}} applied for {{role}}.\nEmail: {{email}}\nSource: {{source}}",
	},
	"offer_accepted": {
		subject: "Offer accepted: {{name}}",
		body:    "{{name}} accepted the offer for {{role}}. Onboarding has started.",
	},
	"stage_changed": {
		body: "{{name}} moved from {{from}} to {{to}}",
	},
}

func (h *NotificationHook) OnCandidateCreated(ctx context.Context, c *models.Candidate) error {
	return h.sendEmail(ctx, "candidate_created", candidateData(c))
}

func (h *NotificationHook) OnOfferAccepted(ctx context.Context, candidateID string) error {
	c, err := h.candidates.GetCandidate(ctx, candidateID)
	if err != nil {
		return err
	}
	return h.sendEmail(ctx, "offer_accepted", candidateData(c))
}

func (h *NotificationHook) OnStageChanged(ctx context.Context, candidateID string, from, to models.Stage) error {
	if h.sms == nil || h.cfg.TopicARN == "" {
		return nil
	}
	c, err := h.candidates.GetCandidate(ctx, candidateID)
	if err != nil {
		return err
	}
	data := candidateData(c)
	data["from"] = string(from)
	data["to"] = string(to)

	_, err = h.sms.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(h.cfg.TopicARN),
		Message:  aws.String(renderTemplate(templates["stage_changed"].body, data)),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"candidateId": {DataType: aws.String("String"), StringValue: aws.String(candidateID)},
			"toStage":     {DataType: aws.String("String"), StringValue: aws.String(string(to))},
		},
	})
	if err != nil {
		return errors.NewExternalServiceError("sns", err, true)
	}
	return nil
}

func (h *NotificationHook) sendEmail(ctx context.Context, templateID string, data map[string]interface{}) error {
	if h.email == nil || len(h.cfg.To) == 0 {
		return nil
	}
	tmpl := templates[templateID]
	body := renderTemplate(tmpl.body, data)

	_, err := h.email.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{ToAddresses: h.cfg.To},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(renderTemplate(tmpl.subject, data))},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(h.cfg.FromEmail),
	})
	if err != nil {
		return errors.NewExternalServiceError("ses", err, true)
	}
	return nil
}

func candidateData(c *models.Candidate) map[string]interface{} {
	return map[string]interface{}{
		"name":   c.Name,
		"email":  orNA(c.Email),
		"role":   orNA(c.Role),
		"source": orNA(c.Source),
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// renderTemplate replaces {{key}} placeholders. Placeholders without a value render empty.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	out := tmpl
	for k, v := range data {
		out = strings.ReplaceAll(out, "{{"+k+"}}", fmt.Sprint(v))
	}
	for {
		start := strings.Index(out, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(out[start:], "}}")
		if end == -1 {
			break
		}
		out = out[:start] + out[start+end+2:]
	}
	return out
}
