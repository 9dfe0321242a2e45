package hooks

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recruiting-pipeline/internal/common/errors"
	"recruiting-pipeline/internal/common/logger"
	"recruiting-pipeline/internal/models"
	"recruiting-pipeline/internal/pipeline/events"
	"recruiting-pipeline/internal/pipeline/status"
	"recruiting-pipeline/internal/store/memory"
)

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

func seeded(t *testing.T) *memory.Store {
	t.Helper()
	st := memory.New()
	require.NoError(t, st.CreateCandidate(context.Background(), &models.Candidate{
		ID: "c-1", Name: "Katherine Johnson", Email: "kj@example.com", Role: "Engineer",
		Stage: models.StageOffer, CreatedAt: time.Now().UTC(),
	}))
	return st
}

func TestNotificationHook_CandidateCreatedEmail(t *testing.T) {
	var sent *ses.SendEmailInput
	mockSES := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			sent = params
			return &ses.SendEmailOutput{}, nil
		},
	}
	h := NewNotificationHook(NotificationConfig{FromEmail: "ats@example.com", To: []string{"hr@example.com"}}, mockSES, nil, seeded(t))

	err := h.OnCandidateCreated(context.Background(), &models.Candidate{ID: "c-9", Name: "Mary Jackson", Role: "Analyst"})
	require.NoError(t, err)

	require.NotNil(t, sent)
	assert.Equal(t, "ats@example.com", aws.ToString(sent.Source))
	assert.Equal(t, []string{"hr@example.com"}, sent.Destination.ToAddresses)
	assert.Equal(t, "New inbound application: Mary Jackson", aws.ToString(sent.Message.Subject.Data))
	assert.Contains(t, aws.ToString(sent.Message.Body.Text.Data), "Email: N/A")
}

func TestNotificationHook_StageChangePublishes(t *testing.T) {
	var published *sns.PublishInput
	mockSNS := &MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			published = params
			return &sns.PublishOutput{}, nil
		},
	}
	h := NewNotificationHook(NotificationConfig{TopicARN: "arn:aws:sns:eu-west-1:123:pipeline"}, nil, mockSNS, seeded(t))

	require.NoError(t, h.OnStageChanged(context.Background(), "c-1", models.StageInterview, models.StageOffer))

	require.NotNil(t, published)
	assert.Equal(t, "Katherine Johnson moved from interview to offer", aws.ToString(published.Message))
	assert.Equal(t, "offer", aws.ToString(published.MessageAttributes["toStage"].StringValue))
}

func TestNotificationHook_ErrorsAreExternal(t *testing.T) {
	mockSES := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, stderrors.New("throttled")
		},
	}
	h := NewNotificationHook(NotificationConfig{To: []string{"hr@example.com"}}, mockSES, nil, seeded(t))

	err := h.OnOfferAccepted(context.Background(), "c-1")
	assert.Equal(t, errors.ErrCodeExternalService, errors.CodeOf(err))

	err = h.OnOfferAccepted(context.Background(), "missing")
	assert.True(t, stderrors.Is(err, errors.ErrNotFound))
}

func TestNotificationHook_DisabledChannelsAreNoOps(t *testing.T) {
	h := NewNotificationHook(NotificationConfig{}, nil, nil, seeded(t))
	ctx := context.Background()

	assert.NoError(t, h.OnCandidateCreated(ctx, &models.Candidate{ID: "c-1"}))
	assert.NoError(t, h.OnStageChanged(ctx, "c-1", models.StageApplied, models.StageScreening))
	assert.NoError(t, h.OnOfferAccepted(ctx, "c-1"))
}

type fakeStarter struct {
	processID string
	vars      map[string]interface{}
	err       error
}

func (f *fakeStarter) StartProcess(_ context.Context, processID string, vars map[string]interface{}) (int64, error) {
	f.processID, f.vars = processID, vars
	return 2251799813685249, f.err
}

func statusWriter(t *testing.T, st *memory.Store) *status.Writer {
	return status.NewWriter(st, events.NewRecorder(st, events.Options{}, logger.NewNoOpLogger()), time.Second, logger.NewNoOpLogger())
}

func TestOnboardingHook(t *testing.T) {
	st := seeded(t)
	starter := &fakeStarter{}
	h := NewOnboardingHook("candidate-onboarding", starter, statusWriter(t, st), logger.NewTestLogger(t))
	ctx := context.Background()

	require.NoError(t, h.OnOfferAccepted(ctx, "c-1"))
	assert.Equal(t, "candidate-onboarding", starter.processID)
	assert.Equal(t, "c-1", starter.vars["candidateId"])

	c, err := st.GetCandidate(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, models.StepStatus{Status: "in_progress", Source: models.SourceSystem}, c.Onboarding)
}

func TestOnboardingHook_LockedFieldStillStartsProcess(t *testing.T) {
	st := seeded(t)
	ctx := context.Background()
	w := statusWriter(t, st)
	_, err := w.Override(ctx, "c-1", models.FieldOnboarding, "deferred")
	require.NoError(t, err)

	starter := &fakeStarter{}
	h := NewOnboardingHook("candidate-onboarding", starter, w, logger.NewNoOpLogger())
	require.NoError(t, h.OnOfferAccepted(ctx, "c-1"))
	assert.Equal(t, "candidate-onboarding", starter.processID)

	c, err := st.GetCandidate(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, "deferred", c.Onboarding.Status)
}

func TestOnboardingHook_StartFailure(t *testing.T) {
	st := seeded(t)
	starter := &fakeStarter{err: errors.NewExternalServiceError("zeebe", stderrors.New("unavailable"), true)}
	h := NewOnboardingHook("candidate-onboarding", starter, statusWriter(t, st), logger.NewNoOpLogger())

	err := h.OnOfferAccepted(context.Background(), "c-1")
	assert.Equal(t, errors.ErrCodeExternalService, errors.CodeOf(err))
}

func TestStatusSyncHook(t *testing.T) {
	st := seeded(t)
	h := NewStatusSyncHook(models.StageOffer, statusWriter(t, st))
	ctx := context.Background()

	require.NoError(t, h.OnStageChanged(ctx, "c-1", models.StageApplied, models.StageScreening))
	c, _ := st.GetCandidate(ctx, "c-1")
	assert.Empty(t, c.Offer.Status)

	require.NoError(t, h.OnStageChanged(ctx, "c-1", models.StageInterview, models.StageOffer))
	c, _ = st.GetCandidate(ctx, "c-1")
	assert.Equal(t, "extended", c.Offer.Status)

	require.NoError(t, h.OnOfferAccepted(ctx, "c-1"))
	c, _ = st.GetCandidate(ctx, "c-1")
	assert.Equal(t, "accepted", c.Offer.Status)
}

func TestRenderTemplate(t *testing.T) {
	got := renderTemplate("{{name}} moved to {{to}}{{unknown}}.", map[string]interface{}{
		"name": "Ada",
		"to":   "interview",
	})
	assert.Equal(t, "Ada moved to interview.", got)
	assert.Equal(t, "broken {{tag", renderTemplate("broken {{tag", nil))
}
