package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/brickstudio/backend/pkg/queue"
)

type fakeMailer struct {
	sent []string
	fail bool
}

func (m *fakeMailer) Send(to, subject, body string) error {
	if m.fail {
		return errors.New("smtp down")
	}
	m.sent = append(m.sent, to)
	return nil
}

func reviewJob(t *testing.T, p queue.ReviewRequestPayload) *queue.Job {
	t.Helper()
	raw, err := json.Marshal(p)
	require.NoError(t, err)
	return &queue.Job{ID: uuid.New().String(), Type: queue.JobTypeReviewRequest, Payload: raw}
}

func TestProcessReviewRequestSendsMail(t *testing.T) {
	mailer := &fakeMailer{}
	w := New(nil, mailer, nil, zap.NewNop())

	p := queue.ReviewRequestPayload{
		WorkshopID:    uuid.New(),
		ReviewID:      uuid.New(),
		Recipient:     "client@example.com",
		ClientName:    "Alex",
		WorkshopTitle: "Team Vision",
		ReviewURL:     "https://example.com/review/abc",
	}
	require.NoError(t, w.process(context.Background(), reviewJob(t, p)))
	assert.Equal(t, []string{"client@example.com"}, mailer.sent)
}

func TestProcessReviewRequestPropagatesSendError(t *testing.T) {
	w := New(nil, &fakeMailer{fail: true}, nil, zap.NewNop())
	p := queue.ReviewRequestPayload{Recipient: "client@example.com"}
	assert.Error(t, w.process(context.Background(), reviewJob(t, p)))
}

func TestProcessDropsMalformedAndUnknownJobs(t *testing.T) {
	mailer := &fakeMailer{}
	w := New(nil, mailer, nil, zap.NewNop())

	malformed := &queue.Job{ID: "x", Type: queue.JobTypeReviewRequest, Payload: []byte("{garbage")}
	assert.NoError(t, w.process(context.Background(), malformed))

	unknown := &queue.Job{ID: "y", Type: "mystery", Payload: []byte("{}")}
	assert.NoError(t, w.process(context.Background(), unknown))

	assert.Empty(t, mailer.sent)
}

func TestReviewRequestBody(t *testing.T) {
	p := queue.ReviewRequestPayload{
		ClientName:    "Alex",
		WorkshopTitle: "Team Vision",
		ReviewURL:     "https://example.com/review/abc",
	}
	body := reviewRequestBody(p)
	assert.Contains(t, body, "Hi Alex")
	assert.Contains(t, body, `"Team Vision"`)
	assert.Contains(t, body, p.ReviewURL)

	anon := reviewRequestBody(queue.ReviewRequestPayload{WorkshopTitle: "X"})
	assert.Contains(t, anon, "Hi,")
}
