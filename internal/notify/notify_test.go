package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/yuirsilva/deadline-daddy/internal/models"
)

type recordingNotifier struct {
	subs []string
	msgs []Message
	err  error
}

func (r *recordingNotifier) Send(_ context.Context, sub string, msg Message) error {
	r.subs = append(r.subs, sub)
	r.msgs = append(r.msgs, msg)
	return r.err
}

func failedTask() models.Task {
	return models.Task{ID: "task-1", UserID: 7, Title: "Estudar Go", Penalty: 500, Status: models.TaskFailed}
}

func TestFailureMessage(t *testing.T) {
	d := NewDispatcher(nil, NewRoaster(fixedPicker(0)), zaptest.NewLogger(t))

	msg := d.FailureMessage(failedTask(), 0)
	assert.Equal(t, "💀 Estudar Go", msg.Title)
	assert.Equal(t, "Parabéns. Você não fez nada de novo. R$5,00 bem investidos.", msg.Body)
	assert.Equal(t, "/tarefa/task-1", msg.URL)

	withStreak := d.FailureMessage(failedTask(), 4)
	assert.Equal(t, msg.Body+"\n\nSequência de 4 dias quebrada. Voltamos à estaca zero.", withStreak.Body)
}

func TestFailurePayloadGolden(t *testing.T) {
	d := NewDispatcher(nil, NewRoaster(fixedPicker(0)), zaptest.NewLogger(t))

	body, err := Payload(d.FailureMessage(failedTask(), 4))
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "failure_payload", body)
}

func TestPayloadDefaultsURL(t *testing.T) {
	body, err := Payload(Message{Title: "t", Body: "b"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"t","body":"b","icon":"/icon-192x192.png","badge":"/badge-72x72.png","url":"/dashboard"}`, string(body))
}

func TestTaskFailedSwallowsErrors(t *testing.T) {
	rec := &recordingNotifier{err: errors.New("gone")}
	d := NewDispatcher(rec, NewRoaster(fixedPicker(0)), zaptest.NewLogger(t))

	d.TaskFailed(context.Background(), `{"endpoint":"https://push.example"}`, failedTask(), 2)
	require.Len(t, rec.msgs, 1)
	assert.Equal(t, `{"endpoint":"https://push.example"}`, rec.subs[0])
}

func TestTaskFailedWithoutSubscription(t *testing.T) {
	rec := &recordingNotifier{}
	d := NewDispatcher(rec, nil, zaptest.NewLogger(t))

	d.TaskFailed(context.Background(), "", failedTask(), 2)
	assert.Empty(t, rec.msgs)
}

func TestWebPushRejectsEmptySubscription(t *testing.T) {
	w := NewWebPush("pub", "priv", "mailto:ops@example.com")
	err := w.Send(context.Background(), "", Message{})
	assert.ErrorIs(t, err, ErrNoSubscription)

	err = w.Send(context.Background(), "not json", Message{})
	assert.Error(t, err)
}
