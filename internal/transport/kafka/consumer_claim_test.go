package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/require"

	testlog "hos-route-coordinator/internal/testutil"
)

type fakeSession struct {
	ctx context.Context

	mu     sync.Mutex
	marked int
}

func (s *fakeSession) Context() context.Context { return s.ctx }
func (s *fakeSession) MarkMessage(*sarama.ConsumerMessage, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked++
}
func (s *fakeSession) MarkOffset(string, int32, int64, string)  {}
func (s *fakeSession) Commit()                                  {}
func (s *fakeSession) ResetOffset(string, int32, int64, string) {}
func (s *fakeSession) Claims() map[string][]int32               { return nil }
func (s *fakeSession) MemberID() string                         { return "" }
func (s *fakeSession) GenerationID() int32                      { return 0 }

func (s *fakeSession) MarkedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.marked
}

type fakeClaim struct {
	ch chan *sarama.ConsumerMessage
}

func (c fakeClaim) Topic() string              { return "t" }
func (c fakeClaim) Partition() int32           { return 0 }
func (c fakeClaim) InitialOffset() int64       { return 0 }
func (c fakeClaim) HighWaterMarkOffset() int64 { return 0 }
func (c fakeClaim) Messages() <-chan *sarama.ConsumerMessage {
	return c.ch
}

func hasMsg(entries []testlog.Entry, msg string) bool {
	for _, e := range entries {
		if e.Msg == msg {
			return true
		}
	}
	return false
}

func claimWith(value []byte) (*fakeSession, fakeClaim) {
	sess := &fakeSession{ctx: context.Background()}
	msgCh := make(chan *sarama.ConsumerMessage, 1)
	msgCh <- &sarama.ConsumerMessage{Value: value}
	close(msgCh)
	return sess, fakeClaim{ch: msgCh}
}

func TestConsumeClaim_BadJSON_Skips(t *testing.T) {
	t.Parallel()

	rec := testlog.New()
	c := &Consumer{
		logger: rec.Logger(),
		handler: func(context.Context, TriggerEvent) error {
			t.Fatal("handler must not be called")
			return nil
		},
	}
	h := &groupHandler{c: c}

	sess, claim := claimWith([]byte("not-json"))
	require.NoError(t, h.ConsumeClaim(sess, claim))
	require.Equal(t, 1, sess.MarkedCount())
	require.True(t, hasMsg(rec.Entries(), "kafka bad json"))
}

func TestConsumeClaim_EmptyPlanID_Skips(t *testing.T) {
	t.Parallel()

	rec := testlog.New()
	calls := 0
	c := &Consumer{
		logger: rec.Logger(),
		handler: func(context.Context, TriggerEvent) error {
			calls++
			return nil
		},
	}
	h := &groupHandler{c: c}

	b, _ := json.Marshal(TriggerEventDTO{PlanID: "   ", BaseVersion: 1})
	sess, claim := claimWith(b)
	require.NoError(t, h.ConsumeClaim(sess, claim))
	require.Equal(t, 1, sess.MarkedCount())
	require.Equal(t, 0, calls)
	require.True(t, hasMsg(rec.Entries(), "kafka empty plan_id"))
}

func TestConsumeClaim_PermanentError_SkipsButMarks(t *testing.T) {
	t.Parallel()

	rec := testlog.New()
	c := &Consumer{
		logger: rec.Logger(),
		handler: func(context.Context, TriggerEvent) error {
			return Permanent(errors.New("stale base version"))
		},
	}
	h := &groupHandler{c: c}

	delay := 0.5
	b, _ := json.Marshal(TriggerEventDTO{
		PlanID:      "plan-1",
		BaseVersion: 2,
		Triggers:    []TriggerDTO{{TriggerType: "traffic_delay", DelayHours: &delay}},
	})
	sess, claim := claimWith(b)
	require.NoError(t, h.ConsumeClaim(sess, claim))
	require.Equal(t, 1, sess.MarkedCount())
	require.True(t, hasMsg(rec.Entries(), "kafka trigger batch dropped"))
}

func TestConsumeClaim_TransientError_ForcesRedelivery(t *testing.T) {
	t.Parallel()

	rec := testlog.New()
	sentinel := errors.New("db down")
	c := &Consumer{
		logger: rec.Logger(),
		handler: func(context.Context, TriggerEvent) error {
			return sentinel
		},
	}
	h := &groupHandler{c: c}

	b, _ := json.Marshal(TriggerEventDTO{PlanID: "plan-1", BaseVersion: 1})
	sess, claim := claimWith(b)
	require.ErrorIs(t, h.ConsumeClaim(sess, claim), sentinel)
	require.Equal(t, 0, sess.MarkedCount())
}

func TestConsumeClaim_Success_MarksAndDispatches(t *testing.T) {
	t.Parallel()

	rec := testlog.New()
	var got TriggerEvent
	c := &Consumer{
		logger: rec.Logger(),
		handler: func(_ context.Context, ev TriggerEvent) error {
			got = ev
			return nil
		},
	}
	h := &groupHandler{c: c}

	hours := 2.0
	b, _ := json.Marshal(TriggerEventDTO{
		PlanID:      "  plan-1  ",
		BaseVersion: 3,
		Triggers:    []TriggerDTO{{TriggerType: "driver_rest_request", RestHours: &hours}},
	})
	sess, claim := claimWith(b)
	require.NoError(t, h.ConsumeClaim(sess, claim))
	require.Equal(t, 1, sess.MarkedCount())
	require.Equal(t, "plan-1", got.PlanID)
	require.Equal(t, int64(3), got.BaseVersion)
	require.Len(t, got.Triggers, 1)
}
