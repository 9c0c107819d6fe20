package delivery

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tech-arch1tect/accounts/clock"
	"github.com/tech-arch1tect/accounts/testutils"
)

func newTestDispatcher(t *testing.T, sender Sender) *Dispatcher {
	t.Helper()
	cfg := testutils.GetTestConfig()
	logger, _ := testutils.NewObservedLogger()
	return NewDispatcher(cfg, sender, clock.NewMock(testutils.Epoch), logger)
}

func TestDispatcher_DeliversOnWorkers(t *testing.T) {
	sender := &testutils.MockSender{}
	sender.On("SendTemplate", "signup_verification", []string{"jane@example.com"}, "Verify your Test App account",
		mock.MatchedBy(func(data map[string]any) bool {
			return data["Code"] == "123456" && data["AppName"] == "Test App" && data["Year"] == 2026
		})).Return(nil).Once()

	d := newTestDispatcher(t, sender)
	d.Start()

	d.Deliver(KindSignupVerification, "jane@example.com", Payload{"Code": "123456"})

	require.NoError(t, d.Stop(context.Background()))
	sender.AssertExpectations(t)
}

func TestDispatcher_FailuresAreSwallowed(t *testing.T) {
	sender := &testutils.MockSender{}
	sender.On("SendTemplate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("smtp down")).Twice()

	cfg := testutils.GetTestConfig()
	logger, logs := testutils.NewObservedLogger()
	d := NewDispatcher(cfg, sender, clock.New(), logger)
	d.Start()

	assert.NotPanics(t, func() {
		d.Deliver(KindWelcome, "jane@example.com", nil)
		d.Deliver(KindPasswordResetSuccess, "jane@example.com", nil)
	})
	require.NoError(t, d.Stop(context.Background()))

	sender.AssertExpectations(t)
	assert.Equal(t, 2, logs.FilterMessage("delivery failed").Len())
}

type panickingSender struct{}

func (panickingSender) SendTemplate(context.Context, string, []string, string, map[string]any) error {
	panic("boom")
}

func TestDispatcher_RecoversPanics(t *testing.T) {
	cfg := testutils.GetTestConfig()
	logger, logs := testutils.NewObservedLogger()
	d := NewDispatcher(cfg, panickingSender{}, clock.New(), logger)
	d.Start()

	d.Deliver(KindWelcome, "jane@example.com", nil)
	require.NoError(t, d.Stop(context.Background()))

	assert.Equal(t, 1, logs.FilterMessage("delivery panicked").Len())
}

func TestDispatcher_DisabledUserEmails(t *testing.T) {
	sender := &testutils.MockSender{}
	cfg := testutils.GetTestConfig()
	cfg.App.EnableUserEmails = false
	logger, logs := testutils.NewObservedLogger()
	d := NewDispatcher(cfg, sender, clock.New(), logger)
	d.Start()

	d.Deliver(KindPasswordReset, "jane@example.com", Payload{"ResetURL": "x"})
	require.NoError(t, d.Stop(context.Background()))

	sender.AssertNotCalled(t, "SendTemplate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 1, logs.FilterMessage("user emails disabled, skipping delivery").Len())
}

type blockingSender struct {
	release chan struct{}
	mu      sync.Mutex
	calls   int
}

func (b *blockingSender) SendTemplate(ctx context.Context, _ string, _ []string, _ string, _ map[string]any) error {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	select {
	case <-b.release:
	case <-ctx.Done():
	}
	return nil
}

func TestDispatcher_FullQueueDropsWithoutBlocking(t *testing.T) {
	cfg := testutils.GetTestConfig()
	cfg.Delivery.QueueSize = 1
	cfg.Delivery.Workers = 1
	logger, logs := testutils.NewObservedLogger()
	sender := &blockingSender{release: make(chan struct{})}
	d := NewDispatcher(cfg, sender, clock.New(), logger)

	// not started: the single slot fills and the rest are dropped
	done := make(chan struct{})
	go func() {
		for range 5 {
			d.Deliver(KindWelcome, "jane@example.com", nil)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Deliver blocked on a full queue")
	}

	assert.Equal(t, 4, logs.FilterMessage("delivery queue full, dropping message").Len())

	d.Start()
	close(sender.release)
	require.NoError(t, d.Stop(context.Background()))

	assert.Equal(t, 1, sender.calls)
}

func TestDispatcher_DeliverAfterStop(t *testing.T) {
	sender := &testutils.MockSender{}
	cfg := testutils.GetTestConfig()
	logger, logs := testutils.NewObservedLogger()
	d := NewDispatcher(cfg, sender, clock.New(), logger)
	d.Start()
	require.NoError(t, d.Stop(context.Background()))
	require.NoError(t, d.Stop(context.Background()))

	assert.NotPanics(t, func() { d.Deliver(KindWelcome, "jane@example.com", nil) })
	assert.Equal(t, 1, logs.FilterMessage("delivery stopped, dropping message").Len())
}

func TestDispatcher_Subjects(t *testing.T) {
	d := newTestDispatcher(t, &testutils.MockSender{})

	assert.Equal(t, "Verify your Test App account", d.subject(KindSignupVerification))
	assert.Equal(t, "Welcome to Test App!", d.subject(KindWelcome))
	assert.Equal(t, "Reset your Test App password", d.subject(KindPasswordReset))
	assert.Equal(t, "Your Test App password has been reset", d.subject(KindPasswordResetSuccess))
}

func TestLogSender(t *testing.T) {
	logger, logs := testutils.NewObservedLogger()
	s := NewLogSender(logger)

	err := s.SendTemplate(context.Background(), "password_reset", []string{"jane@example.com"}, "Reset", map[string]any{"Token": "secret"})

	require.NoError(t, err)
	entries := logs.All()
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].ContextMap(), "Token")
}
