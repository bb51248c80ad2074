package mailer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wikimedia/cloud-toolforge-jobs-framework-emailer/internal/config"
)

func testEmail() Email {
	return Email{
		ID:      "test-id",
		To:      "toolsbeta.mytool@toolsbeta.wmflabs.org",
		From:    "root@toolforge.org",
		Subject: "[Toolforge] notification about 1 job events",
		Body:    "hello",
	}
}

func TestSMTPSenderName(t *testing.T) {
	s := NewSMTPSender(zap.NewNop(), config.NewStore(zap.NewNop(), zap.NewAtomicLevel()))
	assert.Equal(t, "smtp", s.Name())
}

func TestSMTPSenderSimulatedDelivery(t *testing.T) {
	// Defaults keep send_emails_for_real off, so no relay is contacted.
	store := config.NewStore(zap.NewNop(), zap.NewAtomicLevel())
	require.False(t, store.Snapshot().SendForReal)

	s := NewSMTPSender(zap.NewNop(), store)
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	for range 3 {
		assert.NoError(t, s.Send(context.Background(), testEmail()))
	}

	cancel()
	s.Close()
}

func TestSMTPSenderSendWithCancelledContext(t *testing.T) {
	// No worker running: Send must bail out on the context instead of
	// blocking on the hand-off.
	s := NewSMTPSender(zap.NewNop(), config.NewStore(zap.NewNop(), zap.NewAtomicLevel()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Send(ctx, testEmail())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSMTPSenderCloseAfterCancel(t *testing.T) {
	s := NewSMTPSender(zap.NewNop(), config.NewStore(zap.NewNop(), zap.NewAtomicLevel()))
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		s.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("sender worker did not exit after context cancellation")
	}
}
