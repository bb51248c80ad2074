package mailer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/wikimedia/cloud-toolforge-jobs-framework-emailer/internal/config"
)

const (
	// defaultSendTimeout bounds one relay session.
	defaultSendTimeout = 30 * time.Second

	// relayRate and relayBurst keep a freshly drained queue from hitting
	// the relay faster than one message per second sustained.
	relayRate  = rate.Limit(1)
	relayBurst = 10
)

// Sender delivers one composed email.
type Sender interface {
	// Name returns the sender's identifier (e.g. "smtp").
	Name() string

	// Send delivers the email and reports the outcome. Blocking.
	Send(ctx context.Context, email Email) error
}

// smtpWork is an internal message handed to the delivery worker.
type smtpWork struct {
	ctx    context.Context
	email  Email
	result chan error
}

// SMTPSender delivers email through the relay named in the configuration
// store. Host, port, From address and the simulate toggle are re-read on
// every delivery so reconfiguration applies without a restart.
type SMTPSender struct {
	logger  *zap.Logger
	store   *config.Store
	limiter *rate.Limiter
	timeout time.Duration
	sendCh  chan smtpWork
	wg      sync.WaitGroup
}

// NewSMTPSender creates an SMTPSender reading relay settings from store.
func NewSMTPSender(logger *zap.Logger, store *config.Store) *SMTPSender {
	return &SMTPSender{
		logger:  logger.Named("mailer"),
		store:   store,
		limiter: rate.NewLimiter(relayRate, relayBurst),
		timeout: defaultSendTimeout,
		sendCh:  make(chan smtpWork),
	}
}

// Name implements Sender.
func (s *SMTPSender) Name() string { return "smtp" }

// Start launches the delivery worker. Non-blocking.
func (s *SMTPSender) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.worker(ctx)
	s.logger.Info("smtp sender started")
}

// Close waits for the delivery worker to exit. Call after the context
// passed to Start is cancelled.
func (s *SMTPSender) Close() {
	s.wg.Wait()
}

// Send implements Sender. It hands the email to the delivery worker and
// waits for the outcome, so callers drain their queue strictly one email
// at a time while the relay session itself runs off the caller's loop.
func (s *SMTPSender) Send(ctx context.Context, email Email) error {
	work := smtpWork{ctx: ctx, email: email, result: make(chan error, 1)}
	select {
	case s.sendCh <- work:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-work.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SMTPSender) worker(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case work := <-s.sendCh:
			work.result <- s.deliver(work.ctx, work.email)
		}
	}
}

func (s *SMTPSender) deliver(ctx context.Context, email Email) error {
	cfg := s.store.Snapshot()

	s.logger.Info("sending email",
		zap.String("email_id", email.ID),
		zap.String("from", email.From),
		zap.String("to", email.To),
		zap.String("server", cfg.SMTPHost),
		zap.Int("port", cfg.SMTPPort))
	s.logger.Debug("email content",
		zap.String("email_id", email.ID),
		zap.String("subject", email.Subject),
		zap.String("body", email.Body))

	if !cfg.SendForReal {
		s.logger.Info("not sending email for real", zap.String("email_id", email.ID))
		sentTotal.WithLabelValues("simulated").Inc()
		return nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		sentTotal.WithLabelValues("error").Inc()
		return err
	}

	start := time.Now()
	err := s.relay(ctx, cfg, email)
	sendDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		sentTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("relay %s:%d: %w", cfg.SMTPHost, cfg.SMTPPort, err)
	}

	sentTotal.WithLabelValues("sent").Inc()
	s.logger.Debug("sent email",
		zap.String("email_id", email.ID),
		zap.String("to", email.To))
	return nil
}

// relay runs one SMTP session for one email.
func (s *SMTPSender) relay(ctx context.Context, cfg config.Settings, email Email) error {
	msg := mail.NewMsg()
	if err := msg.From(email.From); err != nil {
		return fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(email.To); err != nil {
		return fmt.Errorf("to address: %w", err)
	}
	msg.Subject(email.Subject)
	msg.SetBodyString(mail.TypeTextPlain, email.Body)

	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(s.timeout),
	}
	// Port 465 relays speak implicit TLS; everything else negotiates
	// STARTTLS when the relay offers it.
	if cfg.SMTPPort == 465 {
		opts = append(opts, mail.WithSSL())
	}

	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}
