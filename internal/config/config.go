package config

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ConfigMap coordinates for the Poller.
const (
	ConfigMapName      = "jobs-emailer-configmap"
	ConfigMapNamespace = "jobs-emailer"
)

// Settings is one immutable snapshot of the emailer tunables.
type Settings struct {
	// ComposeInterval is how often cached events are drained into emails.
	// A generous value lets several events for one tool collapse into a
	// single email at the cost of delivery delay.
	ComposeInterval time.Duration
	// DispatchInterval is how often the outbound queue is drained.
	DispatchInterval time.Duration
	// DispatchMax caps how many emails one dispatch cycle may send.
	DispatchMax int
	// WatchTimeout bounds a single pod watch subscription.
	WatchTimeout time.Duration
	// PollInterval is how often the ConfigMap is re-read.
	PollInterval time.Duration

	// ToDomain and ToPrefix build the destination address as
	// "<prefix>.<tool>@<domain>".
	ToDomain string
	ToPrefix string
	// FromAddr is the From address on outgoing email.
	FromAddr string
	// SMTPHost and SMTPPort locate the outbound relay.
	SMTPHost string
	SMTPPort int
	// SendForReal enables actual SMTP delivery. Off by default so a test
	// deployment cannot spam anyone.
	SendForReal bool

	// Debug enables debug logging.
	Debug bool
}

// Defaults returns the settings the emailer boots with, before the first
// ConfigMap read lands.
func Defaults() Settings {
	return Settings{
		ComposeInterval:  5 * time.Minute,
		DispatchInterval: 30 * time.Second,
		DispatchMax:      10,
		WatchTimeout:     60 * time.Second,
		PollInterval:     10 * time.Second,
		ToDomain:         "toolsbeta.wmflabs.org",
		ToPrefix:         "toolsbeta",
		FromAddr:         "root@toolforge.org",
		SMTPHost:         "mail.toolforge.org",
		SMTPPort:         465,
		SendForReal:      false,
		Debug:            true,
	}
}

// Store guards the current Settings snapshot. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	current Settings
	logger  *zap.Logger
	level   zap.AtomicLevel
}

// NewStore creates a Store holding Defaults. The AtomicLevel is shared
// with the process loggers; it keeps its boot value until the first Apply,
// after which the "debug" tunable drives it.
func NewStore(logger *zap.Logger, level zap.AtomicLevel) *Store {
	return &Store{
		current: Defaults(),
		logger:  logger.Named("config"),
		level:   level,
	}
}

// Snapshot returns the current settings by value.
func (s *Store) Snapshot() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Apply overwrites tunables from a flat string map. Each key is applied
// independently; bad values and unknown keys are warned about and skipped.
func (s *Store) Apply(data map[string]string) {
	s.mu.Lock()
	for key, value := range data {
		if err := s.applyKey(key, value); err != nil {
			s.logger.Warn("ignoring config key",
				zap.String("key", key),
				zap.String("value", value),
				zap.Error(err))
		}
	}
	current := s.current
	s.mu.Unlock()

	s.applyLevel()
	s.logger.Info("configuration applied",
		zap.Duration("compose_interval", current.ComposeInterval),
		zap.Duration("dispatch_interval", current.DispatchInterval),
		zap.Int("dispatch_max", current.DispatchMax),
		zap.Duration("watch_timeout", current.WatchTimeout),
		zap.Duration("poll_interval", current.PollInterval),
		zap.String("to_domain", current.ToDomain),
		zap.String("to_prefix", current.ToPrefix),
		zap.String("from_addr", current.FromAddr),
		zap.String("smtp_host", current.SMTPHost),
		zap.Int("smtp_port", current.SMTPPort),
		zap.Bool("send_for_real", current.SendForReal),
		zap.Bool("debug", current.Debug))
}

// applyKey updates a single tunable. Caller holds the write lock.
func (s *Store) applyKey(key, value string) error {
	switch key {
	case "task_compose_emails_loop_sleep":
		return setDuration(&s.current.ComposeInterval, value)
	case "task_send_emails_loop_sleep":
		return setDuration(&s.current.DispatchInterval, value)
	case "task_send_emails_max":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("not a positive count: %q", value)
		}
		s.current.DispatchMax = n
	case "task_watch_pods_timeout":
		return setDuration(&s.current.WatchTimeout, value)
	case "task_read_configmap_sleep":
		return setDuration(&s.current.PollInterval, value)
	case "email_to_domain":
		s.current.ToDomain = value
	case "email_to_prefix":
		s.current.ToPrefix = value
	case "email_from_addr":
		s.current.FromAddr = value
	case "smtp_server_fqdn":
		s.current.SMTPHost = value
	case "smtp_server_port":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > 65535 {
			return fmt.Errorf("not a port number: %q", value)
		}
		s.current.SMTPPort = n
	case "send_emails_for_real":
		s.current.SendForReal = yes(value)
	case "debug":
		s.current.Debug = yes(value)
	default:
		return fmt.Errorf("unknown config key")
	}
	return nil
}

// applyLevel propagates the debug tunable to the shared log level.
func (s *Store) applyLevel() {
	level := zapcore.InfoLevel
	if s.Snapshot().Debug {
		level = zapcore.DebugLevel
	}
	s.level.SetLevel(level)
}

// setDuration parses bare seconds ("300") or a Go duration ("5m").
func setDuration(dst *time.Duration, value string) error {
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 1 {
			return fmt.Errorf("not a positive number of seconds: %q", value)
		}
		*dst = time.Duration(seconds) * time.Second
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fmt.Errorf("not a duration: %q", value)
	}
	*dst = d
	return nil
}

// yes reports whether a toggle value is affirmative. Anything but the
// literal "yes" is off, matching the deployed ConfigMap convention.
func yes(value string) bool {
	return value == "yes"
}
