package delivery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tech-arch1tect/accounts/clock"
	"github.com/tech-arch1tect/accounts/config"
	"github.com/tech-arch1tect/accounts/services/logging"
	"go.uber.org/zap"
)

type Kind string

const (
	KindSignupVerification   Kind = "signup_verification"
	KindWelcome              Kind = "welcome"
	KindPasswordReset        Kind = "password_reset"
	KindPasswordResetSuccess Kind = "password_reset_success"
)

type Payload map[string]any

// Sender delivers a rendered template; *mail.Service implements it.
type Sender interface {
	SendTemplate(ctx context.Context, templateName string, to []string, subject string, data map[string]any) error
}

type job struct {
	kind      Kind
	recipient string
	payload   Payload
}

// Dispatcher runs deliveries on background workers. Deliver never blocks
// and never reports failures to the caller.
type Dispatcher struct {
	app    *config.AppConfig
	config *config.DeliveryConfig
	sender Sender
	clock  clock.Clock
	logger *logging.Service

	queue chan job
	wg    sync.WaitGroup

	mu      sync.RWMutex
	started bool
	closed  bool
}

func NewDispatcher(cfg *config.Config, sender Sender, clk clock.Clock, logger *logging.Service) *Dispatcher {
	size := cfg.Delivery.QueueSize
	if size <= 0 {
		size = 100
	}
	return &Dispatcher{
		app:    &cfg.App,
		config: &cfg.Delivery,
		sender: sender,
		clock:  clk,
		logger: logger.Named("delivery"),
		queue:  make(chan job, size),
	}
}

func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true

	workers := d.config.Workers
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
	d.logger.Info("delivery workers started", zap.Int("workers", workers))
}

// Stop closes the queue and waits for queued jobs to drain or ctx to end.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	started := d.started
	d.mu.Unlock()

	if !started {
		if n := len(d.queue); n > 0 {
			d.logger.Warn("delivery stopped before start, dropping queued messages", zap.Int("dropped", n))
		}
		return nil
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("delivery workers stopped")
		return nil
	case <-ctx.Done():
		d.logger.Warn("delivery drain interrupted", zap.Int("pending", len(d.queue)))
		return ctx.Err()
	}
}

func (d *Dispatcher) Deliver(kind Kind, recipient string, payload Payload) {
	if !d.app.EnableUserEmails {
		d.logger.Info("user emails disabled, skipping delivery", zap.String("kind", string(kind)))
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn("delivery stopped, dropping message", zap.String("kind", string(kind)))
		return
	}

	select {
	case d.queue <- job{kind: kind, recipient: recipient, payload: payload}:
	default:
		d.logger.Warn("delivery queue full, dropping message",
			zap.String("kind", string(kind)), zap.Int("capacity", cap(d.queue)))
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for j := range d.queue {
		d.send(j)
	}
}

func (d *Dispatcher) send(j job) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("delivery panicked", zap.String("kind", string(j.kind)), zap.Any("panic", r))
		}
	}()

	timeout := d.config.SendTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	data := d.templateData(j.payload)
	if err := d.sender.SendTemplate(ctx, string(j.kind), []string{j.recipient}, d.subject(j.kind), data); err != nil {
		d.logger.Error("delivery failed", zap.String("kind", string(j.kind)), zap.Error(err))
		return
	}
	d.logger.Debug("delivery sent", zap.String("kind", string(j.kind)))
}

func (d *Dispatcher) subject(kind Kind) string {
	switch kind {
	case KindSignupVerification:
		return fmt.Sprintf("Verify your %s account", d.app.Name)
	case KindWelcome:
		return fmt.Sprintf("Welcome to %s!", d.app.Name)
	case KindPasswordReset:
		return fmt.Sprintf("Reset your %s password", d.app.Name)
	case KindPasswordResetSuccess:
		return fmt.Sprintf("Your %s password has been reset", d.app.Name)
	default:
		return d.app.Name
	}
}

func (d *Dispatcher) templateData(payload Payload) map[string]any {
	data := map[string]any{
		"AppName": d.app.Name,
		"AppURL":  d.app.URL,
		"Year":    d.clock.Now().Year(),
	}
	for k, v := range payload {
		data[k] = v
	}
	return data
}
