package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/eco-invoice-tracker/internal/infrastructure/resilience"
)

const (
	consumerGroup     = "invoice-workers"
	publishedAtHeader = "Eco-Published-At"
)

// Queue carries invoice ids on a single subject. Consumers share a queue group
// so every event is handled by exactly one worker.
type Queue struct {
	conn       *nats.Conn
	subject    string
	executor   *resilience.Executor
	onDelivery func(lag time.Duration)
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor

	// OnDelivery receives the time between publish and delivery of each consumed event.
	OnDelivery func(lag time.Duration)
}

func New(url, subject string) (*Queue, error) {
	return NewWithOptions(url, subject, Options{})
}

func NewWithOptions(url, subject string, options Options) (*Queue, error) {
	if strings.TrimSpace(subject) == "" {
		return nil, fmt.Errorf("nats subject is required")
	}
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}

	conn, err := nats.Connect(
		url,
		nats.Name("eco-invoice-tracker"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:       conn,
		subject:    subject,
		executor:   options.ResilienceExecutor,
		onDelivery: options.OnDelivery,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

// Ping reports whether the connection to the server is currently up.
func (q *Queue) Ping(context.Context) error {
	if q.conn == nil || !q.conn.IsConnected() {
		return fmt.Errorf("nats: %w", nats.ErrDisconnected)
	}
	return nil
}

func (q *Queue) PublishInvoiceUploaded(ctx context.Context, invoiceID string) error {
	msg := newInvoiceMsg(q.subject, invoiceID, time.Now())
	call := func(_ context.Context) error {
		if err := q.conn.PublishMsg(msg); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	var err error
	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wrapTemporaryIfNeeded(err)
	}
	return nil
}

// SubscribeInvoiceUploaded blocks until ctx is done, then drains the subscription.
func (q *Queue) SubscribeInvoiceUploaded(ctx context.Context, handler func(context.Context, string) error) error {
	sub, err := q.conn.QueueSubscribe(q.subject, consumerGroup, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		invoiceID := strings.TrimSpace(string(msg.Data))
		if invoiceID == "" {
			slog.Warn("nats_empty_event", "subject", msg.Subject)
			return
		}
		if lag, ok := deliveryLag(msg, time.Now()); ok && q.onDelivery != nil {
			q.onDelivery(lag)
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handler(handlerCtx, invoiceID); err != nil {
			slog.Error("invoice_handler_failed", "invoice_id", invoiceID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func newInvoiceMsg(subject, invoiceID string, now time.Time) *nats.Msg {
	msg := nats.NewMsg(subject)
	msg.Data = []byte(invoiceID)
	msg.Header.Set(publishedAtHeader, now.UTC().Format(time.RFC3339Nano))
	return msg
}

func deliveryLag(msg *nats.Msg, now time.Time) (time.Duration, bool) {
	if msg.Header == nil {
		return 0, false
	}
	raw := msg.Header.Get(publishedAtHeader)
	if raw == "" {
		return 0, false
	}
	publishedAt, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return 0, false
	}
	lag := now.Sub(publishedAt)
	if lag < 0 {
		lag = 0
	}
	return lag, true
}
