// Package app assembles the runtime from configuration: repositories, the bus and its middleware,
// the services, their subscriptions and the broker relay.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"go.opentelemetry.io/otel/trace"

	"github.com/next-trace/stashit/adapters/inmemory"
	"github.com/next-trace/stashit/adapters/token"
	"github.com/next-trace/stashit/config"
	cbus "github.com/next-trace/stashit/contract/bus"
	"github.com/next-trace/stashit/domain/governance"
	"github.com/next-trace/stashit/domain/stash"
	"github.com/next-trace/stashit/domain/user"
	"github.com/next-trace/stashit/servicebus"
	"github.com/next-trace/stashit/servicebus/tracing"
	"github.com/next-trace/stashit/services/policysvc"
	"github.com/next-trace/stashit/services/stashsvc"
	"github.com/next-trace/stashit/services/usersvc"
)

// App is a fully wired runtime. Close releases connections and flushes spans.
type App struct {
	Bus     *servicebus.Bus
	Journal *servicebus.Journal

	Users    *usersvc.UserManagement
	Sessions *usersvc.SessionManagement
	Auth     *usersvc.Authentication
	Stashes  *stashsvc.Service
	Ledger   *stashsvc.LedgerService
	Policies *policysvc.Service
	Tokens   *token.Manager

	// Relayed records relayed envelopes when bus.relay is memory.
	Relayed *inmemory.Publisher

	logger  *slog.Logger
	closers []func(context.Context) error
}

type options struct {
	mailer      user.Mailer
	traceWriter io.Writer
	tracer      trace.TracerProvider
}

// Option adjusts Build.
type Option func(*options)

// WithMailer replaces the mailer, which by default only logs outgoing mail.
func WithMailer(m user.Mailer) Option { return func(o *options) { o.mailer = m } }

// WithTraceWriter sets where the stdout span exporter writes. Defaults to os.Stdout.
func WithTraceWriter(w io.Writer) Option { return func(o *options) { o.traceWriter = w } }

// WithTracerProvider traces the bus with tp regardless of tracing config.
func WithTracerProvider(tp trace.TracerProvider) Option { return func(o *options) { o.tracer = tp } }

// EventTypes lists every domain event type, the set the relay forwards.
func EventTypes() []string {
	return slices.Concat(user.EventTypes, stash.EventTypes, governance.EventTypes)
}

// Build wires the runtime described by cfg. On error everything opened so far is closed.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	o := options{traceWriter: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	if o.mailer == nil {
		o.mailer = logMailer{logger: logger}
	}

	a := &App{Journal: servicebus.NewJournal(), logger: logger}

	if err := a.build(ctx, cfg, logger, o); err != nil {
		_ = a.Close(context.WithoutCancel(ctx))
		return nil, err
	}

	logger.InfoContext(ctx, "runtime ready",
		"environment", cfg.Environment,
		"storage", cfg.Storage.Driver,
		"sessions", cfg.Sessions.Driver,
		"relay", cfg.Bus.Relay,
		"tracing", cfg.Tracing.Enabled,
	)

	return a, nil
}

func (a *App) build(ctx context.Context, cfg config.Config, logger *slog.Logger, o options) error {
	mw := []servicebus.PublishMiddleware{a.Journal.Middleware()}

	tp := o.tracer
	if tp == nil && cfg.Tracing.Enabled {
		sdk, err := newTracerProvider(cfg.Tracing, o.traceWriter)
		if err != nil {
			return err
		}

		a.closers = append(a.closers, sdk.Shutdown)
		tp = sdk
	}

	if tp != nil {
		mw = append(mw, tracing.Middleware(tp.Tracer(tracing.TracerName)))
	}

	a.Bus = servicebus.New(logger.With("component", "servicebus"),
		servicebus.WithMaxDepth(cfg.Bus.MaxDepth),
		servicebus.WithPublishMiddleware(mw...),
	)

	stashes, ledger, err := a.stashStores(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	sessions, err := a.sessionStore(ctx, cfg.Sessions)
	if err != nil {
		return err
	}

	a.Tokens, err = token.New(token.Config{
		Secret:   cfg.JWT.Secret,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
		TTL:      cfg.JWT.TTL,
	})
	if err != nil {
		return err
	}

	a.Users = usersvc.NewUserManagement(inmemory.NewUserRepository(), inmemory.NewProfileRepository(), a.Bus, logger.With("component", "usersvc"))
	a.Sessions = usersvc.NewSessionManagement(sessions, a.Bus, logger.With("component", "usersvc"))
	a.Auth = usersvc.NewAuthentication(a.Users, a.Sessions, usersvc.NewMailing(o.mailer), a.Tokens)
	a.Stashes = stashsvc.New(stashes, a.Bus, logger.With("component", "stashsvc"))
	a.Ledger = stashsvc.NewLedgerService(ledger, stashes, a.Bus, logger.With("component", "stashsvc"))
	a.Policies = policysvc.New(inmemory.NewPolicyRepository(), a.Bus, logger.With("component", "policysvc"))

	return a.subscribe(ctx, cfg, tp)
}

// subscribe registers relays before domain handlers, so a broker receives every event before the
// events its handlers cause.
func (a *App) subscribe(ctx context.Context, cfg config.Config, tp trace.TracerProvider) error {
	var prop cbus.HeaderPropagator = cbus.NopHeaderPropagator{}
	if tp != nil {
		prop = tracing.NewPropagator(nil)
	}

	pub, err := a.relayPublisher(ctx, cfg, prop)
	if err != nil {
		return err
	}

	if pub != nil {
		if err := servicebus.RelayAll(a.Bus, pub, EventTypes(), servicebus.WithTopicPrefix(cfg.Bus.TopicPrefix)); err != nil {
			return fmt.Errorf("subscribe relays: %w", err)
		}
	}

	handlers := slices.Concat(a.Stashes.Handlers(), a.Users.Handlers())
	if err := servicebus.Subscribe(a.Bus, handlers...); err != nil {
		return fmt.Errorf("subscribe handlers: %w", err)
	}

	return nil
}

// Close runs the registered cleanups in reverse order and joins their errors.
func (a *App) Close(ctx context.Context) error {
	var errs []error

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}

	a.closers = nil

	return errors.Join(errs...)
}

func (a *App) onClose(fn func()) {
	a.closers = append(a.closers, func(context.Context) error {
		fn()
		return nil
	})
}

type logMailer struct{ logger *slog.Logger }

func (m logMailer) Mail(ctx context.Context, msg user.Mail) error {
	m.logger.InfoContext(ctx, "mail", "to", msg.To.String(), "subject", msg.Subject)
	return nil
}
