package overlay

import (
	"log/slog"

	"hudoverlay/internal/fonts"
	"hudoverlay/internal/logging"
	"hudoverlay/internal/sendqueue"
	"hudoverlay/internal/transport"
)

// SenderFactory builds the frame sink for a new client.
type SenderFactory func(owner string) sendqueue.Sender

// Runtime carries the collaborators shared by all clients.
type Runtime struct {
	starter   transport.Starter
	transport transport.Options
	resolver  *fonts.Resolver
	logger    *slog.Logger
	senders   SenderFactory
}

// RuntimeOption customizes a Runtime.
type RuntimeOption func(*Runtime)

// WithSenderFactory replaces the per-client transport.
func WithSenderFactory(factory SenderFactory) RuntimeOption {
	return func(r *Runtime) {
		if factory != nil {
			r.senders = factory
		}
	}
}

// NewRuntime wires the shared collaborators. starter is normally the host's
// *supervisor.Supervisor; fontSource is read on every resolution so reloaded
// configuration applies to existing clients.
func NewRuntime(starter transport.Starter, opts transport.Options, fontSource fonts.Source, logger *slog.Logger, options ...RuntimeOption) *Runtime {
	r := &Runtime{
		starter:   starter,
		transport: opts,
		resolver:  fonts.NewResolver(fontSource),
		logger:    logging.NewComponentLogger(logger, "overlay"),
	}
	r.senders = r.dialSender
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *Runtime) dialSender(owner string) sendqueue.Sender {
	return transport.New(r.transport, r.starter, r.logger.With(logging.String(logging.FieldOwner, owner)))
}

// Resolver exposes the font resolver clients use.
func (r *Runtime) Resolver() *fonts.Resolver {
	return r.resolver
}

// NewClient returns a client drawing on behalf of owner. The owner identity
// selects per-owner font overrides.
func (r *Runtime) NewClient(owner string) *Client {
	token := newToken()
	sender := r.senders(owner)
	logger := r.logger.With(
		logging.String(logging.FieldOwner, owner),
		logging.String(logging.FieldToken, token),
	)
	logger.Debug("overlay client created")
	return &Client{
		owner:    owner,
		token:    token,
		resolver: r.resolver,
		sender:   sender,
		worker:   sendqueue.NewWorker(sender, logger),
		logger:   logger,
	}
}
