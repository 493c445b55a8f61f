package tool

import (
	"context"

	"github.com/disputeflow/disputeflow/logging"
)

// Session identifies the request a tool call belongs to. All fields are
// optional and used only for log correlation.
type Session struct {
	UserID    string
	SessionID string
	DisputeID string
}

// ContextOptions configure a tool Context.
type ContextOptions struct {
	Session Session
	Logger  logging.Logger
}

// Context carries cancellation, the function call id and session identifiers
// into a tool invocation. It is created per call by the executor.
type Context struct {
	ctx     context.Context
	callID  string
	session Session
	logger  logging.Logger
}

// NewContext constructs a tool Context for one function call.
func NewContext(ctx context.Context, callID string, optFns ...func(o *ContextOptions)) *Context {
	opts := ContextOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Context{
		ctx:     ctx,
		callID:  callID,
		session: opts.Session,
		logger:  opts.Logger,
	}
}

// Context returns the request context for cancellation and deadlines.
func (c *Context) Context() context.Context { return c.ctx }

// FunctionCallID returns the correlation id the model supplied for this call.
func (c *Context) FunctionCallID() string { return c.callID }

// UserID returns the user identifier, if any.
func (c *Context) UserID() string { return c.session.UserID }

// SessionID returns the session identifier, if any.
func (c *Context) SessionID() string { return c.session.SessionID }

// DisputeID returns the dispute case identifier, if any.
func (c *Context) DisputeID() string { return c.session.DisputeID }

// Logger returns the logger scoped to this call.
func (c *Context) Logger() logging.Logger { return c.logger }
