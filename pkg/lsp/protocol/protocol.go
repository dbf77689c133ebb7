// Package protocol carries the LSP wire types and binds a Server
// implementation to a jrpc2 connection.
package protocol

import (
	"context"
	"io"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// CallbackClient pushes notifications from the server back to the editor.
type CallbackClient struct {
	serverOpts *jrpc2.ServerOptions
	server     *jrpc2.Server
}

func NewCallbackClient(server *jrpc2.Server, serverOpts *jrpc2.ServerOptions) *CallbackClient {
	return &CallbackClient{server: server, serverOpts: serverOpts}
}

func (c *CallbackClient) Notify(ctx context.Context, method string, params any) error {
	if err := c.server.Notify(ctx, method, params); err != nil {
		return errors.Errorf("notifying %s: %w", method, err)
	}
	return nil
}

func (c *CallbackClient) Callback(ctx context.Context, method string, params any) (*jrpc2.Response, error) {
	res, err := c.server.Callback(ctx, method, params)
	if err != nil {
		return nil, errors.Errorf("calling back %s: %w", method, err)
	}
	return res, nil
}

// ServerInstance owns the jrpc2 server for one editor session.
type ServerInstance struct {
	ctx      context.Context
	server   *jrpc2.Server
	callback *CallbackClient
}

// NewServerInstance wires server's methods into a jrpc2 server. Every request
// context starts from ctx, so handlers inherit its logger.
func NewServerInstance(ctx context.Context, server Server, opts *jrpc2.ServerOptions) *ServerInstance {
	if opts == nil {
		opts = &jrpc2.ServerOptions{}
	}

	opts.AllowPush = true
	if opts.Concurrency == 0 {
		// one request at a time keeps document notifications ordered
		opts.Concurrency = 1
	}

	inst := &ServerInstance{ctx: ctx}

	opts.NewContext = func() context.Context {
		return inst.ctx
	}

	inst.server = jrpc2.NewServer(buildServerDispatchMap(server), opts)
	inst.callback = NewCallbackClient(inst.server, opts)

	return inst
}

// ForwardingClient returns the client used to push messages to the editor.
func (me *ServerInstance) ForwardingClient() *CallbackClient {
	return me.callback
}

// WithContext replaces the base context given to new requests. It must be
// called before the instance starts.
func (me *ServerInstance) WithContext(ctx context.Context) {
	me.ctx = ctx
}

func (me *ServerInstance) StartAndDetach(r io.Reader, w io.WriteCloser) *jrpc2.Server {
	return me.server.Start(channel.LSP(r, w))
}

// StartAndWait serves LSP framed JSON-RPC on r and w until the connection
// closes or Stop is called.
func (me *ServerInstance) StartAndWait(r io.Reader, w io.WriteCloser) error {
	zerolog.Ctx(me.ctx).Debug().Msg("serving language server")

	if err := me.StartAndDetach(r, w).Wait(); err != nil {
		return errors.Errorf("serving: %w", err)
	}
	return nil
}

// Stop ends the session; StartAndWait returns once pending requests finish.
func (me *ServerInstance) Stop() {
	me.server.Stop()
}
