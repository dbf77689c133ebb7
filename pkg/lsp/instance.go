package lsp

import (
	"context"
	"io"

	"github.com/creachadair/jrpc2"
	"github.com/rs/zerolog"

	"github.com/walteh/ngtmpls/pkg/lsp/protocol"
)

// NewInstance binds the server to a jrpc2 server. Records at forward or above
// are mirrored to the editor as window/logMessage; all records also go to
// local when it is not nil. Exit from the client stops the instance.
func (s *Server) NewInstance(ctx context.Context, opts *jrpc2.ServerOptions, local io.Writer, forward zerolog.Level) *protocol.ServerInstance {
	inst := protocol.NewServerInstance(ctx, s, opts)

	client := inst.ForwardingClient()
	s.SetCallbackClient(client)
	inst.WithContext(protocol.ApplyClientToZerolog(ctx, client, local, forward))

	next := s.onExit
	s.onExit = func() {
		if next != nil {
			next()
		}
		// the exit handler is still running on this server
		go inst.Stop()
	}

	return inst
}
