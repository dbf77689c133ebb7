package protocol

import (
	"context"
)

// Client is the subset of the LSP client surface the server pushes to.
type Client interface {
	// See https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification#window_logMessage
	LogMessage(context.Context, *LogMessageParams) error
	// See https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification#window_showMessage
	ShowMessage(context.Context, *ShowMessageParams) error
}

var _ Client = (*CallbackClient)(nil)

func (s *CallbackClient) LogMessage(ctx context.Context, params *LogMessageParams) error {
	return createNotify(ctx, s, "window/logMessage", params)
}

func (s *CallbackClient) ShowMessage(ctx context.Context, params *ShowMessageParams) error {
	return createNotify(ctx, s, "window/showMessage", params)
}
