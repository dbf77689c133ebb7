package protocol

import (
	"context"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
)

func newParseError(err error) *jrpc2.Error {
	return &jrpc2.Error{
		Code:    -32602, // Invalid params
		Message: err.Error(),
	}
}

func createHandler[T any, O any](method func(ctx context.Context, params *T) (O, error)) handler.Func {
	return handler.New(func(ctx context.Context, r *jrpc2.Request) (any, error) {
		ctx = ApplyRequestToZerolog(ctx, r)
		var params T
		if err := r.UnmarshalParams(&params); err != nil {
			return nil, newParseError(err)
		}

		result, err := method(ctx, &params)
		if err != nil {
			return nil, err
		}
		return result, nil
	})
}

func createEmptyResultHandler[T any](method func(ctx context.Context, params *T) error) handler.Func {
	return handler.New(func(ctx context.Context, r *jrpc2.Request) (any, error) {
		ctx = ApplyRequestToZerolog(ctx, r)
		var params T
		if err := r.UnmarshalParams(&params); err != nil {
			return nil, newParseError(err)
		}

		return nil, method(ctx, &params)
	})
}

func createEmptyHandler(method func(ctx context.Context) error) handler.Func {
	return handler.New(func(ctx context.Context, r *jrpc2.Request) (any, error) {
		ctx = ApplyRequestToZerolog(ctx, r)

		return nil, method(ctx)
	})
}

type Callbacker interface {
	Callback(ctx context.Context, method string, params any) (*jrpc2.Response, error)
	Notify(ctx context.Context, method string, params any) error
}

func createNotify[I any](ctx context.Context, client Callbacker, method string, params *I) error {
	return client.Notify(ctx, method, params)
}

// Call invokes method on a client connection and decodes its result.
func Call[O any](ctx context.Context, client *jrpc2.Client, method string, params any) (O, error) {
	var result O
	rsp, err := client.Call(ctx, method, params)
	if err != nil {
		return result, err
	}
	err = rsp.UnmarshalResult(&result)
	return result, err
}
