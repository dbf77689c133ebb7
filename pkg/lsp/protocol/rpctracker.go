package protocol

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/creachadair/jrpc2"
)

// RPCMessage is one request or response seen by an RPCTracker.
type RPCMessage struct {
	Method   string
	Request  *jrpc2.Request
	Response *jrpc2.Response
	Time     time.Time
}

// RPCTracker records traffic through a jrpc2 server so callers can wait on
// it.
type RPCTracker struct {
	mu sync.RWMutex

	messages []RPCMessage
	subs     map[chan RPCMessage]struct{}
	methods  map[string]string
}

var _ jrpc2.RPCLogger = (*RPCTracker)(nil)

func NewRPCTracker() *RPCTracker {
	return &RPCTracker{
		subs:    make(map[chan RPCMessage]struct{}),
		methods: make(map[string]string),
	}
}

func (t *RPCTracker) LogRequest(ctx context.Context, req *jrpc2.Request) {
	if !req.IsNotification() {
		t.mu.Lock()
		t.methods[req.ID()] = req.Method()
		t.mu.Unlock()
	}
	t.track(RPCMessage{Method: req.Method(), Request: req})
}

func (t *RPCTracker) LogResponse(ctx context.Context, resp *jrpc2.Response) {
	t.mu.RLock()
	method := t.methods[resp.ID()]
	t.mu.RUnlock()
	t.track(RPCMessage{Method: method, Response: resp})
}

func (t *RPCTracker) track(msg RPCMessage) {
	t.mu.Lock()
	defer t.mu.Unlock()

	msg.Time = time.Now()
	t.messages = append(t.messages, msg)

	for ch := range t.subs {
		select {
		case ch <- msg:
		default:
		}
	}
}

// Messages returns everything tracked so far that satisfies predicate.
func (t *RPCTracker) Messages(predicate func(RPCMessage) bool) []RPCMessage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.DeleteFunc(slices.Clone(t.messages), func(msg RPCMessage) bool {
		return !predicate(msg)
	})
}

// WaitForMessages blocks until count messages satisfy predicate or timeout
// passes. It reports whether count was reached.
func (t *RPCTracker) WaitForMessages(count int, timeout time.Duration, predicate func(RPCMessage) bool) ([]RPCMessage, bool) {
	ch := make(chan RPCMessage, 64)

	t.mu.Lock()
	result := slices.DeleteFunc(slices.Clone(t.messages), func(msg RPCMessage) bool {
		return !predicate(msg)
	})
	if len(result) >= count {
		t.mu.Unlock()
		return result, true
	}
	t.subs[ch] = struct{}{}
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		delete(t.subs, ch)
		t.mu.Unlock()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case msg := <-ch:
			if predicate(msg) {
				result = append(result, msg)
			}
			if len(result) >= count {
				return result, true
			}
		case <-timer.C:
			return result, false
		}
	}
}

// IsResponseTo matches responses to method.
func IsResponseTo(method string) func(RPCMessage) bool {
	return func(msg RPCMessage) bool {
		return msg.Response != nil && msg.Method == method
	}
}

// IsRequestFor matches requests and notifications for method.
func IsRequestFor(method string) func(RPCMessage) bool {
	return func(msg RPCMessage) bool {
		return msg.Request != nil && msg.Method == method
	}
}
