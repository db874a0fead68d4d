package behavior

import (
	"context"
	"fmt"
)

// Registration adds typed message handlers to a Builder. Create registrations
// with Handle or HandleMsg and apply them via Builder.OnReceive.
type Registration func(b *Builder)

// Handle registers a request-response handler for messages of type IN,
// dispatched by IN's discriminator.
func Handle[IN any](h func(ctx context.Context, msg IN) (any, error)) Registration {
	return func(b *Builder) {
		b.OnReceiveType(msgTypeFor[IN](), func(ctx context.Context, msg any) (any, error) {
			in, ok := msg.(IN)
			if !ok {
				if p, pok := msg.(*IN); pok {
					in = *p
				} else {
					return nil, fmt.Errorf("message type mismatch: want %s, got %T", msgTypeFor[IN](), msg)
				}
			}
			return h(ctx, in)
		})
	}
}

// HandleMsg registers a fire-and-forget handler for messages of type IN.
func HandleMsg[IN any](h func(ctx context.Context, msg IN) error) Registration {
	return Handle[IN](func(ctx context.Context, msg IN) (any, error) {
		return nil, h(ctx, msg)
	})
}

// HandleRequest registers a request-response handler with a typed result.
// The handler receives a message of type IN and replies with *OUT.
func HandleRequest[IN any, OUT any](h func(ctx context.Context, msg IN) (*OUT, error)) Registration {
	return Handle[IN](func(ctx context.Context, msg IN) (any, error) {
		out, err := h(ctx, msg)
		if err != nil {
			return nil, err
		}
		if out == nil {
			return nil, nil
		}
		return out, nil
	})
}
