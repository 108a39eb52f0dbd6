// Package gql is the transport boundary: queries and mutations over
// HTTP, subscriptions over a websocket speaking the
// graphql-transport-ws subprotocol. Stores and the coordinator depend
// only on the interfaces here so tests can swap in fakes.
package gql

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Request is the standard GraphQL-over-HTTP body, reused as the
// subscribe payload on the socket.
type Request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// Response is an execution result. Data stays raw so each caller can
// decode into its own shape.
type Response struct {
	Data   json.RawMessage `json:"data"`
	Errors []Error         `json:"errors,omitempty"`
}

type Error struct {
	Message string `json:"message"`
}

func (e Error) Error() string { return e.Message }

// GraphQLError wraps the errors array of a response that executed but
// did not fully succeed.
type GraphQLError struct {
	Errors []Error
}

func (e *GraphQLError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, ge := range e.Errors {
		msgs = append(msgs, ge.Message)
	}
	return fmt.Sprintf("graphql: %s", strings.Join(msgs, "; "))
}

// RequestError is a transport-level failure: the request never
// produced a usable execution result.
type RequestError struct {
	Status int
	Err    error
}

func (e *RequestError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("gql request failed: status=%d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("gql request failed: %v", e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// Queryer issues read documents.
type Queryer interface {
	Query(ctx context.Context, document string, variables map[string]any, out any) error
}

// Mutator issues write documents.
type Mutator interface {
	Mutate(ctx context.Context, document string, variables map[string]any, out any) error
}

// Handle is one live subscription. Unsubscribe is idempotent and
// releases the server-side stream.
type Handle interface {
	Unsubscribe()
}

// Subscriber opens push streams. onNext receives each execution
// result's data; onError receives per-stream failures without
// affecting sibling subscriptions.
type Subscriber interface {
	Subscribe(ctx context.Context, document string, variables map[string]any,
		onNext func(data json.RawMessage), onError func(err error)) (Handle, error)
}

// decodeData unmarshals an execution result's data into out when out
// is non-nil.
func decodeData(data json.RawMessage, out any) error {
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}
