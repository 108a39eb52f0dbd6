package gql

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func queryServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/query", handler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientQueryDecodesData(t *testing.T) {
	srv := queryServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Query == "" {
			t.Fatalf("empty query document")
		}
		if req.Variables["gameID"] != "G1" {
			t.Fatalf("variables not forwarded: %v", req.Variables)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"games":[{"ID":"G1"}]}}`))
	})
	c := NewClient(srv.URL, WithTimeout(2*time.Second))

	var out struct {
		Games []struct{ ID string }
	}
	err := c.Query(context.Background(), "query { games { ID } }", map[string]any{"gameID": "G1"}, &out)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(out.Games) != 1 || out.Games[0].ID != "G1" {
		t.Fatalf("unexpected result: %+v", out)
	}
}

func TestClientSurfacesGraphQLErrors(t *testing.T) {
	srv := queryServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"errors":[{"message":"boardstate did not have ID"}]}`))
	})
	c := NewClient(srv.URL)

	err := c.Mutate(context.Background(), "mutation { x }", nil, &struct{}{})
	var gqlErr *GraphQLError
	if !errors.As(err, &gqlErr) {
		t.Fatalf("expected GraphQLError, got %v", err)
	}
	if gqlErr.Errors[0].Message != "boardstate did not have ID" {
		t.Fatalf("unexpected message: %q", gqlErr.Errors[0].Message)
	}
}

func TestClientSurfacesHTTPStatus(t *testing.T) {
	srv := queryServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	})
	c := NewClient(srv.URL)

	err := c.Query(context.Background(), "query { x }", nil, &struct{}{})
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected RequestError, got %v", err)
	}
	if reqErr.Status != http.StatusBadGateway {
		t.Fatalf("status = %d", reqErr.Status)
	}
}

func TestClientSendsProvidedHeaders(t *testing.T) {
	var gotAuth string
	srv := queryServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{}}`))
	})
	c := NewClient(srv.URL, WithHeaderProvider(func() map[string]string {
		return map[string]string{"Authorization": "Bearer tok-1", "Empty": ""}
	}))

	if err := c.Query(context.Background(), "query { x }", nil, &struct{}{}); err != nil {
		t.Fatalf("Query: %v", err)
	}
	if gotAuth != "Bearer tok-1" {
		t.Fatalf("authorization header = %q", gotAuth)
	}
}
