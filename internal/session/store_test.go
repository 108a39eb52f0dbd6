package session

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/veldt-labs/commandzone/internal/nav"
	"github.com/veldt-labs/commandzone/internal/notify"
	"github.com/veldt-labs/commandzone/internal/persist"
)

type fakeMutator struct {
	fn func(doc string, vars map[string]any) (any, error)
}

func (f *fakeMutator) Mutate(ctx context.Context, doc string, vars map[string]any, out any) error {
	v, err := f.fn(doc, vars)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func newTestKV(t *testing.T) persist.Chain {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })
	rkv := persist.NewRedisKVFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	fkv := persist.NewFileKV(filepath.Join(t.TempDir(), "session.json"))
	return persist.Chain{rkv, fkv}
}

func TestHydrateGeneratesStableID(t *testing.T) {
	kv := newTestKV(t)
	ctx := context.Background()

	s := NewStore(kv, nil, notify.NewLog(nil), nav.Log{})
	if err := s.Hydrate(ctx); err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
	id := s.UserID()
	if id == "" {
		t.Fatalf("expected generated user ID")
	}

	// A second hydration from the same storage keeps the ID.
	s2 := NewStore(kv, nil, notify.NewLog(nil), nav.Log{})
	if err := s2.Hydrate(ctx); err != nil {
		t.Fatalf("Hydrate#2: %v", err)
	}
	if s2.UserID() != id {
		t.Fatalf("user ID not stable: %q vs %q", s2.UserID(), id)
	}
}

func TestHydrateReadsPersistedIdentity(t *testing.T) {
	kv := newTestKV(t)
	ctx := context.Background()
	for k, v := range map[string]string{
		persist.KeyUsername: "alice",
		persist.KeyUserID:   "u1",
		persist.KeyToken:    "tok",
	} {
		if err := kv.Set(ctx, k, v); err != nil {
			t.Fatalf("seed %s: %v", k, err)
		}
	}

	s := NewStore(kv, nil, notify.NewLog(nil), nav.Log{})
	if err := s.Hydrate(ctx); err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
	u := s.User()
	if u.Username != "alice" || u.ID != "u1" || u.Token != "tok" {
		t.Fatalf("unexpected session: %+v", u)
	}
}

func TestLoginReplacesSessionAndPersists(t *testing.T) {
	kv := newTestKV(t)
	ctx := context.Background()
	api := &fakeMutator{fn: func(doc string, vars map[string]any) (any, error) {
		if vars["username"] != "alice" || vars["password"] != "hunter2" {
			t.Fatalf("unexpected credentials: %v", vars)
		}
		return map[string]any{"login": map[string]any{
			"Username": "alice", "ID": "u1", "Token": "tok",
		}}, nil
	}}
	var pushed []string
	s := NewStore(kv, api, notify.NewLog(nil), nav.Func(func(path string) { pushed = append(pushed, path) }))

	if err := s.Login(ctx, "alice", "hunter2"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if s.User().Token != "tok" {
		t.Fatalf("session not replaced: %+v", s.User())
	}
	if v, err := kv.Get(ctx, persist.KeyToken); err != nil || v != "tok" {
		t.Fatalf("token not persisted: %q %v", v, err)
	}
	if v, err := kv.Get(ctx, persist.KeyUserInfo); err != nil || v == "" {
		t.Fatalf("user_info not persisted: %q %v", v, err)
	}
	if len(pushed) != 1 || pushed[0] != "/games" {
		t.Fatalf("expected navigation to /games, got %v", pushed)
	}
}

func TestLoginFailureNotifies(t *testing.T) {
	kv := newTestKV(t)
	api := &fakeMutator{fn: func(doc string, vars map[string]any) (any, error) {
		return nil, errors.New("bad credentials")
	}}
	var notices []string
	n := notify.Func(func(message string, severity notify.Severity) { notices = append(notices, message) })
	s := NewStore(kv, api, n, nav.Log{})

	if err := s.Login(context.Background(), "alice", "wrong"); err == nil {
		t.Fatalf("expected error")
	}
	if len(notices) != 1 {
		t.Fatalf("failed login did not notify")
	}
}

func TestSignupChainsIntoLogin(t *testing.T) {
	kv := newTestKV(t)
	var docs []string
	api := &fakeMutator{fn: func(doc string, vars map[string]any) (any, error) {
		docs = append(docs, doc)
		return map[string]any{
			"signup": map[string]any{"Username": "alice", "ID": "u1", "Token": ""},
			"login":  map[string]any{"Username": "alice", "ID": "u1", "Token": "tok"},
		}, nil
	}}
	s := NewStore(kv, api, notify.NewLog(nil), nav.Log{})

	if err := s.Signup(context.Background(), "alice", "hunter2"); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected signup then login, got %d calls", len(docs))
	}
	if s.User().Token != "tok" {
		t.Fatalf("signup did not chain into login: %+v", s.User())
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	kv := newTestKV(t)
	ctx := context.Background()
	api := &fakeMutator{fn: func(doc string, vars map[string]any) (any, error) {
		return map[string]any{"login": map[string]any{"Username": "alice", "ID": "u1", "Token": "tok"}}, nil
	}}
	var pushed []string
	s := NewStore(kv, api, notify.NewLog(nil), nav.Func(func(path string) { pushed = append(pushed, path) }))
	if err := s.Login(ctx, "alice", "hunter2"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := s.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	u := s.User()
	if u.Username != "" || u.ID != "" || u.Token != "" {
		t.Fatalf("session not cleared: %+v", u)
	}
	for _, key := range []string{persist.KeyUsername, persist.KeyUserID, persist.KeyToken, persist.KeyUserInfo} {
		if _, err := kv.Get(ctx, key); !errors.Is(err, persist.ErrNotFound) {
			t.Fatalf("key %s survived logout: %v", key, err)
		}
	}
	if pushed[len(pushed)-1] != "/" {
		t.Fatalf("logout did not navigate home: %v", pushed)
	}
}
