package pathstore

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// fakeStore is an in-memory pathstore speaking the /kv protocol.
type fakeStore struct {
	mu     sync.Mutex
	nodes  map[string]json.RawMessage
	status int // forced response status, 0 for normal handling
}

func newFakeStore(t *testing.T) (*fakeStore, *Client) {
	t.Helper()
	fs := &fakeStore{nodes: make(map[string]json.RawMessage)}
	srv := httptest.NewServer(fs)
	t.Cleanup(srv.Close)
	return fs, NewClient(srv.URL+"/", "secret")
}

func (fs *fakeStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if r.Header.Get("Authorization") != "Bearer secret" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if fs.status != 0 {
		w.WriteHeader(fs.status)
		io.WriteString(w, "forced")
		return
	}
	key := strings.TrimPrefix(r.URL.Path, "/kv/")
	switch {
	case r.Method == http.MethodPut:
		var req struct {
			Value json.RawMessage `json:"value"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		fs.nodes[key] = req.Value
		w.WriteHeader(http.StatusCreated)
	case r.Method == http.MethodGet && strings.HasSuffix(key, "/*"):
		prefix := strings.TrimSuffix(key, "*")
		var nodes []ListChildrenResponse
		for k, v := range fs.nodes {
			if strings.HasPrefix(k, prefix) {
				nodes = append(nodes, ListChildrenResponse{Key: k, Value: v})
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"nodes": nodes})
	case r.Method == http.MethodGet:
		v, ok := fs.nodes[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(NodeResponse{Key: key, Value: v})
	case r.Method == http.MethodDelete:
		delete(fs.nodes, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Ogre Mage", "ogre-mage"},
		{"  Ankheg (Advanced)  ", "ankheg-advanced"},
		{"Monster - Goblin!!", "monster-goblin"},
		{"", ""},
		{strings.Repeat("ab ", 30), strings.TrimRight(strings.Repeat("ab-", 17)[:50], "-")},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRecordSlug(t *testing.T) {
	goblin := RecordSlug("https://aonprd.com/MonsterDisplay.aspx?ItemName=Goblin")
	if !strings.HasPrefix(goblin, "monster-goblin-") || len(goblin) != len("monster-goblin-")+8 {
		t.Errorf("unexpected slug %q", goblin)
	}
	npc := RecordSlug("https://aonprd.com/NPCDisplay.aspx?ItemName=Goblin")
	if !strings.HasPrefix(npc, "npc-goblin-") {
		t.Errorf("unexpected slug %q", npc)
	}
	if again := RecordSlug("https://aonprd.com/MonsterDisplay.aspx?ItemName=Goblin"); again != goblin {
		t.Errorf("expected stable slug, got %q and %q", goblin, again)
	}
	if other := RecordSlug("https://aonprd.com/MonsterDisplay.aspx?ItemName=goblin"); other == goblin {
		t.Error("expected identities differing in case to get distinct slugs")
	}
	if got := RecordKey("test"); !strings.HasPrefix(got, RecordPrefix+"/test-") {
		t.Errorf("unexpected key %q", got)
	}
}

func TestClient_RecordRoundTrip(t *testing.T) {
	_, c := newFakeStore(t)
	ctx := context.Background()
	identity := "https://aonprd.com/MonsterDisplay.aspx?ItemName=Goblin"

	key, err := c.PutRecord(ctx, identity, map[string]any{"title2": "Goblin"})
	if err != nil {
		t.Fatalf("PutRecord: %v", err)
	}
	if key != RecordKey(identity) {
		t.Errorf("expected key %q, got %q", RecordKey(identity), key)
	}

	keys, err := c.ListRecords(ctx, 10)
	if err != nil || len(keys) != 1 || keys[0] != key {
		t.Fatalf("ListRecords = %v, %v", keys, err)
	}

	slug := RecordSlug(identity)
	raw, err := c.GetRecord(ctx, slug)
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal(raw, &got); err != nil || got["title2"] != "Goblin" {
		t.Errorf("unexpected record %s (%v)", raw, err)
	}

	if err := c.DeleteRecord(ctx, slug); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	if raw, err := c.GetRecord(ctx, slug); err != nil || raw != nil {
		t.Errorf("expected missing record after delete, got %s, %v", raw, err)
	}
}

func TestClient_RetryableStatus(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusBadGateway, true},
		{http.StatusBadRequest, false},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			fs, c := newFakeStore(t)
			fs.status = tt.status
			_, err := c.PutRecord(context.Background(), "x", map[string]any{})
			if err == nil {
				t.Fatal("expected error")
			}
			var re *RetryableError
			if errors.As(err, &re) != tt.retryable {
				t.Errorf("retryable = %v for %v", !tt.retryable, err)
			}
		})
	}
}

func TestRetryableError_TruncatesMessage(t *testing.T) {
	err := &RetryableError{StatusCode: 500, Message: strings.Repeat("x", 300)}
	if !strings.HasSuffix(err.Error(), "...") || len(err.Error()) > 250 {
		t.Errorf("unexpected message %q", err.Error())
	}
}
