package notion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(ClientOptions{
		BaseURL:       server.URL,
		TokenProvider: StaticToken("secret-token"),
		BaseDelay:     time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
	})
	return client, server
}

func TestRequestHeaders(t *testing.T) {
	var gotAuth, gotVersion string
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotVersion = r.Header.Get("Notion-Version")
		json.NewEncoder(w).Encode(User{ID: "u1", Name: "bot"})
	}))

	user, err := client.GetCurrentUser(context.Background())
	if err != nil {
		t.Fatalf("GetCurrentUser: %v", err)
	}
	if user.Name != "bot" {
		t.Errorf("name: got %q, want %q", user.Name, "bot")
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("auth header: got %q", gotAuth)
	}
	if gotVersion != "2022-06-28" {
		t.Errorf("version header: got %q", gotVersion)
	}
}

func TestMissingTokenFailsWithoutRequest(t *testing.T) {
	called := false
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	client.tokenProvider = StaticToken("  ")

	_, err := client.GetCurrentUser(context.Background())
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("got %v, want ErrNotAuthenticated", err)
	}
	if called {
		t.Error("request should not have been sent")
	}
}

func TestRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(User{ID: "u1"})
	}))

	if _, err := client.GetCurrentUser(context.Background()); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls: got %d, want 3", got)
	}
}

func TestRetriesHonorRetryAfter(t *testing.T) {
	var calls atomic.Int32
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(User{ID: "u1"})
	}))

	if _, err := client.GetCurrentUser(context.Background()); err != nil {
		t.Fatalf("expected success after rate limit, got %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("calls: got %d, want 2", got)
	}
}

func TestClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"code":    "validation_error",
			"message": "body failed validation",
		})
	}))

	_, err := client.GetCurrentUser(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("got %T, want *APIError", err)
	}
	if apiErr.Status != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", apiErr.Status)
	}
	if apiErr.Code != "validation_error" {
		t.Errorf("code: got %q", apiErr.Code)
	}
	if apiErr.Message != "body failed validation" {
		t.Errorf("message: got %q", apiErr.Message)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls: got %d, want 1", got)
	}
}

func TestFetchBlocksFollowsCursor(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("start_cursor") == "" {
			json.NewEncoder(w).Encode(BlockList{
				Results:    []Block{{ID: "b1", Type: "paragraph"}},
				HasMore:    true,
				NextCursor: "cur2",
			})
			return
		}
		json.NewEncoder(w).Encode(BlockList{
			Results: []Block{{ID: "b2", Type: "divider"}},
		})
	}))

	blocks, err := client.FetchBlocks(context.Background(), "page1")
	if err != nil {
		t.Fatalf("FetchBlocks: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("blocks: got %d, want 2", len(blocks))
	}
	if blocks[0].ID != "b1" || blocks[1].ID != "b2" {
		t.Errorf("order: got %s, %s", blocks[0].ID, blocks[1].ID)
	}
}

func TestCheckHasChildPages(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(BlockList{
			Results: []Block{
				{ID: "b1", Type: "paragraph"},
				{ID: "b2", Type: "child_page", ChildPage: &ChildPage{Title: "Sub"}},
			},
		})
	}))

	has, err := client.CheckHasChildPages(context.Background(), "page1")
	if err != nil {
		t.Fatalf("CheckHasChildPages: %v", err)
	}
	if !has {
		t.Error("expected child pages to be detected")
	}
}

func TestUpdateBlockSendsTypedPayloadOnly(t *testing.T) {
	var sent map[string]json.RawMessage
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&sent)
		w.Write([]byte("{}"))
	}))

	payload := Block{Paragraph: &RichTextContent{RichText: []RichText{{Type: "text", Text: &TextSpan{Content: "hi"}}}}}
	if _, err := client.UpdateBlock(context.Background(), "b1", payload); err != nil {
		t.Fatalf("UpdateBlock: %v", err)
	}
	if _, ok := sent["paragraph"]; !ok {
		t.Error("expected paragraph field in payload")
	}
	if _, ok := sent["type"]; ok {
		t.Error("type must not be sent in an update payload")
	}
	if _, ok := sent["id"]; ok {
		t.Error("id must not be sent in an update payload")
	}
}
