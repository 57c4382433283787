package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stackapi/internal/model"
	"stackapi/internal/resource"
)

type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	failures  []string
}

func (n *recordingNotifier) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, msg)
}

func (n *recordingNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures = append(n.failures, msg)
}

func writeErrorBody(w http.ResponseWriter, status int, code, message string, fields []FieldMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"request_id": "test",
		"error": map[string]any{
			"code":    code,
			"message": message,
			"fields":  fields,
		},
	})
}

func TestGetCachesWithinStalenessWindow(t *testing.T) {
	itemID := uuid.New()
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		json.NewEncoder(w).Encode(model.Item{ID: itemID, Title: "cached"})
	}))
	defer srv.Close()

	c := New(srv.URL, WithStaleness(40*time.Millisecond))
	items := NewResource[model.Item, model.ItemCreate, model.ItemUpdate](c, "/items", WithName("Item"))

	first, err := items.Get(context.Background(), itemID)
	require.NoError(t, err)
	second, err := items.Get(context.Background(), itemID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, hits.Load(), "second read inside the window must hit the cache")

	time.Sleep(60 * time.Millisecond)

	_, err = items.Get(context.Background(), itemID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, hits.Load(), "stale entry must be refetched")
}

func TestListCachedPerWindow(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		json.NewEncoder(w).Encode(resource.Page[model.Item]{Data: []model.Item{}, Count: 0, Skip: 0, Limit: 10})
	}))
	defer srv.Close()

	c := New(srv.URL)
	items := NewResource[model.Item, model.ItemCreate, model.ItemUpdate](c, "/items")

	_, err := items.List(context.Background(), 0, 10)
	require.NoError(t, err)
	_, err = items.List(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, hits.Load())

	_, err = items.List(context.Background(), 10, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, hits.Load(), "a different window is a different cache key")
}

func TestWriteStateMachine(t *testing.T) {
	itemID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(model.Item{ID: itemID, Title: "new"})
		default:
			json.NewEncoder(w).Encode(model.Item{ID: itemID, Title: "old"})
		}
	}))
	defer srv.Close()

	notifier := &recordingNotifier{}
	var states []WriteState
	c := New(srv.URL, WithNotifier(notifier))
	items := NewResource[model.Item, model.ItemCreate, model.ItemUpdate](c, "/items",
		WithName("Item"),
		WithStateFunc(func(s WriteState) { states = append(states, s) }),
	)

	// Seed the cache so the write has something to invalidate.
	_, err := items.Get(context.Background(), itemID)
	require.NoError(t, err)
	require.Equal(t, 1, c.Cache().Len())

	created, err := items.Create(context.Background(), model.ItemCreate{Title: "new"})
	require.NoError(t, err)
	assert.Equal(t, "new", created.Title)

	assert.Equal(t, []WriteState{WritePending, WriteSuccess, WriteIdle}, states)
	assert.Equal(t, []string{"Item created successfully"}, notifier.successes)
	assert.Empty(t, notifier.failures)
	assert.Equal(t, 0, c.Cache().Len(), "settled write must invalidate its key family")
}

func TestValidationErrorSurfacesFirstFieldOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErrorBody(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "validation failed", []FieldMessage{
			{Field: "title", Message: "title is required"},
			{Field: "description", Message: "description too long"},
		})
	}))
	defer srv.Close()

	notifier := &recordingNotifier{}
	var states []WriteState
	c := New(srv.URL, WithNotifier(notifier))
	items := NewResource[model.Item, model.ItemCreate, model.ItemUpdate](c, "/items",
		WithName("Item"),
		WithStateFunc(func(s WriteState) { states = append(states, s) }),
	)

	_, err := items.Create(context.Background(), model.ItemCreate{})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Len(t, apiErr.Fields, 2)

	// Only the first entry of an array-shaped failure reaches the user.
	require.Len(t, notifier.failures, 1)
	assert.Equal(t, "title is required", notifier.failures[0])

	assert.Equal(t, []WriteState{WritePending, WriteError, WriteIdle}, states)
}

func TestSingleMessageErrorSurfacesAsIs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErrorBody(w, http.StatusForbidden, "FORBIDDEN", "Not enough permissions", nil)
	}))
	defer srv.Close()

	notifier := &recordingNotifier{}
	c := New(srv.URL, WithNotifier(notifier))
	items := NewResource[model.Item, model.ItemCreate, model.ItemUpdate](c, "/items", WithName("Item"))

	_, err := items.Update(context.Background(), uuid.New(), model.ItemUpdate{})
	require.Error(t, err)

	require.Len(t, notifier.failures, 1)
	assert.Equal(t, "Not enough permissions", notifier.failures[0])
}

func TestFailedWriteStillInvalidates(t *testing.T) {
	itemID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPatch {
			writeErrorBody(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "validation failed", []FieldMessage{
				{Field: "title", Message: "title must not be empty"},
			})
			return
		}
		json.NewEncoder(w).Encode(model.Item{ID: itemID, Title: "seed"})
	}))
	defer srv.Close()

	c := New(srv.URL, WithNotifier(&recordingNotifier{}))
	items := NewResource[model.Item, model.ItemCreate, model.ItemUpdate](c, "/items")

	_, err := items.Get(context.Background(), itemID)
	require.NoError(t, err)
	require.Equal(t, 1, c.Cache().Len())

	_, err = items.Update(context.Background(), itemID, model.ItemUpdate{})
	require.Error(t, err)

	assert.Equal(t, 0, c.Cache().Len(), "invalidation runs after settle regardless of outcome")
}

func TestUserDeleteDropsEntireCache(t *testing.T) {
	userID := uuid.New()
	itemID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodDelete:
			json.NewEncoder(w).Encode(map[string]string{"message": "User deleted successfully"})
		case r.URL.Path == "/items/"+itemID.String():
			json.NewEncoder(w).Encode(model.Item{ID: itemID, Title: "owned", OwnerID: userID})
		default:
			json.NewEncoder(w).Encode(model.User{ID: userID, Email: "victim@example.com"})
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	users := NewResource[model.User, model.UserCreate, model.UserUpdate](c, "/users",
		WithName("User"), DeleteInvalidatesAll())
	items := NewResource[model.Item, model.ItemCreate, model.ItemUpdate](c, "/items", WithName("Item"))

	_, err := users.Get(context.Background(), userID)
	require.NoError(t, err)
	_, err = items.Get(context.Background(), itemID)
	require.NoError(t, err)
	require.Equal(t, 2, c.Cache().Len())

	// Deleting a user cascades into items server-side, so every cached read
	// may be stale afterwards.
	require.NoError(t, users.Delete(context.Background(), userID))
	assert.Equal(t, 0, c.Cache().Len())
}

func TestConcurrentWritesAreNotCoalesced(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		time.Sleep(10 * time.Millisecond)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(model.Item{ID: uuid.New(), Title: "x"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	items := NewResource[model.Item, model.ItemCreate, model.ItemUpdate](c, "/items", WithName("Item"))

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := items.Create(context.Background(), model.ItemCreate{Title: "x"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 2, hits.Load(), "each write fires its own request")
}

func TestCancelledReadHasNoSideEffects(t *testing.T) {
	itemID := uuid.New()
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		json.NewEncoder(w).Encode(model.Item{ID: itemID})
	}))
	defer srv.Close()
	defer close(release)

	notifier := &recordingNotifier{}
	c := New(srv.URL, WithNotifier(notifier))
	items := NewResource[model.Item, model.ItemCreate, model.ItemUpdate](c, "/items")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := items.Get(ctx, itemID)
	require.Error(t, err)

	assert.Equal(t, 0, c.Cache().Len(), "a cancelled read must not populate the cache")
	assert.Empty(t, notifier.successes)
	assert.Empty(t, notifier.failures)
}

func TestLoginInstallsToken(t *testing.T) {
	var seenAuth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/login" {
			json.NewEncoder(w).Encode(Token{
				AccessToken: "token-123",
				TokenType:   "bearer",
				ExpiresAt:   time.Now().Add(time.Hour).UTC(),
			})
			return
		}
		seenAuth.Store(r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(model.User{ID: uuid.New(), Email: "user@example.com"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	tok, err := c.Login(context.Background(), "user@example.com", "s3cretpass")
	require.NoError(t, err)
	assert.Equal(t, "token-123", tok.AccessToken)

	_, err = c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer token-123", seenAuth.Load())
}

func TestLoginFailureDecodesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErrorBody(w, http.StatusBadRequest, "BAD_CREDENTIALS", "Incorrect email or password", nil)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Login(context.Background(), "user@example.com", "wrong")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "BAD_CREDENTIALS", apiErr.Code)
	assert.Equal(t, "Incorrect email or password", apiErr.DisplayMessage())
}
