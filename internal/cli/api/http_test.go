package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Notico/internal/dto"
)

func TestPostJSON_SendsToken_And_ParsesBody(t *testing.T) {
	// test server проверяет cookie и JSON
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c := r.Header.Get("Cookie"); !strings.Contains(c, "auth_token=tok123") {
			t.Errorf("Cookie header missing token, got: %q", c)
		}
		var m map[string]any
		if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
			t.Errorf("bad json: %v", err)
		}
		if m["x"] != float64(1) {
			t.Errorf("unexpected payload: %#v", m)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer ts.Close()

	resp, body, err := PostJSON(context.Background(), ts.Client(), ts.URL+"/api", map[string]any{"x": 1}, "tok123")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"ok":true}`, strings.TrimSpace(string(body)))
}

// Доп.кейс: без токена cookie не отправляется
func TestPostJSON_NoToken(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c := r.Header.Get("Cookie"); c != "" {
			t.Errorf("unexpected cookie: %q", c)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	resp, _, err := PostJSON(context.Background(), nil, ts.URL, map[string]any{}, "")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestPostJSON_BadURL(t *testing.T) {
	_, _, err := PostJSON(context.Background(), nil, "://bad", map[string]any{}, "")
	assert.Error(t, err)
}

func TestTokenFromResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	http.SetCookie(rec, &http.Cookie{Name: AuthCookie, Value: "abc"})
	tok, err := TokenFromResponse(rec.Result())
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	// Доп.кейс: чужая cookie не считается
	rec = httptest.NewRecorder()
	http.SetCookie(rec, &http.Cookie{Name: "other", Value: "x"})
	_, err = TokenFromResponse(rec.Result())
	assert.Error(t, err)
}

func TestClient_LoginStoresToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/user/login", func(w http.ResponseWriter, r *http.Request) {
		var c dto.Credentials
		_ = json.NewDecoder(r.Body).Decode(&c)
		if c.Login != "alice" || c.Password != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: AuthCookie, Value: "jwt-1"})
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/user/me", func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(AuthCookie)
		if err != nil || c.Value != "jwt-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(dto.UserInfo{ID: 7, Login: "alice", Tier: "pro"})
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := NewClient(ts.URL+"/", "", time.Second)
	_, err := c.Me(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = c.Login(context.Background(), "alice", "bad")
	assert.ErrorIs(t, err, ErrUnauthorized)

	tok, err := c.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, "jwt-1", tok)

	me, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pro", me.Tier)
	assert.Equal(t, int64(7), me.ID)
}

func TestClient_Sync(t *testing.T) {
	synced := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/items/sync", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		var req dto.SyncRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Operations, 1)
		resp := dto.SyncResponse{
			Results:     []dto.OpResult{{ClientID: req.Operations[0].ClientID, Action: "create", Status: dto.StatusCreated}},
			ServerItems: []dto.Item{{ID: "s1", ClientID: "c1", Type: "note", Title: "hi"}},
			SyncedAt:    synced,
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "tok", time.Second)
	out, err := c.Sync(context.Background(), dto.SyncRequest{
		Operations: []dto.Operation{{Action: "create", ClientID: "c1", Data: json.RawMessage(`{"title":"hi"}`)}},
	})
	require.NoError(t, err)
	assert.True(t, out.SyncedAt.Equal(synced))
	require.Len(t, out.ServerItems, 1)
	assert.Equal(t, "s1", out.ServerItems[0].ID)
	assert.Equal(t, dto.StatusCreated, out.Results[0].Status)
}

func TestClient_StatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "pro plan required", http.StatusForbidden)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "tok", time.Second)
	_, err := c.ListItems(context.Background())
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusForbidden, se.Code)
	assert.Contains(t, se.Body, "pro plan required")
}

func TestClient_ListAndPing(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/items", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"1","clientId":"a","type":"note","title":"t"}]`))
	})
	mux.HandleFunc("/api/folders", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"2","clientId":"f","name":"Work"}]`))
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := NewClient(ts.URL, "tok", time.Second)
	ctx := context.Background()

	items, err := c.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].ClientID)

	folders, err := c.ListFolders(ctx)
	require.NoError(t, err)
	require.Len(t, folders, 1)
	assert.Equal(t, "Work", folders[0].Name)

	require.NoError(t, c.Ping(ctx))
}

// Доп.кейс: сервер недоступен
func TestClient_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	c := NewClient(url, "", 200*time.Millisecond)
	assert.Error(t, c.Ping(context.Background()))
}

func TestClient_ContextCancel(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	c := NewClient(ts.URL, "", 0)
	_, err := c.Sync(ctx, dto.SyncRequest{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
