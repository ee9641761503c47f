package crud

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"newsdesk/pkg/news"
)

// fakeAPI serves admin/categories the way the newsdesk server does.
type fakeAPI struct {
	t *testing.T

	mu      sync.Mutex
	records []news.Category

	lists   atomic.Int32
	creates atomic.Int32
	updates atomic.Int32
	deletes atomic.Int32

	// failDelete maps an id to the status its DELETE answers with.
	failDelete map[string]int
	// hold blocks create/update handlers until closed, when set.
	hold chan struct{}
	// entered receives once per held request.
	entered chan struct{}
}

func newFakeAPI(t *testing.T, seed ...news.Category) (*fakeAPI, *Client) {
	t.Helper()
	api := &fakeAPI{t: t, records: seed, failDelete: map[string]int{}}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/admin/categories", api.list)
	mux.HandleFunc("POST /api/admin/categories", api.create)
	mux.HandleFunc("PUT /api/admin/categories/{id}", api.update)
	mux.HandleFunc("DELETE /api/admin/categories/{id}", api.remove)
	mux.HandleFunc("POST /api/auth/login", api.login)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL + "/api")
	require.NoError(t, err)
	return api, client
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (a *fakeAPI) wait() {
	if a.hold == nil {
		return
	}
	if a.entered != nil {
		a.entered <- struct{}{}
	}
	<-a.hold
}

func (a *fakeAPI) list(w http.ResponseWriter, r *http.Request) {
	a.lists.Add(1)
	a.mu.Lock()
	data := append([]news.Category{}, a.records...)
	a.mu.Unlock()
	if q := r.URL.Query().Get("q"); q != "" {
		filtered := data[:0]
		for _, c := range data {
			if strings.Contains(strings.ToLower(c.Name), strings.ToLower(q)) {
				filtered = append(filtered, c)
			}
		}
		data = filtered
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"data":       data,
		"pagination": map[string]any{"page": 1, "limit": 20, "total": len(data), "pages": 1},
	})
}

func (a *fakeAPI) create(w http.ResponseWriter, r *http.Request) {
	a.creates.Add(1)
	a.wait()
	var in news.Category
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Invalid JSON body", "code": "INVALID_PAYLOAD"})
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, c := range a.records {
		if c.Slug == in.Slug {
			writeJSON(w, http.StatusConflict, map[string]any{"success": false, "error": "A record with this value already exists", "code": "CONFLICT"})
			return
		}
	}
	in.ID = uuid.NewString()
	a.records = append(a.records, in)
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "data": in})
}

func (a *fakeAPI) update(w http.ResponseWriter, r *http.Request) {
	a.updates.Add(1)
	a.wait()
	id := r.PathValue("id")
	var in news.Category
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Invalid JSON body"})
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, c := range a.records {
		if c.ID == id {
			in.ID = id
			a.records[i] = in
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": in})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "Not found", "code": "NOT_FOUND"})
}

func (a *fakeAPI) remove(w http.ResponseWriter, r *http.Request) {
	a.deletes.Add(1)
	id := r.PathValue("id")
	if status, ok := a.failDelete[id]; ok {
		writeJSON(w, status, map[string]any{"success": false, "error": "Internal server error", "code": "INTERNAL_ERROR"})
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, c := range a.records {
		if c.ID == id {
			a.records = append(a.records[:i], a.records[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Record deleted"})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "Not found", "code": "NOT_FOUND"})
}

func (a *fakeAPI) login(w http.ResponseWriter, r *http.Request) {
	var body struct{ Email, Password string }
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body.Password != "changeme" {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "Invalid email or password", "code": "UNAUTHORIZED"})
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "newsdesk_session", Value: "tok", Path: "/"})
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]string{"email": body.Email}})
}

func (a *fakeAPI) requests() int32 {
	return a.lists.Load() + a.creates.Load() + a.updates.Load() + a.deletes.Load()
}

func newCategories(client *Client, notify Notifier, opts ...CacheOption) (*Controller[news.Category], *Cache) {
	cache := NewCache(opts...)
	ctrl := NewController[news.Category](client, cache, AdminRoot+news.Categories,
		WithValidator[news.Category](news.NewValidator()),
		WithNotifier[news.Category](notify),
		WithLabel[news.Category]("Category"),
	)
	return ctrl, cache
}
