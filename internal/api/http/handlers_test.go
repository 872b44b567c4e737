package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visualjsx/studio/backend/internal/compiler"
	"github.com/visualjsx/studio/backend/internal/domain/component"
	"github.com/visualjsx/studio/backend/internal/infrastructure/logging"
)

func newTestRouter() (*gin.Engine, *component.Store) {
	gin.SetMode(gin.TestMode)

	store := component.NewStore()
	h := NewHandlers(store, compiler.New(), logging.NewNop(), 800)

	r := gin.New()
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/components", h.ListComponents)
	r.POST("/components", h.CreateComponent)
	r.GET("/components/:id", h.GetComponent)
	r.PUT("/components/:id", h.UpdateComponent)
	r.GET("/components/:id/preview", h.PreviewComponent)
	return r, store
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeRecord(t *testing.T, w *httptest.ResponseRecorder) component.Record {
	t.Helper()
	var rec component.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	return rec
}

func TestCreateComponent(t *testing.T) {
	r, _ := newTestRouter()

	w := doJSON(t, r, http.MethodPost, "/components", gin.H{"code": "const A = 1;"})
	require.Equal(t, http.StatusCreated, w.Code)

	rec := decodeRecord(t, w)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "const A = 1;", rec.Code)
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestCreateComponentBlankCode(t *testing.T) {
	r, _ := newTestRouter()

	w := doJSON(t, r, http.MethodPost, "/components", gin.H{"code": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "code is required")
}

func TestGetComponent(t *testing.T) {
	r, store := newTestRouter()
	seed, _ := store.Create(context.Background(), "seeded")

	w := doJSON(t, r, http.MethodGet, "/components/"+seed.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "seeded", decodeRecord(t, w).Code)
}

func TestGetComponentUnknownID(t *testing.T) {
	r, _ := newTestRouter()

	w := doJSON(t, r, http.MethodGet, "/components/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateComponent(t *testing.T) {
	r, store := newTestRouter()
	seed, _ := store.Create(context.Background(), "before")

	w := doJSON(t, r, http.MethodPut, "/components/"+seed.ID, gin.H{"code": "after"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "after", decodeRecord(t, w).Code)

	w = doJSON(t, r, http.MethodPut, "/components/missing", gin.H{"code": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodPut, "/components/"+seed.ID, gin.H{"code": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListComponents(t *testing.T) {
	r, store := newTestRouter()
	store.Create(context.Background(), "one")
	store.Create(context.Background(), "two")

	w := doJSON(t, r, http.MethodGet, "/components", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var recs []component.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recs))
	assert.Len(t, recs, 2)
}

func TestPreviewComponent(t *testing.T) {
	r, store := newTestRouter()
	seed, _ := store.Create(context.Background(), `<div className="hero"><p>hi</p></div>;`)

	w := doJSON(t, r, http.MethodGet, "/components/"+seed.ID+"/preview", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "<p>hi</p>")
	assert.Contains(t, body, `class="hero"`)
	assert.NotContains(t, body, "data-rid")
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
}

func TestPreviewComponentBadSource(t *testing.T) {
	r, store := newTestRouter()
	seed, _ := store.Create(context.Background(), "<div>")

	w := doJSON(t, r, http.MethodGet, "/components/"+seed.ID+"/preview", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestHealth(t *testing.T) {
	r, store := newTestRouter()
	store.Create(context.Background(), "x")

	w := doJSON(t, r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"components":1`)
}
