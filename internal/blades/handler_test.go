package blades_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printdesk/printdesk/internal/blades"
	"github.com/printdesk/printdesk/internal/rbac"
	"github.com/printdesk/printdesk/internal/shared"
	_ "github.com/printdesk/printdesk/testing"
)

type fixture struct {
	router *chi.Mux
	sm     *shared.SessionManager
	sess   *shared.Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sm := shared.NewSessionManager(client, "test_session", "secret", 0, false)

	loader := rbac.NewLoader(rbac.LoaderConfig{Repository: emptyRepo{}, Redis: client})
	guard := rbac.Guard{Loader: loader}
	handler := blades.NewHandler(discardLogger(), guard)

	router := chi.NewRouter()
	router.Route("/blades", handler.MountRoutes)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	sess.SetUser("7")

	return &fixture{router: router, sm: sm, sess: sess}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type emptyRepo struct{}

func (emptyRepo) RoleNamesForUser(ctx context.Context, userID int64) ([]string, error) {
	return nil, nil
}

func (emptyRepo) PermissionsForUser(ctx context.Context, userID int64) ([]rbac.Permission, error) {
	return nil, nil
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req = req.WithContext(shared.ContextWithSession(req.Context(), f.sess))
	res := httptest.NewRecorder()
	f.router.ServeHTTP(res, req)
	return res
}

type stateBody struct {
	Panels []blades.Panel `json:"panels"`
	Frames []blades.Frame `json:"frames"`
}

func decodeState(t *testing.T, res *httptest.ResponseRecorder) stateBody {
	t.Helper()
	var body stateBody
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	return body
}

func TestOpenAndState(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, http.MethodPost, "/blades/open", `{"kind":"quote","label":"New quote","width":"lg","props":{"company_id":3}}`)
	require.Equal(t, http.StatusCreated, res.Code)

	state := decodeState(t, f.do(t, http.MethodGet, "/blades/", ""))
	require.Len(t, state.Panels, 1)
	assert.Equal(t, blades.KindQuote, state.Panels[0].Kind)
	assert.Equal(t, "New quote", state.Panels[0].Label)
	assert.Equal(t, blades.WidthLG, state.Panels[0].Width)
}

func TestOpenRejectsSixthPanel(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < blades.MaxPanels; i++ {
		res := f.do(t, http.MethodPost, "/blades/open", `{"kind":"task"}`)
		require.Equal(t, http.StatusCreated, res.Code)
	}

	res := f.do(t, http.MethodPost, "/blades/open", `{"kind":"task"}`)
	assert.Equal(t, http.StatusConflict, res.Code)

	state := decodeState(t, f.do(t, http.MethodGet, "/blades/", ""))
	assert.Len(t, state.Panels, blades.MaxPanels)
}

func TestCloseEndpoints(t *testing.T) {
	f := newFixture(t)
	for _, kind := range []string{"company", "quote", "invoice", "task"} {
		f.do(t, http.MethodPost, "/blades/open", `{"kind":"`+kind+`"}`)
	}
	state := decodeState(t, f.do(t, http.MethodGet, "/blades/", ""))
	require.Len(t, state.Panels, 4)

	// Close the second panel: everything above it goes too.
	res := f.do(t, http.MethodPost, "/blades/close/"+state.Panels[1].ID, "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Len(t, decodeState(t, res).Panels, 1)

	// Unknown id is a no-op, not an error.
	res = f.do(t, http.MethodPost, "/blades/close/nope", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Len(t, decodeState(t, res).Panels, 1)

	res = f.do(t, http.MethodPost, "/blades/close-top", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Len(t, decodeState(t, res).Panels, 0)

	// close-all on empty stack stays empty.
	res = f.do(t, http.MethodPost, "/blades/close-all", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Len(t, decodeState(t, res).Panels, 0)
}

func TestAnonymousRejected(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/blades/", nil)
	res := httptest.NewRecorder()
	f.router.ServeHTTP(res, req)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}
