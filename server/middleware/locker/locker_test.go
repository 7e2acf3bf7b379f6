package locker

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/require"

	"github.com/pvlab/gimbal/generichttp"
)

type tableHolder struct {
	rt generichttp.RouteTable
}

func (th tableHolder) RT() generichttp.RouteTable { return th.rt }

func lockedRouter(l *Locker) chi.Router {
	th := tableHolder{rt: generichttp.RouteTable{}}
	th.rt[generichttp.MethodPath{Method: http.MethodGet, Path: "/pos"}] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}
	Inject(th, l)
	r := chi.NewRouter()
	r.Use(l.Check)
	th.rt.Bind(r)
	return r
}

func TestLockerBlocksProtectedRoutes(t *testing.T) {
	l := New()
	r := lockedRouter(l)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/pos", nil))
	require.Equal(t, http.StatusOK, w.Code)

	l.Lock()
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/pos", nil))
	require.Equal(t, http.StatusLocked, w.Code)

	// the lock route itself stays reachable so the lock can be released
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/lock", strings.NewReader(`{"bool": false}`)))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/pos", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestLockerHTTPGet(t *testing.T) {
	l := New()
	r := lockedRouter(l)
	l.Lock()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/lock", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"bool":true}`, w.Body.String())
}
