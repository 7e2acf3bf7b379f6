package gimbal

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/require"

	"github.com/pvlab/gimbal/generichttp/motion"
	"github.com/pvlab/gimbal/util"
)

func wrapperRouter(ft *fakeTransport) chi.Router {
	d := New(ft, fastOptions()...)
	r := chi.NewRouter()
	NewHTTPWrapper(d).RT().Bind(r)
	return r
}

func TestHTTPGetPosition(t *testing.T) {
	ft := &fakeTransport{lines: []string{"POS:12.5,-3.25;"}}
	r := wrapperRouter(ft)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/pos", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"tilt":12.5,"rot":-3.25}`, w.Body.String())
}

func TestHTTPSetPosition(t *testing.T) {
	ft := &fakeTransport{}
	r := wrapperRouter(ft)
	w := httptest.NewRecorder()
	body := strings.NewReader(`{"tilt": 5, "rot": -2, "relative": true}`)
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/pos", body))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []string{"GTR,5;", "GRR,-2;"}, ft.sentFrames())
}

func TestHTTPSetPositionPartialBody(t *testing.T) {
	ft := &fakeTransport{}
	r := wrapperRouter(ft)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/pos", strings.NewReader(`{"rot": 0}`)))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []string{"GR,0;"}, ft.sentFrames())
}

func TestHTTPGetState(t *testing.T) {
	ft := &fakeTransport{lines: []string{"STATE:0;"}}
	r := wrapperRouter(ft)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/state", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"str":"IDLE"}`, w.Body.String())
}

func TestHTTPAxisRoutes(t *testing.T) {
	ft := &fakeTransport{lines: []string{"POS:10,20;"}}
	r := wrapperRouter(ft)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/axis/tilt/pos", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"f64":10}`, w.Body.String())

	w = httptest.NewRecorder()
	body := strings.NewReader(`{"f64": 2.8}`)
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/axis/rot/pos?relative=true", body))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, ft.sentFrames(), "GRR,2.8;")
}

// limitedRouter wires the wrapper the same way the daemon does: the limit
// middleware in front of the full route table
func limitedRouter(ft *fakeTransport, limits map[string]util.Limiter) chi.Router {
	d := New(ft, fastOptions()...)
	httper := NewHTTPWrapper(d)
	limiter := motion.LimitMiddleware{Limits: limits, Mov: d}
	limiter.Inject(httper)
	r := chi.NewRouter()
	r.Use(limiter.Check)
	httper.RT().Bind(r)
	return r
}

func TestHTTPSetPositionHonorsLimits(t *testing.T) {
	ft := &fakeTransport{}
	r := limitedRouter(ft, map[string]util.Limiter{"tilt": {Min: -45, Max: 45}})

	// an out-of-limits whole-device setpoint never reaches the wire
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/pos", strings.NewReader(`{"tilt": 90}`)))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Empty(t, ft.sentFrames())

	// the per-axis route stays guarded too
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/axis/tilt/pos", strings.NewReader(`{"f64": 90}`)))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Empty(t, ft.sentFrames())

	// in-limits setpoints pass through, including an unlimited axis
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/pos", strings.NewReader(`{"tilt": 10, "rot": 1000}`)))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []string{"GT,10;", "GR,1000;"}, ft.sentFrames())
}

func TestHTTPGainsNotImplemented(t *testing.T) {
	ft := &fakeTransport{}
	r := wrapperRouter(ft)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/gains", nil))
	require.Equal(t, http.StatusNotImplemented, w.Code)

	w = httptest.NewRecorder()
	body := strings.NewReader(`{"p": 1, "i": 2, "d": 3}`)
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/gains", body))
	require.Equal(t, http.StatusNotImplemented, w.Code)
	require.Empty(t, ft.sentFrames())
}
