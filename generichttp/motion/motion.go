// Package motion provides an HTTP interface to motion controllers
package motion

import (
	"bytes"
	"encoding/json"
	"errors"
	"go/types"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi"
	"github.com/pvlab/gimbal/generichttp"
	"github.com/pvlab/gimbal/util"
)

var errClamped = errors.New("requested position violates software limits, aborted")

// Mover describes an interface with position-related methods for axes
type Mover interface {
	// GetPos gets the current position of an axis
	GetPos(string) (float64, error)

	// MoveAbs moves an axis to an absolute position
	MoveAbs(string, float64) error

	// MoveRel moves an axis a relative amount
	MoveRel(string, float64) error
}

// HTTPMove adds routes for the mover to the route table
func HTTPMove(iface Mover, table generichttp.RouteTable) {
	table[generichttp.MethodPath{Method: http.MethodGet, Path: "/axis/{axis}/pos"}] = GetPos(iface)
	table[generichttp.MethodPath{Method: http.MethodPost, Path: "/axis/{axis}/pos"}] = SetPos(iface)
}

// GetPos returns an HTTP handler func from a mover that gets the position of an axis
func GetPos(m Mover) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		axis := chi.URLParam(r, "axis")
		pos, err := m.GetPos(axis)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		hp := generichttp.HumanPayload{T: types.Float64, Float: pos}
		hp.EncodeAndRespond(w, r)
	}
}

// axisFromRequest resolves the axis name for both routed handlers and
// middleware.  Middleware runs before chi matches the route, so URL
// parameters are not populated yet and the path itself is consulted.
func axisFromRequest(r *http.Request) string {
	if axis := chi.URLParam(r, "axis"); axis != "" {
		return axis
	}
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	for i, p := range parts {
		if p == "axis" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}

func popAxisRelative(r *http.Request) (string, bool, error) {
	axis := axisFromRequest(r)
	relative := r.URL.Query().Get("relative")
	if relative == "" {
		relative = "false"
	}
	b, err := strconv.ParseBool(relative)
	return axis, b, err
}

// SetPos returns an HTTP handler func from a mover that triggers an absolute or
// relative move on an axis based on the relative query parameter
func SetPos(m Mover) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		axis, b, err := popAxisRelative(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f := generichttp.FloatT{}
		err = json.NewDecoder(r.Body).Decode(&f)
		defer r.Body.Close()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if b {
			err = m.MoveRel(axis, f.F64)
		} else {
			err = m.MoveAbs(axis, f.F64)
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// LimitMiddleware is a type that can impose axis-specific limits on motion.
// Motions that would violate a limit are rejected with StatusBadRequest
// before they reach the controller.
type LimitMiddleware struct {
	// Limits contains the server imposed limits on the controller
	Limits map[string]util.Limiter

	// Mov is a reference to the mover, used to resolve relative motions
	Mov Mover
}

// Check verifies if a motion would violate the axis limit, if it exists,
// and if it does, responds with StatusBadRequest,
// otherwise flows control to the next handler.  Both setpoint shapes are
// covered: the per-axis routes name the axis in the path, the whole-device
// route names its axes as body keys.
func (l *LimitMiddleware) Check(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/pos") {
			next.ServeHTTP(w, r)
			return
		}
		axis, relative, err := popAxisRelative(r)
		if axis == "" {
			l.checkSetpoint(w, r, next)
			return
		}
		limiter, ok := l.Limits[axis]
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		// downstream handlers want the body too: read it all here,
		// then "paste" it back
		f := generichttp.FloatT{}
		bodyContent, _ := io.ReadAll(r.Body)
		defer r.Body.Close()
		r.Body = io.NopCloser(bytes.NewBuffer(bodyContent))
		err = json.NewDecoder(bytes.NewReader(bodyContent)).Decode(&f)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		cmd := f.F64
		if relative {
			// in the relative case, shift the command by the current position
			currPos, err := l.Mov.GetPos(axis)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			cmd += currPos
		}
		if !limiter.Check(cmd) {
			http.Error(w, errClamped.Error(), http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkSetpoint validates a whole-device setpoint body, {"tilt": t, ...},
// against every limited axis it names.  Absent and null axes are untouched
// axes and pass; an unlimited axis named in the body also passes.
func (l *LimitMiddleware) checkSetpoint(w http.ResponseWriter, r *http.Request, next http.Handler) {
	bodyContent, _ := io.ReadAll(r.Body)
	defer r.Body.Close()
	r.Body = io.NopCloser(bytes.NewBuffer(bodyContent))
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(bodyContent, &fields); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	relative := false
	if raw, ok := fields["relative"]; ok {
		if err := json.Unmarshal(raw, &relative); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	for axis, limiter := range l.Limits {
		raw, ok := fields[axis]
		if !ok {
			continue
		}
		var target *float64
		if err := json.Unmarshal(raw, &target); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if target == nil {
			continue
		}
		cmd := *target
		if relative {
			currPos, err := l.Mov.GetPos(axis)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			cmd += currPos
		}
		if !limiter.Check(cmd) {
			http.Error(w, errClamped.Error(), http.StatusBadRequest)
			return
		}
	}
	next.ServeHTTP(w, r)
}

// Inject places a /axis/{axis}/limits route on the table of the HTTPer
func (l LimitMiddleware) Inject(h generichttp.HTTPer) {
	h.RT()[generichttp.MethodPath{Method: http.MethodGet, Path: "/axis/{axis}/limits"}] = Limits(l)
}

// Limits returns an HTTP handler func that returns the limits for an axis
func Limits(l LimitMiddleware) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		axis := chi.URLParam(r, "axis")
		lim, ok := l.Limits[axis]
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		var err error
		if !ok {
			err = json.NewEncoder(w).Encode(nil)
		} else {
			err = json.NewEncoder(w).Encode(lim)
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// Controller is the minimum interface a motion controller must expose to be
// served over HTTP
type Controller interface {
	Mover
}

// HTTPMotionController wraps a motion controller with HTTP
type HTTPMotionController struct {
	Controller

	RouteTable generichttp.RouteTable
}

// NewHTTPMotionController returns a new HTTP wrapper with the route table pre-configured
func NewHTTPMotionController(c Controller) *HTTPMotionController {
	w := &HTTPMotionController{Controller: c}
	rt := generichttp.RouteTable{}
	HTTPMove(c, rt)
	w.RouteTable = rt
	return w
}

// RT satisfies the HTTPer interface
func (h *HTTPMotionController) RT() generichttp.RouteTable {
	return h.RouteTable
}
