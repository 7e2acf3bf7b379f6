package gimbal

import (
	"encoding/json"
	"net/http"

	"github.com/pvlab/gimbal/generichttp"
	"github.com/pvlab/gimbal/generichttp/motion"
)

// HTTPWrapper exposes a Driver over HTTP.  It carries the generic per-axis
// motion routes plus the gimbal-specific ones: whole-device position, state
// and the (unimplemented) controller gains.
type HTTPWrapper struct {
	// Driver is the underlying device bridge
	*Driver

	// RouteTable maps routes to their handlers
	RouteTable generichttp.RouteTable
}

// NewHTTPWrapper returns a new wrapper with the route table populated
func NewHTTPWrapper(d *Driver) *HTTPWrapper {
	w := &HTTPWrapper{Driver: d}
	rt := generichttp.RouteTable{}
	motion.HTTPMove(d, rt)
	rt[generichttp.MethodPath{Method: http.MethodGet, Path: "/pos"}] = w.GetPosition
	rt[generichttp.MethodPath{Method: http.MethodPost, Path: "/pos"}] = w.SetPosition
	rt[generichttp.MethodPath{Method: http.MethodGet, Path: "/state"}] = w.GetState
	rt[generichttp.MethodPath{Method: http.MethodGet, Path: "/gains"}] = w.GetGains
	rt[generichttp.MethodPath{Method: http.MethodPost, Path: "/gains"}] = w.SetGains
	w.RouteTable = rt
	return w
}

// RT satisfies generichttp.HTTPer
func (h *HTTPWrapper) RT() generichttp.RouteTable {
	return h.RouteTable
}

// GetPosition returns both axis angles as JSON {"tilt": t, "rot": r}
func (h *HTTPWrapper) GetPosition(w http.ResponseWriter, r *http.Request) {
	pos, err := h.Driver.GetPosition()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(pos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// SetPosition accepts a JSON Setpoint, {"tilt": t, "rot": r, "relative": b},
// where either angle may be omitted or null to leave that axis alone
func (h *HTTPWrapper) SetPosition(w http.ResponseWriter, r *http.Request) {
	sp := Setpoint{}
	err := json.NewDecoder(r.Body).Decode(&sp)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Driver.SetPosition(sp); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// GetState returns the device state as JSON {"str": "IDLE"|"MOVING"|"ERROR"}
func (h *HTTPWrapper) GetState(w http.ResponseWriter, r *http.Request) {
	generichttp.GetString(func() (string, error) {
		st, err := h.Driver.GetState()
		return st.String(), err
	})(w, r)
}

// GetGains always replies 501; the firmware defines no gains frames
func (h *HTTPWrapper) GetGains(w http.ResponseWriter, r *http.Request) {
	_, err := h.Driver.GetControllerGains()
	http.Error(w, err.Error(), http.StatusNotImplemented)
}

// SetGains always replies 501; the firmware defines no gains frames
func (h *HTTPWrapper) SetGains(w http.ResponseWriter, r *http.Request) {
	g := Gains{}
	err := json.NewDecoder(r.Body).Decode(&g)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Driver.SetControllerGains(g); err != nil {
		http.Error(w, err.Error(), http.StatusNotImplemented)
		return
	}
	w.WriteHeader(http.StatusOK)
}
