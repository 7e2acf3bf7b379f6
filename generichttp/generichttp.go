// Package generichttp defines interfaces for generic devices
// and the plumbing used to wrap them in an HTTP interface
package generichttp

import (
	"encoding/json"
	"go/types"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi"
)

// MethodPath is one route: an HTTP method and a chi path pattern
type MethodPath struct {
	Method string
	Path   string
}

// RouteTable maps routes to their handlers
type RouteTable map[MethodPath]http.HandlerFunc

// Endpoints returns the sorted list of paths in the table
func (rt RouteTable) Endpoints() []string {
	endpoints := make([]string, 0, len(rt))
	for mp := range rt {
		endpoints = append(endpoints, mp.Method+" "+mp.Path)
	}
	sort.Strings(endpoints)
	return endpoints
}

// Bind attaches every route in the table to the router
func (rt RouteTable) Bind(r chi.Router) {
	for mp, handler := range rt {
		r.Method(mp.Method, mp.Path, handler)
	}
}

// HTTPer is a type which can yield its route table for binding to a router
type HTTPer interface {
	RT() RouteTable
}

// SubMuxSanitize prepares a config endpoint for chi's Mount,
// "omc/gimbal" => "/omc/gimbal"
func SubMuxSanitize(stem string) string {
	if !strings.HasPrefix(stem, "/") {
		stem = "/" + stem
	}
	return strings.TrimSuffix(stem, "/")
}

// FloatT is a struct with a single field F64 used for JSON requests and replies
type FloatT struct {
	F64 float64 `json:"f64"`
}

// StrT is a struct with a single field Str used for JSON requests and replies
type StrT struct {
	Str string `json:"str"`
}

// BoolT is a struct with a single field Bool used for JSON requests and replies
type BoolT struct {
	Bool bool `json:"bool"`
}

// HumanPayload is a container for the basic types drivers reply with.  T
// selects which field is populated.
type HumanPayload struct {
	T      types.BasicKind
	Bool   bool
	Float  float64
	String string
}

// EncodeAndRespond writes the payload to the response as the matching
// single-field JSON object
func (hp HumanPayload) EncodeAndRespond(w http.ResponseWriter, r *http.Request) {
	var (
		obj interface{}
	)
	switch hp.T {
	case types.Bool:
		obj = BoolT{Bool: hp.Bool}
	case types.Float64:
		obj = FloatT{F64: hp.Float}
	case types.String:
		obj = StrT{Str: hp.String}
	default:
		http.Error(w, "unsupported payload type", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(obj); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// GetFloat calls a float-getting function and returns the response
// as json {"f64": value}
func GetFloat(fcn func() (float64, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := fcn()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		hp := HumanPayload{T: types.Float64, Float: f}
		hp.EncodeAndRespond(w, r)
	}
}

// SetFloat parses a JSON input of {"f64": value} and calls fcn with it
func SetFloat(fcn func(float64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := FloatT{}
		err := json.NewDecoder(r.Body).Decode(&f)
		defer r.Body.Close()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		err = fcn(f.F64)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// GetString calls a string-getting function and returns the response
// as json {"str": value}
func GetString(fcn func() (string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := fcn()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		hp := HumanPayload{T: types.String, String: s}
		hp.EncodeAndRespond(w, r)
	}
}
