package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/pvlab/gimbal/comm"
	"github.com/pvlab/gimbal/generichttp"
	"github.com/pvlab/gimbal/generichttp/motion"
	"github.com/pvlab/gimbal/gimbal"
	"github.com/pvlab/gimbal/server/middleware/locker"
	"github.com/pvlab/gimbal/util"
)

// Minmax holds a min and max value
type Minmax struct {
	Min float64 `yaml:"Min"`
	Max float64 `yaml:"Max"`
}

// ObjSetup holds the parameters for one gimbal node
type ObjSetup struct {
	// Addr holds the network or filesystem address of the remote device,
	// e.g. /dev/ttyACM0 for a USB serial device, or 192.168.100.123:2006
	// for a device connected to port 6 on a digi portserver
	Addr string `yaml:"Addr"`

	// Endpoint is the path the routes from this device will be served on,
	// ex. Endpoint="/pv/gimbal" produces routes of /pv/gimbal/pos, etc.
	Endpoint string `yaml:"Endpoint"`

	// Serial determines if the connection is serial/RS232 (True) or TCP (False)
	Serial bool `yaml:"Serial"`

	// Baud is the serial baud rate, 9600 if unset
	Baud int `yaml:"Baud"`

	// ResponseTimeoutMS is the total deadline on one blocking query in
	// milliseconds; 0 uses the default, -1 waits forever
	ResponseTimeoutMS int `yaml:"ResponseTimeoutMS"`

	// Limits holds optional per-axis software limits, keyed "tilt" / "rot"
	Limits map[string]Minmax `yaml:"Limits"`
}

// Config is a struct that holds the initialization parameters for the server.
// It is to be populated by koanf from defaults and the yaml file.
type Config struct {
	// Addr is the address to listen at
	Addr string `yaml:"Addr"`

	// Nodes is the list of gimbals to set up
	Nodes []ObjSetup `yaml:"Nodes"`
}

func driverOptions(node ObjSetup, log *slog.Logger) []gimbal.Option {
	opts := []gimbal.Option{gimbal.WithLogger(log)}
	switch {
	case node.ResponseTimeoutMS > 0:
		opts = append(opts, gimbal.WithResponseTimeout(time.Duration(node.ResponseTimeoutMS)*time.Millisecond))
	case node.ResponseTimeoutMS < 0:
		opts = append(opts, gimbal.WithResponseTimeout(0))
	}
	return opts
}

// BuildMux builds one submux per configured node and mounts them all on a
// root router.  The root serves /endpoints, a JSON map of every node's routes.
func BuildMux(c Config, log *slog.Logger) (chi.Router, error) {
	if len(c.Nodes) == 0 {
		return nil, errors.New("no nodes configured")
	}
	root := chi.NewRouter()
	root.Use(middleware.Logger)
	supergraph := map[string][]string{}
	for _, node := range c.Nodes {
		dev := comm.NewDevice(node.Addr, node.Serial)
		dev.Baud = node.Baud
		if err := dev.Open(); err != nil {
			return nil, err
		}
		nodeLog := log.With("node", node.Endpoint, "addr", node.Addr)
		drv := gimbal.New(dev, driverOptions(node, nodeLog)...)
		httper := gimbal.NewHTTPWrapper(drv)

		limiters := map[string]util.Limiter{}
		for axis, mm := range node.Limits {
			limiters[axis] = util.Limiter{Min: mm.Min, Max: mm.Max}
		}
		limiter := motion.LimitMiddleware{Limits: limiters, Mov: drv}
		limiter.Inject(httper)

		lock := locker.New()
		locker.Inject(httper, lock)

		r := chi.NewRouter()
		r.Use(limiter.Check)
		r.Use(lock.Check)
		httper.RT().Bind(r)

		stem := generichttp.SubMuxSanitize(node.Endpoint)
		supergraph[stem] = httper.RT().Endpoints()
		root.Mount(stem, r)
		nodeLog.Info("node mounted", "routes", len(httper.RT()))
	}
	root.Get("/endpoints", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(supergraph); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	return root, nil
}
