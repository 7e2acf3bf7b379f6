// Command gimbalsrv bridges one or more two-axis characterization gimbals to
// HTTP.  Each configured node gets a submux with position, state and limit
// routes; clients then use plain HTTP from any language instead of owning the
// serial port.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/phsym/console-slog"

	yml "gopkg.in/yaml.v2"
)

var (
	// Version is the version number.  Typically injected via ldflags with git build
	Version = "1"

	// ConfigFileName is what it sounds like
	ConfigFileName = "gimbalsrv.yml"
	k              = koanf.New(".")

	log *slog.Logger
)

func setupconfig() {
	k.Load(structs.Provider(Config{
		Addr:  ":8000",
		Nodes: []ObjSetup{}}, "koanf"), nil)
	if err := k.Load(file.Provider(ConfigFileName), yaml.Parser()); err != nil {
		errtxt := err.Error()
		if !strings.Contains(errtxt, "no such") { // file missing, who cares
			log.Error("error loading config", "err", err)
			os.Exit(1)
		}
	}
}

func root() {
	str := `gimbalsrv communicates with two-axis gimbals and exposes an HTTP interface to them.
This enables a server-client architecture, and the clients can leverage the
excellent HTTP libraries for any programming language.

Usage:
	gimbalsrv <command>

Commands:
	run
	help
	mkconf
	conf
	version`
	fmt.Println(str)
}

func help() {
	str := `gimbalsrv is amenable to configuration via its .yaml file.  For a primer on YAML, see
https://yaml.org/start.html

Without a configuration, the server will close immediately and display an error
that there are no nodes.

No two nodes can have the same Endpoint.

Each node names the device address (a serial port path, or host:port for a
device behind a terminal server), whether it is serial, and optional per-axis
software limits:

    Addr: /dev/ttyACM0
    Endpoint: /pv/gimbal
    Serial: true
    Limits:
      tilt:
        Min: -45
        Max: 45

The axes are named "tilt" and "rot".`
	fmt.Println(str)
}

func mkconf() {
	c := Config{}
	err := k.Unmarshal("", &c)
	if err != nil {
		log.Error("error unmarshaling config", "err", err)
		os.Exit(1)
	}
	f, err := os.Create(ConfigFileName)
	if err != nil {
		log.Error("error creating config file", "err", err)
		os.Exit(1)
	}
	defer f.Close()
	err = yml.NewEncoder(f).Encode(c)
	if err != nil {
		log.Error("error encoding config", "err", err)
		os.Exit(1)
	}
}

func printconf() {
	c := Config{}
	k.Unmarshal("", &c)
	err := yml.NewEncoder(os.Stdout).Encode(c)
	if err != nil {
		log.Error("error encoding config", "err", err)
		os.Exit(1)
	}
}

func pversion() {
	fmt.Printf("gimbalsrv version %v\n", Version)
}

func run() {
	c := Config{}
	err := k.Unmarshal("", &c)
	if err != nil {
		log.Error("error unmarshaling config", "err", err)
		os.Exit(1)
	}
	mux, err := BuildMux(c, log)
	if err != nil {
		log.Error("error building server", "err", err)
		os.Exit(1)
	}
	log.Info("now listening for requests", "addr", c.Addr)
	err = http.ListenAndServe(c.Addr, mux)
	log.Error("server stopped", "err", err)
	os.Exit(1)
}

func main() {
	log = slog.New(console.NewHandler(os.Stderr, &console.HandlerOptions{Level: slog.LevelDebug}))
	args := os.Args
	if len(args) == 1 {
		root()
		return
	}
	setupconfig()
	cmd := strings.ToLower(args[1])
	switch cmd {
	case "help":
		help()
	case "mkconf":
		mkconf()
	case "conf":
		printconf()
	case "run":
		run()
	case "version":
		pversion()
	default:
		log.Error("unknown command", "cmd", cmd)
		os.Exit(1)
	}
}
