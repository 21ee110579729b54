// Command dpp-device is a DPP enrollee and configurator that exchanges
// action frames over a UDP medium.
//
// Two instances on one host can onboard each other: one listens, the
// other initiates with the listener's bootstrap URI.
//
// Usage:
//
//	dpp-device [flags]
//
// Flags:
//
//	-config string        YAML configuration file
//	-role string          enrollee or configurator (default "enrollee")
//	-peer-uri string      Peer bootstrap URI; initiate when set
//	-freq int             Frequency (MHz) of the first Authentication Request
//	-discover             Browse mDNS for the peer URI when -peer-uri is empty
//	-advertise            Publish the local URI over mDNS
//	-listen string        UDP listen address
//	-peers string         Comma-separated UDP peer addresses
//	-mac string           Station MAC address
//	-protocol-log string  Write a CBOR protocol capture to this file
//	-log-level string     debug, info, warn, error (default "info")
//	-interactive          Start the interactive shell
//
// Examples:
//
//	# Enrollee listening on 127.0.0.1:7600
//	dpp-device -role enrollee -listen 127.0.0.1:7600 -peers 127.0.0.1:7601
//
//	# Configurator initiating towards it
//	dpp-device -role configurator -config configurator.yaml \
//	    -listen 127.0.0.1:7601 -peers 127.0.0.1:7600 -peer-uri 'DPP:...'
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	stdlog "log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dpp-onboard/dpp-go/cmd/dpp-device/interactive"
	"github.com/dpp-onboard/dpp-go/pkg/discovery"
	"github.com/dpp-onboard/dpp-go/pkg/dpp"
	dpplog "github.com/dpp-onboard/dpp-go/pkg/log"
	"github.com/dpp-onboard/dpp-go/pkg/transport/udp"
)

// Flags holds the command-line settings. Non-empty values override the
// configuration file.
type Flags struct {
	ConfigFile  string
	Role        string
	PeerURI     string
	Frequency   int
	Discover    bool
	Advertise   bool
	Listen      string
	Peers       string
	MAC         string
	ProtocolLog string
	LogLevel    string
	Interactive bool
}

var flags Flags

func init() {
	flag.StringVar(&flags.ConfigFile, "config", "", "YAML configuration file")
	flag.StringVar(&flags.Role, "role", "enrollee", "Role: enrollee, configurator")
	flag.StringVar(&flags.PeerURI, "peer-uri", "", "Peer bootstrap URI; initiate when set")
	flag.IntVar(&flags.Frequency, "freq", 0, "Frequency (MHz) of the first Authentication Request")
	flag.BoolVar(&flags.Discover, "discover", false, "Browse mDNS for the peer URI when -peer-uri is empty")
	flag.BoolVar(&flags.Advertise, "advertise", false, "Publish the local URI over mDNS")
	flag.StringVar(&flags.Listen, "listen", "", "UDP listen address")
	flag.StringVar(&flags.Peers, "peers", "", "Comma-separated UDP peer addresses")
	flag.StringVar(&flags.MAC, "mac", "", "Station MAC address")
	flag.StringVar(&flags.ProtocolLog, "protocol-log", "", "Write a CBOR protocol capture to this file")
	flag.StringVar(&flags.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.BoolVar(&flags.Interactive, "interactive", false, "Start the interactive shell")
}

func main() {
	flag.Parse()

	stdlog.SetFlags(stdlog.Ltime | stdlog.Lmicroseconds)

	cfg, err := loadConfig(flags)
	if err != nil {
		stdlog.Fatalf("Invalid configuration: %v", err)
	}
	role, err := dpp.ParseRole(flags.Role)
	if err != nil {
		stdlog.Fatalf("Invalid configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := newLogger(os.Stderr, flags.LogLevel)

	radioCfg, err := cfg.RadioConfig()
	if err != nil {
		stdlog.Fatalf("Invalid configuration: %v", err)
	}
	radioCfg.Logger = logger
	radio, err := udp.Listen(radioCfg)
	if err != nil {
		stdlog.Fatalf("Failed to open radio: %v", err)
	}
	defer radio.Close()

	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		stdlog.Fatalf("Invalid configuration: %v", err)
	}
	engineCfg.Radio = radio
	engineCfg.Logger = logger
	store, closer, err := cfg.OpenProfileStore()
	if err != nil {
		stdlog.Fatalf("Failed to open profile store: %v", err)
	}
	defer closer.Close()
	engineCfg.Profiles = store

	var fileLogger *dpplog.FileLogger
	if cfg.ProtocolLog != "" {
		fileLogger, err = dpplog.NewFileLogger(cfg.ProtocolLog)
		if err != nil {
			stdlog.Fatalf("Failed to create protocol logger: %v", err)
		}
		defer fileLogger.Close()
		engineCfg.ProtocolLogger = protocolLogger(fileLogger, logger, flags.LogLevel)
	} else if flags.LogLevel == "debug" {
		engineCfg.ProtocolLogger = dpplog.NewSlogAdapter(logger)
	}

	engine, err := dpp.New(engineCfg)
	if err != nil {
		stdlog.Fatalf("Failed to create engine: %v", err)
	}
	radio.SetReceiver(engine)
	defer engine.Stop()

	stdlog.Println("DPP Device")
	stdlog.Println("==========")
	stdlog.Printf("Role:   %s", role)
	stdlog.Printf("MAC:    %s", engineCfg.MAC)
	stdlog.Printf("Radio:  %s (channel %s)", radio.Addr(), radio.Channel())
	stdlog.Printf("URI:    %s", engine.URI())
	if cfg.ProtocolLog != "" {
		stdlog.Printf("Protocol logging to: %s", cfg.ProtocolLog)
	}

	if cfg.Advertise {
		adv, err := discovery.NewMDNSAdvertiser(discovery.DefaultAdvertiserConfig())
		if err != nil {
			stdlog.Fatalf("Failed to create advertiser: %v", err)
		}
		pub := discovery.NewPublisher(adv, nil)
		if err := advertise(ctx, pub, engine, role, engineCfg.DeviceName, cfg.AdvertiseWindow); err != nil {
			stdlog.Printf("Warning: failed to advertise: %v", err)
		} else {
			stdlog.Println("Advertising bootstrap URI over mDNS")
		}
		defer pub.Stop()
	}

	if flags.Interactive {
		shell, err := interactive.New(engine)
		if err != nil {
			stdlog.Fatalf("Failed to start interactive mode: %v", err)
		}
		stdlog.SetOutput(shell.Stderr())
		go shell.Run(ctx, cancel)
		waitForShutdown(ctx)
		return
	}

	events := make(chan dpp.Event, 16)
	engine.OnEvent(func(ev dpp.Event) {
		select {
		case events <- ev:
		default:
		}
	})

	req := Request{Role: role, PeerURI: flags.PeerURI, Frequency: flags.Frequency, Discover: flags.Discover}
	if req.PeerURI == "" && req.Discover {
		browser, err := discovery.NewMDNSBrowser(discovery.DefaultBrowserConfig())
		if err != nil {
			stdlog.Fatalf("Failed to create browser: %v", err)
		}
		browseCtx, browseCancel := context.WithTimeout(ctx, discovery.BrowseTimeout)
		req.PeerURI, err = resolvePeer(browseCtx, browser, req)
		browseCancel()
		browser.Stop()
		if err != nil {
			stdlog.Fatalf("Failed to discover peer: %v", err)
		}
		stdlog.Printf("Discovered peer: %s", req.PeerURI)
	}

	if _, err := start(ctx, engine, req); err != nil {
		stdlog.Fatalf("Failed to start: %v", err)
	}

	go func() {
		ev, err := waitOutcome(ctx, events)
		if err != nil {
			return
		}
		switch ev.Type {
		case dpp.EventProvisioned:
			if ev.Profile != nil {
				stdlog.Printf("Provisioned: %s", ev.Profile)
			} else {
				stdlog.Println("Provisioned enrollee")
			}
		default:
			stdlog.Printf("Onboarding %s: %v", strings.ToLower(ev.Type.String()), ev.Err)
		}
		cancel()
	}()

	waitForShutdown(ctx)
}

// loadConfig merges the configuration file and flags.
func loadConfig(f Flags) (FileConfig, error) {
	cfg := DefaultFileConfig()
	if f.ConfigFile != "" {
		var err error
		cfg, err = LoadFileConfig(f.ConfigFile)
		if err != nil {
			return FileConfig{}, err
		}
	}
	applyFlags(&cfg, f)
	return cfg, nil
}

// applyFlags overrides file settings with explicitly set flags.
func applyFlags(cfg *FileConfig, f Flags) {
	if f.Listen != "" {
		cfg.UDP.ListenAddr = f.Listen
	}
	if f.Peers != "" {
		cfg.UDP.Peers = nil
		for _, p := range strings.Split(f.Peers, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.UDP.Peers = append(cfg.UDP.Peers, p)
			}
		}
	}
	if f.MAC != "" {
		cfg.MAC = f.MAC
	}
	if f.ProtocolLog != "" {
		cfg.ProtocolLog = f.ProtocolLog
	}
	if f.Advertise {
		cfg.Advertise = true
	}
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// protocolLogger writes captures to file, and to the console in debug mode.
func protocolLogger(file *dpplog.FileLogger, logger *slog.Logger, level string) dpplog.Logger {
	if level == "debug" {
		return dpplog.NewMultiLogger(file, dpplog.NewSlogAdapter(logger))
	}
	return file
}

func waitForShutdown(ctx context.Context) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		stdlog.Printf("Received signal: %v", sig)
	case <-ctx.Done():
	}
	fmt.Fprintln(os.Stderr, "Goodbye!")
}
