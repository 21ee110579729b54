// Package interactive provides the interactive command-line interface
// for the DPP device.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/dpp-onboard/dpp-go/pkg/dpp"
)

// Device handles interactive mode for dpp-device.
type Device struct {
	engine *dpp.Engine
	rl     *readline.Instance
	out    io.Writer
}

// New creates a new interactive device handler.
func New(engine *dpp.Engine) (*Device, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "dpp> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("start-enrollee"),
			readline.PcItem("start-configurator"),
			readline.PcItem("stop"),
			readline.PcItem("status"),
			readline.PcItem("uri"),
			readline.PcItem("help"),
			readline.PcItem("quit"),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	d := newDevice(engine, rl.Stdout())
	d.rl = rl
	return d, nil
}

func newDevice(engine *dpp.Engine, out io.Writer) *Device {
	d := &Device{engine: engine, out: out}
	engine.OnEvent(d.handleEvent)
	return d
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (d *Device) Stdout() io.Writer {
	return d.rl.Stdout()
}

// Stderr returns a writer that properly coordinates with the readline input.
func (d *Device) Stderr() io.Writer {
	return d.rl.Stderr()
}

// Run starts the interactive command loop.
func (d *Device) Run(ctx context.Context, cancel context.CancelFunc) {
	defer d.rl.Close()

	d.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := d.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(d.out, "Exiting...")
			cancel()
			return
		}

		if !d.execute(ctx, line) {
			fmt.Fprintln(d.out, "Exiting...")
			cancel()
			return
		}
	}
}

// execute runs one command line. It returns false when the shell should
// exit.
func (d *Device) execute(ctx context.Context, line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return true
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		d.printHelp()

	case "start-enrollee", "se":
		d.cmdStart(ctx, dpp.RoleEnrollee, args)

	case "start-configurator", "sc":
		d.cmdStart(ctx, dpp.RoleConfigurator, args)

	case "stop":
		d.cmdStop()

	case "status", "s":
		d.cmdStatus()

	case "uri":
		fmt.Fprintln(d.out, d.engine.URI())

	case "quit", "exit", "q":
		return false

	default:
		fmt.Fprintf(d.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return true
}

func (d *Device) printHelp() {
	fmt.Fprintln(d.out, `
DPP Device Commands:
  Onboarding:
    start-enrollee [uri] [freq]      - Listen as enrollee, or initiate towards a configurator URI
    start-configurator [uri] [freq]  - Listen as configurator, or initiate towards an enrollee URI
    stop                             - Abort all sessions and stop listening

  Information:
    status                           - Show listeners and sessions
    uri                              - Print the local bootstrap URI

  General:
    help                             - Show this help
    quit                             - Exit device`)
}

// cmdStart handles start-enrollee and start-configurator.
func (d *Device) cmdStart(ctx context.Context, role dpp.Role, args []string) {
	if len(args) > 2 {
		fmt.Fprintln(d.out, "Usage: start-<role> [uri] [freq]")
		return
	}

	var opts dpp.StartOptions
	if len(args) == 2 {
		freq, err := strconv.Atoi(args[1])
		if err != nil || freq <= 0 {
			fmt.Fprintf(d.out, "Invalid frequency: %s\n", args[1])
			return
		}
		opts.Frequency = freq
	}

	if len(args) == 0 {
		var err error
		if role == dpp.RoleEnrollee {
			_, err = d.engine.StartEnrollee(ctx, opts)
		} else {
			_, err = d.engine.StartConfigurator(ctx, opts)
		}
		if err != nil {
			fmt.Fprintf(d.out, "Error: %v\n", err)
			return
		}
		fmt.Fprintf(d.out, "Listening as %s\n", role)
		fmt.Fprintf(d.out, "  URI: %s\n", d.engine.URI())
		return
	}

	var (
		s   *dpp.Session
		err error
	)
	if role == dpp.RoleEnrollee {
		s, err = d.engine.StartEnrolleeInitiator(ctx, args[0], opts)
	} else {
		s, err = d.engine.StartConfiguratorInitiator(ctx, args[0], opts)
	}
	if err != nil {
		fmt.Fprintf(d.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(d.out, "Started %s session %s\n", role, shortID(s.ID()))
}

func (d *Device) cmdStop() {
	d.engine.Stop()
	fmt.Fprintln(d.out, "Stopped")
}

func (d *Device) cmdStatus() {
	enrollee, configurator := d.engine.Listening()
	fmt.Fprintln(d.out, "Device Status:")
	fmt.Fprintf(d.out, "  Listening enrollee:     %v\n", enrollee)
	fmt.Fprintf(d.out, "  Listening configurator: %v\n", configurator)

	sessions := d.engine.Sessions()
	if len(sessions) == 0 {
		fmt.Fprintln(d.out, "  Sessions: none")
		return
	}

	fmt.Fprintf(d.out, "  Sessions (%d):\n", len(sessions))
	fmt.Fprintf(d.out, "    %-8s  %-12s  %-9s  %-20s  %-7s  %-8s  %s\n",
		"ID", "ROLE", "INITIATOR", "STATE", "CHANNEL", "ATTEMPTS", "AGE")
	for _, s := range sessions {
		info := s.Info()
		fmt.Fprintf(d.out, "    %-8s  %-12s  %-9v  %-20s  %-7s  %-8d  %s\n",
			shortID(info.ID), info.Role, info.Initiator, info.State, info.Channel,
			info.Attempts, time.Since(info.Created).Truncate(time.Second))
		if info.Err != nil {
			fmt.Fprintf(d.out, "      error: %v\n", info.Err)
		}
	}
}

func (d *Device) handleEvent(ev dpp.Event) {
	switch ev.Type {
	case dpp.EventStateChanged:
		fmt.Fprintf(d.out, "[EVENT] %s %s -> %s\n", shortID(ev.SessionID), ev.OldState, ev.State)
	case dpp.EventProvisioned:
		if ev.Profile != nil {
			fmt.Fprintf(d.out, "[EVENT] %s PROVISIONED %s\n", shortID(ev.SessionID), ev.Profile)
		} else {
			fmt.Fprintf(d.out, "[EVENT] %s PROVISIONED\n", shortID(ev.SessionID))
		}
	case dpp.EventFailed, dpp.EventAborted:
		fmt.Fprintf(d.out, "[EVENT] %s %s: %v\n", shortID(ev.SessionID), ev.Type, ev.Err)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
