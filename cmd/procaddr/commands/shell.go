package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/procaddr/procaddr-go/pkg/artifact"
	"github.com/procaddr/procaddr-go/pkg/dispatch"
	"github.com/procaddr/procaddr-go/pkg/entrypoint"
	"github.com/procaddr/procaddr-go/pkg/version"
)

// Session holds the state of an interactive lookup session: the device the
// lookups target and the gating inputs.
type Session struct {
	layout   *artifact.Layout
	resolver *dispatch.Resolver
	device   *dispatch.DeviceInfo
	core     version.APIVersion
	instance dispatch.ExtensionSet
	devExts  *dispatch.ExtensionSet
	gated    bool
}

// NewSession creates a session with no device, gating off and the current
// core version.
func NewSession(l *artifact.Layout, r *dispatch.Resolver) *Session {
	return &Session{
		layout:   l,
		resolver: r,
		core:     version.MustParse(version.Current),
	}
}

// Context returns the gating context of the session.
func (s *Session) Context() dispatch.Context {
	return dispatch.Context{CoreVersion: uint32(s.core), Instance: s.instance, Device: s.devExts}
}

func (s *Session) lookupOptions() LookupOptions {
	opts := LookupOptions{Device: s.device}
	if s.gated {
		ctx := s.Context()
		opts.Context = &ctx
	}
	return opts
}

// Exec runs one command line and reports whether the session should end.
func (s *Session) Exec(line string, w io.Writer) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		printShellHelp(w)

	case "lookup", "l":
		if len(args) == 0 {
			fmt.Fprintln(w, "Usage: lookup <name>...")
			return false
		}
		if err := RunLookup(s.resolver, args, s.lookupOptions(), w); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
		}

	case "trace", "t":
		if len(args) == 0 {
			fmt.Fprintln(w, "Usage: trace <name>...")
			return false
		}
		if err := RunTrace(s.layout, args, w); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
		}

	case "device", "d":
		s.cmdDevice(args, w)

	case "version", "v":
		s.cmdVersion(args, w)

	case "ext":
		s.cmdExt(args, w)

	case "gate":
		s.cmdGate(args, w)

	case "entries", "ls":
		s.cmdEntries(args, w)

	case "stats":
		if err := RunStats(s.layout, w); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
		}

	case "status":
		s.printStatus(w)

	case "quit", "exit", "q":
		return true

	default:
		fmt.Fprintf(w, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (s *Session) cmdDevice(args []string, w io.Writer) {
	if len(args) != 1 {
		fmt.Fprintln(w, "Usage: device <none|7|75|8|9|10>")
		return
	}
	info, err := ParseDeviceFlag(args[0])
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	s.device = info
	if info == nil {
		fmt.Fprintln(w, "Device: none")
	} else {
		fmt.Fprintf(w, "Device: %s\n", info)
	}
}

func (s *Session) cmdVersion(args []string, w io.Writer) {
	if len(args) != 1 {
		fmt.Fprintln(w, "Usage: version <major.minor[.patch]>")
		return
	}
	v, err := version.Parse(args[0])
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	s.core = v
	fmt.Fprintf(w, "Core version: %s\n", v)
}

func (s *Session) cmdExt(args []string, w io.Writer) {
	if len(args) == 1 && args[0] == "clear" {
		s.instance = dispatch.ExtensionSet{}
		s.devExts = nil
		fmt.Fprintln(w, "Extensions cleared")
		return
	}
	if len(args) != 2 {
		fmt.Fprintln(w, "Usage: ext <instance|device> <name> | ext clear")
		return
	}
	scope, err := entrypoint.ParseScope(args[0])
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	if scope == entrypoint.ScopeInstance {
		s.instance.Enable(args[1])
	} else {
		if s.devExts == nil {
			s.devExts = &dispatch.ExtensionSet{}
		}
		s.devExts.Enable(args[1])
	}
	fmt.Fprintf(w, "Enabled %s extension %s\n", scope, args[1])
}

func (s *Session) cmdGate(args []string, w io.Writer) {
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		fmt.Fprintln(w, "Usage: gate <on|off>")
		return
	}
	s.gated = args[0] == "on"
	fmt.Fprintf(w, "Gating: %s\n", args[0])
}

func (s *Session) cmdEntries(args []string, w io.Writer) {
	filter := ""
	if len(args) > 0 {
		filter = strings.ToLower(args[0])
	}
	ctx := s.Context()
	for _, e := range s.resolver.Index().Entries() {
		if filter != "" && !strings.Contains(strings.ToLower(e.Name), filter) {
			continue
		}
		mark := " "
		if s.gated && !ctx.Enabled(e.Condition) {
			mark = "-"
		}
		fmt.Fprintf(w, "%s %3d  %-40s %s\n", mark, e.ID, e.Name, e.Condition)
	}
}

func (s *Session) printStatus(w io.Writer) {
	dev := "none"
	if s.device != nil {
		dev = s.device.String()
	}
	gate := "off"
	if s.gated {
		gate = "on"
	}
	fmt.Fprintf(w, "Device:    %s\n", dev)
	fmt.Fprintf(w, "Core:      %s\n", s.core)
	fmt.Fprintf(w, "Gating:    %s\n", gate)
	fmt.Fprintf(w, "Instance:  %s\n", strings.Join(s.instance.Names(), ", "))
	if s.devExts == nil {
		fmt.Fprintln(w, "Device extensions: all")
	} else {
		fmt.Fprintf(w, "Device extensions: %s\n", strings.Join(s.devExts.Names(), ", "))
	}
}

func printShellHelp(w io.Writer) {
	fmt.Fprintln(w, `
procaddr shell commands:
  Lookup:
    lookup <name>...        - Resolve entry points for the current device
    trace <name>...         - Show the hash probe sequence
    entries [filter]        - List entry points

  Context:
    device <none|7|75|8|9|10> - Select the target device generation
    version <x.y[.z]>       - Set the core API version
    ext <instance|device> <name> - Enable an extension
    ext clear               - Disable all extensions
    gate <on|off>           - Apply the gating predicate to lookups
    status                  - Show the current context

  General:
    stats                   - Show index statistics
    help                    - Show this help
    quit                    - Exit`)
}

// Shell runs a Session on a readline prompt.
type Shell struct {
	session *Session
	rl      *readline.Instance
}

// NewShell creates a readline shell for s. Entry point names complete after
// lookup and trace.
func NewShell(s *Session) (*Shell, error) {
	names := func(string) []string {
		entries := s.resolver.Index().Entries()
		out := make([]string, len(entries))
		for i, e := range entries {
			out[i] = e.Name
		}
		return out
	}
	completer := readline.NewPrefixCompleter(
		readline.PcItem("lookup", readline.PcItemDynamic(names)),
		readline.PcItem("trace", readline.PcItemDynamic(names)),
		readline.PcItem("device",
			readline.PcItem("none"), readline.PcItem("7"), readline.PcItem("75"),
			readline.PcItem("8"), readline.PcItem("9"), readline.PcItem("10"),
		),
		readline.PcItem("version"),
		readline.PcItem("ext", readline.PcItem("instance"), readline.PcItem("device"), readline.PcItem("clear")),
		readline.PcItem("gate", readline.PcItem("on"), readline.PcItem("off")),
		readline.PcItem("entries"),
		readline.PcItem("stats"),
		readline.PcItem("status"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "procaddr> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Shell{session: s, rl: rl}, nil
}

// Run starts the interactive command loop. It returns on quit or EOF.
func (sh *Shell) Run() {
	defer sh.rl.Close()

	printShellHelp(sh.rl.Stdout())
	for {
		line, err := sh.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(sh.rl.Stdout(), "Exiting...")
			return
		}
		if sh.session.Exec(strings.TrimSpace(line), sh.rl.Stdout()) {
			fmt.Fprintln(sh.rl.Stdout(), "Exiting...")
			return
		}
	}
}
