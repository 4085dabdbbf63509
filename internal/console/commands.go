package console

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"unicode"

	"roomstudio/internal/store"
)

// Command is a console command with its own flags and a Run function. Flags
// are defined on FlagSet before positional arguments; Run is called after
// Parse and reads flag state plus FlagSet.Args().
type Command struct {
	Name    string
	Help    string
	Admin   bool
	FlagSet *flag.FlagSet
	Run     func() error
}

// Registry holds console commands by name. Commands marked Admin refuse to run
// outside admin mode.
type Registry struct {
	cmds  map[string]*Command
	order []string
	mode  func() store.Mode
}

// NewRegistry returns an empty registry. mode is consulted on every Execute;
// nil means everything is allowed.
func NewRegistry(mode func() store.Mode) *Registry {
	if mode == nil {
		mode = func() store.Mode { return store.ModeAdmin }
	}
	return &Registry{cmds: make(map[string]*Command), mode: mode}
}

// Register adds a command. name is the first token of the line; fs carries the
// command's flags and collects positionals; run is called after fs.Parse
// succeeds.
func (r *Registry) Register(name, help string, admin bool, fs *flag.FlagSet, run func() error) {
	r.cmds[name] = &Command{Name: name, Help: help, Admin: admin, FlagSet: fs, Run: run}
	r.order = append(r.order, name)
}

// Commands returns the registered commands in registration order.
func (r *Registry) Commands() []*Command {
	out := make([]*Command, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.cmds[name])
	}
	return out
}

// Execute runs the command in args[0] with args[1:] as flag/positional
// arguments. Returns an error for an unknown name, a gated command, a flag
// parse error, or from Run().
func (r *Registry) Execute(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing command")
	}
	cmd, ok := r.cmds[args[0]]
	if !ok {
		return fmt.Errorf("unknown command: %s", args[0])
	}
	if cmd.Admin && r.mode() != store.ModeAdmin {
		return fmt.Errorf("%s: admin mode required", cmd.Name)
	}
	// FlagSets live as long as the registry, so flag values from the previous
	// invocation are still in place. Reset before parsing.
	cmd.FlagSet.VisitAll(func(f *flag.Flag) {
		_ = f.Value.Set(f.DefValue)
	})
	if err := cmd.FlagSet.Parse(args[1:]); err != nil {
		return err
	}
	return cmd.Run()
}

// newFlagSet builds a FlagSet that reports errors instead of printing usage.
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// SplitArgs tokenizes a console line. Double quotes group words into one
// argument; the quotes themselves are dropped.
func SplitArgs(line string) []string {
	var args []string
	var cur strings.Builder
	quoted := false
	flush := func() {
		if cur.Len() > 0 {
			args = append(args, cur.String())
			cur.Reset()
		}
	}
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
		case unicode.IsSpace(r) && !quoted:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return args
}
