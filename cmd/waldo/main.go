// Waldo CLI - inspect and exercise persisted delegation receivers
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tliron/commonlog"

	"github.com/chazu/waldo/delegate"
	"github.com/chazu/waldo/machine"
	"github.com/chazu/waldo/manifest"
	"github.com/chazu/waldo/snapshot"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	verbosity := flag.Int("v", 0, "Log verbosity")
	storePath := flag.String("store", "", "Receiver store path (overrides waldo.toml)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: waldo [options] <command> [args...]\n\n")
		fmt.Fprintf(os.Stderr, "Inspects and exercises receivers in a waldo store.\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  list               List receiver IDs in the store\n")
		fmt.Fprintf(os.Stderr, "  show <id>          Print a receiver's fields and wiring\n")
		fmt.Fprintf(os.Stderr, "  delete <id>        Remove a receiver from the store\n")
		fmt.Fprintf(os.Stderr, "  demo               Run the door state machine and persist it\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  waldo demo                     # Exercise and persist a door machine\n")
		fmt.Fprintf(os.Stderr, "  waldo list                     # Show what the store holds\n")
		fmt.Fprintf(os.Stderr, "  waldo -store doors.db show <id>\n")
	}
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	m, err := manifest.FindAndLoad(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Only an explicitly passed -v overrides the manifest; the flag's
	// default value must not shadow a configured verbosity.
	explicit := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "v" {
			explicit = true
		}
	})
	commonlog.Configure(effectiveVerbosity(m, explicit, *verbosity), nil)

	path := *storePath
	if path == "" {
		if m != nil {
			path = m.StorePath()
		} else {
			path = filepath.Join(".waldo", "receivers.db")
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	space := delegate.NewSpace()
	behaviors := demoBehaviors()
	store, err := snapshot.Open(path, space, behaviors)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	switch args[0] {
	case "list":
		handleList(store)
	case "show":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Usage: waldo show <id>")
			os.Exit(1)
		}
		handleShow(store, args[1])
	case "delete":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Usage: waldo delete <id>")
			os.Exit(1)
		}
		if err := store.Delete(args[1]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Deleted %s\n", args[1])
	case "demo":
		handleDemo(store, space, behaviors)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
		flag.Usage()
		os.Exit(1)
	}
}

// effectiveVerbosity resolves the log level: an explicit -v wins, even
// -v 0; otherwise the manifest's [log] verbosity applies, if any.
func effectiveVerbosity(m *manifest.Manifest, explicit bool, flagValue int) int {
	if explicit {
		return flagValue
	}
	if m != nil {
		return m.Log.Verbosity
	}
	return 0
}

func handleList(store *snapshot.Store) {
	ids, err := store.IDs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(ids) == 0 {
		fmt.Println("Store is empty")
		return
	}
	for _, id := range ids {
		fmt.Println(id)
	}
}

func handleShow(store *snapshot.Store, id string) {
	snap, err := store.Peek(id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Receiver %s (wire v%d)\n", snap.ID, snap.Version)
	fmt.Println("  Fields:")
	for name, fs := range snap.Fields {
		fmt.Printf("    %-12s %s\n", name, describeField(fs))
	}
	if len(snap.Wiring) > 0 {
		fmt.Println("  Delegates:")
		for selector, slot := range snap.Wiring {
			fmt.Printf("    %-12s -> slot %q\n", selector, slot)
		}
	}
}

func describeField(fs snapshot.FieldSnapshot) string {
	switch fs.Kind {
	case snapshot.FieldNil:
		return "nil"
	case snapshot.FieldBool:
		return fmt.Sprintf("%v", fs.Bool)
	case snapshot.FieldInt:
		return fmt.Sprintf("%d", fs.Int)
	case snapshot.FieldFloat:
		return fmt.Sprintf("%g", fs.Float)
	case snapshot.FieldString:
		return fmt.Sprintf("%q", fs.Str)
	case snapshot.FieldArray:
		return fmt.Sprintf("array[%d]", len(fs.Elems))
	case snapshot.FieldReceiver:
		return "receiver " + fs.Receiver
	case snapshot.FieldTarget:
		return "target " + fs.Behavior
	default:
		return fmt.Sprintf("kind %d", fs.Kind)
	}
}

// handleDemo builds a door state machine, walks it through a
// few transitions, and persists the result.
func handleDemo(store *snapshot.Store, space *delegate.Space, behaviors *delegate.BehaviorTable) {
	door, err := machine.New(space, "Door", behaviors, "Closed")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	door.Receiver().SetString("name", "front door")
	door.Receiver().Set("openCount", delegate.IntValue(0))

	script := []string{"Open", "Closed", "Open"}
	for _, state := range script {
		if err := door.Transition(state); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if state == "Open" {
			n := door.Receiver().Get("openCount").AsInt()
			door.Receiver().Set("openCount", delegate.IntValue(n+1))
		}
		v, err := door.Send("describe")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(v.AsString())
	}

	if err := store.Save(door.Receiver()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Saved %s (opened %d times)\n",
		door.Receiver().ID, door.Receiver().Get("openCount").AsInt())
}

// demoBehaviors is the behavior table the CLI restores against: the two
// door states the demo persists with.
func demoBehaviors() *delegate.BehaviorTable {
	behaviors := delegate.NewBehaviorTable()

	open := delegate.NewBehavior("Open")
	open.AddMethod("isOpen", func(self *delegate.Receiver, args []delegate.Value) delegate.Value {
		return delegate.BoolValue(true)
	}, 0)
	open.AddMethod("describe", func(self *delegate.Receiver, args []delegate.Value) delegate.Value {
		return delegate.StringValue(self.GetString("name") + " is open")
	}, 0)

	closed := delegate.NewBehavior("Closed")
	closed.AddMethod("isOpen", func(self *delegate.Receiver, args []delegate.Value) delegate.Value {
		return delegate.BoolValue(false)
	}, 0)
	closed.AddMethod("describe", func(self *delegate.Receiver, args []delegate.Value) delegate.Value {
		return delegate.StringValue(self.GetString("name") + " is closed")
	}, 0)

	behaviors.Register(open)
	behaviors.Register(closed)
	return behaviors
}
