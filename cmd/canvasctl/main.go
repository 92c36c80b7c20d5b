// canvasctl is a command-line client for the canvas server.
//
//	canvasctl token  --user ID [--secret S] [--ttl 24h] [--out FILE]
//	canvasctl export --room ID --token-file FILE [--out board.pdf]
//	canvasctl watch  --room ID --token-file FILE [--snapshot board.pdf]
//
// export renders the persisted shapes of a room to a PDF. watch joins a room
// with a headless board, logs every room event and can write what it saw to
// a PDF on exit.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"
)

type command struct {
	name    string
	summary string
	run     func(args []string) error
}

var commands = []command{
	{"token", "sign a development token with the shared secret", runToken},
	{"export", "render a room to PDF", runExport},
	{"watch", "join a room and log its events", runWatch},
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage()
		return nil
	}
	for _, c := range commands {
		if c.name == args[0] {
			return c.run(args[1:])
		}
	}
	printUsage()
	return fmt.Errorf("unknown command %q", args[0])
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: canvasctl <command> [flags]")
	fmt.Fprintln(os.Stderr)
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-8s %s\n", c.name, c.summary)
	}
}

// parse runs fs over args, turning --help into a clean exit.
func parse(fs *pflag.FlagSet, args []string) (bool, error) {
	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// connectionFlags are shared by the commands that talk to a server.
type connectionFlags struct {
	server    string
	room      string
	token     string
	tokenFile string
}

func (c *connectionFlags) add(fs *pflag.FlagSet) {
	fs.StringVar(&c.server, "server", "http://localhost:8080", "server base URL")
	fs.StringVar(&c.room, "room", "", "room id")
	fs.StringVar(&c.token, "token", "", "bearer token")
	fs.StringVar(&c.tokenFile, "token-file", "", "file holding the bearer token")
}

func (c *connectionFlags) validate() error {
	if c.room == "" {
		return fmt.Errorf("--room is required")
	}
	return nil
}

func (c *connectionFlags) wsURL() string {
	base := strings.TrimSuffix(c.server, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/ws"
}
