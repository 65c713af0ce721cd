package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/tobsdb/tdblite/internal/auth"
	"github.com/tobsdb/tdblite/internal/conn"
	"github.com/tobsdb/tdblite/internal/storage"
	"github.com/tobsdb/tdblite/pkg"
	"github.com/tobsdb/tdblite/pkg/client"
)

type Globals struct {
	Data      string `help:"Data directory" default:"./data" env:"TDB_DATA" type:"path"`
	Store     string `help:"Storage backend: json, memory or sqlite" default:"json" enum:"json,memory,sqlite" env:"TDB_STORE"`
	LogLevel  string `name:"log-level" help:"Log level: none, error or debug" default:"error" env:"TDB_LOG_LEVEL"`
	CacheSize int    `name:"cache-size" help:"Number of SELECT results to cache; 0 disables the cache" default:"0" env:"TDB_CACHE_SIZE"`
	Yes       bool   `short:"y" help:"Run DROP and DELETE without asking for confirmation"`
}

var CLI struct {
	Globals

	Repl    ReplCmd    `cmd:"" default:"1" help:"Read commands interactively (default)"`
	Exec    ExecCmd    `cmd:"" help:"Run the given commands and exit"`
	Serve   ServeCmd   `cmd:"" help:"Accept commands over websocket"`
	Connect ConnectCmd `cmd:"" help:"Read commands interactively and run them on a server"`
}

func (g *Globals) openSession() (*conn.Session, error) {
	level, err := pkg.ParseLogLevel(g.LogLevel)
	if err != nil {
		return nil, err
	}
	pkg.SetLogLevel(level)

	store, err := storage.Open(storage.Kind(g.Store), g.Data)
	if err != nil {
		return nil, err
	}
	return conn.NewSession(store, g.CacheSize), nil
}

type ReplCmd struct{}

func (c *ReplCmd) Run(g *Globals) error {
	session, err := g.openSession()
	if err != nil {
		return err
	}
	defer session.Close()

	return NewRepl(localRunner{session}, os.Stdin, os.Stdout, g.Yes).Run()
}

type ExecCmd struct {
	Commands []string `arg:"" help:"Commands to run, one per argument"`
}

func (c *ExecCmd) Run(g *Globals) error {
	session, err := g.openSession()
	if err != nil {
		return err
	}
	defer session.Close()

	repl := NewRepl(localRunner{session}, os.Stdin, os.Stdout, g.Yes)
	failed := 0
	for _, line := range c.Commands {
		if !repl.Exec(line) {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d commands failed", failed, len(c.Commands))
	}
	return nil
}

type ServeCmd struct {
	Port     int    `help:"Listening port" default:"7085" env:"TDB_PORT"`
	User     string `help:"Name clients must authenticate as; empty disables auth" env:"TDB_USER"`
	Pass     string `help:"Password for --user" env:"TDB_PASS"`
	ReadOnly bool   `name:"read-only" help:"Only allow LIST, SELECT and INFO" env:"TDB_READ_ONLY"`
}

func (c *ServeCmd) Run(g *Globals) error {
	session, err := g.openSession()
	if err != nil {
		return err
	}
	defer session.Close()

	var user *auth.User
	role := auth.UserRoleAdmin
	if c.ReadOnly {
		role = auth.UserRoleReadOnly
	}
	if c.User != "" {
		user, err = auth.NewUser(c.User, c.Pass, role)
		if err != nil {
			return err
		}
	} else if c.ReadOnly {
		return fmt.Errorf("--read-only needs --user")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return conn.NewServer(session, user).Listen(ctx, c.Port)
}

type ConnectCmd struct {
	Url  string `arg:"" optional:"" help:"Server url" default:"ws://localhost:7085" env:"TDB_URL"`
	User string `help:"Name to authenticate as" env:"TDB_USER"`
	Pass string `help:"Password for --user" env:"TDB_PASS"`
}

func (c *ConnectCmd) Run(g *Globals) error {
	level, err := pkg.ParseLogLevel(g.LogLevel)
	if err != nil {
		return err
	}
	pkg.SetLogLevel(level)

	tdb, err := client.NewClient(c.Url, client.ClientOptions{Username: c.User, Password: c.Pass})
	if err != nil {
		return err
	}
	if err := tdb.Connect(); err != nil {
		return err
	}
	defer tdb.Disconnect()

	return NewRepl(remoteRunner{tdb}, os.Stdin, os.Stdout, g.Yes).Run()
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("tdblite"),
		kong.Description(strings.TrimSpace(`
A small schema-aware table store driven by one-line commands.

Data is read and written in full on every command. Running two tdblite
processes on the same data directory at once is unsupported.`)),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)
	err := ctx.Run(&CLI.Globals)
	ctx.FatalIfErrorf(err)
}
