package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"notable/internal/app"
	notableclient "notable/internal/client"
	"notable/internal/config"
	"notable/internal/logging"
	"notable/internal/reconcile"
	"notable/internal/server"
	"notable/internal/store"
	"notable/internal/types"
)

const usageText = `notable keeps notes synced through a local daemon.

Usage:
  notable <command> [flags]

Commands:
  serve    run the note server
  ls       list notes
  add      add a note
  rm       remove a note
  ui       run the terminal UI
  help     show help

Flags:
  -h, --help   show help

Examples:
  notable serve
  notable add --title "Groceries" --content "milk, eggs"
  notable rm <id>
`

const version = "dev"

func printUsage() {
	fmt.Fprint(os.Stderr, usageText)
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		return
	}

	switch args[0] {
	case "-h", "--help", "help":
		printUsage()
		return
	case "serve":
		exitOnErr("serve", runServe(args[1:]))
	case "ls":
		exitOnErr("ls", runLS(args[1:]))
	case "add":
		exitOnErr("add", runAdd(args[1:]))
	case "rm":
		exitOnErr("rm", runRM(args[1:]))
	case "ui":
		exitOnErr("ui", runUI(args[1:]))
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
}

func exitOnErr(command string, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "notable %s: %v\n", command, err)
	os.Exit(1)
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	addr := fs.String("addr", "", "listen address (overrides config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	listenAddr := cfg.ServerAddress()
	if strings.TrimSpace(*addr) != "" {
		listenAddr = strings.TrimSpace(*addr)
	}

	if _, err := config.EnsureDataDir(); err != nil {
		return err
	}
	dbPath, err := config.NotesDBPath()
	if err != nil {
		return err
	}
	notes, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer notes.Close()

	log := logging.New(os.Stderr, logging.ParseLevel(cfg.LogLevel()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(listenAddr, version, notes, log).Run(ctx)
}

func newClient() (*notableclient.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	c := notableclient.NewWithBaseURL(cfg.ClientBaseURL())
	c.SetTimeout(cfg.ClientTimeout())
	return c, nil
}

func runLS(args []string) error {
	fs := flag.NewFlagSet("ls", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	c, err := newClient()
	if err != nil {
		return err
	}
	res := c.ListNotes(context.Background())
	if !res.OK {
		return errors.New(res.Error)
	}
	notes, _ := res.Data.([]*types.Note)

	writer := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tCREATED\tTITLE")
	for _, note := range notes {
		fmt.Fprintf(writer, "%s\t%s\t%s\n", note.ID, note.CreatedAt.Format("2006-01-02 15:04"), note.Title)
	}
	return writer.Flush()
}

func runAdd(args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	title := fs.String("title", "", "note title")
	content := fs.String("content", "", "note content")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c, err := newClient()
	if err != nil {
		return err
	}
	res := c.CreateNote(context.Background(), types.NoteDraft{Title: *title, Content: *content})
	if !res.OK {
		return errors.New(res.Error)
	}
	note, _ := res.Data.(*types.Note)
	if note == nil {
		return errors.New("unexpected server response")
	}
	fmt.Println(note.ID)
	return nil
}

func runRM(args []string) error {
	fs := flag.NewFlagSet("rm", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	id := strings.TrimSpace(fs.Arg(0))
	if id == "" {
		return errors.New("note id is required")
	}

	c, err := newClient()
	if err != nil {
		return err
	}
	res := c.DeleteNote(context.Background(), id)
	if !res.OK {
		return errors.New(res.Error)
	}
	return nil
}

func runUI(args []string) error {
	fs := flag.NewFlagSet("ui", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	c, err := newClient()
	if err != nil {
		return err
	}
	coordinator := reconcile.New(c, logging.Nop())
	return app.Run(coordinator)
}
