/*
Package handler provides the command handlers and dispatch table for the OASIP CLI.

This file defines the Router, which parses the global flags, looks the command up and
renders its result as indented JSON, optionally filtered by a JMESPath expression.
*/
package handler

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"

	jmespath "github.com/jmespath-community/go-jmespath"

	"oasip/internal/pkg/errs"
	"oasip/internal/pkg/logx"
)

// ErrUsage is returned when the command line cannot be parsed. Usage has already been printed.
var ErrUsage = errors.New("usage error")

// CommandFunc runs one command with its own arguments and returns the value to print.
type CommandFunc func(ctx context.Context, args []string) (any, error)

// Command is an entry in the dispatch table.
type Command struct {
	Name    string
	Summary string
	Run     CommandFunc
}

// Router maps command names to handlers.
type Router struct {
	deps     *AppDeps
	commands map[string]Command
}

// NewRouter sets up the dispatch table for every CLI command.
func NewRouter(deps *AppDeps) *Router {
	r := &Router{deps: deps, commands: make(map[string]Command)}

	// --- Session ---
	r.handle("whoami", "Show the current session", HandleWhoAmI(deps))
	r.handle("login", "Sign in with -email and -password", HandleLogin(deps))
	r.handle("logout", "Sign out", HandleLogout(deps))
	r.handle("match", "Check a password with -email and -password", HandleMatch(deps))

	// --- Events ---
	r.handle("events", "List events [-category N] [-type upcoming|past|day] [-start RFC3339]", HandleListEvents(deps))
	r.handle("event", "Show event -id", HandleGetEvent(deps))
	r.handle("event-create", "Book an event", HandleCreateEvent(deps))
	r.handle("event-update", "Edit event -id [-start] [-notes] [-file PATH | -delete-file]", HandleUpdateEvent(deps))
	r.handle("event-delete", "Cancel event -id", HandleDeleteEvent(deps))
	r.handle("slots", "List occupied slots -category -start [-exclude ID]", HandleTimeSlots(deps))

	// --- Categories ---
	r.handle("categories", "List categories [-lecturer]", HandleListCategories(deps))
	r.handle("category-update", "Edit category -id [-name] [-description] [-duration]", HandleUpdateCategory(deps))

	// --- Users ---
	r.handle("users", "List users", HandleListUsers(deps))
	r.handle("user", "Show user -id", HandleGetUser(deps))
	r.handle("roles", "List roles", HandleListRoles(deps))
	r.handle("user-create", "Create user -name -email -password -role", HandleCreateUser(deps))
	r.handle("user-update", "Edit user -id [-name] [-email] [-role]", HandleUpdateUser(deps))
	r.handle("user-delete", "Delete user -id", HandleDeleteUser(deps))

	// --- Files ---
	r.handle("file-name", "Show the name of attachment -uuid", HandleFileName(deps))
	r.handle("file-download", "Download attachment -uuid [-o PATH]", HandleFileDownload(deps))
	r.handle("file-mirror", "Copy attachment -uuid to S3 and print a download link", HandleFileMirror(deps))

	return r
}

func (r *Router) handle(name, summary string, run CommandFunc) {
	r.commands[name] = Command{Name: name, Summary: summary, Run: run}
}

// Dispatch parses argv (without the program name), runs the command and prints its result.
func (r *Router) Dispatch(ctx context.Context, argv []string) error {
	fs := flag.NewFlagSet("oasip", flag.ContinueOnError)
	fs.SetOutput(r.deps.Stderr)
	query := fs.String("query", "", "JMESPath expression applied to the result")
	fs.Usage = func() { r.usage(r.deps.Stderr) }

	if err := fs.Parse(argv); err != nil {
		return ErrUsage
	}
	if fs.NArg() == 0 {
		r.usage(r.deps.Stderr)
		return ErrUsage
	}

	if *query != "" {
		if _, err := jmespath.Compile(*query); err != nil {
			return errs.Wrap(errs.ErrInvalidParams, err).WithMessage("Invalid -query expression.")
		}
	}

	name := fs.Arg(0)
	cmd, ok := r.commands[name]
	if !ok {
		fmt.Fprintf(r.deps.Stderr, "unknown command %q\n\n", name)
		r.usage(r.deps.Stderr)
		return ErrUsage
	}

	logx.Debug("Dispatching command", "command", name)

	out, err := cmd.Run(ctx, fs.Args()[1:])
	if err != nil {
		return err
	}
	return Render(r.deps.Stdout, out, *query)
}

func (r *Router) usage(w io.Writer) {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "usage: oasip [-query EXPR] <command> [flags]")
	fmt.Fprintln(w)
	for _, name := range names {
		fmt.Fprintf(w, "  %-16s %s\n", name, r.commands[name].Summary)
	}
}
