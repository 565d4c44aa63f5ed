// Command zcodex completes a shell command line with a language model.
// The buffer is read from stdin, the cursor offset (in characters) is the
// only positional argument, and the completion is written to stdout.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"golang.org/x/term"

	zcodex "github.com/Paranoid-AF/zcodex"
	"github.com/Paranoid-AF/zcodex/generate"
)

// Version is set at build time via -ldflags.
var Version = "dev"

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("zcodex", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: zcodex [flags] <cursor> < buffer")
		fs.PrintDefaults()
	}
	showVersion := fs.Bool("version", false, "print version and exit")
	verbose := fs.Bool("verbose", false, "log requests and responses to stderr")
	local := fs.Bool("local", false, "send the request to the local server")
	variant := fs.String("variant", "", "request variant: completion, chat, local_completion or local_infill")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if *showVersion {
		fmt.Fprintln(stdout, "zcodex", Version)
		return exitOK
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

	if fs.NArg() != 1 {
		fs.Usage()
		return exitUsage
	}
	cursor, err := strconv.Atoi(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(stderr, "zcodex: cursor must be an integer: %q\n", fs.Arg(0))
		return exitUsage
	}

	opts := zcodex.Options{UseLocalServer: *local, Guidance: stderr}
	if *variant != "" {
		v, err := zcodex.ParseVariant(*variant)
		if err != nil {
			fmt.Fprintf(stderr, "zcodex: %v\n", err)
			return exitUsage
		}
		opts.Variant = v
	}

	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintln(stderr, "zcodex: the command-line buffer must be piped on stdin")
		return exitUsage
	}

	settings, err := zcodex.LoadSettings(zcodex.SettingsPath(), opts)
	if err != nil {
		return fail(stderr, err)
	}

	buffer, err := io.ReadAll(stdin)
	if err != nil {
		return fail(stderr, fmt.Errorf("read stdin: %w", err))
	}

	engine, err := generate.NewEngine(settings)
	if err != nil {
		return fail(stderr, err)
	}

	out, err := engine.Complete(ctx, string(buffer), cursor)
	if err != nil {
		return fail(stderr, err)
	}

	if _, err := io.WriteString(stdout, out); err != nil {
		return fail(stderr, err)
	}
	return exitOK
}

// fail reports err on stderr and maps it to an exit status.
func fail(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "zcodex: %v\n", err)
	slog.Debug("failed", "kind", zcodex.KindOf(err), "error", err)
	if zcodex.KindOf(err) == zcodex.KindInvalidCursor {
		return exitUsage
	}
	return exitFailure
}
