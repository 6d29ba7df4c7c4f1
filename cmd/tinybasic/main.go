// Command tinybasic hosts the nstBASIC interpreter core on an ordinary
// terminal: a REPL backed by raw-mode stdin/stdout, plus non-interactive
// "run" and "list" subcommands for program files. Real EEPROM/serial/GPIO
// hardware is out of scope (spec.md §1); this binary substitutes plain
// files and no-ops so the language core can be exercised end to end.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/go8bit/tinybasic/core"
	"github.com/go8bit/tinybasic/external"
	"github.com/go8bit/tinybasic/internal/logio"
	"github.com/go8bit/tinybasic/internal/panicerr"
	"github.com/go8bit/tinybasic/lineedit"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := defaultConfig()

	root := &cobra.Command{
		Use:           "tinybasic",
		Short:         "nstBASIC: a TinyBASIC Plus derived interpreter",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			flags := *cfg
			if err := loadConfig(cfg); err != nil {
				return err
			}
			fs := cmd.Flags()
			if fs.Changed("mem") {
				cfg.BufSize = flags.BufSize
			}
			if fs.Changed("eeprom") {
				cfg.EEPROMPath = flags.EEPROMPath
			}
			if fs.Changed("serial") {
				cfg.SerialPath = flags.SerialPath
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&cfg.configPath, "config", "", "path to a TOML config file")
	root.PersistentFlags().IntVar(&cfg.BufSize, "mem", core.DefaultBufSize, "program buffer size in bytes")
	root.PersistentFlags().StringVar(&cfg.EEPROMPath, "eeprom", "", "file backing the EEPROM persistent store")
	root.PersistentFlags().StringVar(&cfg.SerialPath, "serial", "", "file backing the serial persistent store")

	root.AddCommand(newREPLCmd(cfg))
	root.AddCommand(newRunCmd(cfg))
	root.AddCommand(newListCmd(cfg))
	return root
}

// buildLogger constructs the zap-backed logio.Logger used across every
// subcommand.
func buildLogger() *logio.Logger {
	return logio.New()
}

// openStores opens the EEPROM/serial file-backed stores named in cfg, if
// any, returning their core.Option wrappers and a close func for deferred
// cleanup.
func openStores(cfg *config) (opts []core.Option, closeAll func(), err error) {
	var closers []func() error
	closeAll = func() {
		for _, c := range closers {
			_ = c()
		}
	}
	if cfg.EEPROMPath != "" {
		fs, ferr := openFileStore(cfg.EEPROMPath)
		if ferr != nil {
			return nil, closeAll, ferr
		}
		opts = append(opts, core.WithEEPROM(fs))
		closers = append(closers, fs.Close)
	}
	if cfg.SerialPath != "" {
		fs, ferr := openFileStore(cfg.SerialPath)
		if ferr != nil {
			closeAll()
			return nil, closeAll, ferr
		}
		opts = append(opts, core.WithSerial(fs))
		closers = append(closers, fs.Close)
	}
	return opts, closeAll, nil
}

func newREPLCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive nstBASIC session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			term, err := newTerminal(ctx)
			if err != nil {
				return fmt.Errorf("opening terminal: %w", err)
			}
			defer func() { _ = term.Restore() }()

			log := buildLogger()
			defer func() { _ = log.Sync() }()

			storeOpts, closeStores, err := openStores(cfg)
			if err != nil {
				return err
			}
			defer closeStores()

			clock := newSystemClock()
			opts := append([]core.Option{
				core.WithCharIO(term),
				core.WithScreen(term),
				core.WithBreakSource(term),
				core.WithClock(clock),
				core.WithGPIO(noGPIO{}),
				core.WithAudio(logAudio{log: log}),
				core.WithLogger(log),
				core.WithRunAfterLoad(cfg.RunAfterLoad),
			}, storeOpts...)

			in := core.New(cfg.BufSize, opts...)
			in.ColdStart()

			ed := lineedit.New(in, term)
			return runREPLLoop(ctx, ed)
		},
	}
}

// runREPLLoop joins the statement-driving loop with ctx's cancellation
// under a single errgroup, per SPEC_FULL.md's component E driving-loop
// entry: an outer cancellation (SIGINT) unwinds the loop through the
// group's shared derived context. A break is not routed through the group:
// the interpreter and line editor poll it and return to the prompt. The loop itself
// runs under panicerr.Recover so a bug in a statement handler surfaces as
// an error the REPL can report, rather than taking the whole process down.
func runREPLLoop(ctx context.Context, ed *lineedit.Editor) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return panicerr.Recover("repl", func() error {
			for {
				ran, rerr := ed.Next(gctx)
				if rerr != nil {
					return rerr
				}
				if !ran {
					return nil
				}
			}
		})
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newRunCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "run <file>",
		Short: "Load and run a program file non-interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return loadAndDrive(cmd.Context(), cfg, args[0], "RUN\n")
		},
	}
}

func newListCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "list <file>",
		Short: "Load a program file and print its listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return loadAndDrive(cmd.Context(), cfg, args[0], "LIST\n")
		},
	}
}

// loadAndDrive ingests every line of path as a batch of the same merge
// step the interactive line editor uses, then runs one direct-mode
// command (RUN or LIST) against the resulting program store.
func loadAndDrive(ctx context.Context, cfg *config, path string, direct string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	log := buildLogger()
	defer func() { _ = log.Sync() }()

	storeOpts, closeStores, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	out := &fileCharIO{r: bufio.NewReader(os.Stdin), w: os.Stdout}
	clock := newSystemClock()
	opts := append([]core.Option{
		core.WithCharIO(out),
		core.WithClock(clock),
		core.WithGPIO(noGPIO{}),
		core.WithAudio(logAudio{log: log}),
		core.WithLogger(log),
	}, storeOpts...)

	in := core.New(cfg.BufSize, opts...)
	in.ColdStart()

	src := &fileCharIO{r: bufio.NewReader(f), w: os.Stdout}
	ed := lineedit.New(in, noEcho{src})
	for {
		ran, rerr := ed.Next(ctx)
		if rerr != nil {
			return rerr
		}
		if !ran {
			break
		}
	}

	in.ExecuteDirect(ctx, direct)
	return nil
}

// noEcho wraps a CharIO so that ingesting a program file doesn't echo its
// bytes back out through WriteByte -- the line editor normally echoes
// interactive keystrokes, but a batch load has nothing to echo to.
type noEcho struct{ external.CharIO }

func (noEcho) WriteByte(b byte) error { return nil }
