package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/wdm0006/appraiser/pkg/config"
)

var version = "0.1.0-dev"

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, env *env, args []string) error
}

var commands = []command{
	{"train", "fit the feature pipeline and a regressor, save the artifact", runTrain},
	{"predict", "score listings with a trained artifact", runPredict},
	{"transform", "write the engineered feature table", runTransform},
	{"profile", "report per-column statistics of a data file", runProfile},
	{"stats", "print the statistics stored with an artifact", runStats},
	{"models", "list or delete stored artifacts", runModels},
	{"synth", "generate Ames-like listings", runSynth},
}

// env is what every command shares.
type env struct {
	log    *zap.Logger
	stdout io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, nil); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run executes one command. A nil log is replaced by a production or
// development logger depending on -debug.
func run(ctx context.Context, args []string, stdout io.Writer, log *zap.Logger) error {
	if len(args) == 0 {
		usage(os.Stderr)
		return flag.ErrHelp
	}
	switch args[0] {
	case "-version", "--version", "version":
		fmt.Fprintln(stdout, "appraiser", version)
		return nil
	case "-h", "-help", "--help", "help":
		usage(stdout)
		return nil
	}
	for _, c := range commands {
		if c.name == args[0] {
			return c.run(ctx, &env{log: log, stdout: stdout}, args[1:])
		}
	}
	usage(os.Stderr)
	return fmt.Errorf("unknown command %q", args[0])
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: appraiser <command> [flags]")
	fmt.Fprintln(w)
	for _, c := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", c.name, c.usage)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// common flags shared by the commands that read a config file.
type common struct {
	fs     *flag.FlagSet
	config string
	debug  bool
}

func newFlags(name string) *common {
	c := &common{fs: flag.NewFlagSet(name, flag.ContinueOnError)}
	c.fs.StringVar(&c.config, "config", "", "config file (.json, .yaml or .toml)")
	c.fs.BoolVar(&c.debug, "debug", false, "development logging")
	return c
}

// parse parses args, loads the config and builds the logger. Flags explicitly
// set on the command line are applied over the config by apply.
func (c *common) parse(e *env, args []string, apply func(cfg *config.Config, set map[string]bool)) (config.Config, error) {
	if err := c.fs.Parse(args); err != nil {
		return config.Config{}, err
	}
	cfg := config.Default()
	if c.config != "" {
		var err error
		if cfg, err = config.Load(c.config); err != nil {
			return cfg, err
		}
	}
	set := map[string]bool{}
	c.fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if apply != nil {
		apply(&cfg, set)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	if e.log == nil {
		log, err := newLogger(c.debug)
		if err != nil {
			return cfg, err
		}
		e.log = log
	}
	return cfg, nil
}
