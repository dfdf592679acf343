package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/exprc/compiler"
	"github.com/slowlang/exprc/compiler/config"
	"github.com/slowlang/exprc/compiler/format"
	"github.com/slowlang/exprc/compiler/interp"
	"github.com/slowlang/exprc/compiler/link"
	"github.com/slowlang/exprc/compiler/parse"
)

func main() {
	parseCmd := &cli.Command{
		Name:        "parse",
		Description: "parse files and print them formatted",
		Action:      parseAct,
		Args:        cli.Args{},
	}

	checkCmd := &cli.Command{
		Name:        "check",
		Description: "type check files and print them with types",
		Action:      checkAct,
		Args:        cli.Args{},
	}

	irCmd := &cli.Command{
		Name:        "ir",
		Description: "print intermediate representation",
		Action:      irAct,
		Args:        cli.Args{},
	}

	asmCmd := &cli.Command{
		Name:        "asm,compile",
		Description: "print x86-64 assembly",
		Action:      compileAct(config.TargetAMD64),
		Args:        cli.Args{},
	}

	llvmCmd := &cli.Command{
		Name:        "llvm",
		Description: "print LLVM assembly",
		Action:      compileAct(config.TargetLLVM),
		Args:        cli.Args{},
	}

	runCmd := &cli.Command{
		Name:        "run",
		Description: "interpret a program",
		Action:      runAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("max-steps", 0, "stop after executing that many instructions, 0 is no limit"),
		},
	}

	buildCmd := &cli.Command{
		Name:        "build",
		Description: "compile a program into an executable",
		Action:      buildAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("output,o", "", "output file, defaults to build.output from config"),
			cli.NewFlag("cc", "", "C compiler, defaults to build.cc from config"),
		},
	}

	watchCmd := &cli.Command{
		Name:        "watch",
		Description: "recompile files when they change",
		Action:      watchAct,
		Args:        cli.Args{},
	}

	app := &cli.Command{
		Name:        "exprc",
		Description: "exprc is a compiler for a small expression language",
		Before:      before,
		Flags: []*cli.Flag{
			cli.NewFlag("config", config.FileName, "config file"),
			cli.NewFlag("target", "", "code generation target: amd64 or llvm, overrides config"),
			cli.NewFlag("comments", false, "annotate assembly with ir instructions"),
			cli.NewFlag("jobs,j", runtime.NumCPU(), "files compiled in parallel"),
			cli.NewFlag("v", "", "verbosity topics"),
			cli.HelpFlag,
		},
		Commands: []*cli.Command{
			parseCmd,
			checkCmd,
			irCmd,
			asmCmd,
			llvmCmd,
			runCmd,
			buildCmd,
			watchCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func before(c *cli.Command) error {
	tlog.DefaultLogger = tlog.New(tlog.NewConsoleWriter(os.Stderr, tlog.LstdFlags))

	tlog.SetVerbosity(c.String("v"))

	return nil
}

func setup(c *cli.Command) (context.Context, *config.Config, error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, errors.Wrap(err, "load config")
	}

	if t := c.String("target"); t != "" {
		cfg.Compiler.Target = t
	}

	if c.Bool("comments") {
		cfg.Compiler.Comments = true
	}

	err = cfg.Check()
	if err != nil {
		return nil, nil, errors.Wrap(err, "config")
	}

	if len(c.Args) == 0 {
		return nil, nil, errors.New("no files")
	}

	return ctx, cfg, nil
}

func parseAct(c *cli.Command) error {
	ctx, _, err := setup(c)
	if err != nil {
		return err
	}

	return forEach(ctx, c, func(ctx context.Context, name string) ([]byte, error) {
		text, err := os.ReadFile(name)
		if err != nil {
			return nil, errors.Wrap(err, "read file")
		}

		x, err := parse.Parse(ctx, text)
		if err != nil {
			return nil, errors.Wrap(err, "parse %v", name)
		}

		b, err := format.Format(ctx, nil, x)
		if err != nil {
			return nil, err
		}

		return append(b, '\n'), nil
	})
}

func checkAct(c *cli.Command) error {
	ctx, _, err := setup(c)
	if err != nil {
		return err
	}

	return forEach(ctx, c, func(ctx context.Context, name string) ([]byte, error) {
		text, err := os.ReadFile(name)
		if err != nil {
			return nil, errors.Wrap(err, "read file")
		}

		x, t, err := compiler.Check(ctx, name, text)
		if err != nil {
			return nil, err
		}

		b, err := format.Typed(ctx, nil, x)
		if err != nil {
			return nil, err
		}

		b = append(b, "\n// type: "...)
		b = append(b, t.String()...)

		return append(b, '\n'), nil
	})
}

func irAct(c *cli.Command) error {
	ctx, _, err := setup(c)
	if err != nil {
		return err
	}

	return forEach(ctx, c, func(ctx context.Context, name string) ([]byte, error) {
		text, err := os.ReadFile(name)
		if err != nil {
			return nil, errors.Wrap(err, "read file")
		}

		f, err := compiler.Lower(ctx, name, text)
		if err != nil {
			return nil, err
		}

		return f.Dump(nil), nil
	})
}

func compileAct(target string) func(c *cli.Command) error {
	return func(c *cli.Command) error {
		ctx, cfg, err := setup(c)
		if err != nil {
			return err
		}

		if c.String("target") == "" {
			cfg.Compiler.Target = target
		}

		opts := compiler.OptionsFrom(cfg)

		return forEach(ctx, c, func(ctx context.Context, name string) ([]byte, error) {
			return compiler.CompileFile(ctx, name, opts)
		})
	}
}

func runAct(c *cli.Command) error {
	ctx, _, err := setup(c)
	if err != nil {
		return err
	}

	if len(c.Args) != 1 {
		return errors.New("run expects exactly one file")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	name := c.Args[0]

	text, err := os.ReadFile(name)
	if err != nil {
		return errors.Wrap(err, "read file")
	}

	f, err := compiler.Lower(ctx, name, text)
	if err != nil {
		return report(name, err)
	}

	return interp.Run(ctx, f, interp.Options{
		Stdout:   os.Stdout,
		Stdin:    os.Stdin,
		MaxSteps: c.Int("max-steps"),
	})
}

func buildAct(c *cli.Command) error {
	ctx, cfg, err := setup(c)
	if err != nil {
		return err
	}

	if len(c.Args) != 1 {
		return errors.New("build expects exactly one file")
	}

	opts := link.Options{
		CC:     cfg.Build.CC,
		Output: cfg.Build.Output,
	}

	if q := c.String("cc"); q != "" {
		opts.CC = q
	}

	if q := c.String("output"); q != "" {
		opts.Output = q
	}

	name := c.Args[0]

	cfg.Compiler.Target = config.TargetAMD64

	asm, err := compiler.CompileFile(ctx, name, compiler.OptionsFrom(cfg))
	if err != nil {
		return report(name, err)
	}

	err = link.Build(ctx, asm, opts)
	if err != nil {
		return errors.Wrap(err, "build %v", name)
	}

	return nil
}

func watchAct(c *cli.Command) error {
	ctx, cfg, err := setup(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	opts := compiler.OptionsFrom(cfg)

	ext := ".s"
	if opts.Target == config.TargetLLVM {
		ext = ".ll"
	}

	return watch(ctx, c.Args, func(ctx context.Context, name string) {
		obj, err := compiler.CompileFile(ctx, name, opts)
		if err != nil {
			_ = report(name, err)
			return
		}

		out := strings.TrimSuffix(name, filepath.Ext(name)) + ext

		err = os.WriteFile(out, obj, 0o644)
		if err != nil {
			_ = report(name, err)
			return
		}

		printOK(name, out)
	})
}
