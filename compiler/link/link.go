// Package link turns assembly text into an executable with the system C compiler.
package link

import (
	"bytes"
	"context"
	_ "embed"
	"os"
	"os/exec"
	"path/filepath"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

type (
	Options struct {
		// CC is the C compiler driver used to assemble and link.
		CC string

		Output string
	}

	// Error is a failed compiler driver run.
	Error struct {
		Cmd    string
		Output []byte
		Err    error
	}
)

// Runtime implements the functions programs call: print_int, print_bool and read_int.
//
//go:embed runtime.c.in
var Runtime []byte

// Build assembles asm, links it with Runtime and writes the executable to opts.Output.
func Build(ctx context.Context, asm []byte, opts Options) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "link: build", "cc", opts.CC, "output", opts.Output)
	defer tr.Finish("err", &err)

	if opts.CC == "" {
		opts.CC = "cc"
	}

	if opts.Output == "" {
		return errors.New("no output file")
	}

	dir, err := os.MkdirTemp("", "exprc-")
	if err != nil {
		return errors.Wrap(err, "temp dir")
	}

	defer func() {
		e := os.RemoveAll(dir)
		if err == nil && e != nil {
			err = errors.Wrap(e, "remove temp dir")
		}
	}()

	prog := filepath.Join(dir, "prog.s")
	rt := filepath.Join(dir, "runtime.c")

	for _, f := range []struct {
		name string
		data []byte
	}{{prog, asm}, {rt, Runtime}} {
		err = os.WriteFile(f.name, f.data, 0o644)
		if err != nil {
			return errors.Wrap(err, "write %v", filepath.Base(f.name))
		}
	}

	cmd := exec.CommandContext(ctx, opts.CC, "-o", opts.Output, prog, rt)

	var out bytes.Buffer

	cmd.Stdout = &out
	cmd.Stderr = &out

	tr.V("cmd").Printw("run", "args", cmd.Args)

	err = cmd.Run()
	if err != nil {
		return Error{Cmd: opts.CC, Output: out.Bytes(), Err: err}
	}

	return nil
}

func (e Error) Error() string {
	if len(e.Output) == 0 {
		return e.Cmd + ": " + e.Err.Error()
	}

	return e.Cmd + ": " + e.Err.Error() + "\n" + string(bytes.TrimSpace(e.Output))
}

func (e Error) Unwrap() error { return e.Err }
