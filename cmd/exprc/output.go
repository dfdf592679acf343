package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"golang.org/x/sync/errgroup"
	"nikand.dev/go/cli"
	"nikand.dev/go/heap"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

type (
	result struct {
		i    int
		name string

		out []byte
		err error
	}

	results struct {
		heap.Heap[result]

		next int
	}

	job func(ctx context.Context, name string) ([]byte, error)
)

var (
	errorStyle = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	okStyle    = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	nameColor  = pterm.FgLightBlue
)

// forEach runs f on every file argument and prints the results in argument order.
func forEach(ctx context.Context, c *cli.Command, f job) error {
	var failed int

	err := ordered(ctx, c.Args, c.Int("jobs"), f, func(r result) error {
		if r.err != nil {
			failed++

			return report(r.name, r.err)
		}

		if len(c.Args) > 1 {
			nameColor.Printf("==> %s <==\n", r.name)
		}

		_, err := os.Stdout.Write(r.out)

		return err
	})
	if err != nil {
		return err
	}

	if failed != 0 {
		return errors.New("%d of %d files failed", failed, len(c.Args))
	}

	return nil
}

// ordered runs f on names concurrently, at most jobs at a time,
// and calls emit for the results in the order of names.
func ordered(ctx context.Context, names []string, jobs int, f job, emit func(result) error) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "ordered", "files", len(names), "jobs", jobs)
	defer tr.Finish("err", &err)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	if jobs > 0 {
		g.SetLimit(jobs)
	}

	resc := make(chan result)

	var werr error

	go func() {
		defer close(resc)

		for i, name := range names {
			i, name := i, name

			g.Go(func() error {
				out, err := f(gctx, name)

				select {
				case resc <- result{i: i, name: name, out: out, err: err}:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}

		werr = g.Wait()
	}()

	rs := results{
		Heap: heap.Heap[result]{Less: resultLess},
	}

	for r := range resc {
		rs.Push(r)

		for err == nil && rs.Len() != 0 && rs.Data[0].i == rs.next {
			r := rs.Pop()
			rs.next++

			tr.V("ordered").Printw("emit", "i", r.i, "name", r.name, "err", r.err)

			err = emit(r)
			if err != nil {
				cancel()
			}
		}
	}

	if err != nil {
		return err
	}

	return werr
}

func resultLess(d []result, i, j int) bool {
	return d[i].i < d[j].i
}

// report displays a compilation error and returns it.
func report(name string, err error) error {
	errorStyle.Print(" error ")
	fmt.Print(" ")
	nameColor.Print(name)
	pterm.FgRed.Printf(": %v\n", err)

	return err
}

func printOK(name, out string) {
	okStyle.Print(" ok ")
	fmt.Print(" ")
	nameColor.Print(name)
	fmt.Printf(" -> %s\n", out)
}
