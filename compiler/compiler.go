package compiler

import (
	"context"
	"os"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/exprc/compiler/analyze"
	"github.com/slowlang/exprc/compiler/ast"
	"github.com/slowlang/exprc/compiler/back"
	"github.com/slowlang/exprc/compiler/config"
	"github.com/slowlang/exprc/compiler/front"
	"github.com/slowlang/exprc/compiler/ir"
	"github.com/slowlang/exprc/compiler/llvm"
	"github.com/slowlang/exprc/compiler/parse"
	"github.com/slowlang/exprc/compiler/tp"
)

type (
	Options struct {
		// Target is config.TargetAMD64 or config.TargetLLVM.
		Target string

		// Comments annotates assembly with the instructions it was lowered from.
		Comments bool
	}
)

// OptionsFrom takes the compiler settings from c.
func OptionsFrom(c *config.Config) Options {
	return Options{
		Target:   c.Compiler.Target,
		Comments: c.Compiler.Comments,
	}
}

func CompileFile(ctx context.Context, name string, opts Options) (obj []byte, err error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	return Compile(ctx, name, text, opts)
}

// Compile translates program text into assembly text for the target.
func Compile(ctx context.Context, name string, text []byte, opts Options) (obj []byte, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile", "name", name, "target", opts.Target)
	defer tr.Finish("err", &err)

	f, err := Lower(ctx, name, text)
	if err != nil {
		return nil, err
	}

	switch opts.Target {
	case "", config.TargetAMD64:
		obj, err = back.New(back.Options{Comments: opts.Comments}).CompileFunc(ctx, nil, f)
	case config.TargetLLVM:
		obj, err = llvm.Compile(ctx, nil, f)
	default:
		return nil, errors.New("unsupported target: %v", opts.Target)
	}

	if err != nil {
		return nil, errors.Wrap(err, "compile")
	}

	return obj, nil
}

// Check parses and type checks text. The returned tree is annotated with types.
func Check(ctx context.Context, name string, text []byte) (x *ast.Program, t tp.Type, err error) {
	x, err = parse.Parse(ctx, text)
	if err != nil {
		return nil, nil, errors.Wrap(err, "parse %v", name)
	}

	t, err = analyze.Analyze(ctx, x)
	if err != nil {
		return nil, nil, errors.Wrap(err, "analyze %v", name)
	}

	return x, t, nil
}

// Lower runs the front end and returns valid IR.
func Lower(ctx context.Context, name string, text []byte) (f *ir.Func, err error) {
	x, _, err := Check(ctx, name, text)
	if err != nil {
		return nil, err
	}

	f, err = front.Generate(ctx, x)
	if err != nil {
		return nil, errors.Wrap(err, "generate")
	}

	err = ir.Validate(f)
	if err != nil {
		return nil, errors.Wrap(err, "validate")
	}

	return f, nil
}
