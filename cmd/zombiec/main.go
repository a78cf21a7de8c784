// Command zombiec is the reference front end for the tape-machine
// compiler: it tokenizes, parses, and linearizes a source file, then
// either runs the result (JIT when possible, interpreter otherwise)
// or transpiles it to one of four target languages.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/lcox74/zombiec/internal/core"
	"github.com/lcox74/zombiec/internal/jit"
	"github.com/lcox74/zombiec/internal/transpile/c"
	"github.com/lcox74/zombiec/internal/transpile/java"
	"github.com/lcox74/zombiec/internal/transpile/python"
	"github.com/lcox74/zombiec/internal/transpile/zombieir"
	"github.com/lcox74/zombiec/internal/vm"
)

func usage(fs *flag.FlagSet) func() {
	return func() {
		fmt.Fprintln(os.Stderr, `usage: zombiec [input-file] [-i|--interpret] [-t|--transpile <lang>]
               [-c|--cell-size <bits>] [-m|--cell-modulus <n>] [-O <level>]

<lang> is one of: c, java, python, zombie_ir

With no input file, source is read from stdin. With neither -i nor -t,
the program runs via the JIT when the cell configuration allows it
(8-bit cells, trusting addressing), falling back to the interpreter
otherwise.`)
		fs.PrintDefaults()
		os.Exit(1)
	}
}

func main() {
	fs := flag.NewFlagSet("zombiec", flag.ExitOnError)
	interpret := fs.Bool("i", false, "force the tree-walking interpreter instead of the JIT")
	fs.BoolVar(interpret, "interpret", false, "alias for -i")
	transpileTarget := fs.String("t", "", "transpile to a target language instead of running")
	fs.StringVar(transpileTarget, "transpile", "", "alias for -t")
	cellSize := fs.Int("c", 8, "cell width in bits (8, 16, 32, 64), or 0 for modular")
	fs.IntVar(cellSize, "cell-size", 8, "alias for -c")
	cellModulus := fs.Uint64("m", 0, "cell modulus (only meaningful with -c 0)")
	fs.Uint64Var(cellModulus, "cell-modulus", 0, "alias for -m")
	optLevel := fs.Int("O", 2, "optimization level (0: none, 1 or higher: offset propagation + loop linearization; no level applies the dataflow graph)")
	fs.Usage = usage(fs)
	fs.Parse(os.Args[1:])

	if fs.NArg() > 1 {
		fs.Usage()
	}

	src := readSource(fs)
	opts := optionsFromFlags(*cellSize, *cellModulus)
	if err := opts.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	instrs := compile(src, *optLevel)

	if *transpileTarget != "" {
		fmt.Print(transpileTo(*transpileTarget, instrs, opts))
		return
	}

	run(instrs, opts, *interpret)
}

func readSource(fs *flag.FlagSet) []byte {
	if fs.NArg() == 0 {
		src, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return src
	}
	src, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return src
}

func optionsFromFlags(cellSize int, modulus uint64) core.Options {
	opts := core.DefaultOptions()
	switch cellSize {
	case 8:
		opts.CellKind = core.Cell8
	case 16:
		opts.CellKind = core.Cell16
	case 32:
		opts.CellKind = core.Cell32
	case 64:
		opts.CellKind = core.Cell64
	case 0:
		opts.CellKind = core.CellModular
		opts.Modulus = modulus
	default:
		fmt.Fprintf(os.Stderr, "invalid cell size: %d (must be 8, 16, 32, 64, or 0 for modular)\n", cellSize)
		os.Exit(1)
	}
	return opts
}

// compile runs the tokenizer, parser, and (at -O >= 1) the
// offset-propagation/linearization pass. No level applies the
// dataflow graph pass: transpileTo always uses the direct C emitter
// (c.Transpile, not c.TranspileDFG), and VM and JIT execution only
// ever consume the linearized tree.
func compile(src []byte, level int) []core.Instr {
	tokens := core.Tokenize(src)
	instrs, err := core.Parse(tokens)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if level >= 1 {
		instrs = core.Linearize(instrs)
	}
	return instrs
}

func transpileTo(lang string, instrs []core.Instr, opts core.Options) string {
	switch lang {
	case "c":
		return c.Transpile(instrs, opts)
	case "java":
		return java.Transpile(instrs, opts)
	case "python":
		return python.Transpile(instrs, opts)
	case "zombie_ir":
		return zombieir.Transpile(instrs)
	default:
		fmt.Fprintf(os.Stderr, "unknown transpile target: %q (want c, java, python, or zombie_ir)\n", lang)
		os.Exit(1)
		return ""
	}
}

func run(instrs []core.Instr, opts core.Options, forceInterpret bool) {
	if !forceInterpret && opts.CellKind == core.Cell8 && opts.AddressMode == core.Trusting {
		prog, err := jit.Compile(instrs, opts)
		if err == nil {
			if err := prog.Run(); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return
		}
		// Fall through to the interpreter on any JIT-compile error
		// (e.g. a displacement outside the int32 range).
	}

	interpreter := vm.NewVM()
	if err := interpreter.Run(instrs, opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
