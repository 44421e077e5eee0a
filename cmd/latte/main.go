// Command latte compiles a single Latte source file to LLVM bitcode,
// grounded on _examples/original_source/src/main.rs's CLI contract:
// one required source-file argument, env-var-overridable assembler/
// linker/runtime paths, and an "OK"/"ERROR" stderr banner.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/kowaalczyk/latte-sub000/internal/compiler"
	cerrors "github.com/kowaalczyk/latte-sub000/internal/errors"
)

func main() {
	os.Exit(run())
}

// run holds main's actual logic behind an int-returning signature so
// cmd/latte's testscript suite can drive it in-process via
// testscript.RunMain instead of spawning a real subprocess per case.
func run() int {
	path := parseArg()
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR\ncannot read %s: %v\n", path, err)
		return 1
	}

	result, errs := compiler.Compile(path, string(src))
	if errs.HasErrors() {
		fmt.Fprintln(os.Stderr, "ERROR")
		printDiagnostics(errs)
		return 1
	}
	fmt.Fprintln(os.Stderr, "OK")
	if result.Debug != "" {
		fmt.Fprintln(os.Stderr, result.Debug)
	}

	llPath := withExt(path, ".ll")
	bcPath := withExt(path, ".bc")
	if err := os.WriteFile(llPath, []byte(result.IR), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "could not write %s: %v\n", llPath, err)
		return 1
	}

	assembler := parseEnv("LLVM_ASSEMBLER", "llvm-as")
	linker := parseEnv("LLVM_LINKER", "llvm-link")
	runtime := parseEnv("LLVM_RUNTIME", "lib/runtime.bc")

	tmpBC := filepath.Join(os.TempDir(), filepath.Base(bcPath))
	if code := runAndCheck(assembler, llPath, "-o", tmpBC); code != 0 {
		return code
	}
	return runAndCheck(linker, runtime, tmpBC, "-o", bcPath)
}

// parseArg returns the first argument as the source file, printing usage
// and exiting 2 when it is missing (distinct from 1, reserved for compile
// failures). Further arguments are ignored.
func parseArg() string {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <file.lat>\n", filepath.Base(os.Args[0]))
		os.Exit(2)
	}
	return os.Args[1]
}

func parseEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// withExt replaces path's extension, mirroring Rust's Path::with_extension.
func withExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// runAndCheck shells out to an external LLVM tool, returning 1 on spawn
// failure or non-zero status -- the assemble/link steps are themselves
// out of this compiler's scope, per spec.md's Non-goals.
func runAndCheck(name string, args ...string) int {
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", name, err)
		return 1
	}
	return 0
}

// printDiagnostics renders one "file:line:col: Kind: message" line per
// error, with the Kind tag colorized when stderr is a terminal.
func printDiagnostics(errs cerrors.List) {
	kindColor := color.New(color.FgRed, color.Bold)
	kindColor.EnableColor()
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		kindColor.DisableColor()
	}
	for _, e := range errs {
		kind := kindColor.Sprint(string(e.Kind))
		if e.Pos.File == "" {
			fmt.Fprintf(os.Stderr, "%s: %s\n", kind, e.Message)
			continue
		}
		fmt.Fprintf(os.Stderr, "%s:%d:%d: %s: %s\n", e.Pos.File, e.Pos.Line, e.Pos.Col, kind, e.Message)
	}
}
