// Package interp is the Quest tree-walking evaluator: it ties together
// internal/ast, internal/scope, and internal/value into the running
// language (§4.4 evaluator, §4.5 dispatch, §4.6 types/traits, §4.7
// exceptions, §4.8 module loader, §4.9 builtin registry).
package interp

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/quest-lang/quest/internal/ast"
	"github.com/quest-lang/quest/internal/parser"
	"github.com/quest-lang/quest/internal/scope"
	"github.com/quest-lang/quest/internal/value"
)

// Options configures a new Interpreter (§6 external interfaces).
type Options struct {
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader

	// SearchPath lists extra module search directories (§4.8 step 3),
	// tried after the working directory and before the entries of the
	// QUESTPATH environment variable.
	SearchPath []string

	// StdlibOverlayDir is where `lib/<path>.q` overlay files live
	// (§4.8 step 2/5).
	StdlibOverlayDir string

	// Argv populates the `sys` pseudo-module's argv list (§6 CLI).
	Argv []string

	// CloneDebug enables allocation tracing (SPEC_FULL.md supplemented
	// feature, mirroring §6's clone-debug env var).
	CloneDebug bool
}

// Interpreter is one running Quest program: its global scope, call
// stack, module cache, and builtin registry.
type Interpreter struct {
	opts     Options
	global   *scope.Scope
	calls    *scope.CallStack
	modules  map[string]*value.Module // canonicalized path -> module
	loading  map[string]bool          // canonicalized path -> in-progress (cycle tolerance)
	registry *Registry
	top      *scope.Scope // persistent top-level frame, shared across EvalString calls (REPL semantics)
	allocs   int64        // clone-debug allocation counter
	curFile  string
	curExc   []*value.Exception // in-flight exception stack, for bare `raise` inside catch (§4.7)
}

// New constructs an Interpreter with its universe scope initialized
// from the builtin registry's global members (named after the
// teacher's initUniverse(), the one root scope frame every other
// frame eventually chains to).
func New(opts Options) *Interpreter {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	ip := &Interpreter{
		opts:    opts,
		global:  scope.New(),
		calls:   scope.NewCallStack(),
		modules: map[string]*value.Module{},
		loading: map[string]bool{},
	}
	ip.registry = NewRegistry()
	RegisterCoreBuiltins(ip.registry, ip)
	for name, fn := range ip.registry.Globals() {
		ip.global.Declare(name, fn)
	}
	ip.registerExceptionClasses()
	ip.top = scope.Push(ip.global)
	return ip
}

// EvalString parses and evaluates src in the interpreter's persistent
// top-level frame (§4.8 load step 2), returning the value of the last
// expression statement, if any. Reusing the same frame across calls is
// what lets the REPL (and multiple EvalFile/EvalString calls against one
// Interpreter) see each other's top-level `let`/`fun`/`type` bindings.
func (ip *Interpreter) EvalString(src, file string) (value.Value, error) {
	prog, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	prevFile := ip.curFile
	ip.curFile = file
	defer func() { ip.curFile = prevFile }()

	return ip.evalProgram(prog, ip.top)
}

// EvalFile loads and runs a script file, wiring sys.argv per §6.
func (ip *Interpreter) EvalFile(path string) (value.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	abs, _ := filepath.Abs(path)
	argv := append([]string{abs}, ip.opts.Argv...)
	ip.global.Declare("sys", ip.buildSysModule(argv))
	return ip.EvalString(string(data), abs)
}

func (ip *Interpreter) evalProgram(prog *ast.Node, sc *scope.Scope) (value.Value, error) {
	var last value.Value = value.Nil
	for _, stmt := range prog.Child {
		v, err := ip.eval(stmt, sc)
		if err != nil {
			return nil, err
		}
		if v != nil {
			last = v
		}
	}
	return last, nil
}

// RaiseStd constructs a core exception and attaches the current
// call-stack snapshot and source location (§4.7 stack capture); used
// throughout the evaluator and builtins instead of constructing
// *value.Exception by hand.
func (ip *Interpreter) RaiseStd(typ, msg string) error {
	exc := value.NewException(typ, msg)
	exc.Stack = ip.calls.Snapshot()
	exc.File = ip.curFile
	return raise(exc)
}

const maxCallDepth = 2000

func (ip *Interpreter) pushCall(name string, line int) error {
	ip.calls.Push(scope.CallFrame{FuncName: name, File: ip.curFile, Line: line})
	if ip.calls.Depth() > maxCallDepth {
		ip.calls.Pop()
		return ip.RaiseStd(value.RuntimeErr, "maximum recursion depth exceeded")
	}
	return nil
}

func (ip *Interpreter) popCall() { ip.calls.Pop() }

// noteAlloc increments the clone-debug allocation counter when enabled
// (SPEC_FULL.md supplemented feature); read back via the `__allocs()`
// introspection builtin.
func (ip *Interpreter) noteAlloc() {
	if ip.opts.CloneDebug {
		ip.allocs++
	}
}

func lineOf(n *ast.Node) int { return n.Span.Start.Line }

func isUpper(s string) bool { return s != "" && strings.ToUpper(s[:1]) == s[:1] }
