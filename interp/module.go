package interp

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/quest-lang/quest/internal/ast"
	"github.com/quest-lang/quest/internal/parser"
	"github.com/quest-lang/quest/internal/scope"
	"github.com/quest-lang/quest/internal/value"
)

// buildSysModule constructs the `sys` pseudo-module (SPEC_FULL.md
// supplement to §6's CLI surface): argv, a snapshot of the process
// environment, and an exit() that unwinds the interpreter with an
// *exitSignal error (not a Quest exception, so `catch` does not stop
// it), which cmd/quest turns into the process exit code via ExitCode.
func (ip *Interpreter) buildSysModule(argv []string) *value.Module {
	mod := value.NewModule("sys", "<builtin>/sys")

	argvItems := make([]value.Value, len(argv))
	for i, a := range argv {
		argvItems[i] = value.String(a)
	}
	mod.SetPublic("argv", value.NewArray(argvItems))

	env := value.NewDict()
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			env.Set(kv[:i], value.String(kv[i+1:]))
		}
	}
	mod.SetPublic("env", env)

	mod.SetPublic("exit", value.NewBuiltinFun("sys.exit", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		code := int64(0)
		if len(args) > 0 {
			if n, ok := value.IntOf(args[0]); ok {
				code = n
			}
		}
		return nil, &exitSignal{code: int(code)}
	}))
	return mod
}

// exitSignal unwinds the interpreter on sys.exit(code), propagated the
// same way as return/break/continue (§4.4's control-flow-as-error
// pattern) and caught at the top of the host's run loop.
type exitSignal struct{ code int }

func (e *exitSignal) Error() string { return "sys.exit" }

// ExitCode reports the requested exit code if err is an *exitSignal,
// for the host's run loop to act on.
func ExitCode(err error) (int, bool) {
	if e, ok := err.(*exitSignal); ok {
		return e.code, true
	}
	return 0, false
}

// questPathEnv is the colon/semicolon-separated search-path environment
// variable consulted by step 3 of §4.8's path resolution. Not named in
// the spec; chosen by the GOPATH/PYTHONPATH convention.
const questPathEnv = "QUESTPATH"

// evalUse implements `use "path" as alias` (§4.8): resolve, load
// (cache-before-evaluate for circular-import tolerance), then bind the
// resulting Module under its alias.
func (ip *Interpreter) evalUse(n *ast.Node, sc *scope.Scope) (value.Value, error) {
	path := n.Str
	mod, err := ip.loadModule(path)
	if err != nil {
		return nil, err
	}
	alias := n.Ident
	if alias == "" {
		alias = defaultAlias(path)
	}
	sc.Declare(alias, mod)
	if n.Pub && sc.Module != nil {
		sc.Module.SetPublic(alias, mod)
	}
	return mod, nil
}

func defaultAlias(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, ".q")
}

// loadModule resolves and loads path, consulting the cache first so
// repeated or circular `use`s of the same module see the same instance.
func (ip *Interpreter) loadModule(path string) (*value.Module, error) {
	if strings.HasPrefix(path, "std/") {
		return ip.loadStdlibModule(path)
	}

	resolved, err := ip.resolveFilePath(path)
	if err != nil {
		return nil, err
	}
	if m, ok := ip.modules[resolved]; ok {
		return m, nil
	}
	if ip.loading[resolved] {
		// Circular import: hand back a partially-populated module; the
		// cache entry was already installed by the in-progress load.
		return ip.modules[resolved], nil
	}
	return ip.loadFileModule(resolved, path)
}

// resolveFilePath implements §4.8 steps 1-5 for non-"std/" paths.
func (ip *Interpreter) resolveFilePath(path string) (string, error) {
	var candidate string
	switch {
	case strings.HasPrefix(path, "."):
		if ip.curFile == "" {
			return "", ip.RaiseStd(value.RuntimeErr, "relative module paths are not allowed in the REPL")
		}
		candidate = filepath.Join(filepath.Dir(ip.curFile), path)
	default:
		found, ok := ip.searchModule(path)
		if !ok {
			return "", ip.RaiseStd(value.RuntimeErr, "module not found: "+path)
		}
		candidate = found
	}
	if !strings.HasSuffix(candidate, ".q") {
		candidate += ".q"
	}
	abs, err := filepath.Abs(candidate)
	if err != nil {
		return "", ip.RaiseStd(value.OSError, err.Error())
	}
	return filepath.Clean(abs), nil
}

func (ip *Interpreter) searchModule(path string) (string, bool) {
	rel := path
	if !strings.HasSuffix(rel, ".q") {
		rel += ".q"
	}
	if cwd, err := os.Getwd(); err == nil {
		if p := filepath.Join(cwd, rel); fileExists(p) {
			return filepath.Join(cwd, path), true
		}
	}
	for _, dir := range ip.opts.SearchPath {
		if p := filepath.Join(dir, rel); fileExists(p) {
			return filepath.Join(dir, path), true
		}
	}
	if envPath := os.Getenv(questPathEnv); envPath != "" {
		for _, dir := range strings.Split(envPath, string(os.PathListSeparator)) {
			if p := filepath.Join(dir, rel); fileExists(p) {
				return filepath.Join(dir, path), true
			}
		}
	}
	return "", false
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

// loadFileModule implements §4.8's cache-before-evaluate load
// procedure for a resolved filesystem path.
func (ip *Interpreter) loadFileModule(resolved, origPath string) (*value.Module, error) {
	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, ip.RaiseStd(value.OSError, err.Error())
	}
	mod := value.NewModule(defaultAlias(origPath), resolved)
	ip.modules[resolved] = mod
	ip.loading[resolved] = true
	defer delete(ip.loading, resolved)

	prog, err := parser.Parse(string(data))
	if err != nil {
		return nil, err
	}
	modScope := scope.Push(ip.global)
	modScope.Module = mod

	prevFile := ip.curFile
	ip.curFile = resolved
	_, err = ip.evalProgram(prog, modScope)
	ip.curFile = prevFile
	if err != nil {
		delete(ip.modules, resolved)
		return nil, err
	}
	return mod, nil
}

// loadStdlibModule implements §4.8 step 2/5: a host-registered module
// table, optionally augmented by a `lib/<path>.q` overlay whose public
// members win on name collisions.
func (ip *Interpreter) loadStdlibModule(path string) (*value.Module, error) {
	if m, ok := ip.modules[path]; ok {
		return m, nil
	}
	host, ok := ip.registry.LookupModule(path)
	if !ok {
		return nil, ip.RaiseStd(value.RuntimeErr, "unknown std module: "+path)
	}
	if ip.opts.StdlibOverlayDir != "" {
		overlayPath := filepath.Join(ip.opts.StdlibOverlayDir, strings.TrimPrefix(path, "std/")+".q")
		if fileExists(overlayPath) {
			if err := ip.mergeOverlay(host, overlayPath, path); err != nil {
				return nil, err
			}
		}
	}
	ip.modules[path] = host
	return host, nil
}

// mergeOverlay implements §4.8 step 5: the overlay is evaluated in a
// scope with the host module pre-bound under its own alias, so overlay
// code can call into the host; its public members then win on
// collision when merged into the host's member table. The `%fun`/
// `%let` lazy-docstring protocol is resolved eagerly here (the
// association is still name -> docstring text, just attached directly
// to the Fun's Doc field instead of re-reading the overlay file on a
// later `_doc()` call).
func (ip *Interpreter) mergeOverlay(host *value.Module, overlayPath, modPath string) error {
	data, err := os.ReadFile(overlayPath)
	if err != nil {
		return ip.RaiseStd(value.OSError, err.Error())
	}
	src, docs := stripLazyDocs(string(data))
	prog, err := parser.Parse(src)
	if err != nil {
		return err
	}
	alias := defaultAlias(modPath)
	overlayScope := scope.Push(ip.global)
	overlay := value.NewModule(alias, overlayPath)
	overlayScope.Module = overlay
	overlayScope.Declare(alias, host)

	prevFile := ip.curFile
	ip.curFile = overlayPath
	_, err = ip.evalProgram(prog, overlayScope)
	ip.curFile = prevFile
	if err != nil {
		return err
	}
	host.Overlay = overlayPath
	for _, name := range overlay.Public.Keys() {
		v, _ := overlay.GetPublic(name)
		if fn, ok := v.(*value.Fun); ok {
			if doc, ok := docs[name]; ok {
				fn.Doc = doc
			}
		}
		host.SetPublic(name, v)
	}
	return nil
}

// stripLazyDocs removes `%fun name(...)` / `%let name` declaration
// lines and their following triple-quoted docstring from src (neither
// is valid top-level Quest syntax), returning the cleaned source and
// the name -> docstring association (§4.8 "lazy documentation protocol").
func stripLazyDocs(src string) (string, map[string]string) {
	docs := map[string]string{}
	lines := strings.Split(src, "\n")
	var out []string
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		var name string
		switch {
		case strings.HasPrefix(line, "%fun "):
			rest := strings.TrimPrefix(line, "%fun ")
			if idx := strings.IndexByte(rest, '('); idx >= 0 {
				name = strings.TrimSpace(rest[:idx])
			}
		case strings.HasPrefix(line, "%let "):
			name = strings.TrimSpace(strings.TrimPrefix(line, "%let "))
		default:
			out = append(out, lines[i])
			continue
		}
		// Skip blank lines, then consume a """..."""  docstring block.
		j := i + 1
		for j < len(lines) && strings.TrimSpace(lines[j]) == "" {
			j++
		}
		if j < len(lines) && strings.HasPrefix(strings.TrimSpace(lines[j]), `"""`) {
			first := strings.TrimSpace(lines[j])
			if strings.HasSuffix(first, `"""`) && len(first) > 3 {
				docs[name] = strings.TrimSuffix(strings.TrimPrefix(first, `"""`), `"""`)
				j++
			} else {
				j++
				var body []string
				for j < len(lines) && !strings.Contains(lines[j], `"""`) {
					body = append(body, lines[j])
					j++
				}
				docs[name] = strings.Join(body, "\n")
				j++ // consume closing line
			}
		}
		i = j - 1
	}
	return strings.Join(out, "\n"), docs
}
