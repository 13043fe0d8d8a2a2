package interp

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/quest-lang/quest/internal/value"
)

// RegisterCoreBuiltins wires the always-available global functions
// (§4.2's public value protocol plus minimal I/O) and the built-in
// collection/string method tables consulted as dispatch's last resort
// (§4.5, §4.9). Host-provided stdlib modules (database, HTTP, crypto,
// etc.) are explicit external collaborators outside this core and are
// registered by whatever embeds the interpreter, not here.
func RegisterCoreBuiltins(r *Registry, ip *Interpreter) {
	registerGlobals(r, ip)
	registerArrayMethods(r, ip)
	registerDictMethods(r, ip)
	registerSetMethods(r, ip)
	registerStringMethods(r, ip)
}

func registerGlobals(r *Registry, ip *Interpreter) {
	r.Global("puts", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = a.Str()
		}
		fmt.Fprintln(ip.opts.Stdout, strings.Join(parts, " "))
		return value.Nil, nil
	})
	r.Global("print", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = a.Str()
		}
		fmt.Fprint(ip.opts.Stdout, strings.Join(parts, " "))
		return value.Nil, nil
	})
	r.Global("input", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		if len(args) > 0 {
			fmt.Fprint(ip.opts.Stdout, args[0].Str())
		}
		sc := bufio.NewScanner(ip.opts.Stdin)
		if sc.Scan() {
			return value.String(sc.Text()), nil
		}
		return value.Nil, nil
	})
	r.Global("len", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, ip.RaiseStd(value.ArgErr, "len() takes exactly one argument")
		}
		n, err := lengthOf(args[0])
		if err != nil {
			return nil, ip.RaiseStd(value.TypeErr, err.Error())
		}
		return value.Int(int64(n)), nil
	})
	r.Global("cls", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, ip.RaiseStd(value.ArgErr, "cls() takes exactly one argument")
		}
		return value.String(value.Cls(args[0])), nil
	})
	r.Global("assert", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		if len(args) == 0 || !value.Truthy(args[0]) {
			msg := "assertion failed"
			if len(args) > 1 {
				msg = args[1].Str()
			}
			return nil, ip.RaiseStd(value.RuntimeErr, msg)
		}
		return value.Nil, nil
	})
	r.Global("__allocs", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		return value.Int(ip.allocs), nil
	})
}

// builtinExceptionTags lists the core exception type tags (§4.7) that
// are raised with `raise TagName.new(message)` syntax, so each needs to
// be a bindable global, not just a string constant.
var builtinExceptionTags = []string{
	value.ParseErr, value.NameErr, value.TypeErr, value.ArgErr,
	value.IndexErr, value.KeyErr, value.ValueErr, value.ZeroDivisionErr,
	value.OverflowErr, value.IOError, value.OSError, value.RuntimeErr,
}

// registerExceptionClasses binds each core exception type tag to a
// minimal namespace value exposing `.new(message)`, mirroring how a
// user-declared exception type's `Type.new(...)` works (§4.7). A
// *value.Module is reused here rather than inventing a new Value kind:
// the dispatch pipeline already calls a Module's public `new` function
// directly, without binding a receiver, exactly as needed here.
func (ip *Interpreter) registerExceptionClasses() {
	for _, tag := range builtinExceptionTags {
		tag := tag
		mod := value.NewModule(tag, "<builtin>/"+tag)
		mod.SetPublic("new", value.NewBuiltinFun(tag+".new", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
			msg := ""
			if len(args) > 0 {
				msg = args[0].Str()
			}
			exc := value.NewException(tag, msg)
			exc.Stack = ip.calls.Snapshot()
			exc.File = ip.curFile
			return exc, nil
		}))
		ip.global.Declare(tag, mod)
	}
}

func lengthOf(v value.Value) (int, error) {
	switch c := v.(type) {
	case *value.Array:
		return c.Len(), nil
	case *value.Dict:
		return c.Len(), nil
	case *value.Set:
		return c.Len(), nil
	default:
		if s, ok := value.StringOf(v); ok {
			return len([]rune(s)), nil
		}
		return 0, fmt.Errorf("value of type %s has no length", v.Cls())
	}
}

// registerArrayMethods wires the mutable-collection surface §4.2
// names for Array: push/pop/shift/unshift/insert/remove/sort/reverse,
// plus the non-mutating map/filter/slice/concat/join.
func registerArrayMethods(r *Registry, ip *Interpreter) {
	recv := func(args []value.Value) (*value.Array, []value.Value, error) {
		if len(args) == 0 {
			return nil, nil, ip.RaiseStd(value.ArgErr, "missing receiver")
		}
		a, ok := args[0].(*value.Array)
		if !ok {
			return nil, nil, ip.RaiseStd(value.TypeErr, "receiver is not an Array")
		}
		return a, args[1:], nil
	}
	r.TypeMethod("Array", "len", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		a, _, err := recv(args)
		if err != nil {
			return nil, err
		}
		return value.Int(int64(a.Len())), nil
	})
	r.TypeMethod("Array", "push", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		a, rest, err := recv(args)
		if err != nil {
			return nil, err
		}
		for _, v := range rest {
			a.Push(v)
		}
		return a, nil
	})
	r.TypeMethod("Array", "pop", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		a, _, err := recv(args)
		if err != nil {
			return nil, err
		}
		v, err := a.Pop()
		if err != nil {
			return nil, ip.RaiseStd(value.IndexErr, err.Error())
		}
		return v, nil
	})
	r.TypeMethod("Array", "shift", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		a, _, err := recv(args)
		if err != nil {
			return nil, err
		}
		v, err := a.Shift()
		if err != nil {
			return nil, ip.RaiseStd(value.IndexErr, err.Error())
		}
		return v, nil
	})
	r.TypeMethod("Array", "unshift", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		a, rest, err := recv(args)
		if err != nil {
			return nil, err
		}
		for i := len(rest) - 1; i >= 0; i-- {
			a.Unshift(rest[i])
		}
		return a, nil
	})
	r.TypeMethod("Array", "insert", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		a, rest, err := recv(args)
		if err != nil {
			return nil, err
		}
		if len(rest) != 2 {
			return nil, ip.RaiseStd(value.ArgErr, "insert(index, value) takes two arguments")
		}
		i, ok := value.IntOf(rest[0])
		if !ok {
			return nil, ip.RaiseStd(value.TypeErr, "index must be an Int")
		}
		if err := a.Insert(i, rest[1]); err != nil {
			return nil, ip.RaiseStd(value.IndexErr, err.Error())
		}
		return a, nil
	})
	r.TypeMethod("Array", "remove", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		a, rest, err := recv(args)
		if err != nil {
			return nil, err
		}
		if len(rest) != 1 {
			return nil, ip.RaiseStd(value.ArgErr, "remove(index) takes one argument")
		}
		i, ok := value.IntOf(rest[0])
		if !ok {
			return nil, ip.RaiseStd(value.TypeErr, "index must be an Int")
		}
		v, err := a.Remove(i)
		if err != nil {
			return nil, ip.RaiseStd(value.IndexErr, err.Error())
		}
		return v, nil
	})
	r.TypeMethod("Array", "first", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		a, _, err := recv(args)
		if err != nil {
			return nil, err
		}
		v, err := a.First()
		if err != nil {
			return nil, ip.RaiseStd(value.IndexErr, err.Error())
		}
		return v, nil
	})
	r.TypeMethod("Array", "last", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		a, _, err := recv(args)
		if err != nil {
			return nil, err
		}
		v, err := a.Last()
		if err != nil {
			return nil, ip.RaiseStd(value.IndexErr, err.Error())
		}
		return v, nil
	})
	r.TypeMethod("Array", "reverse", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		a, _, err := recv(args)
		if err != nil {
			return nil, err
		}
		a.Reverse()
		return a, nil
	})
	r.TypeMethod("Array", "sort", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		a, rest, err := recv(args)
		if err != nil {
			return nil, err
		}
		if len(rest) == 1 {
			cmp, ok := rest[0].(*value.Fun)
			if !ok {
				return nil, ip.RaiseStd(value.TypeErr, "sort comparator must be a Fun")
			}
			var sortErr error
			a.Sort(func(x, y value.Value) bool {
				if sortErr != nil {
					return false
				}
				v, err := ip.callFun(cmp, []value.Value{x, y}, nil, 0)
				if err != nil {
					sortErr = err
					return false
				}
				return value.Truthy(v)
			})
			if sortErr != nil {
				return nil, sortErr
			}
			return a, nil
		}
		a.Sort(func(x, y value.Value) bool {
			c, ok := value.Compare(x, y)
			return ok && c < 0
		})
		return a, nil
	})
	r.TypeMethod("Array", "concat", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		a, rest, err := recv(args)
		if err != nil {
			return nil, err
		}
		if len(rest) != 1 {
			return nil, ip.RaiseStd(value.ArgErr, "concat(other) takes one argument")
		}
		other, ok := rest[0].(*value.Array)
		if !ok {
			return nil, ip.RaiseStd(value.TypeErr, "concat argument must be an Array")
		}
		return a.Concat(other), nil
	})
	r.TypeMethod("Array", "slice", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		a, rest, err := recv(args)
		if err != nil {
			return nil, err
		}
		if len(rest) != 2 {
			return nil, ip.RaiseStd(value.ArgErr, "slice(start, end) takes two arguments")
		}
		s, ok1 := value.IntOf(rest[0])
		e, ok2 := value.IntOf(rest[1])
		if !ok1 || !ok2 {
			return nil, ip.RaiseStd(value.TypeErr, "slice bounds must be Int")
		}
		return a.Slice(s, e), nil
	})
	r.TypeMethod("Array", "map", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		a, rest, err := recv(args)
		if err != nil {
			return nil, err
		}
		fn, ok := fnArg(rest)
		if !ok {
			return nil, ip.RaiseStd(value.TypeErr, "map(fn) requires a Fun argument")
		}
		out := make([]value.Value, 0, a.Len())
		for _, v := range a.Items() {
			r, err := ip.callFun(fn, []value.Value{v}, nil, 0)
			if err != nil {
				return nil, err
			}
			out = append(out, r)
		}
		return value.NewArray(out), nil
	})
	r.TypeMethod("Array", "filter", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		a, rest, err := recv(args)
		if err != nil {
			return nil, err
		}
		fn, ok := fnArg(rest)
		if !ok {
			return nil, ip.RaiseStd(value.TypeErr, "filter(fn) requires a Fun argument")
		}
		var out []value.Value
		for _, v := range a.Items() {
			keep, err := ip.callFun(fn, []value.Value{v}, nil, 0)
			if err != nil {
				return nil, err
			}
			if value.Truthy(keep) {
				out = append(out, v)
			}
		}
		return value.NewArray(out), nil
	})
	r.TypeMethod("Array", "join", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		a, rest, err := recv(args)
		if err != nil {
			return nil, err
		}
		sep := ""
		if len(rest) == 1 {
			s, ok := value.StringOf(rest[0])
			if !ok {
				return nil, ip.RaiseStd(value.TypeErr, "join separator must be a String")
			}
			sep = s
		}
		parts := make([]string, a.Len())
		for i, v := range a.Items() {
			parts[i] = v.Str()
		}
		return value.String(strings.Join(parts, sep)), nil
	})
}

func fnArg(args []value.Value) (*value.Fun, bool) {
	if len(args) != 1 {
		return nil, false
	}
	fn, ok := args[0].(*value.Fun)
	return fn, ok
}

// registerDictMethods wires §4.2's Dict surface: set/del/keys/values/contains.
func registerDictMethods(r *Registry, ip *Interpreter) {
	recv := func(args []value.Value) (*value.Dict, []value.Value, error) {
		if len(args) == 0 {
			return nil, nil, ip.RaiseStd(value.ArgErr, "missing receiver")
		}
		d, ok := args[0].(*value.Dict)
		if !ok {
			return nil, nil, ip.RaiseStd(value.TypeErr, "receiver is not a Dict")
		}
		return d, args[1:], nil
	}
	r.TypeMethod("Dict", "len", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		d, _, err := recv(args)
		if err != nil {
			return nil, err
		}
		return value.Int(int64(d.Len())), nil
	})
	r.TypeMethod("Dict", "get", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		d, rest, err := recv(args)
		if err != nil {
			return nil, err
		}
		if len(rest) < 1 {
			return nil, ip.RaiseStd(value.ArgErr, "get(key) requires a key argument")
		}
		key, ok := value.StringOf(rest[0])
		if !ok {
			return nil, ip.RaiseStd(value.TypeErr, "dict key must be a String")
		}
		if v, ok := d.Get(key); ok {
			return v, nil
		}
		if len(rest) > 1 {
			return rest[1], nil
		}
		return value.Nil, nil
	})
	r.TypeMethod("Dict", "set", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		d, rest, err := recv(args)
		if err != nil {
			return nil, err
		}
		if len(rest) != 2 {
			return nil, ip.RaiseStd(value.ArgErr, "set(key, value) takes two arguments")
		}
		key, ok := value.StringOf(rest[0])
		if !ok {
			return nil, ip.RaiseStd(value.TypeErr, "dict key must be a String")
		}
		d.Set(key, rest[1])
		return d, nil
	})
	r.TypeMethod("Dict", "del", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		d, rest, err := recv(args)
		if err != nil {
			return nil, err
		}
		if len(rest) != 1 {
			return nil, ip.RaiseStd(value.ArgErr, "del(key) takes one argument")
		}
		key, ok := value.StringOf(rest[0])
		if !ok {
			return nil, ip.RaiseStd(value.TypeErr, "dict key must be a String")
		}
		return value.Bool(d.Del(key)), nil
	})
	r.TypeMethod("Dict", "keys", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		d, _, err := recv(args)
		if err != nil {
			return nil, err
		}
		keys := d.Keys()
		out := make([]value.Value, len(keys))
		for i, k := range keys {
			out[i] = value.String(k)
		}
		return value.NewArray(out), nil
	})
	r.TypeMethod("Dict", "values", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		d, _, err := recv(args)
		if err != nil {
			return nil, err
		}
		return value.NewArray(d.Values()), nil
	})
	r.TypeMethod("Dict", "contains", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		d, rest, err := recv(args)
		if err != nil {
			return nil, err
		}
		if len(rest) != 1 {
			return nil, ip.RaiseStd(value.ArgErr, "contains(key) takes one argument")
		}
		key, ok := value.StringOf(rest[0])
		if !ok {
			return nil, ip.RaiseStd(value.TypeErr, "dict key must be a String")
		}
		return value.Bool(d.Contains(key)), nil
	})
}

func registerSetMethods(r *Registry, ip *Interpreter) {
	recv := func(args []value.Value) (*value.Set, []value.Value, error) {
		if len(args) == 0 {
			return nil, nil, ip.RaiseStd(value.ArgErr, "missing receiver")
		}
		s, ok := args[0].(*value.Set)
		if !ok {
			return nil, nil, ip.RaiseStd(value.TypeErr, "receiver is not a Set")
		}
		return s, args[1:], nil
	}
	r.TypeMethod("Set", "len", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		s, _, err := recv(args)
		if err != nil {
			return nil, err
		}
		return value.Int(int64(s.Len())), nil
	})
	r.TypeMethod("Set", "add", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		s, rest, err := recv(args)
		if err != nil {
			return nil, err
		}
		if len(rest) != 1 {
			return nil, ip.RaiseStd(value.ArgErr, "add(value) takes one argument")
		}
		if _, err := s.Add(rest[0]); err != nil {
			return nil, ip.RaiseStd(value.TypeErr, err.Error())
		}
		return s, nil
	})
	r.TypeMethod("Set", "contains", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		s, rest, err := recv(args)
		if err != nil {
			return nil, err
		}
		if len(rest) != 1 {
			return nil, ip.RaiseStd(value.ArgErr, "contains(value) takes one argument")
		}
		return value.Bool(s.Contains(rest[0])), nil
	})
	r.TypeMethod("Set", "remove", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		s, rest, err := recv(args)
		if err != nil {
			return nil, err
		}
		if len(rest) != 1 {
			return nil, ip.RaiseStd(value.ArgErr, "remove(value) takes one argument")
		}
		return value.Bool(s.Remove(rest[0])), nil
	})
	r.TypeMethod("Set", "items", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		s, _, err := recv(args)
		if err != nil {
			return nil, err
		}
		return value.NewArray(s.Items()), nil
	})
}

// registerStringMethods wires `.fmt(args...)` (§4.2/§7) plus the
// common non-mutating string operations.
func registerStringMethods(r *Registry, ip *Interpreter) {
	recv := func(args []value.Value) (string, []value.Value, error) {
		if len(args) == 0 {
			return "", nil, ip.RaiseStd(value.ArgErr, "missing receiver")
		}
		s, ok := value.StringOf(args[0])
		if !ok {
			return "", nil, ip.RaiseStd(value.TypeErr, "receiver is not a String")
		}
		return s, args[1:], nil
	}
	r.TypeMethod("String", "len", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		s, _, err := recv(args)
		if err != nil {
			return nil, err
		}
		return value.Int(int64(len([]rune(s)))), nil
	})
	r.TypeMethod("String", "fmt", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		s, rest, err := recv(args)
		if err != nil {
			return nil, err
		}
		out, ferr := value.Format(s, rest, named)
		if ferr != nil {
			return nil, ip.RaiseStd(value.ValueErr, ferr.Error())
		}
		return value.String(out), nil
	})
	r.TypeMethod("String", "upper", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		s, _, err := recv(args)
		if err != nil {
			return nil, err
		}
		return value.String(strings.ToUpper(s)), nil
	})
	r.TypeMethod("String", "lower", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		s, _, err := recv(args)
		if err != nil {
			return nil, err
		}
		return value.String(strings.ToLower(s)), nil
	})
	r.TypeMethod("String", "trim", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		s, _, err := recv(args)
		if err != nil {
			return nil, err
		}
		return value.String(strings.TrimSpace(s)), nil
	})
	r.TypeMethod("String", "split", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		s, rest, err := recv(args)
		if err != nil {
			return nil, err
		}
		sep := ""
		if len(rest) == 1 {
			sp, ok := value.StringOf(rest[0])
			if !ok {
				return nil, ip.RaiseStd(value.TypeErr, "split separator must be a String")
			}
			sep = sp
		}
		var parts []string
		if sep == "" {
			parts = strings.Fields(s)
		} else {
			parts = strings.Split(s, sep)
		}
		out := make([]value.Value, len(parts))
		for i, p := range parts {
			out[i] = value.String(p)
		}
		return value.NewArray(out), nil
	})
	r.TypeMethod("String", "contains", func(args []value.Value, named map[string]value.Value) (value.Value, error) {
		s, rest, err := recv(args)
		if err != nil {
			return nil, err
		}
		if len(rest) != 1 {
			return nil, ip.RaiseStd(value.ArgErr, "contains(substr) takes one argument")
		}
		sub, ok := value.StringOf(rest[0])
		if !ok {
			return nil, ip.RaiseStd(value.TypeErr, "contains argument must be a String")
		}
		return value.Bool(strings.Contains(s, sub)), nil
	})
}
