package interp

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/quest-lang/quest/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInterp(t *testing.T) (*Interpreter, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	ip := New(Options{Stdout: &out, Stderr: &out})
	return ip, &out
}

func mustEval(t *testing.T, ip *Interpreter, src string) value.Value {
	t.Helper()
	v, err := ip.EvalString(src, "<test>")
	require.NoError(t, err)
	return v
}

func TestArithmeticAndPrint(t *testing.T) {
	ip, out := newTestInterp(t)
	mustEval(t, ip, `puts(2 + 3 * 4)`)
	assert.Equal(t, "14\n", out.String())
}

func TestClosureCapturesByReference(t *testing.T) {
	ip, _ := newTestInterp(t)
	mustEval(t, ip, `
let counter = 0
fun incr()
    counter = counter + 1
    counter
end
incr()
incr()
let result = incr()
`)
	v, err := ip.EvalString(`result`, "<test>")
	require.NoError(t, err)
	n, ok := value.IntOf(v)
	require.True(t, ok)
	assert.Equal(t, int64(3), n)
}

func TestArrayPushPopLen(t *testing.T) {
	ip, _ := newTestInterp(t)
	mustEval(t, ip, `
let a = [1, 2, 3]
a.push(4)
let popped = a.pop()
let n = a.len()
`)
	popped, err := ip.EvalString(`popped`, "<test>")
	require.NoError(t, err)
	n, ok := value.IntOf(popped)
	require.True(t, ok)
	assert.Equal(t, int64(4), n)

	lenV, err := ip.EvalString(`n`, "<test>")
	require.NoError(t, err)
	ln, ok := value.IntOf(lenV)
	require.True(t, ok)
	assert.Equal(t, int64(3), ln)
}

func TestStructFieldsAndMethodDispatch(t *testing.T) {
	ip, _ := newTestInterp(t)
	mustEval(t, ip, `
type Point
    x
    y

    fun sum()
        self.x + self.y
    end
end

let p = Point.new(x: 3, y: 4)
let total = p.sum()
`)
	v, err := ip.EvalString(`total`, "<test>")
	require.NoError(t, err)
	n, ok := value.IntOf(v)
	require.True(t, ok)
	assert.Equal(t, int64(7), n)
}

func TestTraitDispatchFallsBackFromInstanceMethod(t *testing.T) {
	ip, _ := newTestInterp(t)
	mustEval(t, ip, `
trait Greeter
    fun greet() end
end

type Robot
end

impl Greeter for Robot
    fun greet()
        "beep"
    end
end

let r = Robot.new()
let said = r.greet()
`)
	v, err := ip.EvalString(`said`, "<test>")
	require.NoError(t, err)
	s, ok := value.StringOf(v)
	require.True(t, ok)
	assert.Equal(t, "beep", s)
}

func TestIncompleteTraitImplRaisesAtDeclTime(t *testing.T) {
	ip, _ := newTestInterp(t)
	_, err := ip.EvalString(`
trait Greeter
    fun greet() end
end

type Robot
end

impl Greeter for Robot
end
`, "<test>")
	require.Error(t, err)
	exc, ok := AsException(err)
	require.True(t, ok)
	assert.Equal(t, value.TypeErr, exc.Type)
}

func TestTypedCatchAndEnsureOrdering(t *testing.T) {
	ip, _ := newTestInterp(t)
	mustEval(t, ip, `
let trail = []
try
    trail.push("body")
    raise ValueErr.new()
catch e: ValueErr
    trail.push("caught")
ensure
    trail.push("ensure")
end
`)
	v, err := ip.EvalString(`trail`, "<test>")
	require.NoError(t, err)
	arr, ok := v.(*value.Array)
	require.True(t, ok)
	parts := make([]string, arr.Len())
	for i, item := range arr.Items() {
		s, _ := value.StringOf(item)
		parts[i] = s
	}
	assert.Equal(t, []string{"body", "caught", "ensure"}, parts)
}

func TestUncaughtTypeMismatchPassesThroughEnsure(t *testing.T) {
	ip, _ := newTestInterp(t)
	_, err := ip.EvalString(`
let trail = []
try
    raise ValueErr.new()
catch e: IndexErr
    trail.push("wrong catch")
ensure
    trail.push("ensure")
end
`, "<test>")
	require.Error(t, err)
	_, ok := AsException(err)
	assert.True(t, ok)

	v, evalErr := ip.EvalString(`trail`, "<test>")
	require.NoError(t, evalErr)
	arr, ok := v.(*value.Array)
	require.True(t, ok)
	require.Equal(t, 1, arr.Len())
	s, _ := value.StringOf(arr.Items()[0])
	assert.Equal(t, "ensure", s)
}

func TestFormatSpecifier(t *testing.T) {
	ip, out := newTestInterp(t)
	mustEval(t, ip, `puts("{:0>5}".fmt(42))`)
	assert.Equal(t, "00042\n", out.String())
}

func TestForOverArrayAndRange(t *testing.T) {
	ip, out := newTestInterp(t)
	mustEval(t, ip, `
for x in [1, 2, 3]
    puts(x)
end
for i in 0..3
    puts(i)
end
`)
	assert.Equal(t, "1\n2\n3\n0\n1\n2\n", out.String())
}

func TestMatchSetPattern(t *testing.T) {
	ip, out := newTestInterp(t)
	mustEval(t, ip, `
let day = "sat"
match day
    {"sat", "sun"}
        puts("weekend")
    else
        puts("weekday")
end
`)
	assert.Equal(t, "weekend\n", out.String())
}

func TestFStringInterpolation(t *testing.T) {
	ip, out := newTestInterp(t)
	mustEval(t, ip, `
let name = "Ada"
puts(f"hello {name}, {1 + 1}")
`)
	assert.Equal(t, "hello Ada, 2\n", out.String())
}

func TestAssertRaisesWithMessage(t *testing.T) {
	ip, _ := newTestInterp(t)
	_, err := ip.EvalString(`assert(1 == 1)`, "<test>")
	require.NoError(t, err)
	_, err = ip.EvalString(`assert(1 == 2, "nope")`, "<test>")
	require.Error(t, err)
	exc, ok := AsException(err)
	require.True(t, ok)
	assert.True(t, strings.Contains(exc.Message, "nope"))
}

func TestModuleAliasSharesState(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "mathutils.q"), []byte(`
pub fun double(x)
    x * 2
end
`), 0o644)
	require.NoError(t, err)

	ip, _ := newTestInterp(t)
	mainFile := filepath.Join(dir, "main.q")
	_, err = ip.EvalString(`
use "./mathutils" as m1
use "./mathutils" as m2
let same = m1._id() == m2._id()
let doubled = m2.double(21)
`, mainFile)
	require.NoError(t, err)

	v, evalErr := ip.EvalString(`same`, mainFile)
	require.NoError(t, evalErr)
	assert.True(t, value.Truthy(v))

	v, evalErr = ip.EvalString(`doubled`, mainFile)
	require.NoError(t, evalErr)
	n, ok := value.IntOf(v)
	require.True(t, ok)
	assert.Equal(t, int64(42), n)
}
