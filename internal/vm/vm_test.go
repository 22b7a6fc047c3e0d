package vm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/chazu/finch/internal/gc"
	"github.com/chazu/finch/internal/object"
)

func newVM(t *testing.T) (*VM, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	strings := object.NewStrings()
	collector := gc.New(strings, gc.Config{}, nil)
	var stdout, stderr bytes.Buffer
	v := New(collector, strings, &stdout, &stderr, false)
	t.Cleanup(v.Close)
	return v, &stdout, &stderr
}

func TestInterpretArithmeticAndPrint(t *testing.T) {
	v, stdout, _ := newVM(t)
	result, err := v.Interpret(`print 1 + 2 * 3;`)
	if result != InterpretOK {
		t.Fatalf("result = %v, err = %v", result, err)
	}
	if got := stdout.String(); got != "7\n" {
		t.Errorf("stdout = %q, want %q", got, "7\n")
	}
}

func TestInterpretStringConcatenation(t *testing.T) {
	v, stdout, _ := newVM(t)
	result, err := v.Interpret(`print "foo" + "bar";`)
	if result != InterpretOK {
		t.Fatalf("result = %v, err = %v", result, err)
	}
	if got := stdout.String(); got != "foobar\n" {
		t.Errorf("stdout = %q, want %q", got, "foobar\n")
	}
}

func TestInterpretClosureCountersAreIndependent(t *testing.T) {
	v, stdout, _ := newVM(t)
	src := `
fun makeCounter() {
  var count = 0;
  fun increment() {
    count = count + 1;
    return count;
  }
  return increment;
}
var a = makeCounter();
var b = makeCounter();
print a();
print a();
print b();
`
	result, err := v.Interpret(src)
	if result != InterpretOK {
		t.Fatalf("result = %v, err = %v", result, err)
	}
	want := "1\n2\n1\n"
	if got := stdout.String(); got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
}

func TestInterpretClassInheritanceAndSuper(t *testing.T) {
	v, stdout, _ := newVM(t)
	src := `
class Animal {
  speak() {
    return "...";
  }
  describe() {
    return "an animal that says " + this.speak();
  }
}
class Dog < Animal {
  speak() {
    return "woof";
  }
  describe() {
    return super.describe() + "!";
  }
}
print Dog().describe();
`
	result, err := v.Interpret(src)
	if result != InterpretOK {
		t.Fatalf("result = %v, err = %v", result, err)
	}
	want := "an animal that says woof!\n"
	if got := stdout.String(); got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
}

func TestInterpretInitializerReturnsThis(t *testing.T) {
	v, stdout, _ := newVM(t)
	src := `
class Box {
  init(v) {
    this.v = v;
  }
}
var b = Box(5);
print b.v;
`
	result, err := v.Interpret(src)
	if result != InterpretOK {
		t.Fatalf("result = %v, err = %v", result, err)
	}
	if got := stdout.String(); got != "5\n" {
		t.Errorf("stdout = %q, want %q", got, "5\n")
	}
}

func TestInterpretFieldsShadowMethods(t *testing.T) {
	v, stdout, _ := newVM(t)
	src := `
class Point {
  x() {
    return "method";
  }
}
var p = Point();
p.x = "field";
print p.x;
`
	result, err := v.Interpret(src)
	if result != InterpretOK {
		t.Fatalf("result = %v, err = %v", result, err)
	}
	if got := stdout.String(); got != "field\n" {
		t.Errorf("stdout = %q, want %q", got, "field\n")
	}
}

func TestInterpretUndefinedVariableIsRuntimeError(t *testing.T) {
	v, _, _ := newVM(t)
	result, err := v.Interpret(`print nope;`)
	if result != InterpretRuntimeError {
		t.Fatalf("result = %v, want InterpretRuntimeError", result)
	}
	if err == nil || !strings.Contains(err.Error(), "Undefined variable") {
		t.Errorf("err = %v, want mention of Undefined variable", err)
	}
}

func TestInterpretCallingNonCallableIsRuntimeError(t *testing.T) {
	v, _, _ := newVM(t)
	result, err := v.Interpret(`var x = 1; x();`)
	if result != InterpretRuntimeError {
		t.Fatalf("result = %v, want InterpretRuntimeError", result)
	}
	if err == nil || !strings.Contains(err.Error(), "Can only call") {
		t.Errorf("err = %v, want mention of Can only call", err)
	}
}

func TestInterpretArityMismatchIsRuntimeError(t *testing.T) {
	v, _, _ := newVM(t)
	result, err := v.Interpret(`fun f(a, b) { return a + b; } f(1);`)
	if result != InterpretRuntimeError {
		t.Fatalf("result = %v, want InterpretRuntimeError", result)
	}
	if err == nil || !strings.Contains(err.Error(), "Expected 2 arguments but got 1") {
		t.Errorf("err = %v, want arity mismatch message", err)
	}
}

func TestInterpretAddingNumberAndStringIsRuntimeError(t *testing.T) {
	v, _, _ := newVM(t)
	result, err := v.Interpret(`print 1 + "two";`)
	if result != InterpretRuntimeError {
		t.Fatalf("result = %v, want InterpretRuntimeError", result)
	}
	if err == nil || !strings.Contains(err.Error(), "Operands must be two numbers or two strings") {
		t.Errorf("err = %v, want mismatched-operand message", err)
	}
}

func TestInterpretCompileErrorReturnsCompileErrorResult(t *testing.T) {
	v, _, _ := newVM(t)
	result, err := v.Interpret(`var = 1;`)
	if result != InterpretCompileError {
		t.Fatalf("result = %v, want InterpretCompileError", result)
	}
	if err == nil {
		t.Error("expected a non-nil error for a compile failure")
	}
}

func TestClockNativeReturnsNumber(t *testing.T) {
	v, stdout, stderr := newVM(t)
	result, err := v.Interpret(`print clock() >= 0;`)
	if result != InterpretOK {
		t.Fatalf("result = %v, err = %v, stderr = %q", result, err, stderr.String())
	}
	if got := stdout.String(); got != "true\n" {
		t.Errorf("stdout = %q, want %q", got, "true\n")
	}
}

func TestInterpretSequentialStatementsShareGlobals(t *testing.T) {
	v, stdout, _ := newVM(t)
	if result, err := v.Interpret(`var counter = 0;`); result != InterpretOK {
		t.Fatalf("first Interpret failed: %v", err)
	}
	if result, err := v.Interpret(`counter = counter + 1; print counter;`); result != InterpretOK {
		t.Fatalf("second Interpret failed: %v", err)
	}
	if got := stdout.String(); got != "1\n" {
		t.Errorf("stdout = %q, want %q", got, "1\n")
	}
}
