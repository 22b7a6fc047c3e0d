package value

import "testing"

type fakeObject struct {
	Header
	name string
}

func (f *fakeObject) ObjHeader() *Header { return &f.Header }
func (f *fakeObject) String() string     { return f.name }

func TestIsFalsey(t *testing.T) {
	cases := []struct {
		v    Value
		want bool
	}{
		{Nil, true},
		{False, true},
		{True, false},
		{Number(0), false},
		{Bool(false), true},
	}
	for _, c := range cases {
		if got := c.v.IsFalsey(); got != c.want {
			t.Errorf("IsFalsey(%v) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestEqual(t *testing.T) {
	a := &fakeObject{name: "a"}
	b := &fakeObject{name: "a"}

	cases := []struct {
		a, b Value
		want bool
	}{
		{Number(1), Number(1), true},
		{Number(1), Number(2), false},
		{Nil, Nil, true},
		{Nil, False, false},
		{Bool(true), Bool(true), true},
		{Obj(a), Obj(a), true},
		{Obj(a), Obj(b), false}, // distinct pointers, even with equal content
	}
	for _, c := range cases {
		if got := Equal(c.a, c.b); got != c.want {
			t.Errorf("Equal(%v, %v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestStringRendering(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{Nil, "nil"},
		{True, "true"},
		{False, "false"},
		{Number(3), "3"},
		{Number(3.5), "3.5"},
		{Obj(&fakeObject{name: "<thing>"}), "<thing>"},
	}
	for _, c := range cases {
		if got := c.v.String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}

func TestKindPredicates(t *testing.T) {
	if !Number(1).IsNumber() || Number(1).IsBool() || Number(1).IsNil() || Number(1).IsObj() {
		t.Error("Number value has wrong predicate results")
	}
	if !Obj(&fakeObject{}).IsObj() {
		t.Error("Obj value should report IsObj")
	}
}
