package vm

import (
	"github.com/chazu/finch/internal/object"
)

// captureUpvalue returns an open upvalue over vm.stack[stackIndex],
// reusing an existing one if the open-upvalue list already has one for
// that exact slot (so two closures capturing the same local share state).
// The list is kept ordered by descending stack index.
func (vm *VM) captureUpvalue(stackIndex int) *object.Upvalue {
	var prev *object.Upvalue
	uv := vm.openUpvalues
	for uv != nil && uv.StackIndex > stackIndex {
		prev = uv
		uv = uv.Next
	}
	if uv != nil && uv.StackIndex == stackIndex {
		return uv
	}

	created := vm.gc.NewUpvalue(&vm.stack[stackIndex], stackIndex)
	created.Next = uv
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.Next = created
	}
	return created
}

// closeUpvalues closes every open upvalue at or above fromIndex, lifting
// their values off the stack, and trims them from the open list.
func (vm *VM) closeUpvalues(fromIndex int) {
	for vm.openUpvalues != nil && vm.openUpvalues.StackIndex >= fromIndex {
		uv := vm.openUpvalues
		uv.Close()
		vm.openUpvalues = uv.Next
	}
}
