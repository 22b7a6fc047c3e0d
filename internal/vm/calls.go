package vm

import (
	"github.com/chazu/finch/internal/object"
	"github.com/chazu/finch/internal/value"
)

// callValue dispatches CALL/INVOKE's callee by concrete kind: a Closure
// pushes a new frame, a Native calls straight through and leaves its
// result on the stack, a Class constructs an Instance (running `init` if
// present), and a BoundMethod rebinds its receiver into slot 0 before
// calling its underlying Closure.
func (vm *VM) callValue(callee value.Value, argCount int) (*RuntimeError, bool) {
	if !callee.IsObj() {
		return vm.runtimeError(errOnlyCallFunctionsClasses), false
	}

	switch callee := callee.AsObj().(type) {
	case *object.Closure:
		return vm.call(callee, argCount)

	case *object.Native:
		args := vm.stack[vm.stackTop-argCount : vm.stackTop]
		result := callee.Fn(args)
		vm.stackTop -= argCount + 1
		vm.push(result)
		return nil, true

	case *object.Class:
		instance := vm.gc.NewInstance(callee)
		vm.stack[vm.stackTop-argCount-1] = value.Obj(instance)
		if initializer, ok := callee.LookupMethod(vm.initString.Chars); ok {
			closure := initializer.AsObj().(*object.Closure)
			return vm.call(closure, argCount)
		}
		if argCount != 0 {
			return vm.runtimeError(fmtExpectedArgsButGot, 0, argCount), false
		}
		return nil, true

	case *object.BoundMethod:
		vm.stack[vm.stackTop-argCount-1] = callee.Receiver
		return vm.call(callee.Method, argCount)

	default:
		return vm.runtimeError(errOnlyCallFunctionsClasses), false
	}
}

// call pushes a new frame for closure, validating its arity and the
// frame-stack depth limit first.
func (vm *VM) call(closure *object.Closure, argCount int) (*RuntimeError, bool) {
	if argCount != closure.Function.Arity {
		return vm.runtimeError(fmtExpectedArgsButGot, closure.Function.Arity, argCount), false
	}
	if len(vm.frames) >= maxFrames {
		return vm.runtimeError(errCallStackOverflow), false
	}
	vm.frames = append(vm.frames, &callFrame{
		closure: closure,
		base:    vm.stackTop - argCount - 1,
	})
	return nil, true
}

// invoke fuses a GET_PROPERTY and CALL: it looks up name on the receiver
// at the top of the argument window, preferring a field (which may hold
// any callable value) over a method, exactly matching GET_PROPERTY's
// shadowing rule.
func (vm *VM) invoke(name string, argCount int) (*RuntimeError, bool) {
	receiver := vm.peek(argCount)
	instance, ok := receiver.AsObj().(*object.Instance)
	if !receiver.IsObj() || !ok {
		return vm.runtimeError(errOnlyInstancesHaveMethods), false
	}

	if field, ok := instance.GetField(name); ok {
		vm.stack[vm.stackTop-argCount-1] = field
		return vm.callValue(field, argCount)
	}

	return vm.invokeFromClass(instance.Class, name, argCount)
}

func (vm *VM) invokeFromClass(class *object.Class, name string, argCount int) (*RuntimeError, bool) {
	method, ok := class.LookupMethod(name)
	if !ok {
		return vm.runtimeError(fmtUndefinedProperty, name), false
	}
	return vm.call(method.AsObj().(*object.Closure), argCount)
}

// bindMethod resolves name on class, wraps it with the instance currently
// on top of the stack into a BoundMethod, and replaces the receiver with
// it, as GET_PROPERTY does when no field of that name exists.
func (vm *VM) bindMethod(class *object.Class, name string) *RuntimeError {
	method, ok := class.LookupMethod(name)
	if !ok {
		return vm.runtimeError(fmtUndefinedProperty, name)
	}
	closure := method.AsObj().(*object.Closure)
	bound := vm.gc.NewBoundMethod(vm.peek(0), closure)
	vm.pop()
	vm.push(value.Obj(bound))
	return nil
}
