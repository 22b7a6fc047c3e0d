package vm

import (
	"fmt"

	"github.com/chazu/finch/internal/bytecode"
	"github.com/chazu/finch/internal/compiler"
	"github.com/chazu/finch/internal/object"
	"github.com/chazu/finch/internal/value"
)

// Interpret compiles and runs source in this VM. A compile error returns
// InterpretCompileError and the first CompileError's text; a runtime
// error returns InterpretRuntimeError and the RuntimeError's traceback.
func (vm *VM) Interpret(source string) (InterpretResult, error) {
	fn, errs := compiler.Compile(source, vm.gc)
	if errs != nil {
		for _, e := range errs {
			fmt.Fprintln(vm.stderr, e.Error())
		}
		return InterpretCompileError, errs[0]
	}

	closure := vm.gc.NewClosure(fn, nil)
	vm.push(value.Obj(closure))
	if rerr, ok := vm.call(closure, 0); !ok {
		vm.pop()
		return InterpretRuntimeError, rerr
	}

	if rerr := vm.run(); rerr != nil {
		return InterpretRuntimeError, rerr
	}
	return InterpretOK, nil
}

// run is the bytecode dispatch loop. It executes until the outermost
// frame returns, a runtime error fires, or an instruction is malformed.
// A malformed instruction (an unknown opcode, a stack not left clean at
// the final RETURN, or a Go panic during dispatch, which the deferred
// handler recovers) is reported as a RuntimeError whose message starts
// with "corrupt bytecode: ".
func (vm *VM) run() (rerr *RuntimeError) {
	defer func() {
		if r := recover(); r != nil {
			rerr = vm.runtimeError("corrupt bytecode: %v", r)
		}
	}()

	frame := vm.frames[len(vm.frames)-1]

	readByte := func() byte {
		b := frame.closure.Function.Chunk.Code[frame.ip]
		frame.ip++
		return b
	}
	readUint16 := func() uint16 {
		hi := readByte()
		lo := readByte()
		return uint16(hi)<<8 | uint16(lo)
	}
	readConstant := func() value.Value {
		return frame.closure.Function.Chunk.Constants[readByte()]
	}
	readString := func() string {
		return readConstant().AsObj().(*object.String).Chars
	}

	for {
		if vm.trace {
			frame.closure.Function.Chunk.DisassembleInstruction(vm.stderr, frame.ip)
		}

		op := bytecode.Op(readByte())
		switch op {
		case bytecode.OpConstant:
			vm.push(readConstant())

		case bytecode.OpNil:
			vm.push(value.Nil)
		case bytecode.OpTrue:
			vm.push(value.True)
		case bytecode.OpFalse:
			vm.push(value.False)
		case bytecode.OpPop:
			vm.pop()

		case bytecode.OpGetLocal:
			vm.push(vm.stack[frame.base+int(readByte())])
		case bytecode.OpSetLocal:
			vm.stack[frame.base+int(readByte())] = vm.peek(0)

		case bytecode.OpGetGlobal:
			name := readString()
			v, ok := vm.globals[name]
			if !ok {
				return vm.runtimeError(fmtUndefinedVariable, name)
			}
			vm.push(v)
		case bytecode.OpDefineGlobal:
			name := readString()
			vm.globals[name] = vm.peek(0)
			vm.pop()
		case bytecode.OpSetGlobal:
			name := readString()
			if _, ok := vm.globals[name]; !ok {
				return vm.runtimeError(fmtUndefinedVariable, name)
			}
			vm.globals[name] = vm.peek(0)

		case bytecode.OpGetUpvalue:
			vm.push(frame.closure.Upvalues[readByte()].Get())
		case bytecode.OpSetUpvalue:
			frame.closure.Upvalues[readByte()].Set(vm.peek(0))

		case bytecode.OpGetProperty:
			if err := vm.getProperty(readString); err != nil {
				return err
			}

		case bytecode.OpSetProperty:
			name := readString()
			instance, ok := vm.peek(1).AsObj().(*object.Instance)
			if !vm.peek(1).IsObj() || !ok {
				return vm.runtimeError(errOnlyInstancesHaveFields)
			}
			instance.SetField(name, vm.peek(0))
			v := vm.pop()
			vm.pop()
			vm.push(v)

		case bytecode.OpGetSuper:
			name := readString()
			superclass := vm.pop().AsObj().(*object.Class)
			if err := vm.bindMethod(superclass, name); err != nil {
				return err
			}

		case bytecode.OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(value.Bool(value.Equal(a, b)))
		case bytecode.OpGreater:
			if err := vm.numericBinary(func(a, b float64) value.Value { return value.Bool(a > b) }); err != nil {
				return err
			}
		case bytecode.OpLess:
			if err := vm.numericBinary(func(a, b float64) value.Value { return value.Bool(a < b) }); err != nil {
				return err
			}

		case bytecode.OpAdd:
			if err := vm.add(); err != nil {
				return err
			}
		case bytecode.OpSubtract:
			if err := vm.numericBinary(func(a, b float64) value.Value { return value.Number(a - b) }); err != nil {
				return err
			}
		case bytecode.OpMultiply:
			if err := vm.numericBinary(func(a, b float64) value.Value { return value.Number(a * b) }); err != nil {
				return err
			}
		case bytecode.OpDivide:
			if err := vm.numericBinary(func(a, b float64) value.Value { return value.Number(a / b) }); err != nil {
				return err
			}

		case bytecode.OpNot:
			vm.push(value.Bool(vm.pop().IsFalsey()))
		case bytecode.OpNegate:
			if !vm.peek(0).IsNumber() {
				return vm.runtimeError(errOperandMustBeNumber)
			}
			vm.push(value.Number(-vm.pop().AsNumber()))

		case bytecode.OpPrint:
			fmt.Fprintln(vm.stdout, vm.pop().String())

		case bytecode.OpJump:
			offset := readUint16()
			frame.ip += int(offset)
		case bytecode.OpJumpIfFalse:
			offset := readUint16()
			if vm.peek(0).IsFalsey() {
				frame.ip += int(offset)
			}
		case bytecode.OpLoop:
			offset := readUint16()
			frame.ip -= int(offset)

		case bytecode.OpCall:
			argCount := int(readByte())
			rerr, ok := vm.callValue(vm.peek(argCount), argCount)
			if !ok {
				return rerr
			}
			frame = vm.frames[len(vm.frames)-1]

		case bytecode.OpInvoke:
			name := readString()
			argCount := int(readByte())
			rerr, ok := vm.invoke(name, argCount)
			if !ok {
				return rerr
			}
			frame = vm.frames[len(vm.frames)-1]

		case bytecode.OpSuperInvoke:
			name := readString()
			argCount := int(readByte())
			superclass := vm.pop().AsObj().(*object.Class)
			rerr, ok := vm.invokeFromClass(superclass, name, argCount)
			if !ok {
				return rerr
			}
			frame = vm.frames[len(vm.frames)-1]

		case bytecode.OpClosure:
			fn := readConstant().AsObj().(*object.Function)
			upvalues := make([]*object.Upvalue, fn.UpvalueCnt)
			for i := range upvalues {
				isLocal := readByte()
				index := int(readByte())
				if isLocal != 0 {
					upvalues[i] = vm.captureUpvalue(frame.base + index)
				} else {
					upvalues[i] = frame.closure.Upvalues[index]
				}
			}
			vm.push(value.Obj(vm.gc.NewClosure(fn, upvalues)))

		case bytecode.OpCloseUpvalue:
			vm.closeUpvalues(vm.stackTop - 1)
			vm.pop()

		case bytecode.OpReturn:
			result := vm.pop()
			vm.closeUpvalues(frame.base)
			vm.frames = vm.frames[:len(vm.frames)-1]
			if len(vm.frames) == 0 {
				if vm.stackTop != 1 {
					return vm.runtimeError("corrupt bytecode: %d stray values on the stack at exit", vm.stackTop-1)
				}
				vm.pop() // the top-level script closure itself
				return nil
			}
			vm.stackTop = frame.base
			vm.push(result)
			frame = vm.frames[len(vm.frames)-1]

		case bytecode.OpClass:
			name := readConstant().AsObj().(*object.String)
			vm.push(value.Obj(vm.gc.NewClass(name)))

		case bytecode.OpInherit:
			superVal := vm.peek(1)
			superclass, ok := superVal.AsObj().(*object.Class)
			if !superVal.IsObj() || !ok {
				return vm.runtimeError(errSuperclassMustBeClass)
			}
			subclass := vm.peek(0).AsObj().(*object.Class)
			subclass.InheritFrom(superclass)
			vm.pop() // subclass

		case bytecode.OpMethod:
			name := readString()
			method := vm.peek(0)
			class := vm.peek(1).AsObj().(*object.Class)
			class.AddMethod(name, method)
			vm.pop()

		default:
			return vm.runtimeError("corrupt bytecode: unrecognized instruction %d", byte(op))
		}
	}
}

// getProperty implements GET_PROPERTY: a field read wins over a method of
// the same name, and a method read binds the receiver into a BoundMethod.
func (vm *VM) getProperty(readString func() string) *RuntimeError {
	receiverVal := vm.peek(0)
	instance, ok := receiverVal.AsObj().(*object.Instance)
	if !receiverVal.IsObj() || !ok {
		return vm.runtimeError(errOnlyInstancesHaveProps)
	}
	name := readString()

	if field, ok := instance.GetField(name); ok {
		vm.pop()
		vm.push(field)
		return nil
	}

	return vm.bindMethod(instance.Class, name)
}

// add implements OP_ADD's dual numeric/string behavior. Both operands are
// peeked rather than popped until the result is ready, so they stay
// reachable to the collector if string concatenation triggers an
// allocation.
func (vm *VM) add() *RuntimeError {
	b := vm.peek(0)
	a := vm.peek(1)

	bStr, bIsStr := b.AsObj().(*object.String)
	aStr, aIsStr := a.AsObj().(*object.String)
	if a.IsObj() && b.IsObj() && aIsStr && bIsStr {
		concatenated := vm.gc.InternString(aStr.Chars + bStr.Chars)
		vm.pop()
		vm.pop()
		vm.push(value.Obj(concatenated))
		return nil
	}

	if !a.IsNumber() || !b.IsNumber() {
		return vm.runtimeError(errOperandsNumbersOrStrings)
	}
	vm.pop()
	vm.pop()
	vm.push(value.Number(a.AsNumber() + b.AsNumber()))
	return nil
}

// numericBinary implements the arithmetic/comparison opcodes that require
// both operands to be numbers.
func (vm *VM) numericBinary(op func(a, b float64) value.Value) *RuntimeError {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		return vm.runtimeError(errOperandsMustBeNumbers)
	}
	b := vm.pop().AsNumber()
	a := vm.pop().AsNumber()
	vm.push(op(a, b))
	return nil
}
