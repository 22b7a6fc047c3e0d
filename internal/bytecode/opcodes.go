// Package bytecode defines the instruction set and code container (Chunk)
// produced by the compiler and executed by the virtual machine.
package bytecode

import "fmt"

// Op is a single bytecode instruction opcode.
type Op byte

const (
	OpConstant Op = iota
	OpNil
	OpTrue
	OpFalse
	OpPop

	OpGetLocal
	OpSetLocal
	OpGetGlobal
	OpDefineGlobal
	OpSetGlobal
	OpGetUpvalue
	OpSetUpvalue
	OpGetProperty
	OpSetProperty
	OpGetSuper

	OpEqual
	OpGreater
	OpLess

	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNot
	OpNegate

	OpPrint

	OpJump
	OpJumpIfFalse
	OpLoop

	OpCall
	OpInvoke
	OpSuperInvoke

	OpClosure
	OpCloseUpvalue
	OpReturn

	OpClass
	OpInherit
	OpMethod
)

// opInfo describes an opcode's name and operand length in bytes
// (not counting the opcode byte itself). CLOSURE has variable-length
// operands (its upvalue descriptors follow the function constant) and is
// handled specially by the disassembler and the VM's instruction decoder.
type opInfo struct {
	name       string
	operandLen int
}

var opTable = map[Op]opInfo{
	OpConstant:     {"OP_CONSTANT", 1},
	OpNil:          {"OP_NIL", 0},
	OpTrue:         {"OP_TRUE", 0},
	OpFalse:        {"OP_FALSE", 0},
	OpPop:          {"OP_POP", 0},
	OpGetLocal:     {"OP_GET_LOCAL", 1},
	OpSetLocal:     {"OP_SET_LOCAL", 1},
	OpGetGlobal:    {"OP_GET_GLOBAL", 1},
	OpDefineGlobal: {"OP_DEFINE_GLOBAL", 1},
	OpSetGlobal:    {"OP_SET_GLOBAL", 1},
	OpGetUpvalue:   {"OP_GET_UPVALUE", 1},
	OpSetUpvalue:   {"OP_SET_UPVALUE", 1},
	OpGetProperty:  {"OP_GET_PROPERTY", 1},
	OpSetProperty:  {"OP_SET_PROPERTY", 1},
	OpGetSuper:     {"OP_GET_SUPER", 1},
	OpEqual:        {"OP_EQUAL", 0},
	OpGreater:      {"OP_GREATER", 0},
	OpLess:         {"OP_LESS", 0},
	OpAdd:          {"OP_ADD", 0},
	OpSubtract:     {"OP_SUBTRACT", 0},
	OpMultiply:     {"OP_MULTIPLY", 0},
	OpDivide:       {"OP_DIVIDE", 0},
	OpNot:          {"OP_NOT", 0},
	OpNegate:       {"OP_NEGATE", 0},
	OpPrint:        {"OP_PRINT", 0},
	OpJump:         {"OP_JUMP", 2},
	OpJumpIfFalse:  {"OP_JUMP_IF_FALSE", 2},
	OpLoop:         {"OP_LOOP", 2},
	OpCall:         {"OP_CALL", 1},
	OpInvoke:       {"OP_INVOKE", 2},
	OpSuperInvoke:  {"OP_SUPER_INVOKE", 2},
	OpClosure:      {"OP_CLOSURE", 1}, // plus 2 bytes per upvalue, read separately
	OpCloseUpvalue: {"OP_CLOSE_UPVALUE", 0},
	OpReturn:       {"OP_RETURN", 0},
	OpClass:        {"OP_CLASS", 1},
	OpInherit:      {"OP_INHERIT", 0},
	OpMethod:       {"OP_METHOD", 1},
}

// String returns the opcode's mnemonic, e.g. "OP_CONSTANT".
func (op Op) String() string {
	if info, ok := opTable[op]; ok {
		return info.name
	}
	return fmt.Sprintf("OP_UNKNOWN(%d)", byte(op))
}

// OperandLen returns the number of fixed operand bytes following the
// opcode byte. For OP_CLOSURE this is just the function constant index;
// the upvalue descriptor bytes that follow are variable-length and must
// be read by the caller once the function's upvalue count is known.
func (op Op) OperandLen() int {
	if info, ok := opTable[op]; ok {
		return info.operandLen
	}
	return 0
}
