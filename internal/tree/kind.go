package tree

// Kind is the closed set of node shapes the analyzers understand.
type Kind uint8

const (
	KindInvalid Kind = iota

	// Declarations. File, Class and Method bound every upward walk.
	KindFile
	KindClass
	KindMethod
	KindField
	KindLambda

	// Statements
	KindBlock
	KindIf
	KindReturn
	KindThrow
	KindExprStmt
	KindOtherStmt

	// Expressions
	KindBinary
	KindNot
	KindCall
	KindRef
	KindLiteral
	KindConditional
	KindParen
	KindOtherExpr
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "File"
	case KindClass:
		return "Class"
	case KindMethod:
		return "Method"
	case KindField:
		return "Field"
	case KindLambda:
		return "Lambda"
	case KindBlock:
		return "Block"
	case KindIf:
		return "If"
	case KindReturn:
		return "Return"
	case KindThrow:
		return "Throw"
	case KindExprStmt:
		return "ExprStmt"
	case KindOtherStmt:
		return "OtherStmt"
	case KindBinary:
		return "Binary"
	case KindNot:
		return "Not"
	case KindCall:
		return "Call"
	case KindRef:
		return "Ref"
	case KindLiteral:
		return "Literal"
	case KindConditional:
		return "Conditional"
	case KindParen:
		return "Paren"
	case KindOtherExpr:
		return "OtherExpr"
	default:
		return "Invalid"
	}
}

// IsStatement reports whether nodes of kind k sit in statement position.
func (k Kind) IsStatement() bool {
	switch k {
	case KindBlock, KindIf, KindReturn, KindThrow, KindExprStmt, KindOtherStmt:
		return true
	default:
		return false
	}
}

// IsBoundary reports whether upward walks stop at nodes of kind k.
func (k Kind) IsBoundary() bool {
	switch k {
	case KindFile, KindClass, KindMethod:
		return true
	default:
		return false
	}
}

// Op is the operator of a Binary node.
type Op uint8

const (
	OpOther Op = iota
	OpLT
	OpLE
	OpEQ
	OpNE
	OpGE
	OpGT
	OpAnd
	OpOr
)

var opText = map[Op]string{
	OpLT:  "<",
	OpLE:  "<=",
	OpEQ:  "==",
	OpNE:  "!=",
	OpGE:  ">=",
	OpGT:  ">",
	OpAnd: "&&",
	OpOr:  "||",
}

func (o Op) String() string {
	if s, ok := opText[o]; ok {
		return s
	}
	return "?"
}

// ParseOp maps Java operator text to an Op. Unknown operators map to OpOther.
func ParseOp(s string) Op {
	for op, text := range opText {
		if text == s {
			return op
		}
	}
	return OpOther
}

// IsComparison reports whether o is one of the six relational operators.
func (o Op) IsComparison() bool {
	switch o {
	case OpLT, OpLE, OpEQ, OpNE, OpGE, OpGT:
		return true
	default:
		return false
	}
}

// Mirror returns the operator that keeps the comparison's meaning when its
// operands trade places: a < b is b > a.
func (o Op) Mirror() Op {
	switch o {
	case OpLT:
		return OpGT
	case OpLE:
		return OpGE
	case OpGE:
		return OpLE
	case OpGT:
		return OpLT
	default:
		return o
	}
}
