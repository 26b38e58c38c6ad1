// Package tree holds a parsed compilation unit as an arena of nodes.
//
// Nodes are addressed by NodeID and keep the index of their parent, so
// walking towards the root is a slice lookup per step and the structure
// has no pointer cycles. A Tree never changes after Builder.Build and may
// be shared by any number of readers.
package tree

import "strings"

// NodeID identifies a node within one Tree.
type NodeID int32

// NoNode is the zero sentinel. It is never a valid node.
const NoNode NodeID = 0

// IsValid returns true if the ID is valid (non-zero).
func (id NodeID) IsValid() bool { return id != NoNode }

// Pos is a 1-based source position.
type Pos struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Before reports whether p precedes q.
func (p Pos) Before(q Pos) bool {
	return p.Line < q.Line || (p.Line == q.Line && p.Column < q.Column)
}

// Node is one arena slot. Which fields are meaningful depends on Kind:
//
//	If, Conditional  Kids = cond, then[, else]
//	Binary           Kids = operands (two or more), Op
//	Not, Paren       Kids = operand
//	Return, Throw,
//	ExprStmt         Kids = expression, if any
//	Call             Kids = arguments, Recv, Name, Decl
//	Ref              Name (qualified source text), Decl, Shadowed
//	Literal          Value, IsInt
//	Field            Kids = initializer, if any; Name, Static, Final
//	Method           Kids = body, if any; Name, Params, Public, annotation data
//	Class            Kids = members; Name, annotation data
//	Lambda           Kids = body
type Node struct {
	Kind   Kind
	Parent NodeID
	Kids   []NodeID
	Op     Op
	Name   string
	Recv   NodeID
	Decl   NodeID

	// Shadowed marks a reference whose name is taken in this file by a
	// parameter, a local variable or more than one member.
	Shadowed bool

	Value int64
	IsInt bool

	Static bool
	Final  bool
	Public bool
	Params int

	// RequiresAPI is the level from @RequiresApi or @TargetApi, zero when absent.
	RequiresAPI  int
	ChecksSdkInt bool
	Suppress     []string

	Pos Pos
	End Pos
}

// Suppresses reports whether the declaration carries a suppression for id.
func (n *Node) Suppresses(id string) bool {
	for _, s := range n.Suppress {
		if strings.EqualFold(s, id) || s == "all" {
			return true
		}
	}
	return false
}

// Tree is an immutable arena of nodes.
type Tree struct {
	nodes []Node
	root  NodeID
}

// Root returns the root node, usually a File.
func (t *Tree) Root() NodeID { return t.root }

// Len returns the number of nodes in the arena.
func (t *Tree) Len() int { return len(t.nodes) - 1 }

// Node returns the node for id, or nil when id is not part of the tree.
// The returned node must not be modified.
func (t *Tree) Node(id NodeID) *Node {
	if t == nil || id <= NoNode || int(id) >= len(t.nodes) {
		return nil
	}
	return &t.nodes[id]
}

// Kind returns the kind of id, KindInvalid when absent.
func (t *Tree) Kind(id NodeID) Kind {
	if n := t.Node(id); n != nil {
		return n.Kind
	}
	return KindInvalid
}

// Parent returns the parent of id, NoNode at the root.
func (t *Tree) Parent(id NodeID) NodeID {
	if n := t.Node(id); n != nil {
		return n.Parent
	}
	return NoNode
}

// Kids returns the ordered children of id.
func (t *Tree) Kids(id NodeID) []NodeID {
	if n := t.Node(id); n != nil {
		return n.Kids
	}
	return nil
}

func (t *Tree) kid(id NodeID, i int) NodeID {
	kids := t.Kids(id)
	if i < len(kids) {
		return kids[i]
	}
	return NoNode
}

// Cond returns the condition of an If or Conditional.
func (t *Tree) Cond(id NodeID) NodeID {
	if !t.isBranching(id) {
		return NoNode
	}
	return t.kid(id, 0)
}

// Then returns the branch taken when the condition holds.
func (t *Tree) Then(id NodeID) NodeID {
	if !t.isBranching(id) {
		return NoNode
	}
	return t.kid(id, 1)
}

// Else returns the alternative branch, NoNode when there is none.
func (t *Tree) Else(id NodeID) NodeID {
	if !t.isBranching(id) {
		return NoNode
	}
	return t.kid(id, 2)
}

func (t *Tree) isBranching(id NodeID) bool {
	k := t.Kind(id)
	return k == KindIf || k == KindConditional
}

// Operands returns the operands of a Binary node in evaluation order.
func (t *Tree) Operands(id NodeID) []NodeID {
	if t.Kind(id) != KindBinary {
		return nil
	}
	return t.Kids(id)
}

// Operand returns the single child of a Not, Paren, Return, Throw or ExprStmt.
func (t *Tree) Operand(id NodeID) NodeID {
	switch t.Kind(id) {
	case KindNot, KindParen, KindReturn, KindThrow, KindExprStmt:
		return t.kid(id, 0)
	default:
		return NoNode
	}
}

// Args returns the arguments of a Call.
func (t *Tree) Args(id NodeID) []NodeID {
	if t.Kind(id) != KindCall {
		return nil
	}
	return t.Kids(id)
}

// Body returns the body of a Method or Lambda.
func (t *Tree) Body(id NodeID) NodeID {
	switch t.Kind(id) {
	case KindMethod, KindLambda:
		return t.kid(id, 0)
	default:
		return NoNode
	}
}

// Init returns the initializer of a Field.
func (t *Tree) Init(id NodeID) NodeID {
	if t.Kind(id) != KindField {
		return NoNode
	}
	return t.kid(id, 0)
}

// SingleReturn returns the expression of a method whose body consists of
// exactly one return statement.
func (t *Tree) SingleReturn(method NodeID) NodeID {
	body := t.Body(method)
	if t.Kind(body) != KindBlock {
		return NoNode
	}
	kids := t.Kids(body)
	if len(kids) != 1 || t.Kind(kids[0]) != KindReturn {
		return NoNode
	}
	return t.Operand(kids[0])
}

// Unparen strips any parentheses around id.
func (t *Tree) Unparen(id NodeID) NodeID {
	for t.Kind(id) == KindParen {
		id = t.Operand(id)
	}
	return id
}

// IndexOf returns the position of child among parent's children, or -1.
func (t *Tree) IndexOf(parent, child NodeID) int {
	for i, k := range t.Kids(parent) {
		if k == child {
			return i
		}
	}
	return -1
}

// PrevStatement returns the closest preceding sibling of id that is a
// statement, NoNode when there is none.
func (t *Tree) PrevStatement(id NodeID) NodeID {
	parent := t.Parent(id)
	kids := t.Kids(parent)
	for i := t.IndexOf(parent, id) - 1; i >= 0; i-- {
		if t.Kind(kids[i]).IsStatement() {
			return kids[i]
		}
	}
	return NoNode
}

// EnclosingStatement returns id itself when it is a statement, otherwise
// its closest statement ancestor. It gives up at a boundary.
func (t *Tree) EnclosingStatement(id NodeID) NodeID {
	for cur := id; cur.IsValid(); cur = t.Parent(cur) {
		k := t.Kind(cur)
		if k.IsStatement() {
			return cur
		}
		if k.IsBoundary() {
			return NoNode
		}
	}
	return NoNode
}

// Enclosing returns the closest strict ancestor of id with one of kinds.
func (t *Tree) Enclosing(id NodeID, kinds ...Kind) NodeID {
	for cur := t.Parent(id); cur.IsValid(); cur = t.Parent(cur) {
		k := t.Kind(cur)
		for _, want := range kinds {
			if k == want {
				return cur
			}
		}
	}
	return NoNode
}

// Contains reports whether id lies in the subtree rooted at anc.
func (t *Tree) Contains(anc, id NodeID) bool {
	for cur := id; cur.IsValid(); cur = t.Parent(cur) {
		if cur == anc {
			return true
		}
	}
	return false
}

// Walk visits the subtree rooted at id in source order. Returning false
// from fn skips the children of that node.
func (t *Tree) Walk(id NodeID, fn func(NodeID) bool) {
	n := t.Node(id)
	if n == nil || !fn(id) {
		return
	}
	if n.Recv.IsValid() {
		t.Walk(n.Recv, fn)
	}
	for _, k := range n.Kids {
		t.Walk(k, fn)
	}
}

// LastSegment returns the part of a dotted name after the final dot.
func LastSegment(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}
