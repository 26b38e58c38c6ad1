package tree

// Builder assembles a Tree bottom-up: children are added first and are
// linked to their parent when the parent is added.
type Builder struct {
	nodes []Node
}

// NewBuilder returns an empty builder. Slot zero is reserved for NoNode.
func NewBuilder() *Builder {
	return &Builder{nodes: make([]Node, 1, 64)}
}

// Add appends n and makes it the parent of its children and receiver.
// Invalid child IDs are dropped.
func (b *Builder) Add(n Node) NodeID {
	id := NodeID(len(b.nodes))

	kids := n.Kids[:0:0]
	for _, k := range n.Kids {
		if k.IsValid() {
			kids = append(kids, k)
			b.nodes[k].Parent = id
		}
	}
	n.Kids = kids
	if n.Recv.IsValid() {
		b.nodes[n.Recv].Parent = id
	}
	n.Parent = NoNode

	b.nodes = append(b.nodes, n)
	return id
}

// Node gives access to an already added node so that payload such as
// positions or annotations can be filled in.
func (b *Builder) Node(id NodeID) *Node {
	if id <= NoNode || int(id) >= len(b.nodes) {
		return nil
	}
	return &b.nodes[id]
}

// Resolve binds a Ref or Call to its declaration.
func (b *Builder) Resolve(use, decl NodeID) {
	if n := b.Node(use); n != nil {
		n.Decl = decl
	}
}

// Build freezes the arena with root as the tree root.
func (b *Builder) Build(root NodeID) *Tree {
	nodes := b.nodes
	b.nodes = nil
	return &Tree{nodes: nodes, root: root}
}

// The helpers below build common shapes.

func (b *Builder) Lit(v int64) NodeID {
	return b.Add(Node{Kind: KindLiteral, Value: v, IsInt: true})
}

func (b *Builder) Ref(name string) NodeID {
	return b.Add(Node{Kind: KindRef, Name: name})
}

func (b *Builder) Bin(op Op, operands ...NodeID) NodeID {
	return b.Add(Node{Kind: KindBinary, Op: op, Kids: operands})
}

func (b *Builder) Not(x NodeID) NodeID {
	return b.Add(Node{Kind: KindNot, Kids: []NodeID{x}})
}

func (b *Builder) Paren(x NodeID) NodeID {
	return b.Add(Node{Kind: KindParen, Kids: []NodeID{x}})
}

func (b *Builder) Call(name string, args ...NodeID) NodeID {
	return b.Add(Node{Kind: KindCall, Name: name, Kids: args})
}

func (b *Builder) Expr(kids ...NodeID) NodeID {
	return b.Add(Node{Kind: KindOtherExpr, Kids: kids})
}

func (b *Builder) Ternary(cond, then, els NodeID) NodeID {
	return b.Add(Node{Kind: KindConditional, Kids: []NodeID{cond, then, els}})
}

func (b *Builder) If(cond, then, els NodeID) NodeID {
	return b.Add(Node{Kind: KindIf, Kids: []NodeID{cond, then, els}})
}

func (b *Builder) Block(stmts ...NodeID) NodeID {
	return b.Add(Node{Kind: KindBlock, Kids: stmts})
}

func (b *Builder) Return(x NodeID) NodeID {
	return b.Add(Node{Kind: KindReturn, Kids: []NodeID{x}})
}

func (b *Builder) Throw(x NodeID) NodeID {
	return b.Add(Node{Kind: KindThrow, Kids: []NodeID{x}})
}

func (b *Builder) Stmt(x NodeID) NodeID {
	return b.Add(Node{Kind: KindExprStmt, Kids: []NodeID{x}})
}

func (b *Builder) Other(kids ...NodeID) NodeID {
	return b.Add(Node{Kind: KindOtherStmt, Kids: kids})
}

func (b *Builder) Lambda(body NodeID) NodeID {
	return b.Add(Node{Kind: KindLambda, Kids: []NodeID{body}})
}

func (b *Builder) Method(name string, params int, body NodeID) NodeID {
	return b.Add(Node{Kind: KindMethod, Name: name, Params: params, Kids: []NodeID{body}})
}

func (b *Builder) Field(name string, static, final bool, init NodeID) NodeID {
	return b.Add(Node{Kind: KindField, Name: name, Static: static, Final: final, Kids: []NodeID{init}})
}

func (b *Builder) Class(name string, members ...NodeID) NodeID {
	return b.Add(Node{Kind: KindClass, Name: name, Kids: members})
}

func (b *Builder) File(members ...NodeID) NodeID {
	return b.Add(Node{Kind: KindFile, Kids: members})
}
