package javasrc

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"apiguard/internal/sdk"
	"apiguard/internal/tree"
)

type pendingRef struct {
	id   tree.NodeID
	name string
}

type pendingCall struct {
	id    tree.NodeID
	qual  string
	recv  bool
	name  string
	arity int
}

// lowerer translates one tree-sitter syntax tree into a tree.Builder.
type lowerer struct {
	src      []byte
	versions *sdk.Table
	b        *tree.Builder

	fields  map[string][]tree.NodeID
	methods map[string][]tree.NodeID
	classes map[string]bool
	refs    []pendingRef
	calls   []pendingCall

	// scopes holds the parameter and local variable names in scope.
	scopes []map[string]bool

	errors bool
}

func newLowerer(src []byte, versions *sdk.Table) *lowerer {
	return &lowerer{
		src:      src,
		versions: versions,
		b:        tree.NewBuilder(),
		fields:   make(map[string][]tree.NodeID),
		methods:  make(map[string][]tree.NodeID),
		classes:  make(map[string]bool),
	}
}

func (l *lowerer) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(l.src)
}

// at records the source range of n on id.
func (l *lowerer) at(id tree.NodeID, n *sitter.Node) tree.NodeID {
	if node := l.b.Node(id); node != nil && n != nil {
		start, end := n.StartPoint(), n.EndPoint()
		node.Pos = tree.Pos{Line: int(start.Row) + 1, Column: int(start.Column) + 1}
		node.End = tree.Pos{Line: int(end.Row) + 1, Column: int(end.Column) + 1}
	}
	return id
}

// children returns the named children of n worth lowering.
func (l *lowerer) children(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c == nil || c.IsMissing() || skipped(c.Type()) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func skipped(typ string) bool {
	switch typ {
	case "line_comment", "block_comment", "modifiers", "marker_annotation", "annotation",
		"type_arguments", "type_parameters", "dimensions", "formal_parameters",
		"inferred_parameters", "type_identifier", "scoped_type_identifier":
		return true
	}
	return strings.HasSuffix(typ, "_type")
}

// Declarations

func (l *lowerer) file(root *sitter.Node) tree.NodeID {
	var members []tree.NodeID
	for _, c := range l.children(root) {
		if isTypeDecl(c.Type()) {
			members = append(members, l.class(c))
		} else if c.Type() == "ERROR" {
			l.errors = true
			members = append(members, l.any(c))
		}
	}
	return l.at(l.b.File(members...), root)
}

func isTypeDecl(typ string) bool {
	switch typ {
	case "class_declaration", "interface_declaration", "enum_declaration",
		"record_declaration", "annotation_type_declaration":
		return true
	}
	return false
}

func (l *lowerer) class(n *sitter.Node) tree.NodeID {
	name := l.text(n.ChildByFieldName("name"))
	if name != "" {
		l.classes[name] = true
	}
	iface := n.Type() == "interface_declaration" || n.Type() == "annotation_type_declaration"

	var members []tree.NodeID
	if body := n.ChildByFieldName("body"); body != nil {
		members = l.members(body, iface)
	}
	id := l.at(l.b.Class(name, members...), n)
	l.modifiers(n, l.b.Node(id))
	return id
}

// anonymous lowers the class_body of an anonymous class or enum constant.
func (l *lowerer) anonymous(body *sitter.Node) tree.NodeID {
	return l.at(l.b.Class("", l.members(body, false)...), body)
}

func (l *lowerer) members(body *sitter.Node, iface bool) []tree.NodeID {
	var out []tree.NodeID
	for _, c := range l.children(body) {
		switch typ := c.Type(); {
		case isTypeDecl(typ):
			out = append(out, l.class(c))
		case typ == "method_declaration", typ == "constructor_declaration",
			typ == "compact_constructor_declaration":
			out = append(out, l.method(c, iface))
		case typ == "field_declaration", typ == "constant_declaration":
			out = append(out, l.fieldDecl(c, iface || typ == "constant_declaration")...)
		case typ == "enum_constant":
			out = append(out, l.enumConstant(c))
		case typ == "enum_body_declarations":
			out = append(out, l.members(c, iface)...)
		case typ == "static_initializer":
			id := l.at(l.b.Method("<clinit>", 0, l.stmt(firstOfType(c, "block"))), c)
			l.b.Node(id).Static = true
			out = append(out, id)
		case typ == "block":
			out = append(out, l.at(l.b.Method("<init>", 0, l.stmt(c)), c))
		case typ == "ERROR":
			l.errors = true
			out = append(out, l.any(c))
		}
	}
	return out
}

func (l *lowerer) method(n *sitter.Node, iface bool) tree.NodeID {
	name := l.text(n.ChildByFieldName("name"))
	l.push()
	params := l.params(n.ChildByFieldName("parameters"))

	body := tree.NoNode
	if bn := n.ChildByFieldName("body"); bn != nil {
		body = l.block(bn)
	}
	l.pop()
	id := l.at(l.b.Method(name, params, body), n)
	node := l.b.Node(id)
	l.modifiers(n, node)
	if iface {
		node.Public = true
	}
	if name != "" {
		key := methodKey(name, params)
		l.methods[key] = append(l.methods[key], id)
	}
	return id
}

// params declares the parameters of a formal_parameters, inferred_parameters
// or single identifier node and returns how many there are.
func (l *lowerer) params(n *sitter.Node) int {
	if n == nil {
		return 0
	}
	if n.Type() == "identifier" {
		l.declare(l.text(n))
		return 1
	}
	count := 0
	for i := 0; i < int(n.NamedChildCount()); i++ {
		p := n.NamedChild(i)
		switch p.Type() {
		case "formal_parameter":
			l.declare(l.text(p.ChildByFieldName("name")))
		case "spread_parameter":
			if d := firstOfType(p, "variable_declarator"); d != nil {
				l.declare(l.text(d.ChildByFieldName("name")))
			}
		case "identifier":
			l.declare(l.text(p))
		default:
			continue
		}
		count++
	}
	return count
}

func methodKey(name string, arity int) string {
	return name + "/" + strconv.Itoa(arity)
}

// fieldDecl produces one Field per declarator.
func (l *lowerer) fieldDecl(n *sitter.Node, constant bool) []tree.NodeID {
	var out []tree.NodeID
	for i := 0; i < int(n.NamedChildCount()); i++ {
		d := n.NamedChild(i)
		if d == nil || d.Type() != "variable_declarator" {
			continue
		}
		name := l.text(d.ChildByFieldName("name"))
		init := l.expr(d.ChildByFieldName("value"))

		id := l.at(l.b.Field(name, false, false, init), d)
		node := l.b.Node(id)
		l.modifiers(n, node)
		if constant {
			node.Static, node.Final, node.Public = true, true, true
		}
		if name != "" {
			l.fields[name] = append(l.fields[name], id)
		}
		out = append(out, id)
	}
	return out
}

func (l *lowerer) enumConstant(n *sitter.Node) tree.NodeID {
	var kids []tree.NodeID
	if args := n.ChildByFieldName("arguments"); args != nil {
		kids = append(kids, l.args(args)...)
	}
	if body := n.ChildByFieldName("body"); body != nil {
		kids = append(kids, l.anonymous(body))
	}
	init := tree.NoNode
	if len(kids) > 0 {
		init = l.at(l.b.Expr(kids...), n)
	}
	name := l.text(n.ChildByFieldName("name"))
	id := l.at(l.b.Field(name, true, true, init), n)
	l.b.Node(id).Public = true
	return id
}

// Statements

func (l *lowerer) block(n *sitter.Node) tree.NodeID {
	l.push()
	defer l.pop()
	var stmts []tree.NodeID
	for _, c := range l.children(n) {
		stmts = append(stmts, l.stmt(c))
	}
	return l.at(l.b.Block(stmts...), n)
}

func (l *lowerer) stmt(n *sitter.Node) tree.NodeID {
	if n == nil {
		return tree.NoNode
	}
	switch n.Type() {
	case "block", "constructor_body":
		return l.block(n)
	case "if_statement":
		cond := l.expr(unparen(n.ChildByFieldName("condition")))
		if !cond.IsValid() {
			cond = l.at(l.b.Expr(), n)
		}
		then := l.stmt(n.ChildByFieldName("consequence"))
		if !then.IsValid() {
			then = l.at(l.b.Other(), n)
		}
		els := l.stmt(n.ChildByFieldName("alternative"))
		return l.at(l.b.If(cond, then, els), n)
	case "return_statement":
		return l.at(l.b.Return(l.expr(l.first(n))), n)
	case "throw_statement":
		return l.at(l.b.Throw(l.expr(l.first(n))), n)
	case "expression_statement":
		return l.at(l.b.Stmt(l.expr(l.first(n))), n)
	case "local_variable_declaration":
		var kids []tree.NodeID
		for _, c := range l.children(n) {
			if c.Type() == "variable_declarator" {
				if v := l.expr(c.ChildByFieldName("value")); v.IsValid() {
					kids = append(kids, v)
				}
				l.declare(l.text(c.ChildByFieldName("name")))
			}
		}
		return l.at(l.b.Other(kids...), n)
	case "ERROR":
		l.errors = true
	}
	if isTypeDecl(n.Type()) {
		return l.at(l.b.Other(l.class(n)), n)
	}
	return l.at(l.b.Other(l.rest(n)...), n)
}

// any lowers a node whose role is not fixed by its parent.
func (l *lowerer) any(n *sitter.Node) tree.NodeID {
	if isStatement(n.Type()) {
		return l.stmt(n)
	}
	return l.expr(n)
}

func isStatement(typ string) bool {
	switch typ {
	case "block", "local_variable_declaration", "constructor_body":
		return true
	}
	return strings.HasSuffix(typ, "_statement")
}

func (l *lowerer) rest(n *sitter.Node) []tree.NodeID {
	switch n.Type() {
	case "for_statement", "enhanced_for_statement", "catch_clause", "try_with_resources_statement",
		"switch_block_statement_group", "switch_rule":
		l.push()
		defer l.pop()
	}
	switch n.Type() {
	case "enhanced_for_statement", "resource", "instanceof_expression":
		l.declare(l.text(n.ChildByFieldName("name")))
	case "catch_clause":
		if p := firstOfType(n, "catch_formal_parameter"); p != nil {
			l.declare(l.text(p.ChildByFieldName("name")))
		}
	case "type_pattern":
		if id := firstOfType(n, "identifier"); id != nil {
			l.declare(l.text(id))
		}
	}

	var kids []tree.NodeID
	for _, c := range l.children(n) {
		if isTypeDecl(c.Type()) {
			kids = append(kids, l.class(c))
			continue
		}
		if id := l.any(c); id.IsValid() {
			kids = append(kids, id)
		}
	}
	return kids
}

// Expressions

func (l *lowerer) expr(n *sitter.Node) tree.NodeID {
	if n == nil || n.IsMissing() {
		return tree.NoNode
	}
	switch n.Type() {
	case "parenthesized_expression":
		return l.at(l.b.Paren(l.expr(l.first(n))), n)
	case "binary_expression":
		return l.binary(n)
	case "unary_expression":
		operand := l.expr(n.ChildByFieldName("operand"))
		if op := n.ChildByFieldName("operator"); op != nil && op.Type() == "!" {
			return l.at(l.b.Not(operand), n)
		}
		return l.at(l.b.Expr(operand), n)
	case "ternary_expression":
		cond := l.expr(n.ChildByFieldName("condition"))
		if !cond.IsValid() {
			cond = l.at(l.b.Expr(), n)
		}
		then := l.expr(n.ChildByFieldName("consequence"))
		if !then.IsValid() {
			then = l.at(l.b.Expr(), n)
		}
		return l.at(l.b.Ternary(cond, then, l.expr(n.ChildByFieldName("alternative"))), n)
	case "method_invocation":
		return l.call(n)
	case "identifier", "this":
		return l.ref(n, l.text(n))
	case "field_access", "scoped_identifier":
		if isName(n) {
			return l.ref(n, compact(l.text(n)))
		}
		return l.at(l.b.Expr(l.rest(n)...), n)
	case "decimal_integer_literal", "hex_integer_literal", "octal_integer_literal", "binary_integer_literal":
		id := l.at(l.b.Add(tree.Node{Kind: tree.KindLiteral}), n)
		if v, ok := parseInt(l.text(n)); ok {
			node := l.b.Node(id)
			node.Value, node.IsInt = v, true
		}
		return id
	case "string_literal", "character_literal", "true", "false", "null_literal",
		"decimal_floating_point_literal", "hex_floating_point_literal", "text_block":
		return l.at(l.b.Add(tree.Node{Kind: tree.KindLiteral}), n)
	case "lambda_expression":
		l.push()
		defer l.pop()
		l.params(n.ChildByFieldName("parameters"))
		body := n.ChildByFieldName("body")
		if body == nil {
			return l.at(l.b.Lambda(tree.NoNode), n)
		}
		return l.at(l.b.Lambda(l.any(body)), n)
	case "object_creation_expression":
		var kids []tree.NodeID
		if obj := n.ChildByFieldName("object"); obj != nil {
			kids = append(kids, l.expr(obj))
		}
		if args := n.ChildByFieldName("arguments"); args != nil {
			kids = append(kids, l.args(args)...)
		}
		if body := firstOfType(n, "class_body"); body != nil {
			kids = append(kids, l.anonymous(body))
		}
		return l.at(l.b.Expr(kids...), n)
	case "class_body":
		return l.anonymous(n)
	case "ERROR":
		l.errors = true
	}
	if isStatement(n.Type()) {
		return l.stmt(n)
	}
	return l.at(l.b.Expr(l.rest(n)...), n)
}

func (l *lowerer) binary(n *sitter.Node) tree.NodeID {
	op := binaryOp(n)
	if op == tree.OpAnd || op == tree.OpOr {
		return l.at(l.b.Bin(op, l.chain(n, op)...), n)
	}
	left := l.expr(n.ChildByFieldName("left"))
	right := l.expr(n.ChildByFieldName("right"))
	return l.at(l.b.Bin(op, left, right), n)
}

// chain flattens a left-nested run of the same && or || operator.
func (l *lowerer) chain(n *sitter.Node, op tree.Op) []tree.NodeID {
	var out []tree.NodeID
	left := n.ChildByFieldName("left")
	if left != nil && left.Type() == "binary_expression" && binaryOp(left) == op {
		out = l.chain(left, op)
	} else if id := l.expr(left); id.IsValid() {
		out = append(out, id)
	}
	if id := l.expr(n.ChildByFieldName("right")); id.IsValid() {
		out = append(out, id)
	}
	return out
}

func binaryOp(n *sitter.Node) tree.Op {
	if op := n.ChildByFieldName("operator"); op != nil {
		return tree.ParseOp(op.Type())
	}
	return tree.OpOther
}

func (l *lowerer) call(n *sitter.Node) tree.NodeID {
	name := l.text(n.ChildByFieldName("name"))

	var args []tree.NodeID
	if a := n.ChildByFieldName("arguments"); a != nil {
		args = l.args(a)
	}

	recv, qual := tree.NoNode, ""
	obj := n.ChildByFieldName("object")
	if obj != nil {
		recv = l.expr(obj)
		if isName(obj) {
			qual = compact(l.text(obj))
		}
	}

	full := name
	if qual != "" {
		full = qual + "." + name
	}
	id := l.at(l.b.Add(tree.Node{Kind: tree.KindCall, Name: full, Recv: recv, Kids: args}), n)
	l.calls = append(l.calls, pendingCall{id: id, qual: qual, recv: obj != nil, name: name, arity: len(args)})
	return id
}

func (l *lowerer) args(n *sitter.Node) []tree.NodeID {
	var out []tree.NodeID
	for _, c := range l.children(n) {
		if id := l.expr(c); id.IsValid() {
			out = append(out, id)
		}
	}
	return out
}

func (l *lowerer) ref(n *sitter.Node, name string) tree.NodeID {
	id := l.at(l.b.Ref(name), n)
	head, _, _ := strings.Cut(name, ".")
	if l.inScope(head) {
		l.b.Node(id).Shadowed = true
		return id
	}
	l.refs = append(l.refs, pendingRef{id: id, name: name})
	return id
}

// Scopes

func (l *lowerer) push() { l.scopes = append(l.scopes, make(map[string]bool)) }

func (l *lowerer) pop() { l.scopes = l.scopes[:len(l.scopes)-1] }

func (l *lowerer) declare(name string) {
	if name != "" && len(l.scopes) > 0 {
		l.scopes[len(l.scopes)-1][name] = true
	}
}

// inScope reports whether name is a parameter or local variable visible here.
func (l *lowerer) inScope(name string) bool {
	for i := len(l.scopes) - 1; i >= 0; i-- {
		if l.scopes[i][name] {
			return true
		}
	}
	return false
}

// Resolution

// resolve binds references and calls to declarations in the same file.
// Ambiguous names stay unresolved.
func (l *lowerer) resolve() {
	for _, r := range l.refs {
		name, ok := l.local(r.name)
		if !ok {
			continue
		}
		switch decls := l.fields[name]; {
		case len(decls) == 1:
			l.b.Resolve(r.id, decls[0])
		case len(decls) > 1:
			l.b.Node(r.id).Shadowed = true
		}
	}
	for _, c := range l.calls {
		if c.recv && c.qual != "this" && !l.classes[tree.LastSegment(c.qual)] {
			continue
		}
		if decls := l.methods[methodKey(c.name, c.arity)]; len(decls) == 1 {
			l.b.Resolve(c.id, decls[0])
		}
	}
}

// local returns the member name a reference denotes when it can only mean
// a member of this file: an unqualified name, or one qualified by this or
// by a class declared here.
func (l *lowerer) local(name string) (string, bool) {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return name, name != "this"
	}
	qual := name[:i]
	if qual == "this" || l.classes[tree.LastSegment(qual)] {
		return name[i+1:], true
	}
	return "", false
}

// Helpers

func unparen(n *sitter.Node) *sitter.Node {
	for n != nil && n.Type() == "parenthesized_expression" && n.NamedChildCount() > 0 {
		n = n.NamedChild(0)
	}
	return n
}

func (l *lowerer) first(n *sitter.Node) *sitter.Node {
	if kids := l.children(n); len(kids) > 0 {
		return kids[0]
	}
	return nil
}

func firstOfType(n *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c != nil && c.Type() == typ {
			return c
		}
	}
	return nil
}

// isName reports whether n is a plain dotted name such as Build.VERSION.SDK_INT.
func isName(n *sitter.Node) bool {
	switch n.Type() {
	case "identifier", "this":
		return true
	case "field_access":
		obj := n.ChildByFieldName("object")
		return obj != nil && isName(obj)
	case "scoped_identifier":
		return true
	}
	return false
}

func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// parseInt reads a Java integer literal.
func parseInt(s string) (int64, bool) {
	s = strings.ReplaceAll(s, "_", "")
	s = strings.TrimRight(s, "lL")
	if len(s) > 1 && s[0] == '0' && s[1] >= '0' && s[1] <= '9' {
		s = "0o" + s[1:]
	}
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		u, uerr := strconv.ParseUint(s, 0, 64)
		if uerr != nil {
			return 0, false
		}
		return int64(u), true
	}
	return v, true
}
