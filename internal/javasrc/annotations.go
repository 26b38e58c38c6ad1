package javasrc

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"apiguard/internal/tree"
)

// modifiers copies keywords and recognized annotations of declaration n
// onto node.
func (l *lowerer) modifiers(n *sitter.Node, node *tree.Node) {
	mods := firstOfType(n, "modifiers")
	if mods == nil {
		return
	}
	for i := 0; i < int(mods.ChildCount()); i++ {
		c := mods.Child(i)
		if c == nil {
			continue
		}
		switch c.Type() {
		case "public":
			node.Public = true
		case "static":
			node.Static = true
		case "final":
			node.Final = true
		case "marker_annotation", "annotation":
			l.annotation(c, node)
		}
	}
}

func (l *lowerer) annotation(a *sitter.Node, node *tree.Node) {
	name := tree.LastSegment(compact(l.text(a.ChildByFieldName("name"))))
	args := a.ChildByFieldName("arguments")

	switch name {
	case "RequiresApi", "TargetApi":
		if level, ok := l.apiLevel(l.annotationValue(args, "api", "value")); ok {
			node.RequiresAPI = max(node.RequiresAPI, level)
		}
	case "SuppressLint", "SuppressWarnings":
		node.Suppress = append(node.Suppress, l.stringValues(l.annotationValue(args, "value"))...)
	case "ChecksSdkIntAtLeast":
		node.ChecksSdkInt = true
	}
}

// annotationValue returns the positional argument, or the value of the
// first element pair whose key is one of keys.
func (l *lowerer) annotationValue(args *sitter.Node, keys ...string) *sitter.Node {
	if args == nil {
		return nil
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		c := args.NamedChild(i)
		if c == nil {
			continue
		}
		if c.Type() != "element_value_pair" {
			if !strings.HasSuffix(c.Type(), "comment") {
				return c
			}
			continue
		}
		key := c.ChildByFieldName("key")
		for _, k := range keys {
			if key != nil && key.Type() == "identifier" && l.text(key) == k {
				return c.ChildByFieldName("value")
			}
		}
	}
	return nil
}

func (l *lowerer) apiLevel(v *sitter.Node) (int, bool) {
	if v == nil {
		return 0, false
	}
	switch v.Type() {
	case "decimal_integer_literal", "hex_integer_literal", "octal_integer_literal", "binary_integer_literal":
		n, ok := parseInt(l.text(v))
		return int(n), ok && n > 0
	case "identifier", "field_access", "scoped_identifier":
		return l.versions.Level(compact(l.text(v)))
	}
	return 0, false
}

// stringValues collects string literals from a single value or an array
// initializer.
func (l *lowerer) stringValues(v *sitter.Node) []string {
	if v == nil {
		return nil
	}
	switch v.Type() {
	case "string_literal":
		return []string{strings.Trim(l.text(v), `"`)}
	case "element_value_array_initializer":
		var out []string
		for i := 0; i < int(v.NamedChildCount()); i++ {
			out = append(out, l.stringValues(v.NamedChild(i))...)
		}
		return out
	}
	return nil
}
