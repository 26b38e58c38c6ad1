// Package javasrc parses Java source with tree-sitter and lowers it into the
// arena tree the guard analysis and detectors work on.
package javasrc

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"apiguard/internal/sdk"
	"apiguard/internal/tree"
)

// javaParserPool holds reusable tree-sitter parsers; a sitter.Parser is
// not safe for concurrent use.
var javaParserPool = sync.Pool{
	New: func() interface{} {
		parser := sitter.NewParser()
		parser.SetLanguage(java.GetLanguage())
		return parser
	},
}

// File is one parsed compilation unit.
type File struct {
	Path   string
	Source []byte
	Tree   *tree.Tree

	// HasErrors is set when tree-sitter had to recover from syntax errors.
	HasErrors bool

	lineStarts []int
}

// Parser lowers Java files. Version-code names in annotations are resolved
// through its table.
type Parser struct {
	versions *sdk.Table
}

// NewParser creates a parser resolving annotation levels through versions,
// or the default table when versions is nil.
func NewParser(versions *sdk.Table) *Parser {
	if versions == nil {
		versions = sdk.Default()
	}
	return &Parser{versions: versions}
}

// Parse parses src with the default version table.
func Parse(ctx context.Context, path string, src []byte) (*File, error) {
	return NewParser(nil).Parse(ctx, path, src)
}

// ParseFile reads and parses the file at path.
func (p *Parser) ParseFile(ctx context.Context, path string) (*File, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return p.Parse(ctx, path, src)
}

// Parse parses src and lowers it.
func (p *Parser) Parse(ctx context.Context, path string, src []byte) (*File, error) {
	parser := javaParserPool.Get().(*sitter.Parser)
	defer javaParserPool.Put(parser)

	st, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if st == nil {
		return nil, fmt.Errorf("parsing %s failed", path)
	}
	defer st.Close()

	root := st.RootNode()
	l := newLowerer(src, p.versions)
	id := l.file(root)
	l.resolve()

	return &File{
		Path:       path,
		Source:     src,
		Tree:       l.b.Build(id),
		HasErrors:  root.HasError() || l.errors,
		lineStarts: lineStarts(src),
	}, nil
}

func lineStarts(src []byte) []int {
	starts := []int{0}
	for i, c := range src {
		if c == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// NodeAt returns the innermost node covering line:col, both 1-based. With
// col 0 it returns the first statement that starts on line.
func (f *File) NodeAt(line, col int) tree.NodeID {
	t := f.Tree
	if col <= 0 {
		found := tree.NoNode
		t.Walk(t.Root(), func(id tree.NodeID) bool {
			if found.IsValid() {
				return false
			}
			n := t.Node(id)
			if n.Pos.Line > line || n.End.Line < line {
				return false
			}
			if n.Kind.IsStatement() && n.Kind != tree.KindBlock && n.Pos.Line == line {
				found = id
				return false
			}
			return true
		})
		return found
	}

	at := tree.Pos{Line: line, Column: col}
	found := tree.NoNode
	t.Walk(t.Root(), func(id tree.NodeID) bool {
		n := t.Node(id)
		if at.Before(n.Pos) || !at.Before(n.End) {
			return false
		}
		found = id
		return true
	})
	return found
}

// Line returns the text of a 1-based line without its terminator.
func (f *File) Line(n int) string {
	if n < 1 || n > len(f.lineStarts) {
		return ""
	}
	start := f.lineStarts[n-1]
	end := len(f.Source)
	if n < len(f.lineStarts) {
		end = f.lineStarts[n] - 1
	}
	return string(bytes.TrimRight(f.Source[start:end], "\r"))
}

// Text returns the source text of id.
func (f *File) Text(id tree.NodeID) string {
	n := f.Tree.Node(id)
	if n == nil {
		return ""
	}
	start, end := f.offset(n.Pos), f.offset(n.End)
	if start < 0 || end < start {
		return ""
	}
	return string(f.Source[start:end])
}

func (f *File) offset(p tree.Pos) int {
	if p.Line < 1 || p.Line > len(f.lineStarts) {
		return -1
	}
	off := f.lineStarts[p.Line-1] + p.Column - 1
	if off > len(f.Source) {
		return len(f.Source)
	}
	return off
}
