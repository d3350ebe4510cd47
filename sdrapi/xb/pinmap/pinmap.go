// Package pinmap holds the expansion-board GPIO header maps. The maps are
// kept as markdown tables (one document per board, schematic pin names to
// GPIO pin numbers) so they can be diffed against the board documentation,
// and parsed into lookup tables at first use.
package pinmap

import (
	"embed"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/iancoleman/strcase"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

//go:embed data/*.md
var dataFS embed.FS

// PinDef is one row of a board header map.
type PinDef struct {
	// Name is the schematic pin name, normalized to SCREAMING_SNAKE.
	Name string
	// Number is the 1-based expansion GPIO pin number.
	Number uint8
}

// Board is the parsed header map of one expansion board.
type Board struct {
	Name  string
	Title string
	pins  map[string]uint8
	order []PinDef
}

// Pins returns the board's pins in document order.
func (b Board) Pins() []PinDef {
	out := make([]PinDef, len(b.order))
	copy(out, b.order)
	return out
}

// Pin resolves a schematic pin name (any casing or separator) to its GPIO
// pin number.
func (b Board) Pin(name string) (uint8, bool) {
	num, ok := b.pins[normalize(name)]
	return num, ok
}

func normalize(name string) string {
	return strcase.ToScreamingSnake(strings.TrimSpace(name))
}

var (
	once   sync.Once
	boards map[string]Board
	bErr   error
)

// Lookup returns the header map of a board by name (e.g. "xb200").
func Lookup(name string) (Board, error) {
	once.Do(load)
	if bErr != nil {
		return Board{}, bErr
	}
	b, ok := boards[strings.ToLower(name)]
	if !ok {
		return Board{}, fmt.Errorf("unknown expansion board %q", name)
	}
	return b, nil
}

func load() {
	boards = make(map[string]Board)
	entries, err := dataFS.ReadDir("data")
	if err != nil {
		bErr = fmt.Errorf("failed to read pin map data: %w", err)
		return
	}
	for _, entry := range entries {
		src, err := dataFS.ReadFile("data/" + entry.Name())
		if err != nil {
			bErr = fmt.Errorf("failed to read %s: %w", entry.Name(), err)
			return
		}
		board, err := parseBoard(src)
		if err != nil {
			bErr = fmt.Errorf("failed to parse %s: %w", entry.Name(), err)
			return
		}
		boards[board.Name] = board
	}
}

func parseBoard(src []byte) (Board, error) {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			meta.Meta,
		),
	)
	ctx := parser.NewContext()
	doc := md.Parser().Parse(text.NewReader(src), parser.WithContext(ctx))

	metadata := meta.Get(ctx)
	name, _ := metadata["board"].(string)
	if name == "" {
		return Board{}, fmt.Errorf("missing board name in front matter")
	}
	title, _ := metadata["title"].(string)

	board := Board{
		Name:  strings.ToLower(name),
		Title: title,
		pins:  make(map[string]uint8),
	}

	var walkErr error
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		row, ok := n.(*east.TableRow)
		if !ok {
			return ast.WalkContinue, nil
		}
		cells := rowCells(row, src)
		if len(cells) < 2 {
			walkErr = fmt.Errorf("pin table row needs name and number, got %v", cells)
			return ast.WalkStop, nil
		}
		num, err := strconv.ParseUint(cells[1], 10, 8)
		if err != nil || num < 1 || num > 32 {
			walkErr = fmt.Errorf("invalid pin number %q for %s", cells[1], cells[0])
			return ast.WalkStop, nil
		}
		def := PinDef{Name: normalize(cells[0]), Number: uint8(num)}
		if _, dup := board.pins[def.Name]; dup {
			walkErr = fmt.Errorf("duplicate pin %s", def.Name)
			return ast.WalkStop, nil
		}
		board.pins[def.Name] = def.Number
		board.order = append(board.order, def)
		return ast.WalkSkipChildren, nil
	})
	if walkErr != nil {
		return Board{}, walkErr
	}
	if len(board.order) == 0 {
		return Board{}, fmt.Errorf("board %s defines no pins", board.Name)
	}
	return board, nil
}

func rowCells(row *east.TableRow, src []byte) []string {
	var cells []string
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		var sb strings.Builder
		ast.Walk(c, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
			if !entering {
				return ast.WalkContinue, nil
			}
			if t, ok := n.(*ast.Text); ok {
				sb.Write(t.Segment.Value(src))
			}
			return ast.WalkContinue, nil
		})
		cells = append(cells, strings.TrimSpace(sb.String()))
	}
	return cells
}
