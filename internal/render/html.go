// Package render turns task data and AI-generated HTML fragments into
// terminal output for the CLI.
package render

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type blockKind int

const (
	paragraph blockKind = iota
	heading
	item
)

type block struct {
	kind  blockKind
	depth int
	text  string
}

// collector flattens an HTML tree into headings, list items and paragraphs.
type collector struct {
	blocks []block
	buf    strings.Builder
	kind   blockKind
	depth  int
	lists  int
}

func (c *collector) flush() {
	text := strings.Join(strings.Fields(c.buf.String()), " ")
	c.buf.Reset()
	if text != "" {
		c.blocks = append(c.blocks, block{kind: c.kind, depth: c.depth, text: text})
	}
	c.kind, c.depth = paragraph, 0
}

func (c *collector) children(n *html.Node) {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.walk(child)
	}
}

func (c *collector) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		c.buf.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Head:
			return
		case atom.Br:
			c.flush()
			return
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			c.flush()
			c.kind = heading
			c.children(n)
			c.flush()
			return
		case atom.Li:
			c.flush()
			c.kind = item
			c.depth = max(c.lists-1, 0)
			c.children(n)
			c.flush()
			return
		case atom.Ul, atom.Ol:
			c.flush()
			c.lists++
			c.children(n)
			c.lists--
			c.flush()
			return
		case atom.P, atom.Div, atom.Section, atom.Table, atom.Tr, atom.Blockquote, atom.Pre:
			c.flush()
			c.children(n)
			c.flush()
			return
		}
	}
	c.children(n)
}

func parseBlocks(fragment string) ([]block, error) {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return nil, err
	}
	var c collector
	c.walk(doc)
	c.flush()
	return c.blocks, nil
}

func format(blocks []block, headingFn, bulletFn func(string) string) string {
	var b strings.Builder
	for i, bl := range blocks {
		switch bl.kind {
		case heading:
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(headingFn(bl.text))
		case item:
			b.WriteString(strings.Repeat("  ", bl.depth+1))
			b.WriteString(bulletFn("•"))
			b.WriteString(" ")
			b.WriteString(bl.text)
		default:
			b.WriteString(bl.text)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func plain(s string) string { return s }

// HTMLToText renders an execution or daily plan as plain text: headings on
// their own line, list items as indented bullets. Bare text without block
// elements collapses into a single paragraph.
func HTMLToText(fragment string) string {
	blocks, err := parseBlocks(fragment)
	if err != nil {
		return fragment
	}
	return format(blocks, plain, plain)
}

// Plan is HTMLToText with terminal styling.
func Plan(fragment string) string {
	blocks, err := parseBlocks(fragment)
	if err != nil {
		return fragment
	}
	return format(blocks,
		func(s string) string { return HeadingStyle.Render(s) },
		func(s string) string { return BulletStyle.Render(s) })
}
