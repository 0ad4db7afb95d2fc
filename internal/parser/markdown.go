package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/bestiary/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
	xhtml "golang.org/x/net/html"
)

// MarkdownParser handles statblocks transcribed as Markdown. Hard line
// breaks become <br> so that one field per line matches the HTML layout,
// and inline HTML (<sup>, <s>) passes through untouched.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, identity string) (*doctree.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}

	md := goldmark.New(goldmark.WithRendererOptions(
		html.WithHardWraps(),
		html.WithUnsafe(),
	))
	var buf bytes.Buffer
	if err := md.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	doc, err := xhtml.Parse(strings.NewReader(Clean(buf.String())))
	if err != nil {
		return nil, fmt.Errorf("parse rendered markdown: %w", err)
	}
	return &doctree.Document{
		Identity: identity,
		Nodes:    Linearize(contentRoot(doc)),
	}, nil
}
