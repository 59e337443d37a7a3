package compiler

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/schema"
)

const (
	tagRoot       = "root"
	tagTree       = "BehaviorTree"
	tagNodesModel = "TreeNodesModel"
	attrMainTree  = "main_tree_to_execute"
)

// Parser converts tree documents into schema.Document values. It checks
// structure only; references to node types and trees are resolved later.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

type decoder struct {
	*xml.Decoder
}

func (d decoder) line() int {
	line, _ := d.InputPos()
	return line
}

func (d decoder) errorf(format string, args ...any) error {
	return &domain.ParseError{Line: d.line(), Msg: fmt.Sprintf(format, args...)}
}

// next returns the next start or end element, skipping comments, processing
// instructions and whitespace. Non-blank text is an error.
func (d decoder) next() (xml.Token, error) {
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, d.wrap(err)
		}
		switch t := tok.(type) {
		case xml.StartElement, xml.EndElement:
			return t, nil
		case xml.CharData:
			if text := strings.TrimSpace(string(t)); text != "" {
				return nil, d.errorf("unexpected text %q", text)
			}
		}
	}
}

func (d decoder) wrap(err error) error {
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		return &domain.ParseError{Line: se.Line, Msg: se.Msg}
	}
	if errors.Is(err, io.EOF) {
		return d.errorf("unexpected end of document")
	}
	return &domain.ParseError{Line: d.line(), Cause: err}
}

// Parse reads a document of the form
//
//	<root main_tree_to_execute="main">
//	  <BehaviorTree ID="main"> ...one root element... </BehaviorTree>
//	</root>
func (p *Parser) Parse(data []byte) (*schema.Document, error) {
	d := decoder{xml.NewDecoder(bytes.NewReader(data))}

	var start xml.StartElement
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			return nil, &domain.ParseError{Msg: "missing <root> element"}
		}
		if err != nil {
			return nil, d.wrap(err)
		}
		if s, ok := tok.(xml.StartElement); ok {
			start = s
			break
		}
	}
	if start.Name.Local != tagRoot {
		return nil, d.errorf("document element is <%s>, want <%s>", start.Name.Local, tagRoot)
	}

	doc := &schema.Document{}
	for _, a := range start.Attr {
		if a.Name.Local == attrMainTree {
			doc.MainTreeID = a.Value
		}
	}

	for {
		tok, err := d.next()
		if err != nil {
			return nil, err
		}
		if _, ok := tok.(xml.EndElement); ok {
			break
		}
		s := tok.(xml.StartElement)
		switch s.Name.Local {
		case tagTree:
			tree, err := d.tree(s)
			if err != nil {
				return nil, err
			}
			if _, dup := doc.Tree(tree.ID); dup {
				return nil, &domain.ParseError{Line: tree.Line, Msg: fmt.Sprintf("tree %q", tree.ID), Cause: domain.ErrDuplicateTree}
			}
			doc.Trees = append(doc.Trees, tree)
		case tagNodesModel:
			if err := d.Skip(); err != nil {
				return nil, d.wrap(err)
			}
		default:
			return nil, d.errorf("unexpected <%s> in <%s>", s.Name.Local, tagRoot)
		}
	}

	if len(doc.Trees) == 0 {
		return nil, &domain.ParseError{Msg: "document declares no <BehaviorTree>"}
	}
	if doc.MainTreeID != "" {
		if _, ok := doc.Tree(doc.MainTreeID); !ok {
			return nil, &domain.ParseError{Msg: fmt.Sprintf("%s=%q", attrMainTree, doc.MainTreeID), Cause: domain.ErrUnknownSubTree}
		}
	}
	return doc, nil
}

func (d decoder) tree(start xml.StartElement) (*schema.Tree, error) {
	tree := &schema.Tree{Line: d.line()}
	for _, a := range start.Attr {
		if a.Name.Local == schema.AttrID {
			tree.ID = a.Value
		}
	}
	if tree.ID == "" {
		return nil, d.errorf("<%s> without %s", tagTree, schema.AttrID)
	}

	for {
		tok, err := d.next()
		if err != nil {
			return nil, err
		}
		if _, ok := tok.(xml.EndElement); ok {
			break
		}
		if tree.Root != nil {
			return nil, d.errorf("tree %q has more than one root element", tree.ID)
		}
		if tree.Root, err = d.element(tok.(xml.StartElement)); err != nil {
			return nil, err
		}
	}
	if tree.Root == nil {
		return nil, &domain.ParseError{Line: tree.Line, Msg: fmt.Sprintf("tree %q is empty", tree.ID)}
	}
	return tree, nil
}

func (d decoder) element(start xml.StartElement) (*schema.Element, error) {
	e := &schema.Element{Tag: start.Name.Local, Line: d.line()}
	for _, a := range start.Attr {
		e.Attributes = append(e.Attributes, schema.Attribute{Name: a.Name.Local, Value: a.Value})
	}
	for {
		tok, err := d.next()
		if err != nil {
			return nil, err
		}
		if _, ok := tok.(xml.EndElement); ok {
			return e, nil
		}
		child, err := d.element(tok.(xml.StartElement))
		if err != nil {
			return nil, err
		}
		e.Children = append(e.Children, child)
	}
}
