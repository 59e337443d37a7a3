package schema

// SubTreeTag is the element that embeds another tree by ID.
const SubTreeTag = "SubTree"

// Reserved attribute names. They are never bound to ports.
const (
	AttrName = "name"
	AttrID   = "ID"
)

// Attribute is a single element attribute, kept as raw text.
type Attribute struct {
	Name  string
	Value string
}

// Element is one node declaration in a tree.
type Element struct {
	Tag        string
	Attributes []Attribute
	Children   []*Element
	Line       int
}

// Attr returns the value of the attribute name.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attributes {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Name returns the instance name, falling back to the tag.
func (e *Element) Name() string {
	if n, ok := e.Attr(AttrName); ok && n != "" {
		return n
	}
	return e.Tag
}

// IsSubTree reports whether e references another tree.
func (e *Element) IsSubTree() bool { return e.Tag == SubTreeTag }

// PortAttributes returns the attributes that bind ports.
func (e *Element) PortAttributes() map[string]string {
	out := make(map[string]string, len(e.Attributes))
	for _, a := range e.Attributes {
		if a.Name == AttrName || (e.IsSubTree() && a.Name == AttrID) {
			continue
		}
		out[a.Name] = a.Value
	}
	return out
}

// Tree is a named tree definition.
type Tree struct {
	ID   string
	Root *Element
	Line int
}

// Document is a parsed tree description.
type Document struct {
	// MainTreeID is the tree to run when none is named explicitly. Empty
	// when the document does not declare one.
	MainTreeID string
	Trees      []*Tree
}

// Tree returns the tree with the given ID.
func (d *Document) Tree(id string) (*Tree, bool) {
	for _, t := range d.Trees {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}

// TreeIDs returns tree IDs in document order.
func (d *Document) TreeIDs() []string {
	ids := make([]string, len(d.Trees))
	for i, t := range d.Trees {
		ids[i] = t.ID
	}
	return ids
}
