package workspace

// Element is a minimal DOM-like node. Items render into one; overlays
// such as the pin header own a child element inside it.
type Element struct {
	Tag   string
	Class string

	text     string
	hidden   bool
	attrs    map[string]string
	parent   *Element
	children []*Element
	onClick  func()
}

// NewElement creates a detached element.
func NewElement(tag, class string) *Element {
	return &Element{Tag: tag, Class: class, attrs: map[string]string{}}
}

// CreateChild appends a new child element and returns it.
func (e *Element) CreateChild(tag, class string) *Element {
	child := NewElement(tag, class)
	e.Append(child)
	return child
}

// Append attaches child as the last child of e.
func (e *Element) Append(child *Element) {
	child.Remove()
	child.parent = e
	e.children = append(e.children, child)
}

// Remove detaches e from its parent. Removing a detached element is a no-op.
func (e *Element) Remove() {
	if e.parent == nil {
		return
	}
	siblings := e.parent.children
	for i, c := range siblings {
		if c == e {
			e.parent.children = append(siblings[:i:i], siblings[i+1:]...)
			break
		}
	}
	e.parent = nil
}

// Parent returns the element e is attached to, or nil.
func (e *Element) Parent() *Element { return e.parent }

// Children returns a copy of e's children.
func (e *Element) Children() []*Element {
	out := make([]*Element, len(e.children))
	copy(out, e.children)
	return out
}

// Find returns the first descendant (depth-first) with class, or nil.
func (e *Element) Find(class string) *Element {
	for _, c := range e.children {
		if c.Class == class {
			return c
		}
		if found := c.Find(class); found != nil {
			return found
		}
	}
	return nil
}

func (e *Element) Text() string         { return e.text }
func (e *Element) SetText(s string)     { e.text = s }
func (e *Element) Hidden() bool         { return e.hidden }
func (e *Element) SetHidden(h bool)     { e.hidden = h }
func (e *Element) Attr(k string) string { return e.attrs[k] }

// SetAttr sets an attribute value.
func (e *Element) SetAttr(k, v string) { e.attrs[k] = v }

// OnClick installs the click handler, replacing any previous one.
func (e *Element) OnClick(fn func()) { e.onClick = fn }

// Click invokes the click handler if one is installed.
func (e *Element) Click() {
	if e.onClick != nil {
		e.onClick()
	}
}
