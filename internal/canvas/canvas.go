// Package canvas reads and writes JSON Canvas files (.canvas) and computes
// the pinned carryover between daily canvases.
package canvas

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
)

// Ext is the file extension of canvas resources.
const Ext = ".canvas"

// KeyLayout is the time layout of daily rotation keys.
const KeyLayout = "2006-01-02"

// Node kinds defined by the JSON Canvas format.
const (
	KindText  = "text"
	KindFile  = "file"
	KindLink  = "link"
	KindGroup = "group"
)

// Node is one item of a canvas file. Keys this package does not model are
// kept in Extra and written back unchanged.
type Node struct {
	ID              string  `json:"id"`
	Type            string  `json:"type"`
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
	Width           float64 `json:"width"`
	Height          float64 `json:"height"`
	Color           string  `json:"color,omitempty"`
	Text            string  `json:"text,omitempty"`
	File            string  `json:"file,omitempty"`
	Subpath         string  `json:"subpath,omitempty"`
	URL             string  `json:"url,omitempty"`
	Label           string  `json:"label,omitempty"`
	Background      string  `json:"background,omitempty"`
	BackgroundStyle string  `json:"backgroundStyle,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// nodeKeys are the keys decoded into Node's named fields.
var nodeKeys = []string{
	"id", "type", "x", "y", "width", "height", "color", "text",
	"file", "subpath", "url", "label", "background", "backgroundStyle",
}

type plainNode Node

// UnmarshalJSON decodes the modeled fields and keeps every other key raw.
func (n *Node) UnmarshalJSON(raw []byte) error {
	var p plainNode
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(raw, &all); err != nil {
		return err
	}
	for _, k := range nodeKeys {
		delete(all, k)
	}
	if len(all) > 0 {
		p.Extra = all
	}
	*n = Node(p)
	return nil
}

// MarshalJSON writes the modeled fields followed by Extra in key order.
func (n Node) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(plainNode(n))
	if err != nil || len(n.Extra) == 0 {
		return base, err
	}
	known := make(map[string]bool, len(nodeKeys))
	for _, k := range nodeKeys {
		known[k] = true
	}
	keys := make([]string, 0, len(n.Extra))
	for k := range n.Extra {
		if !known[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.Write(base[:len(base)-1])
	for _, k := range keys {
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(n.Extra[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Data is the serialized content of a canvas: items plus opaque edges.
type Data struct {
	Nodes []Node            `json:"nodes"`
	Edges []json.RawMessage `json:"edges"`
}

// Parse decodes canvas file content. Empty or whitespace-only content is
// an empty canvas, matching what the host writes for a fresh file.
func Parse(raw []byte) (*Data, error) {
	d := &Data{}
	if len(bytes.TrimSpace(raw)) == 0 {
		d.normalize()
		return d, nil
	}
	if err := json.Unmarshal(raw, d); err != nil {
		return nil, fmt.Errorf("canvas: parse: %w", err)
	}
	d.normalize()
	return d, nil
}

// Marshal encodes d the way the host application formats canvas files.
func Marshal(d *Data) ([]byte, error) {
	if d == nil {
		d = &Data{}
	}
	d.normalize()
	out, err := json.MarshalIndent(d, "", "\t")
	if err != nil {
		return nil, fmt.Errorf("canvas: marshal: %w", err)
	}
	return out, nil
}

func (d *Data) normalize() {
	if d.Nodes == nil {
		d.Nodes = []Node{}
	}
	if d.Edges == nil {
		d.Edges = []json.RawMessage{}
	}
}

// Carryover returns a new canvas holding the nodes of prior whose id is
// pinned, in prior's order. Edges are never carried. Pinned ids that no
// longer exist in prior are skipped.
func Carryover(prior *Data, pinned func(id string) bool) *Data {
	out := &Data{Nodes: []Node{}, Edges: []json.RawMessage{}}
	if prior == nil {
		return out
	}
	for _, n := range prior.Nodes {
		if pinned(n.ID) {
			out.Nodes = append(out.Nodes, n)
		}
	}
	return out
}

// KeyFromPath returns the rotation key a canvas path encodes: its base name
// without extension ("daily-canvas/2024-01-02.canvas" -> "2024-01-02").
func KeyFromPath(p string) string {
	return strings.TrimSuffix(path.Base(p), Ext)
}

// PathFor returns the canvas path for key inside folder.
func PathFor(folder, key string) string {
	return path.Join(folder, key+Ext)
}
