// Package render maps page state to a display tree and writes it as HTML.
package render

import (
	"bufio"
	"fmt"
	"html/template"
	"io"
	"regexp"
	"sort"
	"strings"
)

// Node is one element of the display tree
type Node struct {
	Tag      string            `json:"tag"`
	Class    string            `json:"class,omitempty"`
	Text     string            `json:"text,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Children []Node            `json:"children,omitempty"`
}

// El builds an element with children
func El(tag, class string, children ...Node) Node {
	return Node{Tag: tag, Class: class, Children: children}
}

// Text builds an element holding only text
func Text(tag, class, text string) Node {
	return Node{Tag: tag, Class: class, Text: text}
}

// Attr returns a copy of n with the attribute set
func (n Node) Attr(key, value string) Node {
	attrs := make(map[string]string, len(n.Attrs)+1)
	for k, v := range n.Attrs {
		attrs[k] = v
	}
	attrs[key] = value
	n.Attrs = attrs
	return n
}

// AddClass appends class when cond holds
func (n Node) AddClass(class string, cond bool) Node {
	if !cond {
		return n
	}
	if n.Class == "" {
		n.Class = class
	} else {
		n.Class += " " + class
	}
	return n
}

// HasClass reports whether the class list contains class
func (n Node) HasClass(class string) bool {
	for _, c := range strings.Fields(n.Class) {
		if c == class {
			return true
		}
	}
	return false
}

// Find returns the first node in depth-first order carrying class
func (n Node) Find(class string) (Node, bool) {
	if n.HasClass(class) {
		return n, true
	}
	for _, c := range n.Children {
		if found, ok := c.Find(class); ok {
			return found, true
		}
	}
	return Node{}, false
}

// FindAll returns every node carrying class
func (n Node) FindAll(class string) []Node {
	var out []Node
	if n.HasClass(class) {
		out = append(out, n)
	}
	for _, c := range n.Children {
		out = append(out, c.FindAll(class)...)
	}
	return out
}

var (
	validName    = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)
	voidElements = map[string]bool{"img": true, "input": true, "br": true, "hr": true, "meta": true, "link": true}
)

// HTML writes the tree as markup. Text and attribute values are escaped;
// tag and attribute names must be lowercase identifiers.
func HTML(w io.Writer, n Node) error {
	bw := bufio.NewWriter(w)
	if err := writeNode(bw, n); err != nil {
		return err
	}
	return bw.Flush()
}

// Markup renders the tree for embedding in an html/template document
func Markup(n Node) (template.HTML, error) {
	var sb strings.Builder
	if err := HTML(&sb, n); err != nil {
		return "", err
	}
	return template.HTML(sb.String()), nil
}

func writeNode(w *bufio.Writer, n Node) error {
	if !validName.MatchString(n.Tag) {
		return fmt.Errorf("invalid tag name %q", n.Tag)
	}

	w.WriteString("<" + n.Tag)
	if n.Class != "" {
		w.WriteString(` class="` + template.HTMLEscapeString(n.Class) + `"`)
	}

	keys := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !validName.MatchString(k) || strings.HasPrefix(k, "on") {
			return fmt.Errorf("invalid attribute name %q on <%s>", k, n.Tag)
		}
		w.WriteString(" " + k + `="` + template.HTMLEscapeString(n.Attrs[k]) + `"`)
	}
	w.WriteString(">")

	if voidElements[n.Tag] {
		return nil
	}

	w.WriteString(template.HTMLEscapeString(n.Text))
	for _, c := range n.Children {
		if err := writeNode(w, c); err != nil {
			return err
		}
	}
	_, err := w.WriteString("</" + n.Tag + ">")
	return err
}
