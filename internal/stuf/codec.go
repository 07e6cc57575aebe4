// Package stuf converts SOAP/StUF XML to and from the generic message tree.
package stuf

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/beevik/etree"

	"simtax-adapter/internal/msgtree"
)

// ContentType is sent with every SOAP response.
const ContentType = "application/soap+xml"

// Namespaces declared on response envelopes.
const (
	NamespaceSOAP = "http://schemas.xmlsoap.org/soap/envelope/"
	NamespaceStUF = "http://www.egem.nl/StUF/StUF0301"
	NamespaceBG   = "http://www.egem.nl/StUF/sector/bg/0310"
)

// ErrEmptyDocument is returned when the body holds no root element.
var ErrEmptyDocument = errors.New("stuf: document has no root element")

// KV is one entry of an Ordered node.
type KV struct {
	Key   string
	Value any
}

// Ordered is a node whose children must be written in a fixed order.
// StUF schemas are sequence based, so stuurgegevens must precede body.
type Ordered []KV

// Decode parses an XML document into a tree keyed by qualified tag names.
//
// An element with only text becomes a string. Attributes become "@name"
// keys and the text of an element with attributes or children goes under
// "#". Repeated sibling tags become a sequence in document order.
func Decode(data []byte) (msgtree.Tree, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("stuf: parse xml: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, ErrEmptyDocument
	}
	return msgtree.Tree{root.FullTag(): decodeElement(root)}, nil
}

func decodeElement(el *etree.Element) any {
	attrs := make([]etree.Attr, 0, len(el.Attr))
	for _, a := range el.Attr {
		if a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns") {
			continue
		}
		attrs = append(attrs, a)
	}
	children := el.ChildElements()
	text := el.Text()

	if len(children) == 0 && len(attrs) == 0 {
		return text
	}

	node := make(map[string]any, len(children)+len(attrs)+1)
	for _, a := range attrs {
		node[msgtree.AttrPrefix+a.FullKey()] = a.Value
	}
	for _, child := range children {
		key := child.FullTag()
		val := decodeElement(child)
		switch prev := node[key].(type) {
		case nil:
			node[key] = val
		case []any:
			node[key] = append(prev, val)
		default:
			node[key] = []any{prev, val}
		}
	}
	if strings.TrimSpace(text) != "" {
		node[msgtree.TextKey] = text
	}
	return node
}

// EncodeEnvelope wraps content in a SOAP envelope and serializes it.
// Nil and empty string values are left out.
func EncodeEnvelope(content any) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	env := doc.CreateElement("SOAP-ENV:Envelope")
	env.CreateAttr("xmlns:SOAP-ENV", NamespaceSOAP)
	env.CreateAttr("xmlns:ns1", NamespaceStUF)
	env.CreateAttr("xmlns:ns2", NamespaceBG)

	body := env.CreateElement("SOAP-ENV:Body")
	if err := encodeChildren(body, content); err != nil {
		return nil, err
	}

	doc.Indent(2)
	return doc.WriteToBytes()
}

func encodeChildren(parent *etree.Element, content any) error {
	switch c := content.(type) {
	case nil:
		return nil
	case Ordered:
		for _, kv := range c {
			if err := encodeValue(parent, kv.Key, kv.Value); err != nil {
				return err
			}
		}
	case map[string]any:
		return encodeChildren(parent, sortedNode(c))
	case msgtree.Tree:
		return encodeChildren(parent, sortedNode(c))
	default:
		parent.SetText(scalar(c))
	}
	return nil
}

func encodeValue(parent *etree.Element, key string, value any) error {
	if value == nil {
		return nil
	}
	switch {
	case key == msgtree.TextKey:
		parent.SetText(scalar(value))
		return nil
	case strings.HasPrefix(key, msgtree.AttrPrefix):
		parent.CreateAttr(strings.TrimPrefix(key, msgtree.AttrPrefix), scalar(value))
		return nil
	}

	switch v := value.(type) {
	case []any:
		for _, item := range v {
			if err := encodeValue(parent, key, item); err != nil {
				return err
			}
		}
		return nil
	case []Ordered:
		for _, item := range v {
			if err := encodeValue(parent, key, item); err != nil {
				return err
			}
		}
		return nil
	case []string:
		for _, item := range v {
			if err := encodeValue(parent, key, item); err != nil {
				return err
			}
		}
		return nil
	case string:
		if v == "" {
			return nil
		}
	}

	if key == "" {
		return fmt.Errorf("stuf: empty element name")
	}
	return encodeChildren(parent.CreateElement(key), value)
}

// sortedNode orders attributes first, then elements by name, then text.
func sortedNode(m map[string]any) Ordered {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, rj := keyRank(keys[i]), keyRank(keys[j])
		if ri != rj {
			return ri < rj
		}
		return keys[i] < keys[j]
	})
	out := make(Ordered, 0, len(keys))
	for _, k := range keys {
		out = append(out, KV{Key: k, Value: m[k]})
	}
	return out
}

func keyRank(k string) int {
	switch {
	case strings.HasPrefix(k, msgtree.AttrPrefix):
		return 0
	case k == msgtree.TextKey:
		return 2
	default:
		return 1
	}
}

func scalar(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		if x {
			return "J"
		}
		return "N"
	default:
		return fmt.Sprint(x)
	}
}
