package surface

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// declaration is one inline CSS property/value pair.
type declaration struct {
	Prop  string
	Value string
}

// parseInlineStyle splits an inline style attribute into declarations,
// preserving source order.
func parseInlineStyle(style string) []declaration {
	var decls []declaration
	for _, part := range strings.Split(style, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		prop, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		value = strings.TrimSpace(value)
		if prop == "" || value == "" {
			continue
		}
		decls = append(decls, declaration{Prop: prop, Value: value})
	}
	return decls
}

func renderInlineStyle(decls []declaration) string {
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		parts = append(parts, fmt.Sprintf("%s: %s", d.Prop, d.Value))
	}
	return strings.Join(parts, "; ")
}

// setStyleProperty updates or appends one declaration on an element's
// style attribute. The property name may be camelCase; unknown
// properties are written through untouched.
func setStyleProperty(n *html.Node, prop, value string) {
	prop = kebabCase(prop)
	decls := parseInlineStyle(getAttr(n, "style"))

	replaced := false
	for i := range decls {
		if decls[i].Prop == prop {
			decls[i].Value = value
			replaced = true
			break
		}
	}
	if !replaced {
		decls = append(decls, declaration{Prop: prop, Value: value})
	}
	setAttr(n, "style", renderInlineStyle(decls))
}

// styleValue returns the element's own inline value for a kebab-case
// property, or "".
func styleValue(n *html.Node, prop string) string {
	for _, d := range parseInlineStyle(getAttr(n, "style")) {
		if d.Prop == prop {
			return d.Value
		}
	}
	return ""
}

// kebabCase converts a camelCase CSS property name to kebab-case.
func kebabCase(prop string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(prop) {
		if unicode.IsUpper(r) {
			b.WriteByte('-')
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// cssPx parses a single pixel length ("12px", "12"). Anything else is 0.
func cssPx(v string) float64 {
	v = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "px"))
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

// edges resolves a box-edge shorthand (padding/margin) into
// top, right, bottom, left pixel values.
func edges(n *html.Node, prop string) (top, right, bottom, left float64) {
	fields := strings.Fields(styleValue(n, prop))
	switch len(fields) {
	case 1:
		v := cssPx(fields[0])
		return v, v, v, v
	case 2:
		tb, lr := cssPx(fields[0]), cssPx(fields[1])
		return tb, lr, tb, lr
	case 3:
		return cssPx(fields[0]), cssPx(fields[1]), cssPx(fields[2]), cssPx(fields[1])
	case 4:
		return cssPx(fields[0]), cssPx(fields[1]), cssPx(fields[2]), cssPx(fields[3])
	}
	return 0, 0, 0, 0
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
