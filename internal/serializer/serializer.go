package serializer

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/visualjsx/studio/backend/internal/bridge"
)

// attributeRenames maps HTML attribute names to the prop names React
// expects where the two differ.
var attributeRenames = map[string]string{
	"class":    "className",
	"for":      "htmlFor",
	"tabindex": "tabIndex",
}

// voidTags can never contain children and always self-close.
var voidTags = map[string]bool{
	"area": true, "base": true, "br": true, "col": true,
	"embed": true, "hr": true, "img": true, "input": true,
	"link": true, "meta": true, "param": true, "source": true,
	"track": true, "wbr": true,
}

// booleanAttrs are HTML attributes whose DOM property is boolean-typed.
// An empty-valued occurrence of one of these is emitted bare.
var booleanAttrs = map[string]bool{
	"allowfullscreen": true, "async": true, "autofocus": true,
	"autoplay": true, "checked": true, "controls": true,
	"default": true, "defer": true, "disabled": true,
	"formnovalidate": true, "hidden": true, "inert": true,
	"ismap": true, "itemscope": true, "loop": true,
	"multiple": true, "muted": true, "nomodule": true,
	"novalidate": true, "open": true, "playsinline": true,
	"readonly": true, "required": true, "reversed": true,
	"selected": true,
}

const indentUnit = "  "

// Serialize reconstructs JSX source from an HTML fragment. Pure and
// restartable: the same fragment always yields byte-identical output.
func Serialize(fragment string) (string, error) {
	nodes, err := parseFragment(fragment)
	if err != nil {
		return "", fmt.Errorf("failed to parse markup: %w", err)
	}

	var parts []string
	for _, n := range nodes {
		if s := serializeNode(n, 0); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n"), nil
}

func parseFragment(fragment string) ([]*html.Node, error) {
	ctx := &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	}
	return html.ParseFragment(strings.NewReader(fragment), ctx)
}

func serializeNode(n *html.Node, depth int) string {
	indent := strings.Repeat(indentUnit, depth)

	switch n.Type {
	case html.TextNode:
		text := strings.TrimSpace(n.Data)
		if text == "" {
			return ""
		}
		return indent + text
	case html.ElementNode:
		// handled below
	default:
		// Comments, doctypes and the like do not round-trip.
		return ""
	}

	tag := strings.ToLower(n.Data)
	attrs := convertAttributes(n)

	var children []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if s := serializeNode(c, depth+1); s != "" {
			children = append(children, s)
		}
	}

	if len(children) == 0 && voidTags[tag] {
		return fmt.Sprintf("%s<%s%s />", indent, tag, attrs)
	}
	if len(children) == 0 {
		return fmt.Sprintf("%s<%s%s></%s>", indent, tag, attrs, tag)
	}
	return fmt.Sprintf("%s<%s%s>\n%s\n%s</%s>",
		indent, tag, attrs, strings.Join(children, "\n"), indent, tag)
}

// convertAttributes rebuilds the JSX attribute list for an element,
// excluding the identity attribute the surface stamps on elements.
func convertAttributes(n *html.Node) string {
	var attrs []string
	for _, attr := range n.Attr {
		name := strings.ToLower(attr.Key)
		if name == bridge.IdentityAttr {
			continue
		}
		if name == "style" {
			if styleProp := convertStyle(attr.Val); styleProp != "" {
				attrs = append(attrs, styleProp)
			}
			continue
		}

		propName := name
		if renamed, ok := attributeRenames[name]; ok {
			propName = renamed
		}
		if attr.Val == "" && booleanAttrs[name] {
			attrs = append(attrs, propName)
			continue
		}

		safe := strings.ReplaceAll(attr.Val, `"`, "&quot;")
		attrs = append(attrs, fmt.Sprintf(`%s="%s"`, propName, safe))
	}

	if len(attrs) == 0 {
		return ""
	}
	return " " + strings.Join(attrs, " ")
}

// convertStyle turns an inline CSS declaration list into a JSX style
// object literal, or "" when there are no declarations.
func convertStyle(styleValue string) string {
	var entries []string
	for _, decl := range strings.Split(styleValue, ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		prop, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		prop = strings.TrimSpace(prop)
		value = strings.TrimSpace(value)
		if prop == "" || value == "" {
			continue
		}
		entries = append(entries, fmt.Sprintf(`%s: "%s"`, CamelCase(prop), value))
	}

	if len(entries) == 0 {
		return ""
	}
	return fmt.Sprintf("style={{ %s }}", strings.Join(entries, ", "))
}

// CamelCase converts a kebab-case CSS property name to camelCase.
func CamelCase(prop string) string {
	parts := strings.Split(strings.TrimSpace(prop), "-")
	var b strings.Builder
	first := true
	for _, part := range parts {
		if part == "" {
			continue
		}
		if first {
			b.WriteString(strings.ToLower(part))
			first = false
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(strings.ToLower(part[1:]))
	}
	return b.String()
}
