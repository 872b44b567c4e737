package surface

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/visualjsx/studio/backend/internal/bridge"
)

// Defaults mirror browser computed-style values for an unstyled element.
var computedDefaults = map[string]string{
	"color":            "rgb(0, 0, 0)",
	"background-color": "rgba(0, 0, 0, 0)",
	"font-size":        "16px",
	"font-weight":      "400",
	"padding":          "0px",
	"margin":           "0px",
}

// Text styling resolves through ancestors, box properties do not.
var inheritedProps = map[string]bool{
	"color":       true,
	"font-size":   true,
	"font-weight": true,
}

// Click handles a pointer interaction at surface coordinates: the
// deepest element under the point gets an identifier, its resolved
// snapshot goes out as exactly one select event, and the highlight
// overlay moves to its bounding box.
func (s *Surface) Click(x, y float64) *bridge.SelectEvent {
	s.mu.Lock()

	pass := layout(s.root, float64(s.cfg.Width))
	target := pass.hitTest(x, y)
	if target == nil || target == s.root {
		s.mu.Unlock()
		return nil
	}

	rid := EnsureIdentifier(target)
	ev := &bridge.SelectEvent{
		Type:            bridge.TypeSelect,
		Surface:         s.cfg.ID,
		RID:             rid,
		Tag:             strings.ToLower(target.Data),
		Text:            textContent(target),
		Color:           s.computedStyle(target, "color"),
		FontSize:        s.computedStyle(target, "font-size"),
		BackgroundColor: s.computedStyle(target, "background-color"),
		FontWeight:      s.computedStyle(target, "font-weight"),
		Padding:         s.computedStyle(target, "padding"),
		Margin:          s.computedStyle(target, "margin"),
	}

	if r, ok := pass.rectOf(target); ok {
		s.overlay = r
		s.overlayVisible = true
	}
	s.mu.Unlock()

	s.emit(ev)
	return ev
}

// computedStyle resolves one property: own inline value first, then
// ancestors for inheritable properties, then the browser default.
func (s *Surface) computedStyle(n *html.Node, prop string) string {
	if v := styleValue(n, prop); v != "" {
		return v
	}
	if inheritedProps[prop] {
		for p := n.Parent; p != nil; p = p.Parent {
			if p.Type != html.ElementNode {
				break
			}
			if v := styleValue(p, prop); v != "" {
				return v
			}
		}
	}
	return computedDefaults[prop]
}

// textContent concatenates all descendant text, unmodified.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
