package surface

import (
	"sort"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// ApplyMutation updates one element in place by identifier. A missing
// target is a silent drop: the element may simply not have survived the
// last re-render. Text is only applied to elements without element
// children, so nested markup can never be clobbered by a text edit.
// This operation never fails outward; the inspector's own model is the
// canonical state and the live preview is best-effort.
func (s *Surface) ApplyMutation(rid string, text *string, style map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := findByIdentifier(s.root, rid)
	if target == nil {
		if s.metrics != nil {
			s.metrics.MutationsDropped.Inc()
		}
		s.logger.Debug("Mutation target missing", zap.String("rid", rid))
		return
	}

	if text != nil && !hasElementChildren(target) {
		setTextContent(target, *text)
	}

	props := make([]string, 0, len(style))
	for prop := range style {
		props = append(props, prop)
	}
	sort.Strings(props)
	for _, prop := range props {
		setStyleProperty(target, prop, style[prop])
	}

	s.highlight(target)
	if s.metrics != nil {
		s.metrics.MutationsApplied.Inc()
	}
}

func hasElementChildren(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return true
		}
	}
	return false
}

// setTextContent replaces all children with a single text node.
func setTextContent(n *html.Node, text string) {
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}
