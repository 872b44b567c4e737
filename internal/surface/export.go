package surface

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/visualjsx/studio/backend/internal/bridge"
)

// ExportHTML returns the current markup stripped of identity attributes
// and sanitized, suitable for serving outside the editor.
func (s *Surface) ExportHTML() (string, error) {
	inner, err := s.InnerHTML()
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(inner))
	if err != nil {
		return "", fmt.Errorf("failed to parse markup for export: %w", err)
	}
	doc.Find("[" + bridge.IdentityAttr + "]").RemoveAttr(bridge.IdentityAttr)

	body, err := doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("failed to re-render markup: %w", err)
	}
	return s.sanitizer.Sanitize(body), nil
}
