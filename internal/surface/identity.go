package surface

import (
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/oklog/ulid/v2"
	"golang.org/x/net/html"

	"github.com/visualjsx/studio/backend/internal/bridge"
)

// EnsureIdentifier returns the element's assigned identifier, minting
// and attaching one on first use. Idempotent: repeated calls on the
// same element return the same value. Identifiers live only as long as
// the rendered instance; a re-render mints fresh ones.
func EnsureIdentifier(n *html.Node) string {
	if id := getAttr(n, bridge.IdentityAttr); id != "" {
		return id
	}
	id := "rid_" + strings.ToLower(ulid.Make().String())
	setAttr(n, bridge.IdentityAttr, id)
	return id
}

// findByIdentifier locates an element by its assigned identifier, or
// nil when no such element survives in the current render.
func findByIdentifier(root *html.Node, id string) *html.Node {
	// Identifiers are ULID-derived; anything else cannot match and must
	// not reach the XPath expression.
	if strings.ContainsAny(id, `'"[]`) {
		return nil
	}
	return htmlquery.FindOne(root, fmt.Sprintf("//*[@%s='%s']", bridge.IdentityAttr, id))
}
