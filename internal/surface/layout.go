package surface

import (
	"math"
	"strings"

	"golang.org/x/net/html"
)

// Layout constants for the headless box model. The surface has no real
// renderer, so geometry is an estimate: blocks stack vertically, text
// wraps at a fixed glyph width.
const (
	lineHeight = 20.0
	glyphWidth = 8.0
)

// Rect is an element's estimated bounding box in surface coordinates.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"width"`
	H float64 `json:"height"`
}

// Contains reports whether the point lies inside the rect.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// layoutPass computes bounding boxes for every element under root.
type layoutPass struct {
	rects  map[*html.Node]Rect
	depths map[*html.Node]int
}

// layout runs a block-stacking pass over the subtree.
func layout(root *html.Node, width float64) *layoutPass {
	p := &layoutPass{
		rects:  make(map[*html.Node]Rect),
		depths: make(map[*html.Node]int),
	}
	p.place(root, 0, 0, width, 0)
	return p
}

// place positions one element at (x, y) within the given outer width and
// returns the total vertical space it consumes, margins included.
func (p *layoutPass) place(n *html.Node, x, y, width float64, depth int) float64 {
	mTop, mRight, mBottom, mLeft := edges(n, "margin")
	pTop, pRight, pBottom, pLeft := edges(n, "padding")

	boxX := x + mLeft
	boxY := y + mTop
	boxW := math.Max(width-mLeft-mRight, 0)

	innerX := boxX + pLeft
	innerW := math.Max(boxW-pLeft-pRight, 0)
	cursor := boxY + pTop

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.ElementNode:
			cursor += p.place(c, innerX, cursor, innerW, depth+1)
		case html.TextNode:
			if text := strings.TrimSpace(c.Data); text != "" {
				cursor += textHeight(text, innerW)
			}
		}
	}

	boxH := cursor - boxY + pBottom
	p.rects[n] = Rect{X: boxX, Y: boxY, W: boxW, H: boxH}
	p.depths[n] = depth
	return mTop + boxH + mBottom
}

// textHeight estimates wrapped text height for the available width.
func textHeight(text string, width float64) float64 {
	perLine := math.Max(math.Floor(width/glyphWidth), 1)
	lines := math.Ceil(float64(len(text)) / perLine)
	if lines < 1 {
		lines = 1
	}
	return lines * lineHeight
}

// rectOf returns the computed rect for a node.
func (p *layoutPass) rectOf(n *html.Node) (Rect, bool) {
	r, ok := p.rects[n]
	return r, ok
}

// hitTest returns the deepest element whose box contains the point.
func (p *layoutPass) hitTest(x, y float64) *html.Node {
	var best *html.Node
	bestDepth := -1
	for n, r := range p.rects {
		if !r.Contains(x, y) {
			continue
		}
		if d := p.depths[n]; d > bestDepth {
			best = n
			bestDepth = d
		}
	}
	return best
}
