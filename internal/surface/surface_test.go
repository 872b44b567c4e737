package surface

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/visualjsx/studio/backend/internal/bridge"
	"github.com/visualjsx/studio/backend/internal/compiler"
	"github.com/visualjsx/studio/backend/internal/infrastructure/logging"
)

func newTestSurface(t *testing.T) *Surface {
	t.Helper()
	return New(Config{Width: 800}, compiler.New(), logging.NewNop())
}

func renderTestComponent(t *testing.T, s *Surface, source string) {
	t.Helper()
	require.NoError(t, s.Render(source))
}

func TestRenderProducesMarkup(t *testing.T) {
	s := newTestSurface(t)
	renderTestComponent(t, s, `
		const App = () => (
			<div className="card" style={{ padding: "8px" }}>
				<h1>Title</h1>
				<p>Body text</p>
			</div>
		);
		App();
	`)

	out, err := s.InnerHTML()
	require.NoError(t, err)

	assert.Contains(t, out, `<div class="card" style="padding: 8px">`)
	assert.Contains(t, out, "<h1>Title</h1>")
	assert.Contains(t, out, "<p>Body text</p>")
}

func TestRenderFunctionComponentWithProps(t *testing.T) {
	s := newTestSurface(t)
	renderTestComponent(t, s, `
		function Greeting(props) {
			return <span>{props.name}</span>;
		}
		<div><Greeting name="Ada" /></div>;
	`)

	out, err := s.InnerHTML()
	require.NoError(t, err)
	assert.Contains(t, out, "<span>Ada</span>")
}

func TestRenderDropsEventHandlers(t *testing.T) {
	s := newTestSurface(t)
	renderTestComponent(t, s, `<button onClick={() => alert("hi")} disabled>Go</button>;`)

	out, err := s.InnerHTML()
	require.NoError(t, err)
	assert.NotContains(t, out, "onclick")
	assert.Contains(t, out, `<button disabled="">Go</button>`)
}

func TestRenderCompileErrorSurfaces(t *testing.T) {
	s := newTestSurface(t)

	err := s.Render(`<div>`)
	require.Error(t, err)
}

func TestRenderExecutionErrorSurfaces(t *testing.T) {
	s := newTestSurface(t)

	err := s.Render(`throw new Error("boom");`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "component execution failed")
}

func TestRenderReplacesPriorTree(t *testing.T) {
	s := newTestSurface(t)
	renderTestComponent(t, s, `<div id="first">a</div>;`)
	renderTestComponent(t, s, `<p id="second">b</p>;`)

	out, err := s.InnerHTML()
	require.NoError(t, err)
	assert.NotContains(t, out, "first")
	assert.Contains(t, out, `<p id="second">b</p>`)

	_, visible := s.Overlay()
	assert.False(t, visible)
}

func TestEnsureIdentifierIsStable(t *testing.T) {
	s := newTestSurface(t)
	renderTestComponent(t, s, `<div>x</div>;`)

	target := s.root.FirstChild
	first := EnsureIdentifier(target)
	second := EnsureIdentifier(target)

	assert.NotEmpty(t, first)
	assert.Equal(t, first, second)
	assert.True(t, strings.HasPrefix(first, "rid_"))
}

func TestClickSelectsDeepestElement(t *testing.T) {
	s := newTestSurface(t)
	renderTestComponent(t, s, `
		<div style={{ padding: "10px", color: "red" }}>
			<p>hello</p>
		</div>;
	`)

	ev := s.Click(15, 15)
	require.NotNil(t, ev)

	assert.Equal(t, "p", ev.Tag)
	assert.Equal(t, "hello", ev.Text)
	// color inherits from the parent div; the rest fall back to defaults
	assert.Equal(t, "red", ev.Color)
	assert.Equal(t, "16px", ev.FontSize)
	assert.Equal(t, "rgba(0, 0, 0, 0)", ev.BackgroundColor)
	assert.Equal(t, "400", ev.FontWeight)
	assert.Equal(t, "0px", ev.Padding)

	_, visible := s.Overlay()
	assert.True(t, visible)

	// The event also travels the outbox.
	select {
	case raw := <-s.Events():
		msg, err := bridge.Decode(raw)
		require.NoError(t, err)
		sel, ok := msg.(*bridge.SelectEvent)
		require.True(t, ok)
		assert.Equal(t, ev.RID, sel.RID)
	default:
		t.Fatal("expected a select event on the outbox")
	}
}

func TestClickOutsideContentIsIgnored(t *testing.T) {
	s := newTestSurface(t)
	renderTestComponent(t, s, `<p>tiny</p>;`)

	assert.Nil(t, s.Click(500, 5000))
}

func TestMutateTextOnLeafElement(t *testing.T) {
	s := newTestSurface(t)
	renderTestComponent(t, s, `<div><p id="target">old</p></div>;`)

	p := findFirst(t, s, "p")
	rid := EnsureIdentifier(p)

	text := "new text"
	s.ApplyMutation(rid, &text, nil)

	out, _ := s.InnerHTML()
	assert.Contains(t, out, ">new text</p>")
	// Attributes untouched by a text mutation.
	assert.Contains(t, out, `id="target"`)

	_, visible := s.Overlay()
	assert.True(t, visible)
}

func TestMutateTextGuardWithElementChildren(t *testing.T) {
	s := newTestSurface(t)
	renderTestComponent(t, s, `<div><span>keep me</span></div>;`)

	div := s.root.FirstChild
	rid := EnsureIdentifier(div)

	text := "overwrite"
	s.ApplyMutation(rid, &text, nil)

	out, _ := s.InnerHTML()
	assert.Contains(t, out, "<span>keep me</span>")
	assert.NotContains(t, out, "overwrite")
}

func TestMutateStyle(t *testing.T) {
	s := newTestSurface(t)
	renderTestComponent(t, s, `<p style={{ color: "blue" }}>x</p>;`)

	p := s.root.FirstChild
	rid := EnsureIdentifier(p)

	s.ApplyMutation(rid, nil, map[string]string{
		"color":    "green",
		"fontSize": "24px",
	})

	out, _ := s.InnerHTML()
	assert.Contains(t, out, "color: green")
	assert.Contains(t, out, "font-size: 24px")
}

func TestMutateMissingTargetIsSilent(t *testing.T) {
	s := newTestSurface(t)
	renderTestComponent(t, s, `<p>x</p>;`)

	text := "nope"
	s.ApplyMutation("rid_doesnotexist", &text, map[string]string{"color": "red"})

	out, _ := s.InnerHTML()
	assert.Equal(t, "<p>x</p>", out)
}

func TestSerializeCommandRoundTrip(t *testing.T) {
	s := newTestSurface(t)
	renderTestComponent(t, s, `<p>hi</p>;`)

	raw, err := bridge.Encode(&bridge.SerializeCommand{Type: bridge.TypeSerialize, Surface: s.ID()})
	require.NoError(t, err)
	s.dispatch(raw)

	select {
	case out := <-s.Events():
		msg, err := bridge.Decode(out)
		require.NoError(t, err)
		serialized, ok := msg.(*bridge.SerializedEvent)
		require.True(t, ok)
		assert.Equal(t, "<p>hi</p>", serialized.HTML)
		assert.Equal(t, s.ID(), serialized.Surface)
	default:
		t.Fatal("expected a serialized event")
	}
}

func TestCommandsForOtherSurfacesIgnored(t *testing.T) {
	s := newTestSurface(t)
	renderTestComponent(t, s, `<p>hi</p>;`)

	raw, _ := bridge.Encode(&bridge.SerializeCommand{Type: bridge.TypeSerialize, Surface: "srf_other"})
	s.dispatch(raw)

	select {
	case <-s.Events():
		t.Fatal("command for another surface must be dropped")
	default:
	}
}

func TestRunServicesInbox(t *testing.T) {
	s := newTestSurface(t)
	renderTestComponent(t, s, `<p>old</p>;`)

	rid := EnsureIdentifier(s.root.FirstChild)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	text := "fresh"
	raw, err := bridge.Encode(&bridge.MutateCommand{
		Type: bridge.TypeMutate, Surface: s.ID(), RID: rid, Text: &text,
	})
	require.NoError(t, err)
	require.NoError(t, s.Send(raw))

	require.Eventually(t, func() bool {
		out, err := s.InnerHTML()
		return err == nil && strings.Contains(out, "fresh")
	}, time.Second, 5*time.Millisecond)
}

func TestExportHTMLStripsIdentityAttribute(t *testing.T) {
	s := newTestSurface(t)
	renderTestComponent(t, s, `<div className="wrap" style={{ padding: "4px" }}><p>hi</p></div>;`)

	EnsureIdentifier(findFirst(t, s, "p"))

	out, err := s.ExportHTML()
	require.NoError(t, err)
	assert.NotContains(t, out, "data-rid")
	assert.Contains(t, out, "<p>hi</p>")
	// Presentation attributes survive sanitization.
	assert.Contains(t, out, `class="wrap"`)
	assert.Contains(t, out, "padding: 4px")
}

func TestIdentifiersDoNotSurviveRerender(t *testing.T) {
	s := newTestSurface(t)
	renderTestComponent(t, s, `<p>one</p>;`)
	rid := EnsureIdentifier(s.root.FirstChild)

	renderTestComponent(t, s, `<p>one</p>;`)
	assert.Nil(t, findByIdentifier(s.root, rid))
}

func findFirst(t *testing.T, s *Surface, tag string) *html.Node {
	t.Helper()
	var find func(n *html.Node) *html.Node
	find = func(n *html.Node) *html.Node {
		if n.Type == html.ElementNode && n.Data == tag {
			return n
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if found := find(c); found != nil {
				return found
			}
		}
		return nil
	}
	found := find(s.root)
	require.NotNil(t, found, "no <%s> in surface tree", tag)
	return found
}
