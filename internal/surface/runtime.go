package surface

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// nodeRef is the opaque handle createElement hands back to script code.
type nodeRef struct {
	node *html.Node
}

// execute runs compiled component JavaScript in a fresh goja VM and
// returns the root element the code produced. The host React object
// records every createElement result; the outermost call evaluates
// last, so the final record is the component root.
func (s *Surface) execute(js string) (*html.Node, error) {
	vm := goja.New()

	// Remove module/system globals; the surface is a rendering context,
	// not a Node environment.
	vm.Set("require", goja.Undefined())
	vm.Set("process", goja.Undefined())
	vm.Set("module", goja.Undefined())
	vm.Set("exports", goja.Undefined())
	s.setupConsole(vm)

	var last *html.Node

	react := vm.NewObject()
	react.Set("createElement", func(call goja.FunctionCall) goja.Value {
		node, err := s.createElement(vm, call)
		if err != nil {
			panic(vm.NewGoError(err))
		}
		last = node
		return vm.ToValue(&nodeRef{node: node})
	})
	react.Set("Fragment", "fragment")
	vm.Set("React", react)

	// Timers are inert: the preview renders a single frame.
	noop := func(call goja.FunctionCall) goja.Value { return goja.Undefined() }
	vm.Set("setTimeout", noop)
	vm.Set("setInterval", noop)

	timer := time.AfterFunc(s.cfg.ExecTimeout, func() {
		vm.Interrupt("execution timeout exceeded")
	})
	defer timer.Stop()

	if _, err := vm.RunString(js); err != nil {
		return nil, fmt.Errorf("component execution failed: %w", err)
	}
	if last == nil {
		return nil, errors.New("component produced no elements")
	}
	return last, nil
}

// createElement builds a live element from one createElement invocation.
func (s *Surface) createElement(vm *goja.Runtime, call goja.FunctionCall) (*html.Node, error) {
	if len(call.Arguments) == 0 {
		return nil, errors.New("createElement requires a type")
	}

	// Function components render eagerly: call and unwrap.
	if fn, ok := goja.AssertFunction(call.Argument(0)); ok {
		props := goja.Undefined()
		if len(call.Arguments) > 1 {
			props = call.Argument(1)
		}
		ret, err := fn(goja.Undefined(), props)
		if err != nil {
			return nil, fmt.Errorf("component function failed: %w", err)
		}
		if ref, ok := ret.Export().(*nodeRef); ok {
			return ref.node, nil
		}
		return nil, errors.New("component function did not return an element")
	}

	tag, ok := call.Argument(0).Export().(string)
	if !ok {
		return nil, errors.New("unsupported element type")
	}
	tag = strings.ToLower(tag)

	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}

	if len(call.Arguments) > 1 {
		if props, ok := call.Argument(1).Export().(map[string]interface{}); ok {
			if err := s.applyProps(n, props); err != nil {
				return nil, err
			}
		}
	}

	for _, arg := range call.Arguments[2:] {
		s.appendChildValue(n, arg.Export())
	}
	return n, nil
}

// applyProps converts JSX props into live attributes.
func (s *Surface) applyProps(n *html.Node, props map[string]interface{}) error {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := props[key]
		switch {
		case key == "key" || key == "ref":
			// Reconciliation hints have no live representation.
		case isEventProp(key):
			// Handlers cannot cross the bridge; dropped.
		case key == "style":
			if styleMap, ok := value.(map[string]interface{}); ok {
				applyStyleProp(n, styleMap)
			}
		case key == "dangerouslySetInnerHTML":
			if err := s.applyInnerHTML(n, value); err != nil {
				return err
			}
		case key == "className":
			setAttr(n, "class", formatPropValue(value))
		case key == "htmlFor":
			setAttr(n, "for", formatPropValue(value))
		case key == "tabIndex":
			setAttr(n, "tabindex", formatPropValue(value))
		default:
			if b, ok := value.(bool); ok {
				if b {
					setAttr(n, strings.ToLower(key), "")
				}
				continue
			}
			setAttr(n, strings.ToLower(key), formatPropValue(value))
		}
	}
	return nil
}

func applyStyleProp(n *html.Node, styleMap map[string]interface{}) {
	keys := make([]string, 0, len(styleMap))
	for k := range styleMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		setStyleProperty(n, k, formatPropValue(styleMap[k]))
	}
}

// applyInnerHTML parses sanitized raw markup into child nodes.
func (s *Surface) applyInnerHTML(n *html.Node, value interface{}) error {
	wrapper, ok := value.(map[string]interface{})
	if !ok {
		return nil
	}
	raw, ok := wrapper["__html"].(string)
	if !ok {
		return nil
	}

	clean := s.sanitizer.Sanitize(raw)
	nodes, err := html.ParseFragment(strings.NewReader(clean), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return fmt.Errorf("failed to parse raw markup: %w", err)
	}
	for _, child := range nodes {
		n.AppendChild(child)
	}
	return nil
}

// appendChildValue attaches one createElement child argument, which may
// be an element handle, text-like scalar, or a nested array of either.
func (s *Surface) appendChildValue(n *html.Node, value interface{}) {
	switch v := value.(type) {
	case nil:
	case *nodeRef:
		n.AppendChild(v.node)
	case []interface{}:
		for _, item := range v {
			s.appendChildValue(n, item)
		}
	case bool:
		// false/true children render nothing, matching React.
	default:
		text := formatPropValue(v)
		if text == "" {
			return
		}
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
}

func formatPropValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return fmt.Sprint(val)
	}
}

// isEventProp reports whether a prop is a DOM event handler (onClick,
// onChange, ...).
func isEventProp(key string) bool {
	return len(key) > 2 && strings.HasPrefix(key, "on") &&
		key[2] >= 'A' && key[2] <= 'Z'
}

// setupConsole forwards script console output to the surface logger.
func (s *Surface) setupConsole(vm *goja.Runtime) {
	console := vm.NewObject()
	for _, level := range []string{"log", "info", "warn", "error"} {
		level := level
		console.Set(level, func(call goja.FunctionCall) goja.Value {
			parts := make([]string, 0, len(call.Arguments))
			for _, arg := range call.Arguments {
				parts = append(parts, arg.String())
			}
			s.logger.Debug("Component console output",
				zap.String("level", level),
				zap.String("message", strings.Join(parts, " ")),
			)
			return goja.Undefined()
		})
	}
	vm.Set("console", console)
}
