package compiler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileJSX(t *testing.T) {
	c := New()

	res, err := c.Compile(`const App = () => <div className="box">hi</div>; App();`)
	require.NoError(t, err)
	assert.Contains(t, res.Code, "React.createElement")
	assert.Contains(t, res.Code, `"box"`)
}

func TestCompileEmptySource(t *testing.T) {
	c := New()

	_, err := c.Compile("   ")
	assert.ErrorIs(t, err, ErrEmptySource)
}

func TestCompileSyntaxError(t *testing.T) {
	c := New()

	_, err := c.Compile(`const App = () => <div>`)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "compile failed:"))
}

func TestCompileTypeScriptSyntax(t *testing.T) {
	c := New()

	res, err := c.Compile(`const n: number = 2; <p>{n}</p>`)
	require.NoError(t, err)
	assert.NotContains(t, res.Code, ": number")
}
