package stylesheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssemble(t *testing.T) {
	src := ".a {\n  color: red;\n}\n"

	out, err := Assemble(src, AssembleOptions{})
	require.NoError(t, err)
	assert.Equal(t, src, out)

	out, err = Assemble(src, AssembleOptions{Minify: true})
	require.NoError(t, err)
	assert.Equal(t, ".a{color:red}", out)

	out, err = Assemble(src, AssembleOptions{Header: "generated by twtrace"})
	require.NoError(t, err)
	assert.Equal(t, "/* generated by twtrace */\n"+src, out)

	out, err = Assemble(src, AssembleOptions{Minify: true, Header: "x */ y"})
	require.NoError(t, err)
	assert.Equal(t, "/* x * / y */.a{color:red}", out)
}
