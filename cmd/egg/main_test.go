package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentPrefix(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{in: "calc.peg", expected: "calc"},
		{in: "calc_v2.peg.go", expected: "calc_v2"},
		{in: "_private", expected: "_private"},
		{in: "9lives", expected: ""},
		{in: "", expected: ""},
		{in: "json-grammar", expected: "json"},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, identPrefix(test.in), "identPrefix(%q)", test.in)
	}
}

func TestDefaultName(t *testing.T) {
	assert.Equal(t, "out", defaultName("dir/out.go", "in.egg"), "output wins")
	assert.Equal(t, "in", defaultName("", "dir/in.egg"))
	assert.Equal(t, "", defaultName("", ""))
	assert.Equal(t, "in", defaultName("123.go", "in.egg"), "skips a non-identifier output name")
}

func TestCompileCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "calc.egg")
	output := filepath.Join(dir, "calcparser.go")
	require.NoError(t, os.WriteFile(input, []byte("expr = 'a' | 'b'\n"), 0o644))

	root := newRootCommand()
	root.SetArgs([]string{"compile", "-i", input, "-o", output})
	require.NoError(t, root.Execute())

	generated, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(generated), "package calcparser")
	assert.Contains(t, string(generated), "func expr(ps *parse.State)")
}

func TestPrintCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "g.egg")
	output := filepath.Join(dir, "g.txt")
	require.NoError(t, os.WriteFile(input, []byte("S = 'a' 'b' 'c'\n"), 0o644))

	root := newRootCommand()
	root.SetArgs([]string{"print", "-i", input, "-o", output, "--no-norm"})
	require.NoError(t, root.Execute())

	printed, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(printed), "S = 'a' 'b' 'c'")
}

func TestCompileCommandParseFailure(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "bad.egg")
	require.NoError(t, os.WriteFile(input, []byte("S = @\n"), 0o644))

	root := newRootCommand()
	root.SetArgs([]string{"compile", "-i", input, "-o", filepath.Join(dir, "out.go")})
	assert.Error(t, root.Execute())
}

func TestExplicitNameOverridesDerivation(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "g.egg")
	output := filepath.Join(dir, "whatever.go")
	require.NoError(t, os.WriteFile(input, []byte("S = 'a'\n"), 0o644))

	root := newRootCommand()
	root.SetArgs([]string{"compile", "-i", input, "-o", output, "-n", "mylang"})
	require.NoError(t, root.Execute())

	generated, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(generated), "package mylang")
}
