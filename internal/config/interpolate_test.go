package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInterpolate(t *testing.T) {
	t.Parallel()

	vars := MapVariables{"HOST": "localhost", "PORT": "8080", "EMPTY": ""}

	tc := []struct {
		name  string
		input string
		want  string
	}{
		{name: "no placeholders", input: "plain", want: "plain"},
		{name: "single", input: "${HOST}", want: "localhost"},
		{name: "several", input: "http://${HOST}:${PORT}/mcp", want: "http://localhost:8080/mcp"},
		{name: "unresolved", input: "a${MISSING}b", want: "ab"},
		{name: "defined but empty", input: "x${EMPTY}y", want: "xy"},
		{name: "not a placeholder", input: "$HOST and ${1BAD}", want: "$HOST and ${1BAD}"},
	}

	for _, testCase := range tc {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, testCase.want, Interpolate(testCase.input, vars))
		})
	}
}

func TestInterpolator_Walk(t *testing.T) {
	t.Parallel()

	i := newInterpolator(MapVariables{"A": "1"})
	in := map[string]any{
		"${A}": "${A}",
		"list": []any{"${A}", 2, map[string]any{"deep": "${B}"}},
		"strs": []string{"${A}"},
		"env":  map[string]string{"K": "${C}"},
		"num":  3,
	}

	got := i.walk(in)

	require.Equal(t, map[string]any{
		"${A}": "1",
		"list": []any{"1", 2, map[string]any{"deep": ""}},
		"strs": []string{"1"},
		"env":  map[string]string{"K": ""},
		"num":  3,
	}, got)
	require.Equal(t, []string{"B", "C"}, i.Unresolved())

	// The input is not mutated.
	require.Equal(t, "${A}", in["${A}"])
}

func TestChainVariables(t *testing.T) {
	t.Parallel()

	chain := ChainVariables{
		nil,
		MapVariables{"A": "first"},
		MapVariables{"A": "second", "B": "second"},
	}

	v, ok := chain.Lookup("A")
	require.True(t, ok)
	require.Equal(t, "first", v)

	v, ok = chain.Lookup("B")
	require.True(t, ok)
	require.Equal(t, "second", v)

	_, ok = chain.Lookup("C")
	require.False(t, ok)
}

func TestEnvVariables(t *testing.T) {
	t.Setenv("MCPFLEET_TEST_VAR", "set")

	v, ok := EnvVariables().Lookup("MCPFLEET_TEST_VAR")
	require.True(t, ok)
	require.Equal(t, "set", v)
}

func TestDotEnvVariables(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("TOKEN=abc\n# comment\nQUOTED=\"x y\"\n"), 0o600))

	vars, err := DotEnvVariables(path)
	require.NoError(t, err)
	require.Equal(t, MapVariables{"TOKEN": "abc", "QUOTED": "x y"}, vars)

	vars, err = DotEnvVariables(filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	require.Empty(t, vars)
}
