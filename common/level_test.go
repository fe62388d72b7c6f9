package common

import (
	"bufio"
	"go/build/constraint"
	"os"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildConstraint(t *testing.T, file string) constraint.Expr {
	t.Helper()
	f, err := os.Open(file)
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if constraint.IsGoBuild(line) {
			expr, err := constraint.Parse(line)
			require.NoError(t, err)
			return expr
		}
		if strings.HasPrefix(line, "package ") {
			break
		}
	}
	t.Fatalf("%s has no build constraint", file)
	return nil
}

// Exactly one level file must compile for every tag combination, or
// defaultLogLevel and DebugBuild are defined twice or not at all.
func TestLevelFilesAreExclusive(t *testing.T) {
	files := []string{"level_debug.go", "level_default.go", "level_release.go"}
	exprs := make([]constraint.Expr, len(files))
	for i, f := range files {
		exprs[i] = buildConstraint(t, f)
	}

	for _, tags := range [][]string{nil, {"debug"}, {"release"}, {"debug", "release"}} {
		var matched []string
		for i, expr := range exprs {
			if expr.Eval(func(tag string) bool { return slices.Contains(tags, tag) }) {
				matched = append(matched, files[i])
			}
		}
		assert.Len(t, matched, 1, "tags %v select %v", tags, matched)
	}
}
