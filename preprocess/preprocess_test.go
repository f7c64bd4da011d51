// This file is part of rill - https://github.com/rill-lang/rill
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package preprocess

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpandInlinesImport(t *testing.T) {
	files := map[string]string{
		"lib.rl": "let shared = 1\n",
	}
	load := func(path string) (string, error) {
		s, ok := files[path]
		require.True(t, ok, "unexpected load of %q", path)
		return s, nil
	}
	out, err := Expand("main.rl", "@import \"lib.rl\"\nprint(shared)\n", load)
	require.NoError(t, err)
	require.Equal(t, "let shared = 1\nprint(shared)\n", out)
}

func TestExpandBreaksCycles(t *testing.T) {
	files := map[string]string{
		"a.rl": "@import \"b.rl\"\nlet a = 1\n",
		"b.rl": "@import \"a.rl\"\nlet b = 2\n",
	}
	load := func(path string) (string, error) {
		s, ok := files[path]
		require.True(t, ok, "unexpected load of %q", path)
		return s, nil
	}
	out, err := Expand("a.rl", files["a.rl"], load)
	require.NoError(t, err)
	// a.rl's own re-entry is skipped (empty expansion), so only b's and a's
	// own declarations survive, each exactly once.
	require.Equal(t, "let b = 2\nlet a = 1\n", out)
}

func TestExpandLeavesNonDirectiveLinesAlone(t *testing.T) {
	out, err := Expand("main.rl", "let x = 1\n// @import looks like a directive but isn't one\n", nil)
	require.NoError(t, err)
	require.Equal(t, "let x = 1\n// @import looks like a directive but isn't one\n", out)
}
