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

// Package preprocess implements the import preprocessor named in §6 as an
// external collaborator consumed by the compiler front door (cmd/rill):
// given a source string and the path it was read from, it returns an
// expanded source string with every `@import "path"` directive substituted
// inline, breaking cycles itself rather than leaving that to the core.
//
// There is no import-expansion precedent anywhere in the retrieval pack
// (the teacher's assembler has no include directive), so this is shaped as
// a minimal recursive-descent text walker in the teacher's plain-function,
// no-receiver-state style (asm/parser.go's helper functions take their
// state as explicit arguments rather than hanging off a struct when no
// struct is needed) rather than ported from anywhere.
package preprocess

import (
	"bufio"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Loader reads the contents of an imported file, given its resolved path.
// Expand's caller supplies this (typically os.ReadFile) so the package
// itself never touches the filesystem directly, keeping it testable
// without real files on disk.
type Loader func(path string) (string, error)

// Expand returns src with every `@import "relative/path"` directive (one
// per line, the only form §6 names) replaced in place by the imported
// file's own expanded contents. path is src's own file path, used to
// resolve relative imports the way the teacher's own package-relative
// lookups would.
//
// Cyclic imports are broken by this package (§6: "cyclic imports must be
// broken by the preprocessor, not by the core"): a file already on the
// current inclusion chain is skipped silently and produces an empty
// expansion the second time it is reached, which is enough to terminate
// without re-defining anything a first inclusion already contributed.
func Expand(path, src string, load Loader) (string, error) {
	return expand(path, src, load, map[string]bool{})
}

func expand(path, src string, load Loader, active map[string]bool) (string, error) {
	norm := filepath.Clean(path)
	if active[norm] {
		return "", nil
	}
	active[norm] = true
	defer delete(active, norm)

	var out strings.Builder
	sc := bufio.NewScanner(strings.NewReader(src))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		target, ok := importTarget(line)
		if !ok {
			out.WriteString(line)
			out.WriteByte('\n')
			continue
		}
		resolved := filepath.Join(filepath.Dir(norm), target)
		body, err := load(resolved)
		if err != nil {
			return "", errors.Wrapf(err, "import %q", target)
		}
		expanded, err := expand(resolved, body, load, active)
		if err != nil {
			return "", err
		}
		out.WriteString(expanded)
		if len(expanded) > 0 && !strings.HasSuffix(expanded, "\n") {
			out.WriteByte('\n')
		}
	}
	if err := sc.Err(); err != nil {
		return "", errors.Wrap(err, "preprocess: scan")
	}
	return out.String(), nil
}

// importTarget recognises a line of the form `@import "path"`, allowing
// leading whitespace but requiring the directive to otherwise stand alone
// on its line (no trailing statement), matching §6's "given a source
// string ... substituted inline" one-directive-per-line grammar.
func importTarget(line string) (string, bool) {
	t := strings.TrimSpace(line)
	if !strings.HasPrefix(t, "@import") {
		return "", false
	}
	rest := strings.TrimSpace(t[len("@import"):])
	if len(rest) < 2 || rest[0] != '"' || rest[len(rest)-1] != '"' {
		return "", false
	}
	return rest[1 : len(rest)-1], true
}
