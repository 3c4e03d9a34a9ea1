package source

import (
	"bufio"
	"bytes"
	"strings"
)

// ParseOptions splits the contents of a runtime option file into
// individual options. Options are whitespace separated; lines whose first
// non-blank character is '#' are comments.
func ParseOptions(data []byte) []string {
	var out []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, strings.Fields(line)...)
	}
	return out
}
