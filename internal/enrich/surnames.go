package enrich

import (
	"bufio"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// LoadSurnames reads one surname per line. Blank lines and '#' comments are
// skipped and repeats (case-insensitive) are dropped. When max > 0 the list
// is cut at max entries, since every surname costs one lookup per lead.
func LoadSurnames(path string, max int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "enrich: open surnames")
	}
	defer f.Close() //nolint:errcheck

	seen := make(map[string]struct{})
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		if max > 0 && len(out) >= max {
			zap.L().Warn("surname list truncated",
				zap.String("component", "enrich"),
				zap.String("path", path),
				zap.Int("max", max),
			)
			break
		}
		out = append(out, s)
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "enrich: read surnames")
	}
	return out, nil
}
