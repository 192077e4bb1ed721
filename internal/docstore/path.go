package docstore

import (
	"fmt"
	"strings"
)

// Path addresses a node inside the receipts collection. The first segment
// is the document (receipt) id; the rest walk into the document,
// e.g. {"r1", "items", "i1", "cost"}.
type Path []string

// P builds a Path from segments.
func P(segments ...string) Path {
	return Path(segments)
}

// ParsePath reads a slash separated path such as "r1/items/i1".
// Leading and trailing slashes are ignored.
func ParsePath(s string) (Path, error) {
	trimmed := strings.Trim(s, "/")
	if trimmed == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, s)
	}
	p := Path(strings.Split(trimmed, "/"))
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Child returns a new path with segments appended.
func (p Path) Child(segments ...string) Path {
	out := make(Path, 0, len(p)+len(segments))
	out = append(out, p...)
	return append(out, segments...)
}

// DocID is the document the path points into.
func (p Path) DocID() string {
	if len(p) == 0 {
		return ""
	}
	return p[0]
}

func (p Path) String() string {
	return strings.Join(p, "/")
}

func (p Path) validate() error {
	if len(p) == 0 {
		return fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	for _, seg := range p {
		if seg == "" || strings.Contains(seg, "/") {
			return fmt.Errorf("%w: bad segment in %q", ErrInvalidPath, p.String())
		}
	}
	return nil
}
