package btree

import (
	"fmt"
	"io"
	"strings"

	"studentdb/encoder"
)

// Visualizer renders a tree as one "offset:key" line per key, indented by
// the depth of the node holding it.
type Visualizer struct {
	Tree   *Btree
	Indent string
}

func (v *Visualizer) Render(w io.Writer) error {
	indent := v.Indent
	if indent == "" {
		indent = "  "
	}
	return v.Tree.Walk(func(depth int, key []byte, val int64) error {
		_, err := fmt.Fprintf(w, "%s%d:%s\n", strings.Repeat(indent, depth), val, encoder.TrimKey(key))
		return err
	})
}

func (v *Visualizer) Visualize() string {
	var sb strings.Builder
	if err := v.Render(&sb); err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return sb.String()
}
