package pgm

import (
	"fmt"
	"os"

	"mwb2dbm/internal/xmltree"
)

// LoadFragment reads a hand-authored dbm document from path.
func LoadFragment(path string) (*xmltree.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load dbm fragment: %w", err)
	}
	root, err := xmltree.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load dbm fragment %s: %w", path, err)
	}
	return root, nil
}

// Merge splices the fragment's function and aggregate elements into
// dst, placed before the first trigger so triggers can call them, or
// appended when dst has no triggers. Other element kinds are not
// merged.
func Merge(dst, fragment *xmltree.Node) {
	firstTrigger := dst.Child("trigger")

	for _, child := range fragment.Children {
		if child.Tag != "function" && child.Tag != "aggregate" {
			continue
		}
		if firstTrigger != nil {
			dst.InsertBefore(firstTrigger, child)
		} else {
			dst.Append(child)
		}
	}
}
