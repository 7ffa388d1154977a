package model

import "sort"

// Entry is one user supplied (filename, content) pair
type Entry struct {
	Filename string `json:"filename" firestore:"filename"`
	Content  string `json:"content" firestore:"content"`
}

// IsComplete reports whether both filename and content are set. Only complete
// entries are eligible for archiving.
func (e Entry) IsComplete() bool {
	return e.Filename != "" && e.Content != ""
}

// IsPartial reports whether exactly one of filename and content is set
func (e Entry) IsPartial() bool {
	return (e.Filename == "") != (e.Content == "")
}

// FileSet maps a filename to its content. A later entry with the same
// filename overwrites an earlier one.
type FileSet map[string]string

// NewFileSet builds a FileSet from entries in order, skipping incomplete ones
func NewFileSet(entries []Entry) FileSet {
	fs := make(FileSet, len(entries))
	for _, e := range entries {
		if !e.IsComplete() {
			continue
		}
		fs[e.Filename] = e.Content
	}
	return fs
}

// Names returns the filenames in lexical order
func (fs FileSet) Names() []string {
	names := make([]string, 0, len(fs))
	for name := range fs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
