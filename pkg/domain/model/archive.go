package model

// Archive is a finished ZIP archive ready to be handed to a download boundary
type Archive struct {
	Name     string
	MIMEType string
	Data     []byte
	Files    []string // member names in archive order
}

// PreviewFile is one file listed before download
type PreviewFile struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// Preview lists the files an archive would contain and the slots left out of it
type Preview struct {
	Files   []PreviewFile `json:"files"`
	Skipped []int         `json:"skipped"`
}

// NewPreview builds a preview from a file set and the skipped slot indexes
func NewPreview(fs FileSet, skipped []int) *Preview {
	p := &Preview{
		Files:   make([]PreviewFile, 0, len(fs)),
		Skipped: skipped,
	}
	if p.Skipped == nil {
		p.Skipped = []int{}
	}
	for _, name := range fs.Names() {
		p.Files = append(p.Files, PreviewFile{Filename: name, Content: fs[name]})
	}
	return p
}
