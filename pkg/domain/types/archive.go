package types

const (
	// ArchiveFileName is the download name offered for every built archive
	ArchiveFileName = "generated_files.zip"

	// ArchiveMIMEType is the content type of a built archive
	ArchiveMIMEType = "application/zip"

	// DefaultSlotCount is the number of empty slots a new session starts with
	DefaultSlotCount = 3
)
