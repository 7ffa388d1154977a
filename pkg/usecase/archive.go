package usecase

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/snipzip/pkg/domain/model"
	"github.com/m-mizutani/snipzip/pkg/domain/types"
)

// memberModTime is the modification time stamped on every member (1980-01-01
// UTC, the ZIP epoch) so equal file sets produce equal archives.
var memberModTime = time.Unix(315532800, 0).UTC()

// Normalize makes content end with a newline. Content already ending with one
// or more newlines is returned unchanged.
func Normalize(content string) string {
	if strings.HasSuffix(content, "\n") {
		return content
	}
	return content + "\n"
}

// BuildArchive writes every file of fs as a deflated ZIP member and returns the
// finished archive. Filenames are used verbatim as member paths. Nothing is
// returned unless the archive was closed successfully.
func BuildArchive(fs model.FileSet) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, name := range fs.Names() {
		hdr := &zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: memberModTime,
		}
		hdr.SetMode(0o644)

		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create archive member", goerr.V("name", name))
		}
		if _, err := w.Write([]byte(Normalize(fs[name]))); err != nil {
			return nil, goerr.Wrap(err, "failed to write archive member", goerr.V("name", name))
		}
	}

	if err := zw.Close(); err != nil {
		return nil, goerr.Wrap(err, "failed to finalize archive")
	}

	return buf.Bytes(), nil
}

// newArchive builds fs and wraps the result for the download boundary
func newArchive(ctx context.Context, fs model.FileSet) (*model.Archive, error) {
	data, err := BuildArchive(fs)
	if err != nil {
		return nil, err
	}

	files := fs.Names()
	ctxlog.From(ctx).Info("Built archive",
		"file_count", len(files),
		"size_bytes", len(data),
	)

	return &model.Archive{
		Name:     types.ArchiveFileName,
		MIMEType: types.ArchiveMIMEType,
		Data:     data,
		Files:    files,
	}, nil
}

type archiveUseCase struct{}

// NewArchive creates a new instance of ArchiveUseCase
func NewArchive() *archiveUseCase {
	return &archiveUseCase{}
}

// Build creates an archive from entries. Incomplete entries are skipped and a
// repeated filename keeps the last content.
func (uc *archiveUseCase) Build(ctx context.Context, entries []model.Entry) (*model.Archive, error) {
	logger := ctxlog.From(ctx)

	var skipped int
	for _, e := range entries {
		if e.IsPartial() {
			skipped++
		}
	}
	if skipped > 0 {
		logger.Warn("Skipped incomplete entries", "count", skipped)
	}

	return newArchive(ctx, model.NewFileSet(entries))
}
