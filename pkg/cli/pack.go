package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/snipzip/pkg/domain/model"
	"github.com/m-mizutani/snipzip/pkg/domain/types"
	"github.com/m-mizutani/snipzip/pkg/usecase"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// manifest lists the files to pack. Each file takes its content either
// inline or from a path relative to the manifest.
type manifest struct {
	Files []manifestFile `toml:"files" yaml:"files"`
}

type manifestFile struct {
	Name    string `toml:"name" yaml:"name"`
	Content string `toml:"content" yaml:"content"`
	Path    string `toml:"path" yaml:"path"`
}

func loadManifest(path string) ([]model.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read manifest", goerr.V("path", path))
	}

	var m manifest
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, goerr.Wrap(err, "failed to parse TOML manifest", goerr.V("path", path))
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, goerr.Wrap(err, "failed to parse YAML manifest", goerr.V("path", path))
		}
	default:
		return nil, goerr.New("unsupported manifest format", goerr.V("path", path), goerr.V("ext", ext))
	}

	baseDir := filepath.Dir(path)
	entries := make([]model.Entry, 0, len(m.Files))
	for i, f := range m.Files {
		if f.Content != "" && f.Path != "" {
			return nil, goerr.New("manifest file has both content and path",
				goerr.V("index", i),
				goerr.V("name", f.Name),
			)
		}

		entry := model.Entry{Filename: f.Name, Content: f.Content}
		if f.Path != "" {
			src := f.Path
			if !filepath.IsAbs(src) {
				src = filepath.Join(baseDir, src)
			}
			body, err := os.ReadFile(src)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to read manifest file", goerr.V("name", f.Name), goerr.V("path", src))
			}
			entry.Content = string(body)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// parseFileFlag parses a --file value of the form name=path
func parseFileFlag(v string) (model.Entry, error) {
	name, path, ok := strings.Cut(v, "=")
	if !ok || path == "" {
		return model.Entry{}, goerr.New("--file must be name=path", goerr.V("value", v))
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return model.Entry{}, goerr.Wrap(err, "failed to read file", goerr.V("path", path))
	}
	return model.Entry{Filename: name, Content: string(body)}, nil
}

func cmdPack() *cli.Command {
	var (
		manifestPath string
		files        []string
		output       string
	)

	return &cli.Command{
		Name:      "pack",
		Aliases:   []string{"p"},
		Usage:     "Build a ZIP archive from a manifest or files without starting the server",
		UsageText: "snipzip pack [-m manifest.toml] [-f name=path ...] [-o generated_files.zip]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "manifest",
				Aliases:     []string{"m"},
				Usage:       "TOML or YAML manifest listing files",
				Destination: &manifestPath,
			},
			&cli.StringSliceFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "File to add as name=path (repeatable)",
				Destination: &files,
			},
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "Output archive path, - for stdout",
				Value:       types.ArchiveFileName,
				Destination: &output,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			var entries []model.Entry

			if manifestPath != "" {
				loaded, err := loadManifest(manifestPath)
				if err != nil {
					return err
				}
				entries = append(entries, loaded...)
			}

			for _, v := range files {
				entry, err := parseFileFlag(v)
				if err != nil {
					return err
				}
				entries = append(entries, entry)
			}

			return runPack(ctx, c.Root().Writer, entries, output)
		},
	}
}

// runPack builds the archive from entries, writes it to output and prints a
// summary to w
func runPack(ctx context.Context, w io.Writer, entries []model.Entry, output string) error {
	logger := ctxlog.From(ctx)
	if output == "-" {
		w = os.Stderr
	}

	warn := color.New(color.FgYellow)
	for i, e := range entries {
		if e.IsPartial() {
			warn.Fprintf(w, "skipped entry #%d: filename and content are both required\n", i+1)
		}
	}

	archive, err := usecase.NewArchive().Build(ctx, entries)
	if err != nil {
		return goerr.Wrap(err, "failed to build archive")
	}

	if output == "-" {
		if _, err := os.Stdout.Write(archive.Data); err != nil {
			return goerr.Wrap(err, "failed to write archive to stdout")
		}
		return nil
	}

	if err := os.WriteFile(output, archive.Data, 0o644); err != nil {
		return goerr.Wrap(err, "failed to write archive", goerr.V("path", output))
	}
	logger.Debug("Archive written", "path", output, "size_bytes", len(archive.Data))

	color.New(color.FgGreen, color.Bold).Fprintf(w, "wrote %s", output)
	color.New(color.Faint).Fprintf(w, " (%d files, %d bytes)\n", len(archive.Files), len(archive.Data))
	for _, name := range archive.Files {
		color.New(color.FgCyan).Fprintf(w, "  %s\n", name)
	}
	return nil
}
