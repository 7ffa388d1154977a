package http_test

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/m-mizutani/gt"

	controller "github.com/m-mizutani/snipzip/pkg/controller/http"
	"github.com/m-mizutani/snipzip/pkg/infra/memory"
	"github.com/m-mizutani/snipzip/pkg/usecase"
)

func newTestServer(t *testing.T, opts ...controller.Option) *controller.Server {
	t.Helper()

	opts = append([]controller.Option{
		controller.WithAddr("localhost:0"),
		controller.WithCookieSecret([]byte("test-cookie-secret")),
	}, opts...)

	server, err := controller.NewServer(
		context.Background(),
		usecase.NewSession(memory.NewSessionRepository()),
		usecase.NewArchive(),
		opts...,
	)
	gt.NoError(t, err).Required()
	return server
}

// unzip returns every member of a ZIP archive
func unzip(t *testing.T, data []byte) map[string]string {
	t.Helper()

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	gt.NoError(t, err).Required()

	members := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		gt.NoError(t, err).Required()
		body, err := io.ReadAll(rc)
		gt.NoError(t, err)
		_ = rc.Close()
		members[f.Name] = string(body)
	}
	return members
}
