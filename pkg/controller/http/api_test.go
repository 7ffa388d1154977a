package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"

	controller "github.com/m-mizutani/snipzip/pkg/controller/http"
	"github.com/m-mizutani/snipzip/pkg/domain/model"
)

func doJSON(t *testing.T, server *controller.Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		gt.NoError(t, err).Required()
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	server.Handler.ServeHTTP(w, req)
	return w
}

func decodeSession(t *testing.T, w *httptest.ResponseRecorder) model.Session {
	t.Helper()
	var s model.Session
	gt.NoError(t, json.NewDecoder(w.Body).Decode(&s)).Required()
	return s
}

func TestAPI_SessionFlow(t *testing.T) {
	server := newTestServer(t)

	// create
	w := doJSON(t, server, http.MethodPost, "/api/sessions", nil)
	gt.V(t, w.Code).Equal(http.StatusCreated)
	session := decodeSession(t, w)
	gt.A(t, session.Slots).Length(3)
	base := "/api/sessions/" + session.ID

	// grow
	w = doJSON(t, server, http.MethodPost, base+"/slots", nil)
	gt.V(t, w.Code).Equal(http.StatusOK)
	gt.A(t, decodeSession(t, w).Slots).Length(4)

	// edit slots
	slots := []model.Entry{
		{Filename: "hello.py", Content: "print('hi')"},
		{Filename: "", Content: "orphan content"},
		{Filename: "empty.txt", Content: ""},
		{Filename: "README.md", Content: "# Demo\n"},
	}
	for i, e := range slots {
		w = doJSON(t, server, http.MethodPut, base+"/slots/"+string(rune('0'+i)), e)
		gt.V(t, w.Code).Equal(http.StatusOK)
	}

	// preview
	w = doJSON(t, server, http.MethodGet, base+"/files", nil)
	gt.V(t, w.Code).Equal(http.StatusOK)
	var preview model.Preview
	gt.NoError(t, json.NewDecoder(w.Body).Decode(&preview))
	gt.A(t, preview.Files).Length(2)
	gt.V(t, preview.Files[0].Filename).Equal("README.md")
	gt.V(t, preview.Skipped).Equal([]int{1, 2})

	// download
	w = doJSON(t, server, http.MethodGet, base+"/archive", nil)
	gt.V(t, w.Code).Equal(http.StatusOK)
	gt.V(t, w.Header().Get("Content-Type")).Equal("application/zip")
	gt.String(t, w.Header().Get("Content-Disposition")).Contains(`filename="generated_files.zip"`)
	gt.V(t, unzip(t, w.Body.Bytes())).Equal(map[string]string{
		"hello.py":  "print('hi')\n",
		"README.md": "# Demo\n",
	})

	// delete
	w = doJSON(t, server, http.MethodDelete, base, nil)
	gt.V(t, w.Code).Equal(http.StatusNoContent)

	w = doJSON(t, server, http.MethodGet, base, nil)
	gt.V(t, w.Code).Equal(http.StatusNotFound)
}

func TestAPI_Errors(t *testing.T) {
	server := newTestServer(t)

	w := doJSON(t, server, http.MethodPost, "/api/sessions", nil)
	gt.V(t, w.Code).Equal(http.StatusCreated)
	base := "/api/sessions/" + decodeSession(t, w).ID

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{
			name:   "Unknown session",
			method: http.MethodGet,
			path:   "/api/sessions/no-such-session",
			status: http.StatusNotFound,
		},
		{
			name:   "Grow unknown session",
			method: http.MethodPost,
			path:   "/api/sessions/no-such-session/slots",
			status: http.StatusNotFound,
		},
		{
			name:   "Slot index out of range",
			method: http.MethodPut,
			path:   base + "/slots/99",
			body:   model.Entry{Filename: "a.txt", Content: "x"},
			status: http.StatusBadRequest,
		},
		{
			name:   "Negative slot index",
			method: http.MethodPut,
			path:   base + "/slots/-1",
			body:   model.Entry{Filename: "a.txt", Content: "x"},
			status: http.StatusBadRequest,
		},
		{
			name:   "Non numeric slot index",
			method: http.MethodPut,
			path:   base + "/slots/abc",
			body:   model.Entry{Filename: "a.txt", Content: "x"},
			status: http.StatusBadRequest,
		},
		{
			name:   "Archive request without entries",
			method: http.MethodPost,
			path:   "/api/archive",
			body:   map[string]any{},
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, server, tt.method, tt.path, tt.body)
			gt.V(t, w.Code).Equal(tt.status)

			var resp map[string]string
			gt.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			gt.V(t, resp["error"]).NotEqual("")
		})
	}
}

func TestAPI_InvalidJSON(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/archive", strings.NewReader(`{"entries": [`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.Handler.ServeHTTP(w, req)

	gt.V(t, w.Code).Equal(http.StatusBadRequest)
}

func TestAPI_BodyTooLarge(t *testing.T) {
	server := newTestServer(t, controller.WithMaxBodySize(64))

	w := doJSON(t, server, http.MethodPost, "/api/archive", map[string]any{
		"entries": []model.Entry{
			{Filename: "big.txt", Content: strings.Repeat("x", 1024)},
		},
	})
	gt.V(t, w.Code).Equal(http.StatusRequestEntityTooLarge)
}

func TestAPI_BuildArchive(t *testing.T) {
	server := newTestServer(t)

	w := doJSON(t, server, http.MethodPost, "/api/archive", map[string]any{
		"entries": []model.Entry{
			{Filename: "a.txt", Content: "x"},
			{Filename: "", Content: "y"},
			{Filename: "b.txt", Content: ""},
			{Filename: "c.txt", Content: "first"},
			{Filename: "c.txt", Content: "second\n\n"},
		},
	})
	gt.V(t, w.Code).Equal(http.StatusOK)
	gt.V(t, unzip(t, w.Body.Bytes())).Equal(map[string]string{
		"a.txt": "x\n",
		"c.txt": "second\n\n",
	})
}

func TestAPI_BuildEmptyArchive(t *testing.T) {
	server := newTestServer(t)

	w := doJSON(t, server, http.MethodPost, "/api/archive", map[string]any{
		"entries": []model.Entry{},
	})
	gt.V(t, w.Code).Equal(http.StatusOK)
	gt.V(t, len(unzip(t, w.Body.Bytes()))).Equal(0)
}

func TestAPI_OpenAPIDocument(t *testing.T) {
	server := newTestServer(t)

	w := doJSON(t, server, http.MethodGet, "/api/openapi.yaml", nil)
	gt.V(t, w.Code).Equal(http.StatusOK)
	gt.String(t, w.Body.String()).Contains("openapi: 3.0.3")
}

func TestAPI_Integration(t *testing.T) {
	server := newTestServer(t)
	ts := httptest.NewServer(server.Handler)
	defer ts.Close()

	body := `{"entries":[{"filename":"hello.py","content":"print('hi')"}]}`
	resp, err := http.Post(ts.URL+"/api/archive", "application/json", strings.NewReader(body))
	gt.NoError(t, err).Required()
	defer func() {
		_ = resp.Body.Close() // Error ignored in test
	}()

	gt.V(t, resp.StatusCode).Equal(http.StatusOK)
	data, err := io.ReadAll(resp.Body)
	gt.NoError(t, err)
	gt.V(t, unzip(t, data)).Equal(map[string]string{"hello.py": "print('hi')\n"})
}
