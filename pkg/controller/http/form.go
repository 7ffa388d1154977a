package http

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/snipzip/pkg/domain/interfaces"
	"github.com/m-mizutani/snipzip/pkg/domain/model"
)

//go:embed templates/index.html
var templateFS embed.FS

// Form actions posted by the page buttons
const (
	actionAdd      = "add"
	actionProcess  = "process"
	actionDownload = "download"
)

type slotView struct {
	Index    int
	Number   int
	Filename string
	Content  string
}

type pageData struct {
	Slots   []slotView
	Preview *model.Preview
}

// formHandler serves the HTML form bound to the session in the cookie
type formHandler struct {
	sessions interfaces.SessionUseCase
	cookies  *cookieSigner
	tmpl     *template.Template
}

func newFormHandler(sessions interfaces.SessionUseCase, cookies *cookieSigner) (*formHandler, error) {
	tmpl, err := template.New("index.html").Funcs(template.FuncMap{
		"slotNumber": func(i int) int { return i + 1 },
	}).ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse page template")
	}

	return &formHandler{
		sessions: sessions,
		cookies:  cookies,
		tmpl:     tmpl,
	}, nil
}

// Show renders the form
func (h *formHandler) Show(w http.ResponseWriter, r *http.Request) {
	session, err := h.session(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.render(w, r, session, nil)
}

// Submit stores the posted slots and runs the requested action
func (h *formHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, goerr.Wrap(err, "form too large"))
			return
		}
		writeError(w, r, goerr.Wrap(errBadRequest, "invalid form", goerr.V("cause", err.Error())))
		return
	}

	session, err := h.session(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	entries := postedEntries(r.PostForm, len(session.Slots))
	if session, err = h.sessions.Submit(ctx, session.ID, entries); err != nil {
		writeError(w, r, err)
		return
	}

	switch action := r.PostFormValue("action"); action {
	case actionAdd:
		if _, err := h.sessions.Grow(ctx, session.ID); err != nil {
			writeError(w, r, err)
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)

	case actionProcess:
		preview, err := h.sessions.Preview(ctx, session.ID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		h.render(w, r, session, preview)

	case actionDownload:
		archive, err := h.sessions.Build(ctx, session.ID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeArchive(w, r, archive)

	default:
		writeError(w, r, goerr.Wrap(errBadRequest, "unknown form action", goerr.V("action", action)))
	}
}

// maxFormSlots bounds the slot indexes accepted from a posted page
const maxFormSlots = 1000

// postedEntries reads filename_N and content_N for every slot of the page,
// which may have more slots than the session when the session was replaced.
func postedEntries(form url.Values, slots int) []model.Entry {
	n := slots
	for key := range form {
		if i, ok := slotIndex(key); ok && i < maxFormSlots {
			n = max(n, i+1)
		}
	}

	entries := make([]model.Entry, n)
	for i := range entries {
		entries[i] = model.Entry{
			Filename: form.Get(fmt.Sprintf("filename_%d", i)),
			// browsers post textarea line breaks as CRLF
			Content: strings.ReplaceAll(form.Get(fmt.Sprintf("content_%d", i)), "\r\n", "\n"),
		}
	}
	return entries
}

func slotIndex(key string) (int, bool) {
	for _, prefix := range []string{"filename_", "content_"} {
		if v, ok := strings.CutPrefix(key, prefix); ok {
			i, err := strconv.Atoi(v)
			if err != nil || i < 0 {
				return 0, false
			}
			return i, true
		}
	}
	return 0, false
}

// session returns the session named by the cookie, starting a new one when
// the cookie is missing, invalid or points to an expired session
func (h *formHandler) session(w http.ResponseWriter, r *http.Request) (*model.Session, error) {
	ctx := r.Context()
	logger := ctxlog.From(ctx)

	if id, err := h.cookies.SessionID(r); err == nil {
		session, err := h.sessions.Get(ctx, id)
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, model.ErrSessionNotFound) {
			return nil, err
		}
		logger.Debug("Session in cookie is gone, starting a new one", "session_id", id)
	}

	session, err := h.sessions.Create(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.cookies.SetCookie(w, session.ID); err != nil {
		return nil, err
	}
	return session, nil
}

func (h *formHandler) render(w http.ResponseWriter, r *http.Request, session *model.Session, preview *model.Preview) {
	data := pageData{
		Slots:   make([]slotView, len(session.Slots)),
		Preview: preview,
	}
	for i, slot := range session.Slots {
		data.Slots[i] = slotView{
			Index:    i,
			Number:   i + 1,
			Filename: slot.Filename,
			Content:  slot.Content,
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := h.tmpl.Execute(w, data); err != nil {
		ctxlog.From(r.Context()).Error("Failed to render page", "error", err)
	}
}
