package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	kerrors "github.com/matzehuels/kabelplan/pkg/errors"
	"github.com/matzehuels/kabelplan/pkg/export"
	"github.com/matzehuels/kabelplan/pkg/pipeline"
	"github.com/matzehuels/kabelplan/pkg/session"
	"github.com/matzehuels/kabelplan/pkg/viewport"
)

// maxBody caps JSON request bodies.
const maxBody = 1 << 20

type errorResponse struct {
	Error string       `json:"error"`
	Code  kerrors.Code `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := kerrors.HTTPStatus(err)
	code := kerrors.GetCode(err)
	if code == "" {
		code = kerrors.ErrCodeInternal
	}
	if status >= 500 {
		s.logger.Error("request failed", "path", r.URL.Path, "code", code, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: kerrors.UserMessage(err), Code: code})
}

func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return kerrors.Wrap(kerrors.ErrCodeInvalidInput, err, "read body")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return kerrors.Wrap(kerrors.ErrCodeInvalidInput, err, "invalid JSON body: %v", err)
	}
	return nil
}

// requestOptions layers query parameters over the server defaults.
func (s *Server) requestOptions(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := s.defaults
	opts.Formats = nil
	opts.Site = strings.TrimSpace(q.Get("site"))
	opts.Location = strings.TrimSpace(q.Get("location"))
	opts.Rack = strings.TrimSpace(q.Get("rack"))
	opts.Refresh = boolParam(q.Get("refresh"))
	if v := q.Get("layout"); v != "" {
		opts.Layout = v
	}
	if v := q.Get("router"); v != "" {
		opts.Router = v
	}
	if v := q.Get("nofit"); v != "" {
		opts.NoFit = boolParam(v)
	}
	for _, p := range []struct {
		name string
		dst  *int
	}{{"width", &opts.Width}, {"height", &opts.Height}} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 20000 {
			return opts, kerrors.New(kerrors.ErrCodeInvalidInput, "%s must be a positive integer up to 20000", p.name)
		}
		*p.dst = n
	}
	return opts, nil
}

func boolParam(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}

func (s *Server) handleFilterOptions(w http.ResponseWriter, r *http.Request) {
	if s.runner.NetBox == nil {
		s.writeError(w, r, errNoNetBox)
		return
	}
	opts, err := s.runner.NetBox.FilterOptions(r.Context(), boolParam(r.URL.Query().Get("refresh")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

var errNoNetBox = kerrors.New(kerrors.ErrCodeUnsupported, "NetBox is not configured")

func (s *Server) handleGraphData(w http.ResponseWriter, r *http.Request) {
	opts, err := s.requestOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, _, err := s.runner.Load(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleDiagram(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(chi.URLParam(r, "format"))
	if err := kerrors.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts, err := s.requestOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Formats = []string{format}

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeArtifact(w, opts.Site, format, res.Artifacts[format])
}

func writeArtifact(w http.ResponseWriter, site, format string, data []byte) {
	w.Header().Set("Content-Type", export.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(site, format)))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

type createRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	id := s.sessions.Create()
	var st session.State
	err := s.sessions.With(id, func(sess *session.Session) error {
		sess.SetCanvas(req.Width, req.Height)
		st = sess.State()
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (s *Server) handleSessionState(w http.ResponseWriter, r *http.Request) {
	var st session.State
	err := s.sessions.With(chi.URLParam(r, "id"), func(sess *session.Session) error {
		st = sess.State()
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.Delete(chi.URLParam(r, "id")) {
		s.writeError(w, r, session.ErrNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type loadRequest struct {
	Site     string `json:"site"`
	Location string `json:"location"`
	Rack     string `json:"rack"`
	Refresh  bool   `json:"refresh"`
}

// handleLoad fetches outside the session lock. A load superseded by a newer
// one answers with the session's current state, and so does an empty
// selection, whose state carries the "no data" message.
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req loadRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts := s.defaults
	opts.Site, opts.Location, opts.Rack, opts.Refresh = req.Site, req.Location, req.Rack, req.Refresh
	if err := opts.ValidateForLoad(); err != nil {
		s.writeError(w, r, err)
		return
	}

	var token string
	err := s.sessions.With(id, func(sess *session.Session) error {
		token = sess.BeginLoad()
		sess.SetSite(req.Site)
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	data, _, loadErr := s.runner.Load(r.Context(), opts)

	var st session.State
	err = s.sessions.With(id, func(sess *session.Session) error {
		var err error
		if loadErr != nil {
			err = sess.Fail(token, loadErr)
		} else {
			err = sess.Complete(r.Context(), token, data)
		}
		st = sess.State()
		return err
	})
	switch {
	case errors.Is(err, session.ErrStaleLoad):
		writeJSON(w, http.StatusOK, st)
	case loadErr != nil:
		s.writeError(w, r, loadErr)
	case err != nil && !kerrors.Is(err, kerrors.ErrCodeEmptyResult):
		s.writeError(w, r, err)
	default:
		writeJSON(w, http.StatusOK, st)
	}
}

// viewportRequest is one viewport event. Action is one of fit, reset, set,
// wheel, pointer_down, pointer_move, pointer_up and canvas.
type viewportRequest struct {
	Action    string              `json:"action"`
	X         float64             `json:"x"`
	Y         float64             `json:"y"`
	DeltaY    float64             `json:"delta_y"`
	Width     float64             `json:"width"`
	Height    float64             `json:"height"`
	Transform *viewport.Transform `json:"transform,omitempty"`
}

func (s *Server) handleViewport(w http.ResponseWriter, r *http.Request) {
	var req viewportRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	var st session.State
	err := s.sessions.With(chi.URLParam(r, "id"), func(sess *session.Session) error {
		if err := applyViewport(sess, req); err != nil {
			return err
		}
		st = sess.State()
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func applyViewport(sess *session.Session, req viewportRequest) error {
	view := sess.Viewport()
	switch req.Action {
	case "fit":
		sess.Fit()
	case "reset":
		view.Reset()
	case "set":
		if req.Transform == nil {
			return kerrors.New(kerrors.ErrCodeInvalidInput, "set requires a transform")
		}
		view.Set(*req.Transform)
	case "wheel":
		view.Wheel(req.DeltaY)
	case "pointer_down":
		view.PointerDown(req.X, req.Y)
	case "pointer_move":
		view.PointerMove(req.X, req.Y)
	case "pointer_up":
		view.PointerUp()
	case "canvas":
		sess.SetCanvas(req.Width, req.Height)
	default:
		return kerrors.New(kerrors.ErrCodeInvalidInput, "unknown viewport action %q", req.Action)
	}
	return nil
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = pipeline.DefaultFormat
	}
	if err := kerrors.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}

	var (
		buf  bytes.Buffer
		site string
	)
	err := s.sessions.With(chi.URLParam(r, "id"), func(sess *session.Session) error {
		site = sess.Site()
		return sess.Export(r.Context(), &buf, format)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeArtifact(w, site, format, buf.Bytes())
}
