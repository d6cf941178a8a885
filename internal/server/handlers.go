package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/flowchart/pkg/diagram"
	"github.com/matzehuels/flowchart/pkg/errors"
	"github.com/matzehuels/flowchart/pkg/geom"
	fio "github.com/matzehuels/flowchart/pkg/io"
	"github.com/matzehuels/flowchart/pkg/observability"
	"github.com/matzehuels/flowchart/pkg/pipeline"
	"github.com/matzehuels/flowchart/pkg/render/sink"
	"github.com/matzehuels/flowchart/pkg/session"
	"github.com/matzehuels/flowchart/pkg/surface/scene"
)

var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatPDF:  "application/pdf",
	pipeline.FormatJSON: "application/json",
	pipeline.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
}

type sessionResponse struct {
	ID        string  `json:"id"`
	ExpiresAt string  `json:"expires_at"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Nodes     int     `json:"nodes"`
}

type eventRequest struct {
	Gesture string  `json:"gesture"`
	Target  string  `json:"target"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	DX      float64 `json:"dx"`
	DY      float64 `json:"dy"`
}

type eventResponse struct {
	Handled bool            `json:"handled"`
	Events  []session.Event `json:"events"`
	SVG     string          `json:"svg,omitempty"`
}

type sizeRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// handlePage creates a session from the default input and serves the viewer.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if s.deps.Defaults.Input == "" && s.deps.Defaults.Nodes == nil {
		writeError(w, http.StatusNotFound, errors.New(errors.ErrCodeNotFound, "no default flowchart; POST a node list to /api/sessions"))
		return
	}
	sess, err := s.createSession(r, s.deps.Defaults)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	var svg []byte
	_ = sess.Do(func(_ *diagram.Diagram, sc *scene.Scene) error {
		svg = sink.RenderSVG(sc, sink.WithGestures(), sink.WithTitle(s.deps.Defaults.Title))
		return nil
	})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = s.page.Execute(w, map[string]any{
		"Title":     s.deps.Defaults.Title,
		"SessionID": sess.ID,
		"SVG":       svgHTML(svg),
	})
	if err != nil {
		s.deps.Logger.Error("template render error", "error", err)
	}
}

func (s *Server) handleScript(w http.ResponseWriter, r *http.Request) {
	data, err := assets.ReadFile("assets/viewer.js")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/javascript")
	_, _ = w.Write(data)
}

// handleRender renders an uploaded node list without creating a session.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	data, inFmt, err := readBody(r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	opts := s.deps.Defaults
	opts.Input, opts.Nodes = "", nil
	opts.Data, opts.InputFormat = data, string(inFmt)
	opts.Formats = []string{format}
	if t := r.URL.Query().Get("title"); t != "" {
		opts.Title = t
	}

	res, err := s.deps.Runner.Execute(r.Context(), opts)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if res.CacheInfo.RenderHit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	w.Header().Set("Content-Type", contentTypes[format])
	_, _ = w.Write(res.Artifacts[format])
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	data, inFmt, err := readBody(r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	opts := s.deps.Defaults
	if len(data) > 0 {
		opts.Input, opts.Nodes = "", nil
		opts.Data, opts.InputFormat = data, string(inFmt)
	}
	sess, err := s.createSession(r, opts)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	resp := sessionResponse{ID: sess.ID, ExpiresAt: sess.ExpiresAt().UTC().Format(http.TimeFormat)}
	_ = sess.Do(func(d *diagram.Diagram, _ *scene.Scene) error {
		resp.Width, resp.Height, resp.Nodes = d.Width(), d.Height(), len(d.Nodes())
		return nil
	})
	writeJSON(w, http.StatusCreated, resp)
}

// createSession lays out the node list in opts and registers listeners that
// feed diagram events into the session backlog.
func (s *Server) createSession(r *http.Request, opts pipeline.Options) (*session.Session, error) {
	if w := queryFloat(r, "width"); w > 0 {
		opts.Width = w
	}
	if h := queryFloat(r, "height"); h > 0 {
		opts.Height = h
	}
	res, err := s.deps.Runner.Layout(r.Context(), opts)
	if err != nil {
		return nil, err
	}
	sess := session.New(res.Diagram, res.Scene, s.deps.TTL)
	record := func(kind string) func(diagram.Event, *diagram.Node) {
		return func(ev diagram.Event, n *diagram.Node) {
			sess.Record(session.Event{Kind: kind, Node: n.ID(), X: ev.Point.X, Y: ev.Point.Y})
		}
	}
	res.Diagram.
		Click(record("click")).
		DblClick(record("dblclick")).
		HoverIn(record("hover")).
		Draggable(diagram.DragListener{OnEnd: record("drag")})

	if err := s.deps.Store.Set(r.Context(), sess); err != nil {
		return nil, err
	}
	observability.Server().OnSession(r.Context(), "created", s.deps.Store.Len())
	s.deps.Logger.Debug("session created", "id", sess.ID, "nodes", res.Stats.NodeCount)
	return sess, nil
}

func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var svg []byte
	_ = sess.Do(func(_ *diagram.Diagram, sc *scene.Scene) error {
		svg = sink.RenderSVG(sc, sink.WithGestures())
		return nil
	})
	w.Header().Set("Content-Type", contentTypes[pipeline.FormatSVG])
	_, _ = w.Write(svg)
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var data []byte
	err := sess.Do(func(d *diagram.Diagram, _ *scene.Scene) error {
		var err error
		data, err = sink.RenderJSON(d)
		return err
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[pipeline.FormatJSON])
	_, _ = w.Write(data)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := fio.WriteJSON(sess.Snapshot(), &buf); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[pipeline.FormatJSON])
	w.Header().Set("Content-Disposition", `attachment; filename="flowchart.json"`)
	_, _ = w.Write(buf.Bytes())
}

// handleEvent routes one gesture into the session's scene.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req eventRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid JSON"))
		return
	}
	g, err := scene.ParseGesture(req.Gesture)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid gesture"))
		return
	}
	if !geom.Finite(req.X, req.Y) || !geom.Finite(req.DX, req.DY) {
		writeError(w, http.StatusBadRequest, errors.New(errors.ErrCodeInvalidInput, "coordinates must be finite"))
		return
	}

	var resp eventResponse
	err = sess.Do(func(_ *diagram.Diagram, sc *scene.Scene) error {
		el, ok := sc.Lookup(req.Target)
		if !ok {
			return errors.New(errors.ErrCodeNotFound, "unknown element %q", req.Target)
		}
		resp.Handled = sc.Dispatch(g, el.ID, geom.Point{X: req.X, Y: req.Y}, req.DX, req.DY)
		resp.Events = sess.Drain()
		if resp.Handled && r.URL.Query().Get("svg") != "false" {
			resp.SVG = string(sink.RenderSVG(sc, sink.WithGestures()))
		}
		return nil
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if resp.Events == nil {
		resp.Events = []session.Event{}
	}
	observability.Server().OnGesture(r.Context(), req.Gesture, resp.Handled)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req sizeRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid JSON"))
		return
	}
	if !geom.Finite(req.Width, req.Height) || req.Width <= 0 || req.Height <= 0 {
		writeError(w, http.StatusBadRequest, errors.New(errors.ErrCodeInvalidInput, "size must be positive"))
		return
	}
	var resp sizeRequest
	_ = sess.Do(func(d *diagram.Diagram, sc *scene.Scene) error {
		sc.SetHostSize(req.Width, req.Height)
		d.Resize()
		resp.Width, resp.Height = d.Width(), d.Height()
		return nil
	})
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.deps.Store.Delete(r.Context(), id); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	observability.Server().OnSession(r.Context(), "deleted", s.deps.Store.Len())
	w.WriteHeader(http.StatusNoContent)
}

// session resolves the {id} route parameter, writing a 404 if it is unknown
// or expired.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.deps.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return nil, false
	}
	return sess, true
}

// readBody reads an uploaded node list and picks its format from the
// "input" query parameter or the content type. JSON is the default.
func readBody(r *http.Request) ([]byte, fio.Format, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeInvalidInput, err, "read body")
	}
	if len(data) > maxBodyBytes {
		return nil, "", errors.New(errors.ErrCodeInvalidInput, "body exceeds %d bytes", maxBodyBytes)
	}
	if f := r.URL.Query().Get("input"); f != "" {
		if err := pipeline.ValidateInputFormat(f); err != nil {
			return nil, "", err
		}
		return data, fio.Format(f), nil
	}
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch {
	case strings.Contains(mt, "yaml"):
		return data, fio.FormatYAML, nil
	case strings.Contains(mt, "toml"):
		return data, fio.FormatTOML, nil
	}
	return data, fio.FormatJSON, nil
}
