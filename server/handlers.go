package server

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/notargets/meshconv/converter"
	"github.com/notargets/meshconv/session"
	"github.com/notargets/meshconv/tokens"
)

//go:embed static/index.html
var static embed.FS

type uploadResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Size        string         `json:"size"`
	Kind        session.Kind   `json:"kind"`
	State       session.State  `json:"state"`
	Tokens      []string       `json:"tokens"`
	Summary     tokens.Summary `json:"summary"`
	Convertible bool           `json:"convertible"`
	Message     string         `json:"message"`
}

type errorResponse struct {
	Error       string `json:"error"`
	Diagnostics string `json:"diagnostics,omitempty"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := static.ReadFile("static/index.html")
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "OK")
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	name, data, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	sess := session.New(s.conv, s.logger)
	if err := sess.Receive(name, data); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	snap := sess.Snapshot()
	toks := snap.Tokens
	if toks == nil {
		toks = []string{}
	}
	s.writeJSON(w, http.StatusOK, uploadResponse{
		ID:          snap.ID,
		Name:        snap.Name,
		Size:        humanize.Bytes(uint64(len(data))),
		Kind:        snap.Kind,
		State:       snap.State,
		Tokens:      toks,
		Summary:     tokens.Summarize(toks),
		Convertible: snap.Convertible,
		Message:     snap.Message,
	})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	name, data, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	sess := session.New(s.conv, s.logger)
	if err := sess.Receive(name, data); err != nil && !errors.Is(err, tokens.ErrDecode) {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if !sess.Snapshot().Convertible {
		s.writeError(w, http.StatusBadRequest,
			fmt.Errorf("%s uploads cannot be converted", session.KindOf(name)))
		return
	}

	res, err := sess.Convert(r.Context(), r.FormValue("strategy"))
	if err != nil {
		var engErr *converter.EngineError
		switch {
		case errors.As(err, &engErr):
			s.writeJSON(w, http.StatusUnprocessableEntity,
				errorResponse{Error: engErr.Error(), Diagnostics: engErr.Diagnostics()})
		case errors.Is(err, converter.ErrParse):
			s.writeError(w, http.StatusUnprocessableEntity, err)
		case errors.Is(err, converter.ErrInvalidInput), errors.Is(err, session.ErrInvalidTransition):
			s.writeError(w, http.StatusBadRequest, err)
		default:
			s.writeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": res.Name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	w.Header().Set("X-Mesh-Points", strconv.Itoa(res.Stats.NumPoints))
	w.Header().Set("X-Mesh-Cells", strconv.Itoa(res.Stats.NumCells))
	w.WriteHeader(http.StatusOK)
	w.Write(res.Data)
}

// multipartOverhead is the allowance for boundaries, part headers and form
// fields on top of the file size limit
const multipartOverhead = 16 << 10

// readUpload reads the multipart "file" field, enforcing the size limit.
// It writes the error response itself and reports ok=false on failure.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	bodyLimit := s.maxUpload + multipartOverhead
	if r.ContentLength > bodyLimit {
		s.writeUploadError(w, &http.MaxBytesError{Limit: s.maxUpload})
		return "", nil, false
	}
	r.Body = http.MaxBytesReader(w, r.Body, bodyLimit)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		s.writeUploadError(w, err)
		return "", nil, false
	}
	defer r.MultipartForm.RemoveAll()
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("missing file field: %w", err))
		return "", nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.maxUpload+1))
	if err != nil {
		s.writeUploadError(w, err)
		return "", nil, false
	}
	if int64(len(data)) > s.maxUpload {
		s.writeUploadError(w, &http.MaxBytesError{Limit: s.maxUpload})
		return "", nil, false
	}
	s.logger.Debug("upload received",
		zap.String("file", header.Filename),
		zap.String("size", humanize.Bytes(uint64(len(data)))))
	return header.Filename, data, true
}

func (s *Server) writeUploadError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		s.writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Errorf("upload exceeds %s", humanize.Bytes(uint64(s.maxUpload))))
		return
	}
	s.writeError(w, http.StatusBadRequest, err)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", zap.Error(err))
	}
}
