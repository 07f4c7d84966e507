package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/notargets/meshconv/converter"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeConverter struct {
	calls int
	err   error
}

func (f *fakeConverter) Convert(_ context.Context, name string, _ []byte, s converter.Strategy) (*converter.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	res := &converter.Result{Name: converter.OutputName(name, s, nil), Strategy: s,
		Data: []byte("$MeshFormat\n2.2 0 8\n$EndMeshFormat\n")}
	res.Stats.NumPoints = 4
	res.Stats.NumCells = 1
	return res, nil
}

func newTestServer(t *testing.T, conv *fakeConverter, maxUpload string) *Server {
	t.Helper()
	cfg := DefaultConfig()
	cfg.MaxUpload = maxUpload
	s, err := New(cfg, conv, nil)
	require.NoError(t, err)
	return s
}

func multipartRequest(t *testing.T, path, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeUpload(t *testing.T, rec *httptest.ResponseRecorder) uploadResponse {
	t.Helper()
	var got struct {
		uploadResponse
		Kind  string `json:"kind"`
		State string `json:"state"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	return got.uploadResponse
}

func TestIndexAndHealth(t *testing.T) {
	s := newTestServer(t, &fakeConverter{}, "1MB")

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/v1/uploads")

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK\n", rec.Body.String())

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadText(t *testing.T) {
	s := newTestServer(t, &fakeConverter{}, "1MB")
	rec := serve(s, multipartRequest(t, "/api/v1/uploads", "notes.txt", []byte("Beam B12 load 40kN"), nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Equal(t, "text", raw["kind"])
	assert.Equal(t, "TextExtracted", raw["state"])
	assert.Equal(t, false, raw["convertible"])

	got := decodeUpload(t, rec)
	assert.Equal(t, []string{"Beam", "B", "12", "load", "40", "kN"}, got.Tokens)
	assert.Equal(t, 6, got.Summary.Total)
	assert.Equal(t, 2, got.Summary.Numbers)
	assert.NotEmpty(t, got.ID)
}

func TestUploadMshIsAlreadyTarget(t *testing.T) {
	conv := &fakeConverter{}
	s := newTestServer(t, conv, "1MB")
	rec := serve(s, multipartRequest(t, "/api/v1/uploads", "done.msh", []byte("$MeshFormat\n2.2 0 8\n"), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Equal(t, "AlreadyTargetFormat", raw["state"])
	assert.Equal(t, []any{}, raw["tokens"])
	assert.Equal(t, false, raw["convertible"])
	assert.Equal(t, 0, conv.calls)
}

func TestUploadNastranIsConvertible(t *testing.T) {
	s := newTestServer(t, &fakeConverter{}, "1MB")
	rec := serve(s, multipartRequest(t, "/api/v1/uploads", "frame.nas", []byte("GRID,7,,1.,2.,3.\n"), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Equal(t, "volume", raw["kind"])
	assert.Equal(t, "FileReceived", raw["state"])
	assert.Equal(t, true, raw["convertible"])
	assert.Equal(t, []any{"GRID", "7", "1", "2", "3"}, raw["tokens"])
}

func TestUploadErrors(t *testing.T) {
	s := newTestServer(t, &fakeConverter{}, "1KB")

	rec := serve(s, multipartRequest(t, "/api/v1/uploads", "", nil, map[string]string{"note": "x"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(s, multipartRequest(t, "/api/v1/uploads", "photo.png", []byte("png"), nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported file type")

	rec = serve(s, multipartRequest(t, "/api/v1/uploads", "bad.txt", []byte{0xff, 0xfe}, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(s, multipartRequest(t, "/api/v1/uploads", "big.txt", bytes.Repeat([]byte("a"), 4096), nil))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestUploadSizeLimitAppliesToFile(t *testing.T) {
	s := newTestServer(t, &fakeConverter{}, "1KB")

	rec := serve(s, multipartRequest(t, "/api/v1/uploads", "exact.txt", bytes.Repeat([]byte("a"), 1000), nil))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(s, multipartRequest(t, "/api/v1/uploads", "over.txt", bytes.Repeat([]byte("a"), 1001), nil))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = serve(s, multipartRequest(t, "/api/v1/uploads", "huge.txt", bytes.Repeat([]byte("a"), 64<<10), nil))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestConvertSuccess(t *testing.T) {
	conv := &fakeConverter{}
	s := newTestServer(t, conv, "1MB")
	rec := serve(s, multipartRequest(t, "/api/v1/convert", "P7_column_comsol_mesh.stl", []byte("solid\n"), nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
	_, params, err := mime.ParseMediaType(rec.Header().Get("Content-Disposition"))
	require.NoError(t, err)
	assert.Equal(t, "P7Framec_fistr.msh", params["filename"])
	assert.Equal(t, "4", rec.Header().Get("X-Mesh-Points"))
	assert.Contains(t, rec.Body.String(), "$MeshFormat")
	assert.Equal(t, 1, conv.calls)
}

func TestConvertFailures(t *testing.T) {
	engineErr := &converter.EngineError{Binary: "gmsh", ExitCode: 1, Stderr: "Error   : No volume in model"}
	s := newTestServer(t, &fakeConverter{err: engineErr}, "1MB")
	rec := serve(s, multipartRequest(t, "/api/v1/convert", "part.stl", []byte("solid\n"), nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Error, "exited with status 1")
	assert.Equal(t, "Error   : No volume in model", body.Diagnostics)

	s = newTestServer(t, &fakeConverter{err: converter.ErrParse}, "1MB")
	rec = serve(s, multipartRequest(t, "/api/v1/convert", "part.nas", []byte("junk\n"), nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	s = newTestServer(t, &fakeConverter{err: errors.New("disk full")}, "1MB")
	rec = serve(s, multipartRequest(t, "/api/v1/convert", "part.nas", []byte("junk\n"), nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	conv := &fakeConverter{}
	s = newTestServer(t, conv, "1MB")
	rec = serve(s, multipartRequest(t, "/api/v1/convert", "done.msh", []byte("$MeshFormat\n"), nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = serve(s, multipartRequest(t, "/api/v1/convert", "notes.txt", []byte("text"), nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = serve(s, multipartRequest(t, "/api/v1/convert", "part.stl", []byte("solid\n"),
		map[string]string{"strategy": "remesh"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, conv.calls)
}

func TestNewRejectsBadLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxUpload = "lots"
	_, err := New(cfg, &fakeConverter{}, nil)
	assert.Error(t, err)
}

func TestServeShutsDown(t *testing.T) {
	s := newTestServer(t, &fakeConverter{}, "1MB")
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "OK\n", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
