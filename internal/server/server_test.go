package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cleared-dev/monthsum/internal/codec"
	"github.com/cleared-dev/monthsum/internal/model"
	"github.com/cleared-dev/monthsum/internal/pipeline"
	"github.com/cleared-dev/monthsum/internal/summary"
)

const sampleCSV = "会计月,数量,金额\n2025-01,1,2\n2025-01,2,3\n2025-02,5,1.5\n"

func newTestServer(t *testing.T, opts Options, logger *zap.Logger) *Server {
	t.Helper()
	svc := pipeline.NewService(
		codec.DefaultRegistry(codec.DefaultXLSXOptions()),
		summary.New(summary.DefaultOptions(), nil),
		nil,
	)
	return New(svc, opts, logger)
}

func uploadRequest(t *testing.T, target, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) model.Result {
	t.Helper()
	var res model.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, Options{}, nil)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestProcess_XLSXAttachment(t *testing.T) {
	s := newTestServer(t, Options{}, nil)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, uploadRequest(t, ProcessPath, "一月.csv", []byte(sampleCSV)))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	tbl, err := codec.NewXLSX(codec.XLSXOptions{}).Decode(rec.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, tbl, 13)
	assert.Equal(t, []string{"会计月", "数量", "金额"}, tbl.Headers())
	assert.Equal(t, "3", tbl.Cell(1, 1).String())
	assert.Equal(t, "5", tbl.Cell(1, 2).String())
}

func TestProcess_JSON(t *testing.T) {
	s := newTestServer(t, Options{}, nil)

	for _, tc := range []struct {
		name   string
		target string
		accept string
	}{
		{"query", ProcessPath + "?format=json", ""},
		{"accept header", ProcessPath, "application/json"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := uploadRequest(t, tc.target, "in.csv", []byte(sampleCSV))
			if tc.accept != "" {
				req.Header.Set("Accept", tc.accept)
			}
			rec := httptest.NewRecorder()
			s.Handler.ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			res := decodeResult(t, rec)
			assert.True(t, res.Success)
			assert.Equal(t, summary.SuccessMessage, res.Message)
			require.Len(t, res.Data, 13)
			assert.Equal(t, "202502", res.Data.Cell(2, 0).String())
		})
	}
}

func TestProcess_CSV(t *testing.T) {
	s := newTestServer(t, Options{OutputName: "out.xlsx"}, nil)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, uploadRequest(t, ProcessPath+"?format=csv", "in.csv", []byte(sampleCSV)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "out.csv")
	assert.Contains(t, rec.Body.String(), "202501,3,5")
}

func TestProcess_CSVReplacesAnyExtension(t *testing.T) {
	for _, tt := range []struct{ output, want string }{
		{"Report.XLSX", `filename=Report.csv`},
		{"monthly.bin", `filename=monthly.csv`},
		{"summary", `filename=summary.csv`},
	} {
		s := newTestServer(t, Options{OutputName: tt.output}, nil)
		rec := httptest.NewRecorder()
		s.Handler.ServeHTTP(rec, uploadRequest(t, ProcessPath+"?format=csv", "in.csv", []byte(sampleCSV)))

		require.Equal(t, http.StatusOK, rec.Code, tt.output)
		assert.Equal(t, "attachment; "+tt.want, rec.Header().Get("Content-Disposition"), tt.output)
	}
}

func TestProcess_EngineErrorIs422(t *testing.T) {
	s := newTestServer(t, Options{}, nil)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, uploadRequest(t, ProcessPath, "in.csv", []byte("名称,数量\nx,1\n")))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	res := decodeResult(t, rec)
	assert.False(t, res.Success)
	assert.Equal(t, summary.ErrMonthColumnNotFound.Error(), res.Message)
}

func TestProcess_DecodeErrorIs400(t *testing.T) {
	s := newTestServer(t, Options{}, nil)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, uploadRequest(t, ProcessPath, "broken.xlsx", []byte("not a workbook")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	res := decodeResult(t, rec)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "decoding broken.xlsx")
}

func TestProcess_MissingFile(t *testing.T) {
	s := newTestServer(t, Options{}, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("other", "x"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, ProcessPath, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeResult(t, rec).Message, `missing "file" field`)
}

func TestProcess_TooLarge(t *testing.T) {
	s := newTestServer(t, Options{MaxUploadBytes: 1024}, nil)
	rec := httptest.NewRecorder()
	big := []byte(sampleCSV + strings.Repeat("2025-03,1,1\n", 500))
	s.Handler.ServeHTTP(rec, uploadRequest(t, ProcessPath, "in.csv", big))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestProcess_WrongMethod(t *testing.T) {
	s := newTestServer(t, Options{}, nil)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, ProcessPath, nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRequestIDPropagation(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := newTestServer(t, Options{}, zap.New(core))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	entries := logs.FilterMessage("request completed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "abc-123", fields["request_id"])
	assert.Equal(t, "/healthz", fields["path"])
	assert.EqualValues(t, http.StatusOK, fields["status"])
}

func TestRecovery(t *testing.T) {
	s := newTestServer(t, Options{}, nil)
	h := s.withRecovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, decodeResult(t, rec).Success)
}

func TestServe_GracefulShutdown(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := newTestServer(t, Options{ShutdownTimeout: time.Second}, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	cancel()
	require.NoError(t, <-done)
	client.CloseIdleConnections()
}
