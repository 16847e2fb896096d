package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/cleared-dev/monthsum/internal/model"
	"github.com/cleared-dev/monthsum/internal/pipeline"
	"github.com/cleared-dev/monthsum/internal/summary"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// multipartMemory is how much of an upload is held in memory before
// spilling to temp files.
const multipartMemory = 8 << 20

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleProcess summarizes the uploaded "file" part.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	logger := s.loggerFrom(r.Context())

	if r.ContentLength > s.opts.MaxUploadBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, model.Failed("upload exceeds size limit"))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if tooLarge(err) {
			writeJSON(w, http.StatusRequestEntityTooLarge, model.Failed("upload exceeds size limit"))
			return
		}
		writeJSON(w, http.StatusBadRequest, model.Failed("invalid multipart upload: "+err.Error()))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, model.Failed(`missing "file" field`))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, model.Failed("reading upload: "+err.Error()))
		return
	}

	table, err := s.svc.Summarize(hdr.Filename, data)
	if err != nil {
		status := http.StatusBadRequest
		if pipeline.IsEngineError(err) {
			status = http.StatusUnprocessableEntity
		}
		logger.Warn("summarize failed", zap.String("file", hdr.Filename), zap.Int("status", status), zap.Error(err))
		writeJSON(w, status, model.Failed(err.Error()))
		return
	}

	format := responseFormat(r)
	if format == pipeline.FormatJSON {
		writeJSON(w, http.StatusOK, model.Succeeded(summary.SuccessMessage, table))
		return
	}

	out, err := s.svc.Render(table, format)
	if err != nil {
		logger.Error("render failed", zap.String("format", format), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, model.Failed(err.Error()))
		return
	}

	name := s.opts.OutputName
	contentType := xlsxContentType
	if format == pipeline.FormatCSV {
		name = strings.TrimSuffix(name, filepath.Ext(name)) + ".csv"
		contentType = "text/csv; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// responseFormat picks xlsx unless the client asked for json or csv.
func responseFormat(r *http.Request) string {
	switch f := strings.ToLower(r.URL.Query().Get("format")); f {
	case pipeline.FormatJSON, pipeline.FormatCSV, pipeline.FormatXLSX:
		return f
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return pipeline.FormatJSON
	}
	return pipeline.FormatXLSX
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
