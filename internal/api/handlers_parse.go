package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/modmap/internal/docread"
	"github.com/dgallion1/modmap/internal/extract"
	"github.com/dgallion1/modmap/internal/pipeline"
)

// upload is a validated multipart file submission.
type upload struct {
	Filename string
	Title    string
	Data     []byte
}

// readUpload validates and buffers the "file" field of a multipart form.
// It writes the error response itself and returns nil on failure.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) *upload {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return nil
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return nil
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !docread.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return nil
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return nil
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return nil
	}

	return &upload{
		Filename: filename,
		Title:    r.FormValue("title"),
		Data:     data,
	}
}

// handleParse runs the whole pipeline synchronously and returns the
// extracted register map in one response. Large manuals belong on the
// async job endpoints instead.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	up := s.readUpload(w, r)
	if up == nil {
		return
	}

	reader, err := docread.ForFile(up.Filename)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	doc, err := reader.Read(bytes.NewReader(up.Data), up.Filename)
	if err != nil {
		jsonError(w, "failed to read document: "+err.Error(), http.StatusBadRequest)
		return
	}
	if up.Title != "" {
		doc.Title = up.Title
	}

	res, err := pipeline.ParseDocument(r.Context(), doc, s.client, s.stats, s.log, s.orchestrator.AssembleConfig(), s.cfg.PageAnalyzers)
	if err != nil {
		switch {
		case pipeline.IsEmptyDocument(err):
			jsonError(w, "document contains no readable pages", http.StatusBadRequest)
		case errors.Is(err, extract.ErrMalformedOutput):
			jsonError(w, "extraction produced unusable output: "+err.Error(), http.StatusBadGateway)
		default:
			jsonError(w, "parse failed: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":   true,
		"message":   fmt.Sprintf("extracted %d registers", len(res.Registers)),
		"registers": res.Registers,
		"csv_data":  res.CSVData,
		"json_data": res.JSONData,
		"metadata":  res.Metadata,
	})
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
