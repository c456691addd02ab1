package adapthttp

import (
	"errors"
	"fmt"
	"net/http"

	"brandsite/internal/app"
)

const multipartMemory = 8 << 20

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !s.allow(w, r, s.limits.Upload, "uploads") {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, app.MaxUploadSize()+1<<20)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]any{
				"error": fmt.Sprintf("file too large, maximum size is %dMB", app.MaxUploadSize()>>20),
			})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid multipart form"})
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "No file provided"})
		return
	}
	defer func() { _ = file.Close() }()

	asset, err := s.uploads.Upload(r.Context(), app.UploadRequest{
		Folder:      r.FormValue("folder"),
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "url": asset.URL, "filename": asset.Filename})
}
