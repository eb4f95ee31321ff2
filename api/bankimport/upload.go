package bankimport

import (
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"FinTrack/internal/checksum"
	"FinTrack/internal/config"
)

// allowedExtensions are the statement file types the parser understands.
var allowedExtensions = map[string]bool{
	".csv":  true,
	".xlsx": true,
	".xls":  true,
}

// UploadStatement accepts a multipart statement upload and runs the import
// pipeline. Files over the upload cap or with unknown extensions are rejected
// before the pipeline is invoked. Callers always get an ImportReport back;
// pipeline failures are reported with status 200 and success=false.
func (h *Handler) UploadStatement(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadBytes+4096)
	if err := r.ParseMultipartForm(config.MaxUploadBytes); err != nil {
		http.Error(w, "File exceeds the 10MB upload limit", http.StatusRequestEntityTooLarge)
		return
	}

	userID := r.FormValue("user_id")
	if userID == "" {
		http.Error(w, "user_id required in form", http.StatusBadRequest)
		return
	}
	accountID, err := strconv.ParseInt(r.FormValue("account_id"), 10, 64)
	if err != nil {
		http.Error(w, "account_id required in form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "No file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		http.Error(w, "Unsupported file type: "+ext, http.StatusBadRequest)
		return
	}
	if header.Size > config.MaxUploadBytes {
		http.Error(w, "File exceeds the 10MB upload limit", http.StatusRequestEntityTooLarge)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read file: "+header.Filename, http.StatusBadRequest)
		return
	}

	// Optional integrity check against a client-supplied digest.
	if expected := r.FormValue("checksum"); expected != "" {
		ok, err := checksum.NewMatcher(expected).Match(data)
		if err != nil || !ok {
			http.Error(w, "Checksum mismatch, upload corrupted", http.StatusBadRequest)
			return
		}
	}

	report := h.orchestrator.ImportStatement(r.Context(), data, userID, accountID, header.Filename)
	writeJSON(w, http.StatusOK, report)
}
