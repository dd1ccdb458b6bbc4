package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ziadkadry99/errmatch/internal/dataset"
	"github.com/ziadkadry99/errmatch/internal/matcher"
	"github.com/ziadkadry99/errmatch/internal/render"
	"github.com/ziadkadry99/errmatch/internal/unmatched"
)

const sampleRows = 3

// uploadResponse is the JSON response for a successful upload.
type uploadResponse struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message"`
	Columns    []string            `json:"columns"`
	SampleData []map[string]string `json:"sample_data"`
}

// chatRequest is the body of POST /chat.
type chatRequest struct {
	Message string `json:"message"`
	Context string `json:"context,omitempty"`
}

// errorResponse is returned with a 4xx/5xx status.
type errorResponse struct {
	Error string            `json:"error"`
	Kind  matcher.ErrorKind `json:"kind,omitempty"`
}

// datasetInfoResponse describes the session's dataset.
type datasetInfoResponse struct {
	Source   string    `json:"source"`
	Columns  []string  `json:"columns"`
	Rows     int       `json:"rows"`
	LoadedAt time.Time `json:"loaded_at"`
}

func (d *Dashboard) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, d.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(d.opts.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{
				Error: fmt.Sprintf("File too large (limit %d MB)", d.opts.MaxUploadBytes>>20),
				Kind:  matcher.KindParseFailure,
			})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No file selected"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil || header.Filename == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No file selected"})
		return
	}
	defer file.Close()

	if !dataset.Allowed(header.Filename) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid file type. Please upload CSV or Excel files."})
		return
	}

	ds, err := dataset.Parse(header.Filename, file, d.opts.MaxRows)
	if err != nil {
		d.logger.Warn().Err(err).Str("filename", header.Filename).Msg("upload rejected")
		writeError(w, uploadError(err))
		return
	}

	// A new upload replaces the session and its dataset.
	if old := sessionID(r); old != "" {
		d.engine.Clear(old)
	}
	id := newSession(w)
	if err := d.engine.Load(id, ds); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Success:    true,
		Message:    fmt.Sprintf("File uploaded successfully! Found %d error records.", ds.Len()),
		Columns:    ds.Columns,
		SampleData: ds.Sample(sampleRows),
	})
}

// uploadError maps a dataset parse failure to a user-facing matcher.Error.
func uploadError(err error) error {
	if errors.Is(err, dataset.ErrInvalid) {
		return &matcher.Error{Kind: matcher.KindInvalidDataset, Message: matcher.ErrInvalidDataset.Message, Err: err}
	}
	return &matcher.Error{Kind: matcher.KindParseFailure, Message: err.Error(), Err: err}
}

func (d *Dashboard) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	resp, err := d.answer(r, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// answer runs one chat turn for the request's session.
func (d *Dashboard) answer(r *http.Request, req chatRequest) (*matcher.Response, error) {
	ctx := unmatched.WithUserContext(r.Context(), req.Context)
	resp, err := d.engine.Match(ctx, sessionID(r), req.Message)
	if err != nil {
		return nil, err
	}
	render.FollowUp(resp)
	return resp, nil
}

func (d *Dashboard) handleClear(w http.ResponseWriter, r *http.Request) {
	if id := sessionID(r); id != "" {
		d.engine.Clear(id)
	}
	expireSession(w)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Session cleared"})
}

func (d *Dashboard) handleDatasetInfo(w http.ResponseWriter, r *http.Request) {
	ds, err := d.engine.Dataset(sessionID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, datasetInfoResponse{
		Source:   ds.Source,
		Columns:  ds.Columns,
		Rows:     ds.Len(),
		LoadedAt: ds.LoadedAt,
	})
}

// writeError sends matcher errors as 400 with their kind and anything else as
// a 500 without internals.
func writeError(w http.ResponseWriter, err error) {
	var me *matcher.Error
	if errors.As(err, &me) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: me.Message, Kind: me.Kind})
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
