package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/Krimson/radar-scope/viewer/internal/aggregate"
	"github.com/Krimson/radar-scope/viewer/internal/plot"
)

const (
	defaultViewWidth  = 800
	defaultViewHeight = 400
)

// HandlerOptions tunes the chart endpoints.
type HandlerOptions struct {
	SnapRadiusPx   float64
	MaxTicks       int
	UploadMaxBytes int64
	// DataDir is the only directory POST /paths may read from. Empty disables the endpoint.
	DataDir string
}

// HTTPHandler serves the session API.
type HTTPHandler struct {
	manager *Manager
	opts    HandlerOptions
}

// NewHTTPHandler creates the handler. Zero options fall back to defaults.
func NewHTTPHandler(manager *Manager, opts HandlerOptions) *HTTPHandler {
	if opts.SnapRadiusPx <= 0 {
		opts.SnapRadiusPx = 10
	}
	if opts.MaxTicks <= 0 {
		opts.MaxTicks = plot.DefaultMaxTicks
	}
	if opts.UploadMaxBytes <= 0 {
		opts.UploadMaxBytes = 32 << 20
	}
	return &HTTPHandler{
		manager: manager,
		opts:    opts,
	}
}

// RegisterRoutes mounts the API under /api/sessions.
func (h *HTTPHandler) RegisterRoutes(router *mux.Router) {
	api := router.PathPrefix("/api/sessions").Subrouter()

	api.Use(validateSessionID)

	api.HandleFunc("", h.CreateSession).Methods("POST")
	api.HandleFunc("", h.ListSessions).Methods("GET")
	api.HandleFunc("/{id}", h.GetSession).Methods("GET")
	api.HandleFunc("/{id}", h.DeleteSession).Methods("DELETE")
	api.HandleFunc("/{id}/files", h.UploadFiles).Methods("POST")
	api.HandleFunc("/{id}/paths", h.LoadPaths).Methods("POST")
	api.HandleFunc("/{id}/clear", h.ClearSession).Methods("POST")
	api.HandleFunc("/{id}/save", h.SaveSession).Methods("POST")
	api.HandleFunc("/{id}/series", h.GetSeries).Methods("GET")
	api.HandleFunc("/{id}/scene", h.GetScene).Methods("GET")
	api.HandleFunc("/{id}/hover", h.GetHover).Methods("GET")
	api.HandleFunc("/{id}/summary", h.GetSummary).Methods("GET")
}

// validateSessionID rejects {id} values that are not session UUIDs before they reach a store.
func validateSessionID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := mux.Vars(r)["id"]; ok {
			if _, err := uuid.Parse(id); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid session ID")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// CreateSession creates an empty chart session.
// @Summary Create a chart session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param request body CreateSessionRequest false "Session options"
// @Success 201 {object} SessionResponse
// @Failure 400 {object} map[string]interface{}
// @Router /api/sessions [post]
func (h *HTTPHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	session, err := h.manager.CreateSession(r.Context(), &req)
	if err != nil {
		log.Printf("[ERROR] Failed to create session: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	respondJSON(w, http.StatusCreated, SessionResponse{Session: session})
}

// ListSessions returns active and saved sessions.
// GET /api/sessions?limit=50&offset=0
func (h *HTTPHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	limit := getQueryInt(r, "limit", 50)
	offset := getQueryInt(r, "offset", 0)

	sessions, err := h.manager.ListSessions(r.Context(), limit, offset)
	if err != nil {
		log.Printf("[ERROR] Failed to list sessions: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": sessions,
		"limit":    limit,
		"offset":   offset,
		"count":    len(sessions),
	})
}

// GET /api/sessions/{id}
func (h *HTTPHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	session, err := h.manager.GetSession(r.Context(), sessionID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Session not found")
		return
	}

	respondJSON(w, http.StatusOK, SessionResponse{Session: session})
}

// DELETE /api/sessions/{id}
func (h *HTTPHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := h.manager.DeleteSession(r.Context(), sessionID); err != nil {
		log.Printf("[ERROR] Failed to delete session %s: %v", sessionID, err)
		respondManagerError(w, err, "Failed to delete session")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":    "Session deleted successfully",
		"session_id": sessionID,
	})
}

// UploadFiles ingests every multipart "file" part into the session.
// @Summary Upload CSV or XLSX files
// @Description Each file is parsed on its own; failed files are listed and leave the chart unchanged.
// @Tags Sessions
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Session ID"
// @Param file formData file true "CSV, TSV or XLSX file (repeatable)"
// @Success 200 {object} chart.LoadReport
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/sessions/{id}/files [post]
func (h *HTTPHandler) UploadFiles(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	r.Body = http.MaxBytesReader(w, r.Body, h.opts.UploadMaxBytes)
	if err := r.ParseMultipartForm(h.opts.UploadMaxBytes); err != nil {
		respondError(w, http.StatusBadRequest, "Failed to parse form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		respondError(w, http.StatusBadRequest, "No file parts in request")
		return
	}

	uploads := make([]Upload, 0, len(headers))
	files := make([]multipart.File, 0, len(headers))
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			respondError(w, http.StatusBadRequest, "Failed to open "+fh.Filename)
			return
		}
		files = append(files, f)
		uploads = append(uploads, Upload{Name: fh.Filename, Reader: f})
	}

	report, err := h.manager.LoadUploads(r.Context(), sessionID, uploads)
	if err != nil {
		respondManagerError(w, err, "Failed to load files")
		return
	}

	log.Printf("[INGEST] Session %s: %d series added from %d uploads, %d failed",
		sessionID, report.SeriesAdded, len(uploads), len(report.Failures))
	respondJSON(w, http.StatusOK, report)
}

// LoadPaths ingests files already present on the server.
// POST /api/sessions/{id}/paths
func (h *HTTPHandler) LoadPaths(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if h.opts.DataDir == "" {
		respondError(w, http.StatusForbidden, "Loading server paths is disabled")
		return
	}

	var req LoadPathsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Paths) == 0 {
		respondError(w, http.StatusBadRequest, "Request must list at least one path")
		return
	}

	paths := make([]string, 0, len(req.Paths))
	for _, p := range req.Paths {
		resolved, err := resolveDataPath(h.opts.DataDir, p)
		if err != nil {
			log.Printf("[WARN] Session %s: rejected path %q: %v", sessionID, p, err)
			respondError(w, http.StatusBadRequest, "Path is outside the data directory: "+p)
			return
		}
		paths = append(paths, resolved)
	}

	report, err := h.manager.LoadPaths(r.Context(), sessionID, paths)
	if err != nil {
		respondManagerError(w, err, "Failed to load files")
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// POST /api/sessions/{id}/clear
func (h *HTTPHandler) ClearSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := h.manager.ClearSession(r.Context(), sessionID); err != nil {
		respondManagerError(w, err, "Failed to clear session")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":    "Session cleared",
		"session_id": sessionID,
	})
}

// SaveSession persists the session to the database.
// POST /api/sessions/{id}/save
func (h *HTTPHandler) SaveSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req SaveSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// The body is optional.
		req = SaveSessionRequest{}
	}

	session, err := h.manager.SaveSession(r.Context(), sessionID, req.Notes)
	if err != nil {
		log.Printf("[ERROR] Failed to save session %s: %v", sessionID, err)
		respondManagerError(w, err, "Failed to save session")
		return
	}

	respondJSON(w, http.StatusOK, SessionResponse{Session: session})
}

// GetSeries lists the loaded series. points=true includes the data.
// GET /api/sessions/{id}/series?points=true
func (h *HTTPHandler) GetSeries(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	cs, err := h.manager.Chart(r.Context(), sessionID)
	if err != nil {
		respondManagerError(w, err, "Failed to get series")
		return
	}

	list := cs.Series()
	handles := cs.Handles()
	resp := SeriesResponse{Series: make([]SeriesInfo, len(list))}
	for i, s := range list {
		info := SeriesInfo{Handle: handles[i].String(), Name: s.Name, Points: s.Len()}
		if s.Len() > 0 {
			info.MinX, info.MaxX = math.Inf(1), math.Inf(-1)
			for _, p := range s.Points {
				info.MinX = math.Min(info.MinX, p.X)
				info.MaxX = math.Max(info.MaxX, p.X)
			}
		}
		resp.Series[i] = info
	}
	if getQueryBool(r, "points") {
		resp.Data = list
	}

	respondJSON(w, http.StatusOK, resp)
}

// GetScene returns the drawing primitives for a plot area of w x h pixels.
// @Summary Render the chart scene
// @Tags Chart
// @Produce json
// @Param id path string true "Session ID"
// @Param w query number false "Plot width in pixels"
// @Param h query number false "Plot height in pixels"
// @Success 200 {object} plot.Scene
// @Failure 404 {object} map[string]interface{}
// @Router /api/sessions/{id}/scene [get]
func (h *HTTPHandler) GetScene(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	cs, err := h.manager.Chart(r.Context(), sessionID)
	if err != nil {
		respondManagerError(w, err, "Failed to build scene")
		return
	}

	maxTicks := plot.ClampTicks(getQueryInt(r, "ticks", h.opts.MaxTicks))
	respondJSON(w, http.StatusOK, cs.Scene(viewportFromQuery(r), maxTicks))
}

// GetHover answers a pointer query at plot-local x, y.
// @Summary Hover readout and snap-to-peak
// @Tags Chart
// @Produce json
// @Param id path string true "Session ID"
// @Param x query number true "Pointer x in pixels"
// @Param y query number true "Pointer y in pixels"
// @Param w query number false "Plot width in pixels"
// @Param h query number false "Plot height in pixels"
// @Success 200 {object} chart.HoverResult
// @Failure 400 {object} map[string]interface{}
// @Router /api/sessions/{id}/hover [get]
func (h *HTTPHandler) GetHover(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	x, okX := getQueryFloat(r, "x")
	y, okY := getQueryFloat(r, "y")
	if !okX || !okY {
		respondError(w, http.StatusBadRequest, "Query parameters x and y are required")
		return
	}

	cs, err := h.manager.Chart(r.Context(), sessionID)
	if err != nil {
		respondManagerError(w, err, "Failed to hover")
		return
	}

	radius := h.opts.SnapRadiusPx
	if v, ok := getQueryFloat(r, "radius"); ok && v > 0 {
		radius = v
	}
	respondJSON(w, http.StatusOK, cs.Hover(x, y, viewportFromQuery(r), radius))
}

// GetSummary returns the |Y| area of every series with a positive area.
// @Summary Area summary
// @Tags Chart
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {array} aggregate.Slice
// @Router /api/sessions/{id}/summary [get]
func (h *HTTPHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	cs, err := h.manager.Chart(r.Context(), sessionID)
	if err != nil {
		respondManagerError(w, err, "Failed to summarize")
		return
	}

	slices, err := cs.Summary()
	if err != nil && !errors.Is(err, aggregate.ErrEmptyAggregation) {
		respondError(w, http.StatusInternalServerError, "Failed to summarize")
		return
	}

	respondJSON(w, http.StatusOK, slices)
}

// ===== Helpers =====

func viewportFromQuery(r *http.Request) plot.Viewport {
	vp := plot.Viewport{Width: defaultViewWidth, Height: defaultViewHeight}
	if v, ok := getQueryFloat(r, "w"); ok && v > 0 {
		vp.Width = v
	}
	if v, ok := getQueryFloat(r, "h"); ok && v > 0 {
		vp.Height = v
	}
	if v, ok := getQueryFloat(r, "left"); ok {
		vp.Left = v
	}
	if v, ok := getQueryFloat(r, "top"); ok {
		vp.Top = v
	}
	return vp
}

// resolveDataPath resolves requested against root and fails when the result leaves root.
// Relative paths are taken relative to root.
func resolveDataPath(root, requested string) (string, error) {
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve data dir: %w", err)
	}

	target := requested
	if !filepath.IsAbs(target) {
		target = filepath.Join(rootAbs, target)
	}
	target = filepath.Clean(target)

	rel, err := filepath.Rel(rootAbs, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.New("path escapes the data directory")
	}
	return target, nil
}

func respondManagerError(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, ErrSessionNotFound) {
		respondError(w, http.StatusNotFound, "Session not found")
		return
	}
	log.Printf("[ERROR] %s: %v", message, err)
	respondError(w, http.StatusInternalServerError, message)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[ERROR] Failed to encode JSON response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":  message,
		"status": status,
	})
}

func getQueryInt(r *http.Request, key string, defaultValue int) int {
	valueStr := r.URL.Query().Get(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getQueryFloat(r *http.Request, key string) (float64, bool) {
	valueStr := r.URL.Query().Get(key)
	if valueStr == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}

func getQueryBool(r *http.Request, key string) bool {
	value, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && value
}
