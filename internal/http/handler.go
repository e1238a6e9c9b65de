package http

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gridframe/ncanimate/internal/fileset"
	"github.com/gridframe/ncanimate/internal/grid"
	"github.com/gridframe/ncanimate/internal/usecase"
)

// Handler handles HTTP requests for raster frames and file set inspection.
type Handler struct {
	producer *usecase.Producer
}

// NewHandler creates a new HTTP handler.
func NewHandler(producer *usecase.Producer) *Handler {
	return &Handler{
		producer: producer,
	}
}

// GetFileSet handles GET /v1/filesets.
func (h *Handler) GetFileSet(c *gin.Context) {
	pattern := c.Query("pattern")
	if pattern == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pattern parameter is required"})
		return
	}

	fs, err := fileset.Discover(pattern)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	type fileInfo struct {
		Path     string `json:"path"`
		Timestep *int   `json:"timestep,omitempty"`
		Strategy string `json:"strategy,omitempty"`
	}
	files := make([]fileInfo, fs.Len())
	for i, f := range fs.Files {
		files[i] = fileInfo{Path: f.Path, Strategy: f.Strategy}
		if f.HasTimestep {
			ts := f.Timestep
			files[i].Timestep = &ts
		}
	}

	response := gin.H{
		"pattern": pattern,
		"count":   fs.Len(),
		"files":   files,
	}

	if c.Query("validate") == "true" {
		report := fileset.ValidateConsistency(fs, h.producer.Open)
		if report == nil {
			report = []string{}
		}
		response["consistency"] = report
	}

	c.JSON(http.StatusOK, response)
}

// GetVariables handles GET /v1/variables.
func (h *Handler) GetVariables(c *gin.Context) {
	pattern := c.Query("pattern")
	if pattern == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pattern parameter is required"})
		return
	}

	fs, err := fileset.Discover(pattern)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if fs.Len() == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("no NetCDF files match %q", pattern)})
		return
	}

	common, err := fileset.CommonVariables(fs, h.producer.Open)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if common == nil {
		common = []string{}
	}

	c.JSON(http.StatusOK, gin.H{
		"pattern":   pattern,
		"count":     fs.Len(),
		"variables": common,
	})
}

// GetRange handles GET /v1/range.
func (h *Handler) GetRange(c *gin.Context) {
	pattern := c.Query("pattern")
	if pattern == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pattern parameter is required"})
		return
	}

	req, ok := h.parseFrameRequest(c)
	if !ok {
		return
	}

	sampleCap := 0
	if s := c.Query("sample_cap"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sample_cap"})
			return
		}
		sampleCap = n
	}

	fs, err := fileset.Discover(pattern)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if fs.Len() == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("no NetCDF files match %q", pattern)})
		return
	}

	r, sampled, err := h.producer.GlobalRange(fs, req, sampleCap)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response := gin.H{
		"pattern":  pattern,
		"variable": req.Variable,
		"sampled":  sampled,
	}
	if r != nil {
		response["min"] = r.Min
		response["max"] = r.Max
	}
	c.JSON(http.StatusOK, response)
}

// GetFrame handles GET /v1/frames.
func (h *Handler) GetFrame(c *gin.Context) {
	file := c.Query("file")
	if file == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file parameter is required"})
		return
	}

	req, ok := h.parseFrameRequest(c)
	if !ok {
		return
	}

	frame, err := h.producer.FrameAt(file, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kind := "real"
	if frame.Kind == grid.CoordsSynthetic {
		kind = "synthetic"
	}

	c.JSON(http.StatusOK, gin.H{
		"variable":   req.Variable,
		"frame":      req.FrameIndex,
		"rows":       frame.Raster.Rows(),
		"cols":       frame.Raster.Cols(),
		"coord_kind": kind,
		"lats":       frame.Lats.Values,
		"lons":       frame.Lons.Values,
		"vmin":       frame.VMin,
		"vmax":       frame.VMax,
		"units":      frame.Units,
		"values":     nullableRaster(frame.Raster),
	})
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// parseFrameRequest reads the shared frame selection and masking query
// parameters. On a parse failure it writes the 400 response itself and
// returns ok=false.
func (h *Handler) parseFrameRequest(c *gin.Context) (usecase.FrameRequest, bool) {
	req := usecase.FrameRequest{
		Variable: c.Query("variable"),
		FrameDim: c.Query("frame_dim"),
		Zoom:     grid.ZoomSpec{Factor: 1},
	}
	if req.Variable == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "variable parameter is required"})
		return req, false
	}

	if s := c.Query("frame"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid frame: %v", err)})
			return req, false
		}
		req.FrameIndex = n
	}

	if s := c.Query("level"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid level: %v", err)})
			return req, false
		}
		req.Level = &n
	}

	if s := c.Query("percentile"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid percentile: %v", err)})
			return req, false
		}
		req.Filter.Percentile = n
	}

	if s := c.Query("ignore"); s != "" {
		for _, part := range strings.Split(s, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid ignore value %q: %v", part, err)})
				return req, false
			}
			req.Filter.IgnoreValues = append(req.Filter.IgnoreValues, v)
		}
	}

	if s := c.Query("zoom"); s != "" {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid zoom: %v", err)})
			return req, false
		}
		req.Zoom.Factor = f
	}

	latStr := c.Query("zoom_center_lat")
	lonStr := c.Query("zoom_center_lon")
	if latStr != "" && lonStr != "" {
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid zoom_center_lat: %v", err)})
			return req, false
		}
		lon, err := strconv.ParseFloat(lonStr, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid zoom_center_lon: %v", err)})
			return req, false
		}
		req.Zoom.CenterLat = &lat
		req.Zoom.CenterLon = &lon
	} else if latStr != "" || lonStr != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "zoom_center_lat and zoom_center_lon must be given together"})
		return req, false
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return req, false
	}
	return req, true
}

// nullableRaster converts a raster to JSON-safe rows. encoding/json cannot
// represent NaN, so masked cells become null.
func nullableRaster(r grid.Raster) [][]*float64 {
	out := make([][]*float64, len(r))
	for i, row := range r {
		out[i] = make([]*float64, len(row))
		for j := range row {
			if math.IsNaN(row[j]) {
				continue
			}
			v := row[j]
			out[i][j] = &v
		}
	}
	return out
}
