package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mossy-p/peer-relay/internal/models"
	"github.com/rs/zerolog/log"
)

// RecordingsPath is the URL prefix stored recordings are served under
const RecordingsPath = "/recordings"

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// UploadHandler stores recorded media sent by clients
type UploadHandler struct {
	dir      string
	maxBytes int64
	now      func() time.Time
}

// NewUploadHandler creates dir if needed
func NewUploadHandler(dir string, maxBytes int64) (*UploadHandler, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create recordings dir: %w", err)
	}
	return &UploadHandler{dir: dir, maxBytes: maxBytes, now: time.Now}, nil
}

// Upload saves the multipart field "recording" and returns its URL
func (h *UploadHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)

	file, err := c.FormFile("recording")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file"})
		return
	}

	room := c.PostForm("room")
	if room == "" {
		room = "unknown"
	}
	name := recordingName(room, h.now(), file.Filename)

	if err := c.SaveUploadedFile(file, filepath.Join(h.dir, name)); err != nil {
		log.Error().Err(err).Str("module", "handlers").Str("file", name).Msg("failed to store recording")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store recording"})
		return
	}

	log.Info().Str("module", "handlers").Str("room", room).Str("file", name).Int64("bytes", file.Size).Msg("recording stored")
	c.JSON(http.StatusOK, models.UploadResponse{URL: RecordingsPath + "/" + name})
}

// recordingName builds "<room>-<unix millis>-<original>" and replaces every
// character outside [a-zA-Z0-9._-], so the result never contains a separator.
func recordingName(room string, at time.Time, original string) string {
	return unsafeNameChars.ReplaceAllString(fmt.Sprintf("%s-%d-%s", room, at.UnixMilli(), original), "_")
}
