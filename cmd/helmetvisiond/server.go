package main

import (
	"encoding/base64"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/safesite/helmetvision"
	"github.com/safesite/helmetvision/render"
)

// server holds the request handlers and the shared service pool
type server struct {
	pool *helmetvision.Pool
	log  *zap.Logger

	// lastMu guards the most recently completed state for /api/state
	lastMu sync.RWMutex
	last   helmetvision.DetectorState
}

func newServer(pool *helmetvision.Pool, log *zap.Logger) *server {
	return &server{
		pool: pool,
		log:  log,
	}
}

// detectRequest is the JSON body of a detection request, the image is
// base64 encoded and may carry a data URL prefix
type detectRequest struct {
	Image string `json:"image" binding:"required"`
}

func (s *server) ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

// state returns the most recently completed detector state
func (s *server) state(c *gin.Context) {

	s.lastMu.RLock()
	last := s.last
	s.lastMu.RUnlock()

	c.JSON(http.StatusOK, gin.H{"state": last})
}

// detect runs both pipelines over the submitted image and returns the
// resulting state
func (s *server) detect(c *gin.Context) {

	img, ok := s.readImage(c)

	if !ok {
		return
	}
	defer img.Close()

	requestID := uuid.NewString()
	start := time.Now()

	svc := s.pool.Get()
	state := svc.Submit(c.Request.Context(), img)
	s.pool.Return(svc)

	s.publish(state)

	s.log.Info("detection complete",
		zap.String("request_id", requestID),
		zap.Int("helmets", len(state.Helmets)),
		zap.Int("faces", len(state.Faces)),
		zap.Duration("elapsed", time.Since(start)))

	c.JSON(http.StatusOK, gin.H{
		"request_id": requestID,
		"state":      state,
	})
}

// detectAnnotated runs both pipelines and responds with a JPEG of the
// image with the detections drawn on it
func (s *server) detectAnnotated(c *gin.Context) {

	img, ok := s.readImage(c)

	if !ok {
		return
	}
	defer img.Close()

	svc := s.pool.Get()
	state := svc.Submit(c.Request.Context(), img)
	s.pool.Return(svc)

	s.publish(state)

	render.Overlay(&img, state, render.DefaultFont(), 2)

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error encoding image: " + err.Error()})
		return
	}
	defer buf.Close()

	c.Data(http.StatusOK, "image/jpeg", buf.GetBytes())
}

// publish records the state for /api/state observers
func (s *server) publish(state helmetvision.DetectorState) {

	s.lastMu.Lock()
	s.last = state
	s.lastMu.Unlock()
}

// readImage decodes the request into a Mat, either a multipart file
// upload or a JSON body with a base64 image.  On failure an error
// response has already been written.
func (s *server) readImage(c *gin.Context) (gocv.Mat, bool) {

	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()

		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "error reading upload: " + err.Error()})
			return gocv.Mat{}, false
		}
		defer f.Close()

		data, err := io.ReadAll(f)

		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "error reading upload: " + err.Error()})
			return gocv.Mat{}, false
		}

		return s.decodeImage(c, data)
	}

	var req detectRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return gocv.Mat{}, false
	}

	data, err := decodeBase64Image(req.Image)

	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image: " + err.Error()})
		return gocv.Mat{}, false
	}

	return s.decodeImage(c, data)
}

// decodeImage converts raw image bytes into a Mat
func (s *server) decodeImage(c *gin.Context, data []byte) (gocv.Mat, bool) {

	img, err := gocv.IMDecode(data, gocv.IMReadColor)

	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported or corrupt image"})
		return gocv.Mat{}, false
	}

	if img.Empty() {
		_ = img.Close()
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported or corrupt image"})
		return gocv.Mat{}, false
	}

	return img, true
}

// decodeBase64Image strips an optional data URL prefix and decodes the
// base64 payload
func decodeBase64Image(b64 string) ([]byte, error) {

	if i := strings.Index(b64, ","); i != -1 && strings.HasPrefix(b64, "data:") {
		b64 = b64[i+1:]
	}

	return base64.StdEncoding.DecodeString(b64)
}
