// Package server exposes a volume over HTTP.
package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"syscall"
	"time"

	"github.com/SonicFrog/vfat"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Entry is the JSON and YAML form of a vfat.Entry.
type Entry struct {
	Name       string    `json:"name" yaml:"name"`
	ShortName  string    `json:"short_name,omitempty" yaml:"short_name,omitempty"`
	IsDir      bool      `json:"is_dir" yaml:"is_dir"`
	Size       int64     `json:"size" yaml:"size"`
	Cluster    uint32    `json:"cluster" yaml:"cluster"`
	Attribute  byte      `json:"attribute" yaml:"attribute"`
	Mode       string    `json:"mode" yaml:"mode"`
	ModTime    time.Time `json:"mod_time" yaml:"mod_time"`
	AccessTime time.Time `json:"access_time" yaml:"access_time"`
	ChangeTime time.Time `json:"change_time" yaml:"change_time"`
	Uid        int       `json:"uid" yaml:"uid"`
	Gid        int       `json:"gid" yaml:"gid"`
}

// NewEntry converts e.
func NewEntry(e vfat.Entry) Entry {
	return Entry{
		Name:       e.Name,
		ShortName:  e.ShortName,
		IsDir:      e.IsDir,
		Size:       e.Size,
		Cluster:    uint32(e.Cluster),
		Attribute:  e.Attribute,
		Mode:       e.Mode().String(),
		ModTime:    e.ModTime,
		AccessTime: e.AccessTime,
		ChangeTime: e.ChangeTime,
		Uid:        e.Uid,
		Gid:        e.Gid,
	}
}

// ListResponse is returned by GET /ls.
type ListResponse struct {
	Path    string  `json:"path"`
	Entries []Entry `json:"entries"`
}

// XattrResponse is returned by GET /xattr.
type XattrResponse struct {
	Path  string `json:"path"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ErrorResponse is returned with every non 2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
}

type handler struct {
	fat    *vfat.Fs
	logger *zap.Logger
}

// New returns the router serving fat.
//
//	GET /stat/*path                      entry metadata
//	GET /ls/*path                        directory listing in on-disk order
//	GET /read/*path?offset=N&length=N    raw file content
//	GET /xattr/*path?name=NAME           extended attribute value
func New(fat *vfat.Fs, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handler{fat: fat, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery(), h.logRequests)

	r.GET("/stat/*path", h.stat)
	r.GET("/ls/*path", h.list)
	r.GET("/read/*path", h.read)
	r.GET("/xattr/*path", h.xattr)

	return r
}

func (h *handler) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()

	h.logger.Debug("request",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", c.Writer.Status()),
		zap.Duration("latency", time.Since(start)))
}

func (h *handler) stat(c *gin.Context) {
	entry, err := h.fat.Resolve(c.Param("path"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, NewEntry(entry))
}

func (h *handler) list(c *gin.Context) {
	path := c.Param("path")

	dir, err := h.fat.Resolve(path)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !dir.IsDir {
		h.fail(c, syscall.ENOTDIR)
		return
	}

	entries := []Entry{}
	err = h.fat.List(dir.Cluster, func(entry vfat.Entry) error {
		entries = append(entries, NewEntry(entry))
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Path: path, Entries: entries})
}

func (h *handler) read(c *gin.Context) {
	entry, err := h.fat.Resolve(c.Param("path"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if entry.IsDir {
		h.fail(c, syscall.EISDIR)
		return
	}

	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		h.fail(c, err)
		return
	}
	length, err := queryInt(c, "length", entry.Size)
	if err != nil {
		h.fail(c, err)
		return
	}

	data := []byte{}
	for int64(len(data)) < length {
		chunk, err := h.fat.Read(entry.Cluster, entry.Size, offset+int64(len(data)), length-int64(len(data)))
		if err != nil {
			h.fail(c, err)
			return
		}
		if len(chunk) == 0 {
			break
		}
		data = append(data, chunk...)
	}

	c.Data(http.StatusOK, "application/octet-stream", data)
}

func (h *handler) xattr(c *gin.Context) {
	path, name := c.Param("path"), c.Query("name")

	value, err := h.fat.Xattr(path, name)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, XattrResponse{Path: path, Name: name, Value: string(value)})
}

var errBadRequest = errors.New("bad request")

func queryInt(c *gin.Context, key string, def int64) (int64, error) {
	s, ok := c.GetQuery(key)
	if !ok {
		return def, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", errBadRequest, key, s)
	}
	return v, nil
}

func (h *handler) fail(c *gin.Context, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error()})
}

// statusOf maps engine errors to HTTP status codes.
// ENOTDIR is checked first because a file in the middle of a path is also reported as not found.
func statusOf(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, syscall.ENOTDIR),
		errors.Is(err, syscall.EISDIR):
		return http.StatusBadRequest
	case errors.Is(err, vfat.ErrNotFound),
		errors.Is(err, vfat.ErrNoData):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
