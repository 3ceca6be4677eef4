package site

import (
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pandeptwidyaop/simple404/internal/errorpages"
	"github.com/pandeptwidyaop/simple404/pkg/logger"
)

// Config holds configuration for the file server.
type Config struct {
	// Root directory to serve files from
	Root string
	// Custom404Path is served with status 404 on misses. When empty,
	// Root/404.html is used if present, then the built-in page.
	Custom404Path string
}

// FileServer serves a static site. Directories are served through their
// index.html; there are no directory listings.
type FileServer struct {
	cfg Config
}

// NewFileServer validates the root directory and returns a FileServer.
func NewFileServer(cfg Config) (*FileServer, error) {
	absRoot, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("invalid root path: %w", err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("cannot access root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path is not a directory: %s", absRoot)
	}

	cfg.Root = absRoot

	if cfg.Custom404Path == "" {
		custom404 := filepath.Join(absRoot, "404.html")
		if _, err := os.Stat(custom404); err == nil {
			cfg.Custom404Path = custom404
		}
	}

	return &FileServer{cfg: cfg}, nil
}

// ServeHTTP implements http.Handler.
func (s *FileServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	// path.Clean drops the trailing slash; remember it for directories
	urlPath := path.Clean("/" + r.URL.Path)
	if strings.HasSuffix(r.URL.Path, "/") && urlPath != "/" {
		urlPath += "/"
	}

	cleanPath := strings.TrimPrefix(strings.TrimSuffix(urlPath, "/"), "/")
	filePath := filepath.Join(s.cfg.Root, filepath.FromSlash(cleanPath))

	if filePath != s.cfg.Root && !strings.HasPrefix(filePath, s.cfg.Root+string(filepath.Separator)) {
		logger.WarnEvent().
			Str("requested_path", urlPath).
			Str("file_path", filePath).
			Msg("Directory traversal attempt detected")
		s.serve404(w, r)
		return
	}

	// dotfiles are never served
	for _, part := range strings.Split(cleanPath, "/") {
		if strings.HasPrefix(part, ".") {
			s.serve404(w, r)
			return
		}
	}

	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			s.serve404(w, r)
			return
		}
		logger.ErrorEvent().
			Err(err).
			Str("path", filePath).
			Msg("Failed to stat file")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if info.IsDir() {
		s.serveDirectory(w, r, filePath, urlPath)
		return
	}

	s.serveContent(w, r, filePath, info)
}

func (s *FileServer) serveDirectory(w http.ResponseWriter, r *http.Request, dirPath, urlPath string) {
	if !strings.HasSuffix(urlPath, "/") {
		target := urlPath + "/"
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, target, http.StatusMovedPermanently)
		return
	}

	indexPath := filepath.Join(dirPath, "index.html")
	info, err := os.Stat(indexPath)
	if err != nil || info.IsDir() {
		s.serve404(w, r)
		return
	}

	s.serveContent(w, r, indexPath, info)
}

func (s *FileServer) serveContent(w http.ResponseWriter, r *http.Request, filePath string, info os.FileInfo) {
	file, err := os.Open(filePath)
	if err != nil {
		logger.ErrorEvent().Err(err).Str("path", filePath).Msg("Failed to open file")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	defer file.Close()

	// ServeContent avoids the index.html redirects of http.FileServer
	http.ServeContent(w, r, filepath.Base(filePath), info.ModTime(), file)
}

func (s *FileServer) serve404(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Custom404Path != "" {
		content, err := os.ReadFile(s.cfg.Custom404Path)
		if err == nil {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusNotFound)
			if r.Method != http.MethodHead {
				_, _ = w.Write(content)
			}
			return
		}
		logger.WarnEvent().
			Err(err).
			Str("path", s.cfg.Custom404Path).
			Msg("Custom 404 page unreadable, using built-in page")
	}

	errorpages.NotFound(w, r.URL.Path)
}
