package localstore

import (
	"ai-analytics-client/internal/pkg/logger"

	gocache "github.com/patrickmn/go-cache"
)

// FileStore keeps selections in an in-memory cache snapshotted to disk on
// every write. Load failures are normal on first run.
type FileStore struct {
	cache  *gocache.Cache
	path   string
	logger logger.ILogger
}

func NewFileStore(path string, log logger.ILogger) *FileStore {
	c := gocache.New(gocache.NoExpiration, 0)
	if err := c.LoadFile(path); err != nil {
		log.Debug("LocalStore", "No selection snapshot to load", map[string]interface{}{
			"path": path, "error": err.Error(),
		})
	}
	return &FileStore{cache: c, path: path, logger: log}
}

func (s *FileStore) Get(key string) (string, bool) {
	if x, found := s.cache.Get(key); found {
		if v, ok := x.(string); ok {
			return v, true
		}
	}
	return "", false
}

func (s *FileStore) Set(key, value string) {
	s.cache.Set(key, value, gocache.NoExpiration)
	s.persist()
}

func (s *FileStore) Delete(key string) {
	s.cache.Delete(key)
	s.persist()
}

func (s *FileStore) Close() error {
	return s.cache.SaveFile(s.path)
}

func (s *FileStore) persist() {
	if err := s.cache.SaveFile(s.path); err != nil {
		s.logger.Warn("LocalStore", "Failed to snapshot selections", map[string]interface{}{
			"path": s.path, "error": err.Error(),
		})
	}
}
