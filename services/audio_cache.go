package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// AudioCache provides filesystem-based caching for synthesized question
// audio. Question texts are fixed for the lifetime of an interview, so the
// same read-aloud audio is served from disk after the first synthesis.
type AudioCache struct {
	cacheDir string
	mutex    sync.RWMutex
}

// NewAudioCache creates a new audio cache with the specified directory
func NewAudioCache(cacheDir string) *AudioCache {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		slog.Error("Failed to create cache directory", "dir", cacheDir, "error", err)
	}

	return &AudioCache{
		cacheDir: cacheDir,
	}
}

// cacheKey creates a unique key based on text and voice ID
func (ac *AudioCache) cacheKey(text, voiceID string) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s:%s", text, voiceID)))
	return hex.EncodeToString(hash[:])
}

func (ac *AudioCache) cachePath(key string) string {
	return filepath.Join(ac.cacheDir, key+".mp3")
}

// Get retrieves cached audio data if it exists
func (ac *AudioCache) Get(text, voiceID string) ([]byte, bool) {
	ac.mutex.RLock()
	defer ac.mutex.RUnlock()

	data, err := os.ReadFile(ac.cachePath(ac.cacheKey(text, voiceID)))
	if err != nil {
		return nil, false
	}

	return data, true
}

// Put stores audio data in the cache
func (ac *AudioCache) Put(text, voiceID string, data []byte) {
	ac.mutex.Lock()
	defer ac.mutex.Unlock()

	path := ac.cachePath(ac.cacheKey(text, voiceID))
	if err := os.WriteFile(path, data, 0644); err != nil {
		slog.Error("Failed to write audio cache file", "path", path, "error", err)
		return
	}

	slog.Info("Cached question audio", "text_length", len(text), "bytes", len(data))
}
