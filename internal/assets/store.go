package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const (
	imagesSubdir = "images"
	audioSubdir  = "audio"
	musicSubdir  = "music"
)

// Store persists generated asset bytes under the uploads root and hands
// back the /uploads/... reference URLs that the rest of the system (and
// the frontend) passes around.
type Store struct {
	root string
}

// NewStore creates the uploads root and its subdirectories.
func NewStore(root string) (*Store, error) {
	for _, sub := range []string{imagesSubdir, audioSubdir, musicSubdir} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0755); err != nil {
			return nil, fmt.Errorf("failed to create uploads dir %s: %w", sub, err)
		}
	}
	return &Store{root: root}, nil
}

// Root returns the local assets root the store writes under.
func (s *Store) Root() string {
	return s.root
}

// SaveImage writes generated image bytes and returns the asset URL.
func (s *Store) SaveImage(data []byte, ext string) (string, error) {
	if ext == "" {
		ext = "png"
	}
	name := fmt.Sprintf("image_%d_%s.%s", time.Now().UnixMilli(), shortID(), ext)
	return s.save(imagesSubdir, name, data)
}

// SaveAudio writes generated narration bytes and returns the asset URL.
func (s *Store) SaveAudio(data []byte, ext string) (string, error) {
	if ext == "" {
		ext = "wav"
	}
	name := fmt.Sprintf("audio_%d_%s.%s", time.Now().UnixMilli(), shortID(), ext)
	return s.save(audioSubdir, name, data)
}

// SaveMusic writes an uploaded background music file and returns its
// local path. Music is pipeline input only, so no URL is minted for it.
func (s *Store) SaveMusic(filename string, data []byte) (string, error) {
	// Keep only the base name — the upload filename is client-controlled.
	name := fmt.Sprintf("%s_%s", shortID(), filepath.Base(filename))
	path := filepath.Join(s.root, musicSubdir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write music file: %w", err)
	}
	return path, nil
}

func (s *Store) save(subdir, name string, data []byte) (string, error) {
	path := filepath.Join(s.root, subdir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write asset %s: %w", name, err)
	}
	return uploadsMarker + subdir + "/" + name, nil
}

func shortID() string {
	return uuid.New().String()[:8]
}
