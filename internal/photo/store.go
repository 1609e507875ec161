// Package photo persists submitted images to local disk, grouped by
// submission category. Storage failures are non-fatal: a submission
// whose image could not be archived still counts.
package photo

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Categories mirror the submission types that carry an image.
const (
	CategoryParty  = "party"
	CategoryFilm   = "film"
	CategoryPuzzle = "puzzle"
)

// Store writes images under basePath/<category>/.
type Store struct {
	basePath string
}

// NewStore creates the category directories up front so save-time
// failures can only come from the write itself.
func NewStore(basePath string) (*Store, error) {
	for _, cat := range []string{CategoryParty, CategoryFilm, CategoryPuzzle} {
		dir := filepath.Join(basePath, cat)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create photo directory %s: %w", dir, err)
		}
	}
	return &Store{basePath: basePath}, nil
}

// Save writes the image and returns its path relative to the store
// root. Filenames combine a timestamp with a random suffix so rapid
// submissions from the same user never collide.
func (s *Store) Save(category string, userID int64, data []byte) (string, error) {
	name := fmt.Sprintf("%d_%s_%s.jpg",
		userID,
		time.Now().UTC().Format("20060102T150405"),
		uuid.NewString()[:8],
	)
	rel := filepath.Join(category, name)
	full := filepath.Join(s.basePath, rel)

	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write photo %s: %w", full, err)
	}

	log.Debug().Str("path", rel).Int("bytes", len(data)).Msg("Photo archived")
	return rel, nil
}
