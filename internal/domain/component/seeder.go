package component

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"go.uber.org/zap"

	"github.com/visualjsx/studio/backend/internal/infrastructure/logging"
)

// seedFile is the on-disk shape of a starter component manifest.
type seedFile struct {
	Name string `yaml:"name"`
	Code string `yaml:"code"`
}

// Seeder loads starter components from a manifest directory.
type Seeder struct {
	store  *Store
	dir    string
	logger *logging.Logger
}

// NewSeeder creates a seeder reading .yaml manifests from dir.
func NewSeeder(store *Store, dir string, logger *logging.Logger) *Seeder {
	return &Seeder{store: store, dir: dir, logger: logger}
}

// Seed loads every manifest in the directory. A missing directory is not
// an error; individual bad manifests are skipped and logged.
func (s *Seeder) Seed(ctx context.Context) error {
	if _, err := os.Stat(s.dir); os.IsNotExist(err) {
		s.logger.Info("Seed directory not found, skipping", zap.String("dir", s.dir))
		return nil
	}

	var loaded, failed int

	err := filepath.Walk(s.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if !strings.HasSuffix(info.Name(), ".yaml") && !strings.HasSuffix(info.Name(), ".yml") {
			return nil
		}

		if err := s.loadManifest(ctx, path); err != nil {
			failed++
			s.logger.Warn("Failed to seed component",
				zap.String("path", path),
				zap.Error(err),
			)
			return nil
		}
		loaded++
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk seed directory: %w", err)
	}

	s.logger.Info("Seeding complete",
		zap.Int("loaded", loaded),
		zap.Int("failed", failed),
	)
	return nil
}

func (s *Seeder) loadManifest(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest seedFile
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return fmt.Errorf("failed to parse manifest: %w", err)
	}

	if _, err := s.store.Create(ctx, manifest.Code); err != nil {
		return fmt.Errorf("failed to store %q: %w", manifest.Name, err)
	}
	return nil
}
