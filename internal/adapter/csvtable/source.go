package csvtable

import (
	"context"
	"fmt"
	"os"

	"github.com/couchcryptid/warning-exposure-etl/internal/domain"
)

// FileWarningSource reads warning observations from a CSV file on local disk.
// It implements pipeline.ObservationSource.
type FileWarningSource struct {
	Path    string
	Options WarningsOptions
}

// Observations opens and parses the warning file.
func (s *FileWarningSource) Observations(ctx context.Context) ([]domain.WarningObservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open warning table: %w", err)
	}
	defer f.Close()

	obs, err := ReadWarnings(f, s.Options)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	return obs, nil
}

// FilePopulationSource reads population records from a CSV file on local
// disk. It implements pipeline.PopulationSource.
type FilePopulationSource struct {
	Path    string
	Options PopulationOptions
}

// Populations opens and parses the population file.
func (s *FilePopulationSource) Populations(ctx context.Context) ([]domain.PopulationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open population table: %w", err)
	}
	defer f.Close()

	recs, err := ReadPopulations(f, s.Options)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	return recs, nil
}
