package extract

import (
	"context"
	"fmt"
	"os"

	"dealhound/internal/model"
)

// FileExtractor reads the deal list from a local JSON dump. Useful for dry
// runs and for replaying a previously captured extraction.
type FileExtractor struct {
	path string
}

// NewFileExtractor creates an extractor reading from the given file path.
func NewFileExtractor(path string) *FileExtractor {
	return &FileExtractor{path: path}
}

// Extract reads and decodes the deal file.
func (e *FileExtractor) Extract(_ context.Context) ([]model.Deal, error) {
	data, err := os.ReadFile(e.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read deal file: %w", err)
	}
	return decodeDeals(data)
}
