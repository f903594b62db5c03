package subscription

import (
	"context"
	"errors"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/quotekit/pkg/entitlement"
)

// planFile is the on-disk layout:
//
//	plans:
//	  pri_premium_monthly:
//	    max_quotes: -1
//	    pdf_export: true
type planFile struct {
	Plans map[string]map[string]any `yaml:"plans"`
}

// FileSource serves plan metadata from a YAML document or a static map.
// Writes are kept in memory and persisted when the source has a backing store.
type FileSource struct {
	mu      sync.RWMutex
	plans   map[string]map[string]string
	persist func(ctx context.Context, raw []byte) error
}

// NewFileSource loads plan metadata from the YAML file at path.
func NewFileSource(path string) (*FileSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlanFile, err)
	}

	plans, err := decodePlans(raw)
	if err != nil {
		return nil, err
	}
	return &FileSource{
		plans:   plans,
		persist: func(_ context.Context, raw []byte) error { return os.WriteFile(path, raw, 0o644) },
	}, nil
}

// NewStaticSource serves the given plans from memory only.
func NewStaticSource(plans map[string]map[string]string) *FileSource {
	s := &FileSource{plans: make(map[string]map[string]string, len(plans))}
	for id, md := range plans {
		s.plans[id] = copyMetadata(md)
	}
	return s
}

func (s *FileSource) PlanMetadata(_ context.Context, planID string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	md, ok := s.plans[planID]
	if !ok {
		return nil, ErrPlanNotFound
	}
	return copyMetadata(md), nil
}

func (s *FileSource) WritePlanMetadata(ctx context.Context, planID string, metadata map[string]string) error {
	if planID == "" {
		return ErrMissingPlanID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.plans[planID] = copyMetadata(metadata)
	if s.persist == nil {
		return nil
	}

	raw, err := encodePlans(s.plans)
	if err == nil {
		err = s.persist(ctx, raw)
	}
	if err != nil {
		return errors.Join(ErrFailedToWriteMetadata, err)
	}
	return nil
}

func decodePlans(raw []byte) (map[string]map[string]string, error) {
	var pf planFile
	if err := yaml.Unmarshal(raw, &pf); err != nil {
		return nil, errors.Join(ErrFailedToLoadPlanFile, err)
	}

	plans := make(map[string]map[string]string, len(pf.Plans))
	for id, md := range pf.Plans {
		plans[id] = entitlement.StringifyMetadata(md)
	}
	return plans, nil
}

func encodePlans(plans map[string]map[string]string) ([]byte, error) {
	pf := planFile{Plans: make(map[string]map[string]any, len(plans))}
	for id, md := range plans {
		typed := make(map[string]any, len(md))
		for k, v := range md {
			typed[k] = v
		}
		pf.Plans[id] = typed
	}
	return yaml.Marshal(pf)
}

var _ MetadataStore = (*FileSource)(nil)
