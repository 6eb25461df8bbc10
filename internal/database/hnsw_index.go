package database

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/coder/hnsw"

	"github.com/kozaktomas/face-recall/internal/vector"
)

// SampleIndex wraps an HNSW graph over stored face samples. It narrows a
// query down to the nearest few people before the exact matcher runs, which
// bounds match latency on large stores.
type SampleIndex struct {
	params      IndexParams
	graph       *hnsw.Graph[string]
	sampleOwner map[string]string // sample ID -> person ID, only live samples
	dim         int
	mu          sync.RWMutex
}

// IndexParams tunes the HNSW graph behind a SampleIndex.
type IndexParams struct {
	M          int `yaml:"m"`          // max neighbors per node
	EfSearch   int `yaml:"ef_search"`  // candidate pool size during search
	Oversample int `yaml:"oversample"` // samples fetched per wanted person, people own several samples
}

// DefaultIndexParams suit stores of up to a few hundred thousand samples.
var DefaultIndexParams = IndexParams{M: 16, EfSearch: 100, Oversample: 4}

// NewSampleIndex creates an empty index with DefaultIndexParams.
func NewSampleIndex() *SampleIndex {
	return NewSampleIndexWithParams(DefaultIndexParams)
}

// NewSampleIndexWithParams creates an empty index. Non-positive fields fall back to the defaults.
func NewSampleIndexWithParams(p IndexParams) *SampleIndex {
	if p.M <= 0 {
		p.M = DefaultIndexParams.M
	}
	if p.EfSearch <= 0 {
		p.EfSearch = DefaultIndexParams.EfSearch
	}
	if p.Oversample <= 0 {
		p.Oversample = DefaultIndexParams.Oversample
	}
	return &SampleIndex{
		params:      p,
		sampleOwner: make(map[string]string),
	}
}

func (h *SampleIndex) newGraph() *hnsw.Graph[string] {
	g := hnsw.NewGraph[string]()
	g.M = h.params.M
	g.Ml = 1.0 / float64(h.params.M)
	g.EfSearch = h.params.EfSearch
	g.Distance = hnsw.CosineDistance
	return g
}

// BuildFromSamples rebuilds the index from all assigned samples.
// Unassigned samples and samples without embeddings are skipped.
func (h *SampleIndex) BuildFromSamples(samples []FaceSample) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.graph = nil
	h.dim = 0
	h.sampleOwner = make(map[string]string, len(samples))

	for i := range samples {
		if err := h.addLocked(&samples[i]); err != nil {
			return err
		}
	}
	return nil
}

// Add indexes a single sample. Unassigned samples are ignored.
func (h *SampleIndex) Add(sample *FaceSample) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.addLocked(sample)
}

func (h *SampleIndex) addLocked(sample *FaceSample) error {
	if sample.PersonID == "" || len(sample.Embedding) == 0 {
		return nil
	}
	if h.dim != 0 && len(sample.Embedding) != h.dim {
		return fmt.Errorf("indexing sample %s: %w: %d != %d", sample.ID, vector.ErrDimensionMismatch, len(sample.Embedding), h.dim)
	}
	if h.graph == nil {
		h.graph = h.newGraph()
	}
	if _, exists := h.sampleOwner[sample.ID]; !exists {
		h.graph.Add(hnsw.MakeNode(sample.ID, sample.Embedding))
	}
	h.dim = len(sample.Embedding)
	h.sampleOwner[sample.ID] = sample.PersonID
	return nil
}

// Reassign moves an indexed sample to another person.
func (h *SampleIndex) Reassign(sampleID, personID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sampleOwner[sampleID]; !ok {
		return false
	}
	h.sampleOwner[sampleID] = personID
	return true
}

// Remove drops a sample from search results.
func (h *SampleIndex) Remove(sampleID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	// Graph nodes stay in place; lookups filter on sampleOwner.
	delete(h.sampleOwner, sampleID)
}

// RemovePerson drops every sample belonging to a person.
func (h *SampleIndex) RemovePerson(personID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sampleID, owner := range h.sampleOwner {
		if owner == personID {
			delete(h.sampleOwner, sampleID)
		}
	}
}

// CandidatePeople returns up to limit distinct person IDs owning the samples
// nearest to query, nearest first.
func (h *SampleIndex) CandidatePeople(query []float32, limit int) ([]string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.graph == nil {
		return nil, errors.New("index not initialized")
	}
	if len(query) != h.dim {
		return nil, fmt.Errorf("%w: %d != %d", vector.ErrDimensionMismatch, len(query), h.dim)
	}
	if limit <= 0 {
		return nil, nil
	}

	neighbors := h.graph.Search(query, limit*h.params.Oversample)

	seen := make(map[string]bool, limit)
	people := make([]string, 0, limit)
	for _, n := range neighbors {
		personID, ok := h.sampleOwner[n.Key]
		if !ok || seen[personID] {
			continue
		}
		seen[personID] = true
		people = append(people, personID)
		if len(people) == limit {
			break
		}
	}
	return people, nil
}

// Count returns the number of live indexed samples.
func (h *SampleIndex) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sampleOwner)
}

// IsEmpty returns true if the index has no graph data loaded.
func (h *SampleIndex) IsEmpty() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.graph == nil
}

// indexMetadata is persisted next to the graph in a .owners file.
type indexMetadata struct {
	Dim    int
	Owners map[string]string
}

// Save persists the graph and sample ownership to disk.
func (h *SampleIndex) Save(path string) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.graph == nil {
		// Remove existing files if index is empty (best-effort cleanup).
		_ = os.Remove(path)
		_ = os.Remove(path + ".owners")
		return nil
	}

	f, err := os.Create(path) //nolint:gosec // path is from trusted config
	if err != nil {
		return fmt.Errorf("failed to create HNSW index file: %w", err)
	}
	if err := h.graph.Export(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("exporting HNSW graph: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing HNSW index file: %w", err)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(indexMetadata{Dim: h.dim, Owners: h.sampleOwner}); err != nil {
		return fmt.Errorf("failed to encode sample owners: %w", err)
	}
	if err := os.WriteFile(path+".owners", buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write sample owners: %w", err)
	}
	return nil
}

// Load restores an index written by Save. A missing file leaves the index empty.
func (h *SampleIndex) Load(path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil // No index file, caller builds from samples
	}

	saved, err := hnsw.LoadSavedGraph[string](path)
	if err != nil {
		return fmt.Errorf("failed to load HNSW index: %w", err)
	}

	data, err := os.ReadFile(path + ".owners") //nolint:gosec // path is from trusted config
	if err != nil {
		return fmt.Errorf("failed to read sample owners: %w", err)
	}
	var meta indexMetadata
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&meta); err != nil {
		return fmt.Errorf("failed to decode sample owners: %w", err)
	}

	g := saved.Graph
	g.Distance = hnsw.CosineDistance
	g.EfSearch = h.params.EfSearch
	h.graph = g
	h.dim = meta.Dim
	h.sampleOwner = meta.Owners
	if h.sampleOwner == nil {
		h.sampleOwner = make(map[string]string)
	}
	return nil
}
