package matcher

import (
	"sync"

	"github.com/coder/hnsw"
	"github.com/google/uuid"

	"github.com/your-org/faceid/internal/storage"
)

const suggestMaxNeighbors = 16

// Suggestion is a nearest-neighbor hit from the in-process index.
type Suggestion struct {
	PersonID uuid.UUID
	Score    float32
}

// SuggestionIndex keeps per-owner HNSW graphs over assigned face embeddings
// so the management API can offer person suggestions without a database
// round trip. The database stays authoritative; the index is rebuilt from it
// and tolerates being behind.
type SuggestionIndex struct {
	mu     sync.RWMutex
	owners map[uuid.UUID]*ownerGraph
}

type ownerGraph struct {
	// hnsw.Graph requires cmp.Ordered keys, so faces are keyed by the
	// UUID's string form.
	graph        *hnsw.Graph[string]
	faceToPerson map[string]uuid.UUID
}

func NewSuggestionIndex() *SuggestionIndex {
	return &SuggestionIndex{owners: make(map[uuid.UUID]*ownerGraph)}
}

func newOwnerGraph() *ownerGraph {
	g := hnsw.NewGraph[string]()
	g.M = suggestMaxNeighbors
	g.Ml = 1.0 / float64(suggestMaxNeighbors)
	g.Distance = hnsw.CosineDistance
	return &ownerGraph{graph: g, faceToPerson: make(map[string]uuid.UUID)}
}

// Rebuild replaces an owner's graph with the given assigned faces.
func (s *SuggestionIndex) Rebuild(ownerID uuid.UUID, faces []storage.AssignedFace) {
	og := newOwnerGraph()
	for _, f := range faces {
		if len(f.Embedding) == 0 {
			continue
		}
		og.graph.Add(hnsw.MakeNode(f.FaceID.String(), f.Embedding))
		og.faceToPerson[f.FaceID.String()] = f.PersonID
	}

	s.mu.Lock()
	s.owners[ownerID] = og
	s.mu.Unlock()
}

// Add inserts one assigned face into an owner's graph.
func (s *SuggestionIndex) Add(ownerID uuid.UUID, face storage.AssignedFace) {
	if len(face.Embedding) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	og, ok := s.owners[ownerID]
	if !ok {
		og = newOwnerGraph()
		s.owners[ownerID] = og
	}
	og.graph.Add(hnsw.MakeNode(face.FaceID.String(), face.Embedding))
	og.faceToPerson[face.FaceID.String()] = face.PersonID
}

// Remove drops a face from an owner's lookup. The graph node stays but stops
// resolving, which is how HNSW handles deletion.
func (s *SuggestionIndex) Remove(ownerID, faceID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if og, ok := s.owners[ownerID]; ok {
		delete(og.faceToPerson, faceID.String())
	}
}

// Suggest returns up to k distinct persons near the query embedding, best
// first. Scores are cosine similarity.
func (s *SuggestionIndex) Suggest(ownerID uuid.UUID, embedding []float32, k int) []Suggestion {
	s.mu.RLock()
	og, ok := s.owners[ownerID]
	s.mu.RUnlock()
	if !ok || k <= 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// Overfetch so suppressed faces and duplicate persons do not starve the
	// result.
	neighbors := og.graph.Search(embedding, k*4)

	seen := make(map[uuid.UUID]bool, k)
	var out []Suggestion
	for _, n := range neighbors {
		personID, ok := og.faceToPerson[n.Key]
		if !ok || seen[personID] {
			continue
		}
		seen[personID] = true
		out = append(out, Suggestion{
			PersonID: personID,
			Score:    1 - CosineDistance(embedding, n.Value),
		})
		if len(out) == k {
			break
		}
	}
	return out
}

// Count returns the number of resolvable faces for an owner.
func (s *SuggestionIndex) Count(ownerID uuid.UUID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if og, ok := s.owners[ownerID]; ok {
		return len(og.faceToPerson)
	}
	return 0
}
