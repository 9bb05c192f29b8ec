package fleet

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/camhub/camhub/pkg/models"
)

var _ Store = (*FileStore)(nil)

// fileDoc is the on-disk shape of the JSON node store.
type fileDoc struct {
	Nodes []models.Node `json:"nodes"`
}

// FileStore persists nodes in a single JSON document. Every mutation
// rewrites the whole document to a temp file and renames it into place,
// so a crash mid-write never leaves a torn file behind. Suited to
// homelab fleets of tens of nodes, not thousands.
type FileStore struct {
	mu    sync.RWMutex
	path  string
	nodes []models.Node
	index map[string]int
}

// NewFileStore opens (or creates) a JSON-backed node store at path.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path:  path,
		index: make(map[string]int),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read node store: %w", err)
	}

	var doc fileDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode node store %s: %w", path, err)
	}
	s.nodes = doc.Nodes
	for i, n := range s.nodes {
		s.index[n.ID] = i
	}
	return s, nil
}

// Create inserts a new node. Returns ErrDuplicateID when the id is taken.
func (s *FileStore) Create(_ context.Context, n *models.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[n.ID]; ok {
		return ErrDuplicateID
	}
	s.nodes = append(s.nodes, *n)
	s.index[n.ID] = len(s.nodes) - 1

	if err := s.persistLocked(); err != nil {
		// Roll back the in-memory append so memory matches disk.
		s.nodes = s.nodes[:len(s.nodes)-1]
		delete(s.index, n.ID)
		return err
	}
	return nil
}

// Get returns a node by id. Returns ErrNotFound when missing.
func (s *FileStore) Get(_ context.Context, id string) (*models.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return nil, ErrNotFound
	}
	n := s.nodes[i]
	return &n, nil
}

// List returns all nodes in stable insertion order.
func (s *FileStore) List(_ context.Context) ([]models.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Node, len(s.nodes))
	copy(out, s.nodes)
	return out, nil
}

// Update replaces an existing node. Returns ErrNotFound when missing.
func (s *FileStore) Update(_ context.Context, n *models.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[n.ID]
	if !ok {
		return ErrNotFound
	}
	prev := s.nodes[i]
	s.nodes[i] = *n

	if err := s.persistLocked(); err != nil {
		s.nodes[i] = prev
		return err
	}
	return nil
}

// Delete removes a node by id. Returns ErrNotFound when missing.
func (s *FileStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return ErrNotFound
	}
	prev := s.nodes
	s.nodes = append(append([]models.Node{}, s.nodes[:i]...), s.nodes[i+1:]...)
	s.reindexLocked()

	if err := s.persistLocked(); err != nil {
		s.nodes = prev
		s.reindexLocked()
		return err
	}
	return nil
}

func (s *FileStore) reindexLocked() {
	s.index = make(map[string]int, len(s.nodes))
	for i, n := range s.nodes {
		s.index[n.ID] = i
	}
}

// persistLocked writes the document to a temp file in the same directory
// and renames it over the target. Rename is atomic on POSIX filesystems.
func (s *FileStore) persistLocked() error {
	doc := fileDoc{Nodes: s.nodes}
	if doc.Nodes == nil {
		doc.Nodes = []models.Node{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode node store: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create node store dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write node store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace node store: %w", err)
	}
	return nil
}
