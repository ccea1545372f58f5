// Copyright (c) 2025 TenantForge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package project

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// JSONStore keeps projects in a single JSON file. The file is read on every
// call and replaced atomically on every write.
type JSONStore struct {
	mu       sync.Mutex
	filePath string
	now      func() time.Time
}

type storeFile struct {
	NextID   int64           `json:"next_id"`
	Projects []storedProject `json:"projects"`
}

type storedProject struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Tags        []string        `json:"tags"`
	Connections json.RawMessage `json:"connections"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (p storedProject) project() Project {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return Project{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Tags:        tags,
		Connections: decodeConnections(p.Connections),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// NewJSONStore creates a store backed by filePath. The file is created on the
// first write.
func NewJSONStore(filePath string) *JSONStore {
	return &JSONStore{filePath: filePath, now: time.Now}
}

// Path returns the backing file.
func (s *JSONStore) Path() string {
	return s.filePath
}

func (s *JSONStore) load() (storeFile, error) {
	var f storeFile
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			// no projects yet
			return storeFile{NextID: 1}, nil
		}
		return f, errors.Wrap(err, "failed to read projects")
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return f, errors.Wrapf(err, "failed to decode %s", s.filePath)
	}
	if f.NextID < 1 {
		f.NextID = 1
	}
	for _, p := range f.Projects {
		if p.ID >= f.NextID {
			f.NextID = p.ID + 1
		}
	}
	return f, nil
}

func (s *JSONStore) save(f storeFile) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode projects")
	}
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0o700); err != nil {
		return errors.Wrap(err, "failed to create store directory")
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.filePath), ".projects-*.json")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to write projects")
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to set permissions")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to write projects")
	}
	return errors.Wrap(os.Rename(tmp.Name(), s.filePath), "failed to replace projects file")
}

// Create adds a project and assigns it the next id.
func (s *JSONStore) Create(name, description string, tags []string) (Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Project{}, ErrNameRequired
	}
	if tags == nil {
		tags = []string{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return Project{}, err
	}
	now := s.now().UTC()
	p := storedProject{
		ID:          f.NextID,
		Name:        name,
		Description: description,
		Tags:        tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.NextID++
	f.Projects = append(f.Projects, p)
	if err := s.save(f); err != nil {
		return Project{}, err
	}
	return p.project(), nil
}

// List returns all projects in creation order.
func (s *JSONStore) List() ([]Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]Project, 0, len(f.Projects))
	for _, p := range f.Projects {
		out = append(out, p.project())
	}
	return out, nil
}

// Get returns one project or ErrNotFound.
func (s *JSONStore) Get(id int64) (Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return Project{}, err
	}
	for _, p := range f.Projects {
		if p.ID == id {
			return p.project(), nil
		}
	}
	return Project{}, ErrNotFound
}

// SaveConnections replaces a project's connection list.
func (s *JSONStore) SaveConnections(id int64, connections []json.RawMessage) error {
	if connections == nil {
		connections = []json.RawMessage{}
	}
	raw, err := json.Marshal(connections)
	if err != nil {
		return errors.Wrap(err, "failed to encode connections")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return err
	}
	for i := range f.Projects {
		if f.Projects[i].ID == id {
			f.Projects[i].Connections = raw
			f.Projects[i].UpdatedAt = s.now().UTC()
			return s.save(f)
		}
	}
	return ErrNotFound
}
