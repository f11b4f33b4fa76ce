package drivesvc

import (
	"context"
	"fmt"
	"sync"

	"github.com/sheleads/intake/core"
)

// DummyUpload is one file recorded by the in-memory store.
type DummyUpload struct {
	FolderID string
	Name     string
	MimeType string
	Size     int
}

// DummyService keeps folders and uploads in memory for tests and local runs.
type DummyService struct {
	mu      sync.Mutex
	nextID  int
	folders []string
	uploads []DummyUpload

	// FolderErr and UploadErr, when set, fail the matching call.
	FolderErr error
	UploadErr error
}

var _ core.DocumentStore = (*DummyService)(nil)

func NewDummyService() *DummyService {
	return &DummyService{}
}

func (s *DummyService) CreateFolder(_ context.Context, parentID, name string) (core.StoredFile, error) {
	if s.FolderErr != nil {
		return core.StoredFile{}, s.FolderErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.folders = append(s.folders, name)
	id := fmt.Sprintf("folder-%d", s.nextID)
	return core.StoredFile{ID: id, Link: "https://drive.local/" + id}, nil
}

func (s *DummyService) UploadFile(_ context.Context, folderID, name string, content []byte, mimeType string) (core.StoredFile, error) {
	if s.UploadErr != nil {
		return core.StoredFile{}, s.UploadErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.uploads = append(s.uploads, DummyUpload{
		FolderID: folderID,
		Name:     name,
		MimeType: mimeType,
		Size:     len(content),
	})
	id := fmt.Sprintf("file-%d", s.nextID)
	return core.StoredFile{ID: id, Link: "https://drive.local/" + id}, nil
}

func (s *DummyService) Folders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.folders))
	copy(out, s.folders)
	return out
}

func (s *DummyService) Uploads() []DummyUpload {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]DummyUpload, len(s.uploads))
	copy(out, s.uploads)
	return out
}
