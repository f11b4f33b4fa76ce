package core

import "context"

type (
	// StoredFile references a file or folder held by an external document store.
	StoredFile struct {
		ID   string
		Link string
	}

	// DocumentStore is any service that can hold per-applicant folders and files.
	DocumentStore interface {
		CreateFolder(ctx context.Context, parentID, name string) (StoredFile, error)
		UploadFile(ctx context.Context, folderID, name string, content []byte, mimeType string) (StoredFile, error)
	}
)
