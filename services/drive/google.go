package drivesvc

import (
	"bytes"
	"context"

	"github.com/pkg/errors"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/sheleads/intake/core"
)

const folderMimeType = "application/vnd.google-apps.folder"

// googleService stores applicant documents on Google Drive.
type googleService struct {
	svc *drive.Service
}

var _ core.DocumentStore = (*googleService)(nil)

func NewGoogleService(ctx context.Context, conf *core.Config) (*googleService, error) {
	svc, err := drive.NewService(ctx, option.WithCredentialsFile(conf.Google.CredentialsFile))
	if err != nil {
		return nil, errors.Wrap(err, "creating drive client")
	}
	return &googleService{svc: svc}, nil
}

func (s *googleService) CreateFolder(ctx context.Context, parentID, name string) (core.StoredFile, error) {
	meta := &drive.File{
		Name:     name,
		MimeType: folderMimeType,
	}
	if parentID != "" {
		meta.Parents = []string{parentID}
	}

	f, err := s.svc.Files.Create(meta).
		Fields("id", "webViewLink").
		Context(ctx).
		Do()
	if err != nil {
		return core.StoredFile{}, errors.Wrap(err, "creating folder")
	}
	return core.StoredFile{ID: f.Id, Link: f.WebViewLink}, nil
}

func (s *googleService) UploadFile(ctx context.Context, folderID, name string, content []byte, mimeType string) (core.StoredFile, error) {
	meta := &drive.File{
		Name:    name,
		Parents: []string{folderID},
	}

	f, err := s.svc.Files.Create(meta).
		Media(bytes.NewReader(content), googleapi.ContentType(mimeType)).
		Fields("id", "webViewLink").
		Context(ctx).
		Do()
	if err != nil {
		return core.StoredFile{}, errors.Wrap(err, "uploading "+name)
	}
	return core.StoredFile{ID: f.Id, Link: f.WebViewLink}, nil
}
