package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/markdave123-py/docflow/internal/core"
	objectclient "github.com/markdave123-py/docflow/internal/core/object-client"
)

// PresignedUpload is what a client needs to PUT a file straight to the bucket.
type PresignedUpload struct {
	URL       string `json:"url"`
	Key       string `json:"key"`
	ExpiresIn int    `json:"expiresIn"` // seconds
}

type StorageService struct {
	objects core.ObjectClient
	expiry  time.Duration
	log     logrus.FieldLogger
}

func NewStorageService(objects core.ObjectClient, expiry time.Duration, log logrus.FieldLogger) *StorageService {
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &StorageService{objects: objects, expiry: expiry, log: log}
}

func (s *StorageService) IssueUploadURL(ctx context.Context, fileName, contentType string) (*PresignedUpload, error) {
	if strings.TrimSpace(fileName) == "" {
		return nil, core.Validation("fileName is required")
	}
	key := objectclient.NewObjectKey(fileName)
	url, err := s.objects.PresignPut(ctx, key, contentType, s.expiry)
	if err != nil {
		return nil, core.Dependency(fmt.Sprintf("Failed to generate upload URL: %v", err), err)
	}
	return &PresignedUpload{URL: url, Key: key, ExpiresIn: int(s.expiry / time.Second)}, nil
}

// IssueReadURLForExisting signs a GET for a stored document URL. URLs that do
// not point into the bucket are returned as they are.
func (s *StorageService) IssueReadURLForExisting(ctx context.Context, storedURL string) (string, error) {
	key, ok := s.objects.KeyFromURL(storedURL)
	if !ok {
		return storedURL, nil
	}
	url, err := s.objects.PresignGet(ctx, key, s.expiry)
	if err != nil {
		return "", core.Dependency(fmt.Sprintf("Failed to generate read URL: %v", err), err)
	}
	return url, nil
}

// Put writes data under a fresh key derived from fileName and returns the
// canonical object URL.
func (s *StorageService) Put(ctx context.Context, fileName string, data io.Reader, size int64, contentType string) (string, error) {
	key := objectclient.NewObjectKey(fileName)
	url, err := s.objects.UploadFile(ctx, key, data, size, contentType)
	if err != nil {
		return "", core.Dependency(fmt.Sprintf("Failed to upload file: %v", err), err)
	}
	s.log.WithFields(logrus.Fields{"key": key, "size": size}).Debug("object stored")
	return url, nil
}

// Delete removes the object behind storedURL. A URL outside the bucket has
// no backing object and is treated as already gone.
func (s *StorageService) Delete(ctx context.Context, storedURL string) error {
	key, ok := s.objects.KeyFromURL(storedURL)
	if !ok {
		s.log.WithField("url", storedURL).Debug("url is not in the bucket; nothing to delete")
		return nil
	}
	if err := s.objects.DeleteFile(ctx, key); err != nil {
		return core.Dependency(fmt.Sprintf("Failed to delete file: %v", err), err)
	}
	return nil
}
