package objectclient

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	cfg "github.com/markdave123-py/docflow/internal/config"
	"github.com/markdave123-py/docflow/internal/core"
)

// NewObjectClient returns the backend selected by OBJECT_STORE.
func NewObjectClient(ctx context.Context, cfg *cfg.Config, log logrus.FieldLogger) (core.ObjectClient, error) {
	switch cfg.ObjectStore {
	case "", "s3":
		return NewS3Client(ctx, cfg, log)
	case "minio":
		return NewMinioClient(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unknown object store %q", cfg.ObjectStore)
	}
}
