package app

import (
	"github.com/yungbote/dialectic-backend/internal/dialectic/files"
	"github.com/yungbote/dialectic-backend/internal/dialectic/gather"
	"github.com/yungbote/dialectic-backend/internal/platform/gcp"
	"github.com/yungbote/dialectic-backend/internal/platform/logger"
)

type Services struct {
	Bucket gcp.BucketService
	Files  files.FileManagerService
	Gather gather.Service
}

func wireServices(log *logger.Logger, cfg Config, r Repos) (Services, error) {
	bucket, err := resolveBucketService(log, cfg)
	if err != nil {
		return Services{}, err
	}
	return Services{
		Bucket: bucket,
		Files:  files.NewFileManagerService(bucket, cfg.BucketName, r.Contribution, r.ProjectResource, r.StageFeedback, log),
		Gather: gather.NewService(r.Contribution, r.ProjectResource, r.StageFeedback, r.Stage, bucket, log),
	}, nil
}
