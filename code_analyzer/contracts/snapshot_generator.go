package contracts

import (
	"context"

	"github.com/brainboost/codesnap/code_analyzer/models"
)

type ISnapshotGenerator interface {
	Generate(ctx context.Context) (*models.SnapshotRecord, error)
	WriteSnapshot(record *models.SnapshotRecord) error
	Run(ctx context.Context) (*models.SnapshotRecord, error)
	OutputFile() string
}
