package entity

import (
	"time"

	"github.com/google/uuid"
)

type DatasourceStatus string

const (
	DatasourceStatusPending    DatasourceStatus = "PENDING"
	DatasourceStatusProcessing DatasourceStatus = "PROCESSING"
	DatasourceStatusReady      DatasourceStatus = "READY"
	DatasourceStatusFailed     DatasourceStatus = "FAILED"
	DatasourceStatusNeedsInput DatasourceStatus = "NEEDS_INPUT"
)

type Datasource struct {
	Id          uuid.UUID
	WorkspaceId uuid.UUID
	Name        string
	Status      DatasourceStatus
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// IsReady reports whether the datasource can host chat sessions.
func (d *Datasource) IsReady() bool {
	return d.Status == DatasourceStatusReady
}

// LastTouched returns UpdatedAt when set, falling back to CreatedAt.
func (d *Datasource) LastTouched() time.Time {
	if d.UpdatedAt != nil {
		return *d.UpdatedAt
	}
	return d.CreatedAt
}
