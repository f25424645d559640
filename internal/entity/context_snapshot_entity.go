package entity

import (
	"time"

	"github.com/google/uuid"
)

// ContextSnapshot is the backend's remembered "where was I" record for a
// workspace. The local mirror never defines truth; the last successful
// gateway read does.
type ContextSnapshot struct {
	WorkspaceId         uuid.UUID
	LastActiveDatasetId *uuid.UUID
	LastActiveSessionId *uuid.UUID
	UpdatedAt           *time.Time
}
