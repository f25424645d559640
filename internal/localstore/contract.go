package localstore

import "github.com/google/uuid"

// KeyValueStore is the best-effort local mirror of the user's last
// selections. It is a fallback for hydration only and is never
// authoritative over the remote context snapshot.
type KeyValueStore interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
	Close() error
}

// DatasetKey names the remembered dataset pointer for a workspace.
func DatasetKey(workspaceId uuid.UUID) string {
	return "selection:workspace:" + workspaceId.String() + ":dataset"
}

// SessionKey names the remembered session pointer for a datasource.
func SessionKey(datasourceId uuid.UUID) string {
	return "selection:datasource:" + datasourceId.String() + ":session"
}
