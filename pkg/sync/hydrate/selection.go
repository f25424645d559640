package hydrate

import (
	"ai-analytics-client/internal/entity"

	"github.com/google/uuid"
)

// SelectDatasource resolves the effective active datasource. The
// remembered pointer wins only when it names a READY datasource in the
// list; otherwise the most-recently-updated READY one is chosen, with
// CreatedAt as tie-break. Returns nil when nothing is READY.
func SelectDatasource(list []*entity.Datasource, desired *uuid.UUID) *entity.Datasource {
	if desired != nil {
		for _, ds := range list {
			if ds.Id == *desired && ds.IsReady() {
				return ds
			}
		}
	}

	var best *entity.Datasource
	for _, ds := range list {
		if !ds.IsReady() {
			continue
		}
		if best == nil {
			best = ds
			continue
		}
		switch {
		case ds.LastTouched().After(best.LastTouched()):
			best = ds
		case ds.LastTouched().Equal(best.LastTouched()) && ds.CreatedAt.After(best.CreatedAt):
			best = ds
		}
	}
	return best
}

// SelectSession resolves the effective active session: the remembered one
// when present in the list, else the first entry (the gateway returns
// sessions newest-first), else nil.
func SelectSession(list []*entity.ChatSession, desired *uuid.UUID) *entity.ChatSession {
	if desired != nil {
		for _, s := range list {
			if s.Id == *desired {
				return s
			}
		}
	}
	if len(list) > 0 {
		return list[0]
	}
	return nil
}
