package hydrate

import (
	"testing"
	"time"

	"ai-analytics-client/internal/entity"

	"github.com/google/uuid"
)

func ds(id uuid.UUID, status entity.DatasourceStatus, created, updated time.Time) *entity.Datasource {
	return &entity.Datasource{
		Id:        id,
		Name:      "ds",
		Status:    status,
		CreatedAt: created,
		UpdatedAt: &updated,
	}
}

func TestSelectDatasource(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)

	d1 := ds(uuid.New(), entity.DatasourceStatusProcessing, yesterday, yesterday)
	d2 := ds(uuid.New(), entity.DatasourceStatusReady, yesterday, now)
	d3 := ds(uuid.New(), entity.DatasourceStatusReady, now.Add(-2*time.Hour), yesterday)
	d4 := ds(uuid.New(), entity.DatasourceStatusReady, yesterday, now) // same UpdatedAt as d2, older CreatedAt
	d4.CreatedAt = yesterday.Add(-time.Hour)

	tests := []struct {
		name    string
		list    []*entity.Datasource
		desired *uuid.UUID
		want    *uuid.UUID
	}{
		{
			name: "no remembered id picks most recently updated READY",
			list: []*entity.Datasource{d1, d2, d3},
			want: &d2.Id,
		},
		{
			name:    "remembered READY id wins over recency",
			list:    []*entity.Datasource{d1, d2, d3},
			desired: &d3.Id,
			want:    &d3.Id,
		},
		{
			name:    "remembered id not in list falls back",
			list:    []*entity.Datasource{d1, d2},
			desired: ptr(uuid.New()),
			want:    &d2.Id,
		},
		{
			name:    "remembered id not READY falls back",
			list:    []*entity.Datasource{d1, d2},
			desired: &d1.Id,
			want:    &d2.Id,
		},
		{
			name: "no READY datasource yields nil",
			list: []*entity.Datasource{d1},
			want: nil,
		},
		{
			name: "tie on UpdatedAt breaks on CreatedAt",
			list: []*entity.Datasource{d4, d2},
			want: &d2.Id,
		},
		{
			name: "empty list yields nil",
			list: nil,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Repeated runs over identical input must agree.
			for i := 0; i < 3; i++ {
				got := SelectDatasource(tt.list, tt.desired)
				if tt.want == nil {
					if got != nil {
						t.Fatalf("want nil, got %s", got.Id)
					}
					continue
				}
				if got == nil || got.Id != *tt.want {
					t.Fatalf("want %s, got %v", *tt.want, got)
				}
			}
		})
	}
}

func TestSelectSession(t *testing.T) {
	newest := &entity.ChatSession{Id: uuid.New(), Title: "newest"}
	older := &entity.ChatSession{Id: uuid.New(), Title: "older"}
	list := []*entity.ChatSession{newest, older}

	t.Run("remembered id in list wins", func(t *testing.T) {
		got := SelectSession(list, &older.Id)
		if got == nil || got.Id != older.Id {
			t.Fatalf("want %s, got %v", older.Id, got)
		}
	})

	t.Run("unknown remembered id falls back to first", func(t *testing.T) {
		got := SelectSession(list, ptr(uuid.New()))
		if got == nil || got.Id != newest.Id {
			t.Fatalf("want %s, got %v", newest.Id, got)
		}
	})

	t.Run("no remembered id picks first", func(t *testing.T) {
		got := SelectSession(list, nil)
		if got == nil || got.Id != newest.Id {
			t.Fatalf("want %s, got %v", newest.Id, got)
		}
	})

	t.Run("empty list yields nil", func(t *testing.T) {
		if got := SelectSession(nil, nil); got != nil {
			t.Fatalf("want nil, got %v", got)
		}
	})
}

func ptr(id uuid.UUID) *uuid.UUID {
	return &id
}
