package hydrate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-analytics-client/internal/entity"
	"ai-analytics-client/internal/gateway"
	"ai-analytics-client/internal/localstore"
	"ai-analytics-client/internal/pkg/logger"
	"ai-analytics-client/pkg/events"
	"ai-analytics-client/pkg/sync/cache"
	"ai-analytics-client/pkg/sync/generation"
	"ai-analytics-client/pkg/sync/paging"
	"ai-analytics-client/pkg/sync/persist"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("ai-analytics-client/pkg/sync/hydrate")

// ErrSuperseded marks a run whose generation was overtaken by a newer
// one. Its results were discarded without side effects; callers ignore it.
var ErrSuperseded = errors.New("hydration superseded by a newer generation")

// State is the terminal outcome of one hydration run.
type State string

const (
	// StateSynced: the full chain resolved and page 1 is materialized.
	StateSynced State = "synced"
	// StateEmpty: no READY datasource exists. Valid, not an error.
	StateEmpty State = "empty"
	// StateFailed: a gateway call failed; retry re-enters at the failed
	// step (earlier successful fetches are served from cache).
	StateFailed State = "failed"
)

// Step names the network stages of the pipeline for error scoping.
type Step string

const (
	StepContext     Step = "context"
	StepDatasources Step = "datasources"
	StepSessions    Step = "sessions"
	StepMessages    Step = "messages"
)

// SyncError wraps a gateway failure with the step it happened in.
type SyncError struct {
	Step Step
	Err  error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync failed at %s: %v", e.Step, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// Result is what one hydration run resolved. DatasetID/SessionID are nil
// in the empty and no-sessions outcomes.
type Result struct {
	State       State
	Err         *SyncError
	Generation  generation.Token
	Context     *entity.ContextSnapshot
	Datasources []*entity.Datasource
	DatasetID   *uuid.UUID
	Sessions    []*entity.ChatSession
	SessionID   *uuid.UUID
	Messages    []*entity.ChatMessage
	HasMore     bool
}

// Pipeline reconstructs "what should be on screen" for a workspace with
// minimal redundant calls. One instance per application lifetime.
type Pipeline struct {
	cache     *cache.Store
	gw        gateway.IGateway
	persister *persist.Persister
	gens      *generation.Tracker
	threads   *paging.Manager
	local     localstore.KeyValueStore
	bus       *events.Bus
	logger    logger.ILogger
	pageSize  int
}

func NewPipeline(
	cacheStore *cache.Store,
	gw gateway.IGateway,
	persister *persist.Persister,
	gens *generation.Tracker,
	threads *paging.Manager,
	local localstore.KeyValueStore,
	bus *events.Bus,
	log logger.ILogger,
	pageSize int,
) *Pipeline {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Pipeline{
		cache:     cacheStore,
		gw:        gw,
		persister: persister,
		gens:      gens,
		threads:   threads,
		local:     local,
		bus:       bus,
		logger:    log,
		pageSize:  pageSize,
	}
}

// Run starts a fresh hydration generation for the workspace and executes
// the ordered fetch sequence. Returns ErrSuperseded when a newer Run for
// the same workspace started before this one could commit; every other
// outcome, including gateway failure, lands in the Result.
func (p *Pipeline) Run(ctx context.Context, rootId uuid.UUID) (*Result, error) {
	token := p.gens.Begin(rootId)
	return p.run(ctx, rootId, token)
}

// Retry re-enters hydration after a failure. Fetches that already
// succeeded are still fresh in the cache, so execution effectively
// resumes at the failed step without repeating earlier round trips.
func (p *Pipeline) Retry(ctx context.Context, rootId uuid.UUID) (*Result, error) {
	return p.Run(ctx, rootId)
}

func (p *Pipeline) run(ctx context.Context, rootId uuid.UUID, token generation.Token) (*Result, error) {
	ctx, span := tracer.Start(ctx, "hydrate.run")
	span.SetAttributes(attribute.String("workspace_id", rootId.String()))
	defer span.End()

	res := &Result{Generation: token}

	// 1. ContextFetch
	snap, err := p.fetchContext(ctx, rootId)
	if gate := p.gate(rootId, token, StepContext); gate != nil {
		return nil, gate
	}
	if err != nil {
		return p.fail(rootId, res, StepContext, err), nil
	}
	res.Context = snap

	// 2. DatasourceEnsure
	datasources, err := p.fetchDatasources(ctx, rootId)
	if gate := p.gate(rootId, token, StepDatasources); gate != nil {
		return nil, gate
	}
	if err != nil {
		return p.fail(rootId, res, StepDatasources, err), nil
	}
	res.Datasources = datasources

	// 3. DatasetSelection
	desiredDataset := snap.LastActiveDatasetId
	if desiredDataset == nil {
		desiredDataset = p.localUUID(localstore.DatasetKey(rootId))
	}
	selected := SelectDatasource(datasources, desiredDataset)
	if selected == nil {
		res.State = StateEmpty
		p.reconcile(rootId, snap, nil, nil)
		p.publishState(rootId, res.State)
		return res, nil
	}
	datasetId := selected.Id
	res.DatasetID = &datasetId

	// 4. SessionEnsure
	sessions, err := p.fetchSessions(ctx, datasetId)
	if gate := p.gate(rootId, token, StepSessions); gate != nil {
		return nil, gate
	}
	if err != nil {
		return p.fail(rootId, res, StepSessions, err), nil
	}
	res.Sessions = sessions

	// 5. SessionSelection
	desiredSession := snap.LastActiveSessionId
	if desiredSession == nil {
		desiredSession = p.localUUID(localstore.SessionKey(datasetId))
	}
	var sessionId *uuid.UUID
	if s := SelectSession(sessions, desiredSession); s != nil {
		id := s.Id
		sessionId = &id
	}
	res.SessionID = sessionId

	// 6. MessagePageFetch
	if sessionId != nil {
		page, err := p.fetchFirstPage(ctx, *sessionId)
		if gate := p.gate(rootId, token, StepMessages); gate != nil {
			return nil, gate
		}
		if err != nil {
			return p.fail(rootId, res, StepMessages, err), nil
		}
		thread := p.threads.ThreadFor(*sessionId)
		thread.Replace(page.Items, page.HasNext)
		res.Messages = thread.Messages()
		res.HasMore = page.HasNext
	}

	// 7. Reconciliation write-back
	p.reconcile(rootId, snap, res.DatasetID, res.SessionID)

	res.State = StateSynced
	p.publishState(rootId, res.State)
	return res, nil
}

func (p *Pipeline) fetchContext(ctx context.Context, rootId uuid.UUID) (*entity.ContextSnapshot, error) {
	v, err := p.cache.Fetch(ctx, cache.ResourceContext, []string{rootId.String()}, func(ctx context.Context) (interface{}, error) {
		return p.gw.GetContext(ctx, rootId)
	}, nil)
	if err != nil {
		return nil, err
	}
	return v.(*entity.ContextSnapshot), nil
}

func (p *Pipeline) fetchDatasources(ctx context.Context, rootId uuid.UUID) ([]*entity.Datasource, error) {
	v, err := p.cache.Fetch(ctx, cache.ResourceDatasources, []string{rootId.String()}, func(ctx context.Context) (interface{}, error) {
		return p.gw.GetDatasources(ctx, rootId)
	}, nil)
	if err != nil {
		return nil, err
	}
	return v.([]*entity.Datasource), nil
}

func (p *Pipeline) fetchSessions(ctx context.Context, datasetId uuid.UUID) ([]*entity.ChatSession, error) {
	v, err := p.cache.Fetch(ctx, cache.ResourceSessions, []string{datasetId.String()}, func(ctx context.Context) (interface{}, error) {
		return p.gw.GetSessions(ctx, datasetId)
	}, nil)
	if err != nil {
		return nil, err
	}
	return v.([]*entity.ChatSession), nil
}

func (p *Pipeline) fetchFirstPage(ctx context.Context, sessionId uuid.UUID) (*gateway.MessagePage, error) {
	v, err := p.cache.Fetch(ctx, cache.ResourceMessages, []string{sessionId.String(), "1"}, func(ctx context.Context) (interface{}, error) {
		return p.gw.GetMessages(ctx, sessionId, 1, p.pageSize)
	}, nil)
	if err != nil {
		return nil, err
	}
	return v.(*gateway.MessagePage), nil
}

// gate returns ErrSuperseded when the token no longer names the live
// generation. Called after every await, before any commit.
func (p *Pipeline) gate(rootId uuid.UUID, token generation.Token, step Step) error {
	if p.gens.IsCurrent(rootId, token) {
		return nil
	}
	p.logger.Debug("Hydrate", "Discarding stale step result", map[string]interface{}{
		"workspace_id": rootId.String(),
		"step":         string(step),
		"generation":   uint64(token),
	})
	return ErrSuperseded
}

func (p *Pipeline) fail(rootId uuid.UUID, res *Result, step Step, err error) *Result {
	res.State = StateFailed
	res.Err = &SyncError{Step: step, Err: err}
	p.logger.Warn("Hydrate", "Hydration step failed", map[string]interface{}{
		"workspace_id": rootId.String(),
		"step":         string(step),
		"error":        err.Error(),
	})
	p.publishState(rootId, res.State)
	return res
}

// reconcile schedules a debounced write when the effective selection
// differs from the fetched snapshot, and mirrors it locally. Nothing is
// written when nothing changed.
func (p *Pipeline) reconcile(rootId uuid.UUID, snap *entity.ContextSnapshot, datasetId, sessionId *uuid.UUID) {
	fields := make(map[string]interface{})
	if !uuidPtrEqual(snap.LastActiveDatasetId, datasetId) {
		fields["last_active_dataset_id"] = uuidPtrValue(datasetId)
	}
	if !uuidPtrEqual(snap.LastActiveSessionId, sessionId) {
		fields["last_active_session_id"] = uuidPtrValue(sessionId)
	}
	if len(fields) > 0 {
		p.persister.Schedule(rootId, fields)
	}

	if p.local != nil {
		if datasetId != nil {
			p.local.Set(localstore.DatasetKey(rootId), datasetId.String())
			if sessionId != nil {
				p.local.Set(localstore.SessionKey(*datasetId), sessionId.String())
			} else {
				p.local.Delete(localstore.SessionKey(*datasetId))
			}
		}
	}
}

func (p *Pipeline) publishState(rootId uuid.UUID, state State) {
	if err := p.bus.Publish(events.TopicSyncState,
		events.NewSyncStateEvent(rootId.String(), string(state), time.Now())); err != nil {
		p.logger.Warn("Hydrate", "Failed to publish sync state", map[string]interface{}{
			"workspace_id": rootId.String(), "error": err.Error(),
		})
	}
}

func (p *Pipeline) localUUID(key string) *uuid.UUID {
	if p.local == nil {
		return nil
	}
	raw, ok := p.local.Get(key)
	if !ok {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func uuidPtrValue(id *uuid.UUID) interface{} {
	if id == nil {
		return nil
	}
	return id.String()
}
