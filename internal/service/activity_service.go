package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/jobappid/verify-portal/internal/domain"
	"github.com/jobappid/verify-portal/internal/events"
	"github.com/jobappid/verify-portal/internal/observability"
)

// ActivityService records portal activity events for operators. It logs and
// counts events; it is not an audit trail of lookups.
type ActivityService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewActivityService creates the service.
func NewActivityService(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
	}
}

// RegisterHandlers subscribes to events.
func (a *ActivityService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, t := range events.AllTypes {
		a.dispatcher.Subscribe(t, a.handle)
	}
}

func (a *ActivityService) handle(_ context.Context, event events.Event) error {
	a.logger.Info("portal activity",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("session_id", event.SessionID),
		zap.String("actor_kind", string(event.Actor.Kind)),
		zap.String("actor", event.Actor.Label),
		zap.Any("payload", event.Payload))
	a.metrics.RecordActivity(string(event.Type))
	return nil
}

// publisher is embedded by flows that emit activity.
type publisher struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

func (p publisher) emit(ctx context.Context, t events.EventType, sid string, s domain.Session, payload interface{}) {
	if p.dispatcher == nil {
		return
	}
	if err := p.dispatcher.Publish(ctx, events.New(t, sid, events.ActorOf(s), payload)); err != nil {
		p.logger.Warn("activity handler failed", zap.String("event_type", string(t)), zap.Error(err))
	}
}
