package notify

import (
	"context"
	"errors"
	"log/slog"

	"foodapp/internal/telemetry"
)

// Notifier はusecaseから見た通知の約束。失敗は返さない（ログとメトリクスだけ）
type Notifier interface {
	Notify(ctx context.Context, userID int64, ev Event)
}

const (
	resultDelivered = "delivered"
	resultOffline   = "offline"
	resultDropped   = "dropped"
	resultFailed    = "failed"
)

// LocalDispatcher はこのプロセスのRegistryに直接届ける
type LocalDispatcher struct {
	registry *Registry
	metrics  *telemetry.Metrics
	log      *slog.Logger
}

// DI
func NewLocalDispatcher(registry *Registry, metrics *telemetry.Metrics, log *slog.Logger) *LocalDispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &LocalDispatcher{registry: registry, metrics: metrics, log: log}
}

func (d *LocalDispatcher) Notify(ctx context.Context, userID int64, ev Event) {
	c, ok := d.registry.Lookup(userID)
	if !ok {
		//未接続は正常系（何もしない）
		d.metrics.Notification(string(ev.Type), resultOffline)
		d.log.DebugContext(ctx, "notify: recipient offline", "user_id", userID, "type", ev.Type)
		return
	}

	if err := c.Send(ev); err != nil {
		result := resultFailed
		if errors.Is(err, ErrBufferFull) {
			result = resultDropped
		}
		d.metrics.Notification(string(ev.Type), result)
		d.log.WarnContext(ctx, "notify: send failed",
			"user_id", userID,
			"type", ev.Type,
			"order_id", ev.OrderID,
			"error", err,
		)
		return
	}

	d.metrics.Notification(string(ev.Type), resultDelivered)
}

var _ Notifier = (*LocalDispatcher)(nil)
