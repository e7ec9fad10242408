// Пакет notify содержит резервный диспетчер уведомлений: когда Kafka не
// настроен, события автоматизации уходят в структурированный лог.
package notify

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// LogDispatcher пишет события в лог вместо внешней доставки.
type LogDispatcher struct {
	logger *log.Entry
}

// NewLogDispatcher создаёт лог-диспетчер.
func NewLogDispatcher(logger *log.Entry) *LogDispatcher {
	if logger == nil {
		logger = log.WithField("component", "log-dispatcher")
	}
	return &LogDispatcher{logger: logger}
}

// Trigger логирует событие и всегда успешен.
func (d *LogDispatcher) Trigger(_ context.Context, event domain.AutomationEvent) error {
	ectx := event.Context()
	d.logger.WithFields(log.Fields{
		"event":        event.Name(),
		"order_id":     ectx.OrderID,
		"order_number": ectx.OrderNumber,
		"target_user":  ectx.UserID,
	}).Info("automation event")
	return nil
}

var _ domain.NotificationDispatcher = (*LogDispatcher)(nil)
