package sync

import "github.com/vladislavdragonenkov/storefront/internal/domain"

// TransitionEvents — чистая таблица решений: какие события автоматизации
// порождает смена статуса заказа. old == new не даёт ни одного события;
// любая реальная смена даёт общее событие плюс не более одного
// специфичного. Легальность перехода не проверяется: персонал может
// откатывать и перескакивать статусы, политика трактует любую пару
// old != new как валидную.
func TransitionEvents(oldStatus, newStatus domain.OrderStatus, ectx domain.EventContext) []domain.AutomationEvent {
	if oldStatus == newStatus {
		return nil
	}

	events := []domain.AutomationEvent{
		domain.StatusChangedEvent{
			EventContext: ectx,
			OldStatus:    oldStatus,
			NewStatus:    newStatus,
		},
	}

	if specific := specificEvent(oldStatus, newStatus, ectx); specific != nil {
		events = append(events, specific)
	}
	return events
}

// specificEvent выбирает специфичное событие для целевого статуса.
// Страховка oldStatus != target дублирует предусловие old != new, но
// остаётся явной: патч может переписать status тем же значением вместе
// с другими полями.
func specificEvent(oldStatus, newStatus domain.OrderStatus, ectx domain.EventContext) domain.AutomationEvent {
	if oldStatus == newStatus {
		return nil
	}

	switch newStatus {
	case domain.OrderStatusConfirmed:
		return domain.ConfirmedEvent{EventContext: ectx, EstimatedTime: ectx.EstimatedTime}
	case domain.OrderStatusPreparing:
		return domain.PreparingEvent{EventContext: ectx}
	case domain.OrderStatusReady:
		return domain.ReadyEvent{EventContext: ectx}
	case domain.OrderStatusCompleted:
		return domain.CompletedEvent{EventContext: ectx}
	case domain.OrderStatusCancelled:
		return domain.CancelledEvent{EventContext: ectx}
	}
	// pending и неизвестные статусы специфичного события не имеют.
	return nil
}
