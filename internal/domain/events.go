package domain

// EventName — имя события автоматизации, уходящего в диспетчер уведомлений.
type EventName string

const (
	// EventOrderStatusChanged — общее событие, срабатывает на любую смену статуса.
	EventOrderStatusChanged EventName = "order_status_changed"
	// Специфичные события, по одному на целевой статус. Для pending
	// специфичного события нет.
	EventOrderConfirmed EventName = "order_confirmed"
	EventOrderPreparing EventName = "order_preparing"
	EventOrderReady     EventName = "order_ready"
	EventOrderCompleted EventName = "order_completed"
	EventOrderCancelled EventName = "order_cancelled"
)

// EventContext — общие поля полезной нагрузки; адресат задаётся UserID и
// остаётся пустым для гостевых заказов.
type EventContext struct {
	OrderID      string `json:"order_id"`
	OrderNumber  string `json:"order_number"`
	TotalMinor   int64  `json:"total_minor"`
	CustomerName string `json:"customer_name"`
	UserID       string `json:"-"`
	// EstimatedTime — опциональная оценка времени приготовления; в payload
	// попадает только у ConfirmedEvent.
	EstimatedTime string `json:"-"`
}

// AutomationEvent — одно диспетчеризуемое событие. Каждому имени
// соответствует свой тип полезной нагрузки, новые события добавляются
// новым типом, а не новым полем в общей структуре.
type AutomationEvent interface {
	Name() EventName
	Context() EventContext
}

// StatusChangedEvent фиксирует любую смену статуса.
type StatusChangedEvent struct {
	EventContext
	OldStatus OrderStatus `json:"old_status"`
	NewStatus OrderStatus `json:"new_status"`
}

func (StatusChangedEvent) Name() EventName         { return EventOrderStatusChanged }
func (e StatusChangedEvent) Context() EventContext { return e.EventContext }

// ConfirmedEvent несёт опциональную оценку времени приготовления.
type ConfirmedEvent struct {
	EventContext
	EstimatedTime string `json:"estimated_time,omitempty"`
}

func (ConfirmedEvent) Name() EventName         { return EventOrderConfirmed }
func (e ConfirmedEvent) Context() EventContext { return e.EventContext }

// PreparingEvent — заказ взят в приготовление.
type PreparingEvent struct {
	EventContext
}

func (PreparingEvent) Name() EventName         { return EventOrderPreparing }
func (e PreparingEvent) Context() EventContext { return e.EventContext }

// ReadyEvent — заказ готов к выдаче.
type ReadyEvent struct {
	EventContext
}

func (ReadyEvent) Name() EventName         { return EventOrderReady }
func (e ReadyEvent) Context() EventContext { return e.EventContext }

// CompletedEvent — заказ выдан.
type CompletedEvent struct {
	EventContext
}

func (CompletedEvent) Name() EventName         { return EventOrderCompleted }
func (e CompletedEvent) Context() EventContext { return e.EventContext }

// CancelledEvent — заказ отменён.
type CancelledEvent struct {
	EventContext
}

func (CancelledEvent) Name() EventName         { return EventOrderCancelled }
func (e CancelledEvent) Context() EventContext { return e.EventContext }

var (
	_ AutomationEvent = StatusChangedEvent{}
	_ AutomationEvent = ConfirmedEvent{}
	_ AutomationEvent = PreparingEvent{}
	_ AutomationEvent = ReadyEvent{}
	_ AutomationEvent = CompletedEvent{}
	_ AutomationEvent = CancelledEvent{}
)
