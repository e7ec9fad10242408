package domain

import "time"

// OrderStatus описывает жизненный цикл заказа в витрине.
type OrderStatus string

const (
	// OrderStatusPending — заказ оформлен, но ещё не подтверждён персоналом.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusConfirmed — заказ принят в работу.
	OrderStatusConfirmed OrderStatus = "confirmed"
	// OrderStatusPreparing — заказ готовится на кухне.
	OrderStatusPreparing OrderStatus = "preparing"
	// OrderStatusReady — заказ готов к выдаче или доставке.
	OrderStatusReady OrderStatus = "ready"
	// OrderStatusCompleted — заказ выдан клиенту.
	OrderStatusCompleted OrderStatus = "completed"
	// OrderStatusCancelled — заказ отменён до завершения цикла.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Valid проверяет, что статус принадлежит закрытому набору.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing,
		OrderStatusReady, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// OrderType определяет способ получения заказа.
type OrderType string

const (
	OrderTypeDelivery OrderType = "delivery"
	OrderTypePickup   OrderType = "pickup"
)

// OrderItem представляет одну позицию заказа.
type OrderItem struct {
	// ID позиции нужен для однозначной идентификации в корзине и в базе.
	ID string `json:"id"`
	// Name — название блюда на момент оформления.
	Name string `json:"name"`
	// Qty — количество единиц, минимум 1.
	Qty int32 `json:"qty"`
	// PriceMinor — цена за единицу в минимальных денежных единицах.
	PriceMinor int64 `json:"price_minor"`
}

// Order агрегирует состояние одного заказа клиента.
type Order struct {
	ID string `json:"id"`
	// OrderNumber — человекочитаемый номер для чеков и уведомлений,
	// идентичность определяет только ID.
	OrderNumber string      `json:"order_number"`
	UserID      string      `json:"user_id,omitempty"` // пустой для гостевых заказов
	Status      OrderStatus `json:"status"`
	Items       []OrderItem `json:"items"`

	SubtotalMinor    int64 `json:"subtotal_minor"`
	DeliveryFeeMinor int64 `json:"delivery_fee_minor"`
	TaxMinor         int64 `json:"tax_minor"`
	TotalMinor       int64 `json:"total_minor"`

	DeliveryAddress string    `json:"delivery_address,omitempty"`
	OrderType       OrderType `json:"order_type"`
	CustomerName    string    `json:"customer_name"`
	CustomerPhone   string    `json:"customer_phone,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
// Сходимость total = subtotal + delivery_fee + tax не форсируется:
// витрина допускает скидки, которые модель не хранит.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.ID == "" {
		errs = append(errs, ErrOrderIDRequired)
	}
	if !o.Status.Valid() {
		errs = append(errs, ErrStatusUnknown)
	}
	if o.OrderType != OrderTypeDelivery && o.OrderType != OrderTypePickup {
		errs = append(errs, ErrOrderTypeUnknown)
	}
	if o.SubtotalMinor < 0 || o.DeliveryFeeMinor < 0 || o.TaxMinor < 0 || o.TotalMinor < 0 {
		errs = append(errs, ErrAmountNegative)
	}

	for _, item := range o.Items {
		if item.Qty < 1 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.PriceMinor < 0 {
			errs = append(errs, ErrItemPriceInvalid)
		}
	}

	return errs
}

// OrderPatch описывает частичное обновление заказа. nil-поле означает
// "оставить как есть".
type OrderPatch struct {
	Status *OrderStatus `json:"status,omitempty"`
	// Items == nil — позиции не меняются; пустой срез — очистить.
	Items []OrderItem `json:"items,omitempty"`

	SubtotalMinor    *int64 `json:"subtotal_minor,omitempty"`
	DeliveryFeeMinor *int64 `json:"delivery_fee_minor,omitempty"`
	TaxMinor         *int64 `json:"tax_minor,omitempty"`
	TotalMinor       *int64 `json:"total_minor,omitempty"`

	DeliveryAddress *string    `json:"delivery_address,omitempty"`
	OrderType       *OrderType `json:"order_type,omitempty"`
	CustomerName    *string    `json:"customer_name,omitempty"`
	CustomerPhone   *string    `json:"customer_phone,omitempty"`
}

// IsZero сообщает, что патч не затрагивает ни одного поля.
func (p OrderPatch) IsZero() bool {
	return p.Status == nil && p.Items == nil &&
		p.SubtotalMinor == nil && p.DeliveryFeeMinor == nil &&
		p.TaxMinor == nil && p.TotalMinor == nil &&
		p.DeliveryAddress == nil && p.OrderType == nil &&
		p.CustomerName == nil && p.CustomerPhone == nil
}

// ApplyTo возвращает копию заказа с наложенным патчем. Исходный заказ
// не мутируется; ID, OrderNumber, UserID и CreatedAt патч не затрагивает.
func (p OrderPatch) ApplyTo(o Order) Order {
	merged := o
	if p.Status != nil {
		merged.Status = *p.Status
	}
	if p.Items != nil {
		merged.Items = make([]OrderItem, len(p.Items))
		copy(merged.Items, p.Items)
	}
	if p.SubtotalMinor != nil {
		merged.SubtotalMinor = *p.SubtotalMinor
	}
	if p.DeliveryFeeMinor != nil {
		merged.DeliveryFeeMinor = *p.DeliveryFeeMinor
	}
	if p.TaxMinor != nil {
		merged.TaxMinor = *p.TaxMinor
	}
	if p.TotalMinor != nil {
		merged.TotalMinor = *p.TotalMinor
	}
	if p.DeliveryAddress != nil {
		merged.DeliveryAddress = *p.DeliveryAddress
	}
	if p.OrderType != nil {
		merged.OrderType = *p.OrderType
	}
	if p.CustomerName != nil {
		merged.CustomerName = *p.CustomerName
	}
	if p.CustomerPhone != nil {
		merged.CustomerPhone = *p.CustomerPhone
	}
	return merged
}
