package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrOrderIDRequired — отсутствующий идентификатор заказа.
	ErrOrderIDRequired = errors.New("order id is required")
	// ErrStatusUnknown — статус вне закрытого набора.
	ErrStatusUnknown = errors.New("order status is unknown")
	// ErrOrderTypeUnknown — способ получения вне набора delivery/pickup.
	ErrOrderTypeUnknown = errors.New("order type is unknown")
	// ErrAmountNegative — отрицательная денежная сумма в заказе.
	ErrAmountNegative = errors.New("order amounts must be non-negative")
	// ErrItemQtyInvalid — количество позиции меньше единицы.
	ErrItemQtyInvalid = errors.New("item qty must be at least one")
	// ErrItemPriceInvalid — отрицательная цена позиции.
	ErrItemPriceInvalid = errors.New("item price must be non-negative")

	// ErrOrderNotFound возвращается, если заказа нет в авторитетном наборе
	// или в удалённом хранилище.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderExists возвращается при попытке создать заказ с занятым ID.
	ErrOrderExists = errors.New("order already exists")
	// ErrStoreUnavailable — транспортная ошибка удалённого хранилища; на
	// пути чтения деградирует до cache-only, на пути записи оборачивается
	// в UpdateFailedError.
	ErrStoreUnavailable = errors.New("order store unavailable")
	// ErrPermissionDenied — хранилище отклонило запись по политике доступа.
	// Не повторяемая ошибка, вызывающий код различает её отдельно.
	ErrPermissionDenied = errors.New("order store permission denied")
)

// UpdateFailedError сигнализирует о неудачной durable-записи. Оптимистичное
// состояние в памяти при этом сохраняется, отката нет.
type UpdateFailedError struct {
	OrderID string
	Cause   error
}

func (e *UpdateFailedError) Error() string {
	return fmt.Sprintf("update of order %s failed: %v", e.OrderID, e.Cause)
}

func (e *UpdateFailedError) Unwrap() error {
	return e.Cause
}

// IsStoreUnavailable проверяет транспортную природу ошибки.
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// IsPermissionDenied проверяет отказ по политике доступа.
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}
