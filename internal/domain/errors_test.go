package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func TestUpdateFailedError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("update order: %w", domain.ErrStoreUnavailable)
	err := &domain.UpdateFailedError{OrderID: "o1", Cause: cause}

	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatal("UpdateFailedError must unwrap to its cause")
	}

	var updateErr *domain.UpdateFailedError
	if !errors.As(err, &updateErr) {
		t.Fatal("errors.As must match UpdateFailedError")
	}
	if updateErr.OrderID != "o1" {
		t.Fatalf("expected order id o1, got %s", updateErr.OrderID)
	}
}

func TestErrorKindHelpers(t *testing.T) {
	unavailable := fmt.Errorf("query: %w", domain.ErrStoreUnavailable)
	denied := fmt.Errorf("update: %w", domain.ErrPermissionDenied)

	if !domain.IsStoreUnavailable(unavailable) {
		t.Fatal("expected store-unavailable kind")
	}
	if domain.IsStoreUnavailable(denied) {
		t.Fatal("permission failure must not look like transport failure")
	}
	if !domain.IsPermissionDenied(denied) {
		t.Fatal("expected permission-denied kind")
	}

	// Отказ по доступу остаётся различимым сквозь UpdateFailedError.
	wrapped := &domain.UpdateFailedError{OrderID: "o1", Cause: denied}
	if !domain.IsPermissionDenied(wrapped) {
		t.Fatal("permission kind must survive UpdateFailedError wrapping")
	}
}
