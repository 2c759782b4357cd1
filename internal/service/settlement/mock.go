package settlement

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// MockService — конфигурируемая заглушка SettlementService для тестов.
type MockService struct {
	mu sync.Mutex

	SettleStatus domain.PaymentStatus
	SettleErr    error

	SettleCalls int
	LastAmount  int64
	LastMethod  domain.PaymentMethod
}

// NewMockService возвращает mock с успешным сценарием по умолчанию.
func NewMockService() *MockService {
	return &MockService{SettleStatus: domain.PaymentStatusPaid}
}

// Settle возвращает заранее настроенный результат и запоминает вызов.
func (m *MockService) Settle(ctx context.Context, method domain.PaymentMethod, details domain.PaymentDetails, amountMinor int64) (domain.PaymentStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SettleCalls++
	m.LastAmount = amountMinor
	m.LastMethod = method
	if m.SettleErr != nil {
		return "", m.SettleErr
	}
	if !method.RequiresSettlement() {
		return domain.PaymentStatusPending, nil
	}
	return m.SettleStatus, nil
}

var _ domain.SettlementService = (*MockService)(nil)
