package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	domain "github.com/Pharaon3/bark-automation/internal/domain"
	ledger "github.com/Pharaon3/bark-automation/internal/ledger"
)

// MockLedger is a mock type for the Ledger interface.
type MockLedger struct {
	mock.Mock
}

// Submit provides a mock function with given fields: ctx, lead
func (_m *MockLedger) Submit(ctx context.Context, lead domain.Lead) (ledger.Result, error) {
	ret := _m.Called(ctx, lead)

	if len(ret) == 0 {
		panic("no return value specified for Submit")
	}

	if rf, ok := ret.Get(0).(func(context.Context, domain.Lead) (ledger.Result, error)); ok {
		return rf(ctx, lead)
	}
	return ret.Get(0).(ledger.Result), ret.Error(1)
}

// NewMockLedger creates a new instance of MockLedger.
func NewMockLedger(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockLedger {
	mock := &MockLedger{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
