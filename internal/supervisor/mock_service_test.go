package supervisor

import (
	"context"
	"sync/atomic"
)

// mockService is a minimal suture.Service for exercising Tree's wiring
// without pulling in the real horizon builder, channel actor, or HTTP
// service.
type mockService struct {
	name       string
	startCount atomic.Int32
}

func newMockService(name string) *mockService {
	return &mockService{name: name}
}

func (m *mockService) Serve(ctx context.Context) error {
	m.startCount.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockService) StartCount() int32 { return m.startCount.Load() }

func (m *mockService) String() string { return m.name }
