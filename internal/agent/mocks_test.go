package agent

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/speckled/api/schemas"
	"github.com/xkilldash9x/speckled/internal/protocol"
)

// -- Page Mock --

// MockPage mocks schemas.Page.
type MockPage struct {
	mock.Mock
}

func (m *MockPage) Click(ctx context.Context, loc schemas.Locator) error {
	return m.Called(ctx, loc).Error(0)
}

func (m *MockPage) DoubleClick(ctx context.Context, loc schemas.Locator) error {
	return m.Called(ctx, loc).Error(0)
}

func (m *MockPage) Press(ctx context.Context, loc schemas.Locator, key string) error {
	return m.Called(ctx, loc, key).Error(0)
}

func (m *MockPage) Fill(ctx context.Context, loc schemas.Locator, text string) error {
	return m.Called(ctx, loc, text).Error(0)
}

func (m *MockPage) Navigate(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

func (m *MockPage) Evaluate(ctx context.Context, script string, res any) error {
	return m.Called(ctx, script, res).Error(0)
}

func (m *MockPage) Screenshot(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockPage) Close() error {
	return m.Called().Error(0)
}

// newMockPage returns a page whose navigation and close always succeed.
func newMockPage() *MockPage {
	p := new(MockPage)
	p.On("Navigate", mock.Anything, mock.Anything).Return(nil).Maybe()
	p.On("Close").Return(nil).Maybe()
	return p
}

// -- Page Opener Mock --

// MockPageOpener mocks schemas.PageOpener.
type MockPageOpener struct {
	mock.Mock
}

func (m *MockPageOpener) NewPage(ctx context.Context) (schemas.Page, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(schemas.Page), args.Error(1)
}

// -- Observation Provider Mock --

// MockProvider mocks schemas.ObservationProvider.
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Describe(ctx context.Context, page schemas.Page) (schemas.Observation, error) {
	args := m.Called(ctx, page)
	return args.Get(0).(schemas.Observation), args.Error(1)
}

// -- Oracle Fake --

// scriptedOracle replays canned responses and records every conversation
// it was sent. The last response repeats once the script is exhausted.
type scriptedOracle struct {
	mu        sync.Mutex
	responses []string
	err       error
	requests  [][]schemas.Entry
}

func newScriptedOracle(responses ...string) *scriptedOracle {
	return &scriptedOracle{responses: responses}
}

func (o *scriptedOracle) Complete(_ context.Context, conversation []schemas.Entry) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	snapshot := make([]schemas.Entry, len(conversation))
	copy(snapshot, conversation)
	o.requests = append(o.requests, snapshot)
	if o.err != nil {
		return "", o.err
	}
	i := len(o.requests) - 1
	if i >= len(o.responses) {
		i = len(o.responses) - 1
	}
	return o.responses[i], nil
}

func (o *scriptedOracle) calls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.requests)
}

// -- Dispatcher Spy --

// spyDispatcher records instructions and delegates to an inner dispatcher
// when one is set. With err set it fails the failAt-th call, or every call
// when failAt is zero.
type spyDispatcher struct {
	mu     sync.Mutex
	inner  ActionDispatcher
	err    error
	failAt int
	seen   []protocol.Instruction
}

func (s *spyDispatcher) Dispatch(ctx context.Context, driver schemas.Driver, inst protocol.Instruction, obs schemas.Observation) error {
	s.mu.Lock()
	s.seen = append(s.seen, inst)
	inner, err := s.inner, s.err
	failing := err != nil && (s.failAt == 0 || s.failAt == len(s.seen))
	s.mu.Unlock()
	if failing {
		return err
	}
	if inner != nil {
		return inner.Dispatch(ctx, driver, inst, obs)
	}
	return nil
}

func (s *spyDispatcher) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}
