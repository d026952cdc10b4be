package testutils

import (
	"context"
	"sync"
	"time"

	"github.com/MarkYing2014/stock-dashboard/cmd/server/internal/upstream"
)

// MockClient simulates a connected websocket subscriber
type MockClient struct {
	IDVal    string
	Messages [][]byte
	SendErr  error // returned by SendBytes when set
	Closed   bool
	Mu       sync.Mutex
}

func NewMockClient(id string) *MockClient {
	return &MockClient{IDVal: id}
}

func (m *MockClient) ID() string { return m.IDVal }

func (m *MockClient) Close() {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Closed = true
}

func (m *MockClient) SendBytes(b []byte) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.SendErr != nil {
		return m.SendErr
	}
	m.Messages = append(m.Messages, b)
	return nil
}

func (m *MockClient) MessageCount() int {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return len(m.Messages)
}

func (m *MockClient) LastMessage() []byte {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if len(m.Messages) == 0 {
		return nil
	}
	return m.Messages[len(m.Messages)-1]
}

// MockUpstream simulates the market-data source
type MockUpstream struct {
	Quotes map[string]upstream.RawQuote
	Bars   map[string][]upstream.RawBar
	Errs   map[string]error // per-symbol forced failures
	Calls  []string
	Mu     sync.Mutex
}

func NewMockUpstream() *MockUpstream {
	return &MockUpstream{
		Quotes: make(map[string]upstream.RawQuote),
		Bars:   make(map[string][]upstream.RawBar),
		Errs:   make(map[string]error),
	}
}

func (m *MockUpstream) FetchQuote(ctx context.Context, symbol string) (upstream.RawQuote, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Calls = append(m.Calls, symbol)
	if err := m.Errs[symbol]; err != nil {
		return upstream.RawQuote{}, err
	}
	q, ok := m.Quotes[symbol]
	if !ok {
		return upstream.RawQuote{}, upstream.ErrInvalidTicker
	}
	return q, nil
}

func (m *MockUpstream) FetchHistory(ctx context.Context, symbol, period string) ([]upstream.RawBar, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if err := m.Errs[symbol]; err != nil {
		return nil, err
	}
	bars, ok := m.Bars[symbol]
	if !ok {
		return nil, upstream.ErrInvalidTicker
	}
	return bars, nil
}

// MockStore is an in-memory repository.Store
type MockStore struct {
	Snapshot []byte
	Charts   map[string][]byte
	Mu       sync.Mutex
}

func NewMockStore() *MockStore {
	return &MockStore{Charts: make(map[string][]byte)}
}

func (m *MockStore) SaveSnapshot(ctx context.Context, payload []byte) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Snapshot = payload
	return nil
}

func (m *MockStore) LatestSnapshot(ctx context.Context) ([]byte, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return m.Snapshot, nil
}

func (m *MockStore) GetChart(ctx context.Context, symbol, period string) ([]byte, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return m.Charts[symbol+":"+period], nil
}

func (m *MockStore) SetChart(ctx context.Context, symbol, period string, payload []byte) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Charts[symbol+":"+period] = payload
	return nil
}

func (m *MockStore) Close() error { return nil }

// MockClock makes the polling loop deterministic: Sleep advances a fake
// now and cancels the loop once the cycle budget is spent.
type MockClock struct {
	NowVal    time.Time
	SleepsMax int
	Sleeps    int
	Cancel    func()
	Mu        sync.Mutex
}

func NewMockClock(maxSleeps int, cancel func()) *MockClock {
	return &MockClock{
		NowVal:    time.Unix(1700000000, 0),
		SleepsMax: maxSleeps,
		Cancel:    cancel,
	}
}

func (m *MockClock) Now() time.Time {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return m.NowVal
}

func (m *MockClock) Sleep(d time.Duration) {
	m.Mu.Lock()
	m.NowVal = m.NowVal.Add(d)
	m.Sleeps++
	done := m.Sleeps >= m.SleepsMax
	m.Mu.Unlock()
	if done {
		m.Cancel()
	}
}
