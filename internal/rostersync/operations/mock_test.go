package operations

import (
	"context"
	"fmt"
	"sync"

	"github.com/tansive/rostersync/internal/rostersync/store"
)

type call struct {
	Method string
	Path   string
	Body   any
}

type response struct {
	body string
	err  error
}

// mockClient records every request and answers with the response registered for
// its method and path.
type mockClient struct {
	mu        sync.Mutex
	calls     []call
	responses map[string]response
}

func newMockClient() *mockClient {
	return &mockClient{responses: map[string]response{}}
}

func (m *mockClient) on(method, path, body string) *mockClient {
	m.responses[method+" "+path] = response{body: body}
	return m
}

func (m *mockClient) fail(method, path string, err error) *mockClient {
	m.responses[method+" "+path] = response{err: err}
	return m
}

func (m *mockClient) do(method, path string, body any) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call{Method: method, Path: path, Body: body})
	r, ok := m.responses[method+" "+path]
	if !ok {
		return nil, fmt.Errorf("no response registered for %s %s", method, path)
	}
	if r.err != nil {
		return nil, r.err
	}
	return []byte(r.body), nil
}

func (m *mockClient) Get(_ context.Context, path string) ([]byte, error) {
	return m.do("GET", path, nil)
}

func (m *mockClient) Post(_ context.Context, path string, body any) ([]byte, error) {
	return m.do("POST", path, body)
}

func (m *mockClient) Delete(_ context.Context, path string) ([]byte, error) {
	return m.do("DELETE", path, nil)
}

func (m *mockClient) callsTo(method string) []call {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []call
	for _, c := range m.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// mockStore records dispatched actions.
type mockStore struct {
	mu       sync.Mutex
	tenantID int
	actions  []store.Action
}

func (s *mockStore) Dispatch(a store.Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, a)
	if ct, ok := a.(store.ChangeTenant); ok {
		s.tenantID = ct.TenantID
	}
}

func (s *mockStore) CurrentTenantID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tenantID
}

func (s *mockStore) dispatched() []store.Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]store.Action(nil), s.actions...)
}
