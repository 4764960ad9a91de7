package roles

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mu       sync.Mutex
	roles    map[uuid.UUID][]string
	listErr  error
	inserted []Assignment
	calls    int

	// When set, ListRoles signals entered and then blocks until released.
	// Used to simulate a slow store response racing a newer transition.
	block   chan struct{}
	entered chan struct{}
}

func newMockStore() *mockStore {
	return &mockStore{roles: make(map[uuid.UUID][]string)}
}

func (m *mockStore) ListRoles(ctx context.Context, userID uuid.UUID) ([]string, error) {
	m.mu.Lock()
	m.calls++
	block := m.block
	entered := m.entered
	labels := append([]string(nil), m.roles[userID]...)
	err := m.listErr
	m.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}
	return labels, nil
}

func (m *mockStore) Insert(ctx context.Context, id, userID uuid.UUID, role Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.inserted {
		if a.UserID == userID && a.Role == role {
			return ErrRoleAlreadyAssigned
		}
	}
	for _, label := range m.roles[userID] {
		if label == string(role) {
			return ErrRoleAlreadyAssigned
		}
	}
	m.inserted = append(m.inserted, Assignment{ID: id, UserID: userID, Role: role})
	m.roles[userID] = append(m.roles[userID], string(role))
	return nil
}

func (m *mockStore) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestResolveUnauthenticatedSkipsStore(t *testing.T) {
	store := newMockStore()
	resolver := NewResolver(store, nil, nil)

	set := resolver.Resolve(context.Background(), uuid.Nil)

	assert.True(t, set.Empty())
	assert.Zero(t, store.callCount(), "unauthenticated resolution must not contact the store")
}

func TestResolvePreservesStoreOrder(t *testing.T) {
	store := newMockStore()
	userID := uuid.New()
	store.roles[userID] = []string{"cliente", "admin"}
	resolver := NewResolver(store, nil, nil)

	set := resolver.Resolve(context.Background(), userID)

	require.Equal(t, RoleSet{RoleCliente, RoleAdmin}, set)
}

func TestResolveFailsSoftOnStoreError(t *testing.T) {
	store := newMockStore()
	store.listErr = errors.New("connection refused")
	resolver := NewResolver(store, nil, nil)

	set := resolver.Resolve(context.Background(), uuid.New())

	assert.True(t, set.Empty(), "store failure must resolve to the empty set")
	assert.Equal(t, DestUserHome, DeriveDestination(set), "failure must route to the least-privileged destination")
}

func TestResolveIgnoresUnknownLabels(t *testing.T) {
	store := newMockStore()
	userID := uuid.New()
	store.roles[userID] = []string{"cliente", "superuser", "admin", ""}
	resolver := NewResolver(store, nil, nil)

	set := resolver.Resolve(context.Background(), userID)

	assert.Equal(t, RoleSet{RoleCliente, RoleAdmin}, set)
}

func TestAssignInitialRecordsRole(t *testing.T) {
	store := newMockStore()
	userID := uuid.New()
	resolver := NewResolver(store, nil, nil)

	require.NoError(t, resolver.AssignInitial(context.Background(), userID, RoleCliente))

	set := resolver.Resolve(context.Background(), userID)
	assert.Equal(t, RoleSet{RoleCliente}, set)
	assert.Equal(t, DestClienteDashboard, DeriveDestination(set))
}

func TestAssignInitialDuplicateIsConflict(t *testing.T) {
	store := newMockStore()
	userID := uuid.New()
	store.roles[userID] = []string{"cliente"}
	resolver := NewResolver(store, nil, nil)

	err := resolver.AssignInitial(context.Background(), userID, RoleCliente)
	require.ErrorIs(t, err, ErrRoleAlreadyAssigned)

	// The conflict leaves the RoleSet and destination untouched.
	set := resolver.Resolve(context.Background(), userID)
	assert.Equal(t, RoleSet{RoleCliente}, set)
	assert.Equal(t, DestClienteDashboard, DeriveDestination(set))
}

func TestAssignInitialRejectsInvalidInput(t *testing.T) {
	resolver := NewResolver(newMockStore(), nil, nil)

	assert.Error(t, resolver.AssignInitial(context.Background(), uuid.Nil, RoleCliente))
	assert.Error(t, resolver.AssignInitial(context.Background(), uuid.New(), Role("superuser")))
}
