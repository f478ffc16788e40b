package modules

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tansive/rostersync/internal/common/httpclient"
	"github.com/tansive/rostersync/internal/rostersync/domain"
	"github.com/tansive/rostersync/internal/rostersync/operations"
	"github.com/tansive/rostersync/internal/rostersync/server"
	"github.com/tansive/rostersync/internal/rostersync/store"
)

type clientConfig struct{ url string }

func (c clientConfig) GetServerURL() string      { return c.url }
func (c clientConfig) GetAPIKey() string         { return "" }
func (c clientConfig) GetToken() string          { return "" }
func (c clientConfig) GetTokenExpiry() time.Time { return time.Time{} }

func setup(t *testing.T) (*Modules, *store.Store, *server.Repository) {
	t.Helper()
	repo := server.NewRepository()
	_, err := server.Seed(repo, "Demo")
	require.NoError(t, err)
	_, err = server.Seed(repo, "Second")
	require.NoError(t, err)

	srv, err := server.CreateNewServer(repo, server.Options{})
	require.NoError(t, err)
	srv.MountHandlers()
	ts := httptest.NewServer(srv.Router)
	t.Cleanup(ts.Close)

	st := store.New(store.State{})
	t.Cleanup(st.Close)
	client := httpclient.NewClient(clientConfig{url: ts.URL + server.BasePath})
	return New(client, st), st, repo
}

func names[E any](list []E, name func(E) string) []string {
	out := make([]string, 0, len(list))
	for _, e := range list {
		out = append(out, name(e))
	}
	return out
}

func TestRefreshAll(t *testing.T) {
	m, st, _ := setup(t)

	require.NoError(t, m.RefreshAll(context.Background()))
	state := st.GetState()
	assert.Len(t, state.TenantData.TenantList, 2)
	assert.Len(t, state.SkillList.List, 3)
	assert.Len(t, state.ContractList.List, 1)
	assert.Len(t, state.SpotList.List, 1)
	assert.Len(t, state.EmployeeList.List, 1)
}

func TestSkillRenameCascades(t *testing.T) {
	m, st, _ := setup(t)
	ctx := context.Background()
	require.NoError(t, m.RefreshAll(ctx))

	changes, unsubscribe := st.Subscribe("action.*.*", 16)
	defer unsubscribe()

	target := st.GetState().SkillList.List[1]
	target.Name = "Intensive care"
	updated, err := m.Skills.Update(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, *target.Version+1, *updated.Version)

	var types []string
	for i := 0; i < 3; i++ {
		select {
		case ev := <-changes:
			types = append(types, ev.Data.(store.Change).Action.Type())
		case <-time.After(time.Second):
			t.Fatal("missing change")
		}
	}
	assert.Equal(t, []string{"skill/update", "spot/refreshList", "employee/refreshList"}, types)

	state := st.GetState()
	assert.Equal(t, "Intensive care", state.SkillList.List[1].Name)
	assert.Contains(t, names(state.SpotList.List[0].RequiredSkillSet, func(s domain.Skill) string { return s.Name }), "Intensive care")
	assert.Contains(t, names(state.EmployeeList.List[0].SkillProficiencySet, func(s domain.Skill) string { return s.Name }), "Intensive care")
}

func TestContractRenameCascadesToEmployees(t *testing.T) {
	m, st, _ := setup(t)
	ctx := context.Background()
	require.NoError(t, m.RefreshAll(ctx))

	contract := st.GetState().ContractList.List[0]
	contract.Name = "Part time"
	_, err := m.Contracts.Update(ctx, contract)
	require.NoError(t, err)
	assert.Equal(t, "Part time", st.GetState().EmployeeList.List[0].Contract.Name)
}

func TestStaleUpdateIsRejected(t *testing.T) {
	m, st, _ := setup(t)
	ctx := context.Background()
	require.NoError(t, m.RefreshAll(ctx))

	stale := st.GetState().SkillList.List[0]
	first := stale
	first.Name = "First"
	_, err := m.Skills.Update(ctx, first)
	require.NoError(t, err)

	stale.Name = "Second"
	_, err = m.Skills.Update(ctx, stale)
	assert.ErrorIs(t, err, operations.ErrStaleEntity)
	assert.Equal(t, "First", st.GetState().SkillList.List[0].Name)
}

func TestAddAndRemove(t *testing.T) {
	m, st, _ := setup(t)
	ctx := context.Background()
	require.NoError(t, m.RefreshAll(ctx))

	created, err := m.Skills.Add(ctx, domain.Skill{Name: "Triage"})
	require.NoError(t, err)
	require.Len(t, st.GetState().SkillList.List, 4)

	require.NoError(t, m.Skills.Remove(ctx, created))
	assert.Len(t, st.GetState().SkillList.List, 3)

	referenced := st.GetState().SkillList.List[0]
	require.NoError(t, m.Skills.Remove(ctx, referenced), "a declined removal is not an error")
	assert.Len(t, st.GetState().SkillList.List, 3)
}

func TestChangeTenant(t *testing.T) {
	m, st, _ := setup(t)
	ctx := context.Background()
	require.NoError(t, m.RefreshAll(ctx))

	require.NoError(t, m.Tenants.ChangeTenant(ctx, 1))
	state := st.GetState()
	assert.Equal(t, 1, state.TenantData.CurrentTenantID)
	assert.Len(t, state.TenantData.TenantList, 2)
	require.Len(t, state.SkillList.List, 3)
	for _, s := range state.SkillList.List {
		assert.Equal(t, 1, s.TenantID)
	}
	assert.Len(t, state.EmployeeList.List, 1)

	err := m.Tenants.ChangeTenant(ctx, 7)
	assert.ErrorIs(t, err, operations.ErrCascadeFailed)
	assert.Equal(t, 7, st.CurrentTenantID())
	assert.Empty(t, st.GetState().SkillList.List)
}
