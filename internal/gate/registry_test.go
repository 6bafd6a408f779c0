package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Register(t *testing.T) {
	reg := NewRegistry()
	assert.Equal(t, -1, reg.MaxPhase())

	require.NoError(t, reg.Register(2, passing("lint")))
	assert.Equal(t, 2, reg.MaxPhase())
	assert.Empty(t, reg.Tier(0))
	assert.Empty(t, reg.Tier(1))
	assert.Len(t, reg.Tier(2), 1)
	assert.Nil(t, reg.Tier(5))
}

func TestRegistry_RejectsInvalid(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(0, passing("dup")))

	assert.Error(t, reg.Register(0, passing("dup")))
	assert.Error(t, reg.RegisterFinal(passing("dup"), 0))
	assert.Error(t, reg.Register(-1, passing("neg")))
	assert.Error(t, reg.Register(0, nil))
	assert.Error(t, reg.Register(0, passing("  ")))
	assert.Error(t, reg.RegisterFinal(passing("final"), -1))
	assert.Panics(t, func() { reg.MustRegister(0, passing("dup")) })
}

func TestRegistry_TierReturnsCopy(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(0, passing("a"))

	tier := reg.Tier(0)
	tier[0] = passing("mutated")

	assert.Equal(t, "a", reg.Tier(0)[0].Name())
}

func TestRegistry_DeclarePhases(t *testing.T) {
	reg := NewRegistry()
	reg.DeclarePhases(3)
	assert.Equal(t, 3, reg.MaxPhase())

	res, err := NewEvaluator(reg).Evaluate(t.Context(), 3)
	require.NoError(t, err)
	assert.True(t, res.Status.Passed())
	assert.Empty(t, res.Runs)
}

func TestRegistry_Plan(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(0, passing("config present"))
	reg.MustRegister(1, passing("phpcs"))
	reg.MustRegisterFinal(passing("forbidden patterns"), 0)
	reg.MustRegisterFinal(passing("marker count"), 1)

	plan, err := reg.Plan(0)
	require.NoError(t, err)
	require.Len(t, plan, 3)
	assert.Equal(t, PlannedCheck{Name: "config present", Tier: 0, Enforced: true}, plan[0])
	assert.Equal(t, PlannedCheck{Name: "forbidden patterns", Tier: 0, Final: true, Enforced: true}, plan[1])
	assert.Equal(t, PlannedCheck{Name: "marker count", Tier: 1, Final: true, Enforced: false}, plan[2])

	plan, err = reg.Plan(1)
	require.NoError(t, err)
	require.Len(t, plan, 4)
	assert.True(t, plan[3].Enforced)

	_, err = reg.Plan(-1)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Equal(t, 4, reg.Len())
}
