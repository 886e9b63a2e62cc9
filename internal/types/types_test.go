package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GullianLanguage/Gullian/internal/token"
	"github.com/GullianLanguage/Gullian/internal/types"
)

func TestTypeIdentityIsUidOnly(t *testing.T) {
	a := types.New(token.Name{Value: "Box"}, nil, nil)
	b := types.New(token.Name{Value: "Box"}, nil, nil)

	assert.False(t, a.Equal(b), "distinct New() calls must never compare equal")
	assert.True(t, a.Equal(a))
	assert.Equal(t, a.Uid, a.Hash())
}

func TestUidIsMonotonic(t *testing.T) {
	first := types.NextUID()
	for i := 0; i < 100; i++ {
		next := types.NextUID()
		require.Greater(t, next, first)
		first = next
	}
}

func TestPrimitiveUniqueness(t *testing.T) {
	intA, ok := types.Lookup(types.NameInt)
	require.True(t, ok)
	intB, ok := types.Lookup(types.NameInt)
	require.True(t, ok)

	assert.Same(t, intA, intB)
	assert.True(t, intA.Equal(intB))
}

func TestCompatibilityLattice(t *testing.T) {
	anyT, _ := types.Lookup(types.NameAny)
	ptrT, _ := types.Lookup(types.NamePtr)
	intT, _ := types.Lookup(types.NameInt)
	strT, _ := types.Lookup(types.NameStr)
	boolT, _ := types.Lookup(types.NameBool)
	floatT, _ := types.Lookup(types.NameFloat)

	assert.True(t, types.Compatible(anyT, floatT))
	assert.True(t, types.Compatible(floatT, anyT))
	assert.True(t, types.Compatible(ptrT, strT))
	assert.True(t, types.Compatible(strT, ptrT))
	assert.True(t, types.Compatible(intT, boolT))
	assert.False(t, types.Compatible(floatT, boolT))
	assert.False(t, types.Compatible(ptrT, floatT))
}

func TestGenericSpecializationGetsFreshUid(t *testing.T) {
	generic := types.New(token.Name{Value: "Box"}, nil, nil)
	specialized := types.New(token.Name{Value: "Box"}, nil, nil)

	assert.False(t, generic.Equal(specialized))
	assert.NotEqual(t, generic.Uid, specialized.Uid)
}
