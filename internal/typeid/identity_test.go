package typeid

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

type plainValue struct {
	A int
}

type weighted interface {
	Weight() int
}

type stackable interface {
	StackLimit() int
}

// stackable transitively implies weighted
var _ = DeclareBases[stackable](Of[weighted]())

type crate struct {
	W int
}

func (c *crate) Weight() int { return c.W }

func (c *crate) StackLimit() int { return 8 }

func (*crate) TypeBases() []Identity {
	return []Identity{Of[stackable]()}
}

type foreignValue struct {
	B int
}

var _ = DeclareBases[foreignValue](Of[weighted]())

func TestIdentityIsSingleton(t *testing.T) {
	first := Of[plainValue]()
	second := Of[plainValue]()

	require.True(t, first.IsValid())
	require.True(t, first.Equal(second))
	require.Equal(t, first.Fingerprint, second.Fingerprint)
	require.Equal(t, first.Name, second.Name)
}

func TestPointerTypesNormalize(t *testing.T) {
	require.True(t, Of[*plainValue]().Equal(Of[plainValue]()))
	require.True(t, Of[**plainValue]().Equal(Of[plainValue]()))
}

func TestDistinctTypesDiffer(t *testing.T) {
	require.False(t, Of[plainValue]().Equal(Of[crate]()))
	require.NotEqual(t, Of[plainValue]().Fingerprint, Of[crate]().Fingerprint)
}

func TestZeroIdentityIsInvalid(t *testing.T) {
	var id Identity
	require.False(t, id.IsValid())
}

func TestIntrusiveBasesExpandTransitively(t *testing.T) {
	id := Of[crate]()

	// crate declares stackable, stackable declares weighted
	require.True(t, id.HasBase(Of[stackable]().Fingerprint))
	require.True(t, id.HasBase(Of[weighted]().Fingerprint))

	// undeclared relations do not appear, even plausible ones
	require.False(t, id.HasBase(Of[plainValue]().Fingerprint))
}

func TestDeclaredBasesForForeignTypes(t *testing.T) {
	id := Of[foreignValue]()
	require.True(t, id.HasBase(Of[weighted]().Fingerprint))
}

func TestCompatibilityIsSymmetric(t *testing.T) {
	crateId := Of[crate]()
	weightedId := Of[weighted]()
	plainId := Of[plainValue]()

	require.True(t, crateId.IsCompatibleWith(crateId))
	require.True(t, crateId.IsCompatibleWith(weightedId))
	require.True(t, weightedId.IsCompatibleWith(crateId))

	require.False(t, crateId.IsCompatibleWith(plainId))
	require.False(t, plainId.IsCompatibleWith(crateId))
}

type wideValue struct{}

func TestBaseClosureTruncatesSilently(t *testing.T) {
	synthetic := make([]Identity, 0, 80)
	for i := range 80 {
		synthetic = append(synthetic, Identity{
			Name:        fmt.Sprintf("typeid.syntheticBase%02d", i),
			Fingerprint: Fingerprint(0x1000 + i),
		})
	}

	DeclareBases[wideValue](synthetic...)

	id := Of[wideValue]()
	require.Len(t, id.Bases, MaxBases)

	// the first declared bases survive, everything past the cap is dropped
	require.True(t, id.HasBase(synthetic[0].Fingerprint))
	require.True(t, id.HasBase(synthetic[MaxBases-1].Fingerprint))
	require.False(t, id.HasBase(synthetic[MaxBases].Fingerprint))
	require.False(t, id.HasBase(synthetic[79].Fingerprint))
}

func TestRuntimeLookupMatchesGeneric(t *testing.T) {
	byGeneric := Of[crate]()
	byReflect := OfReflect(reflect.TypeFor[*crate]())

	require.True(t, byGeneric.Equal(byReflect))
	require.Equal(t, byGeneric.Bases, byReflect.Bases)
}

func BenchmarkOf(b *testing.B) {
	// warm the cache first, the steady state is what matters
	_ = Of[crate]()

	for b.Loop() {
		_ = Of[crate]()
	}
}
