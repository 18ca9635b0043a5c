package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type row struct {
	id   int
	name string
}

func (r row) GetID() int { return r.id }

func TestSet_Toggle(t *testing.T) {
	var s Set[row]
	s = s.Toggle(row{1, "a"})
	s = s.Toggle(row{2, "b"})
	assert.Equal(t, []int{1, 2}, s.IDs())

	// removal matches by id, not by value
	s = s.Toggle(row{1, "renamed"})
	assert.Equal(t, []int{2}, s.IDs())
	assert.False(t, s.Contains(1))
}

func TestSet_DoubleToggleRestores(t *testing.T) {
	original := FromItems(row{1, "a"}, row{2, "b"}, row{3, "c"})
	for _, item := range []row{{2, "b"}, {9, "z"}} {
		got := original.Toggle(item).Toggle(item)
		assert.ElementsMatch(t, original.Items(), got.Items())
	}
}

func TestSet_Immutable(t *testing.T) {
	s := FromItems(row{1, "a"})
	_ = s.Toggle(row{2, "b"})
	assert.Equal(t, 1, s.Len())

	items := s.Items()
	items[0] = row{5, "x"}
	assert.True(t, s.Contains(1))
}

func TestFromItems_Dedupes(t *testing.T) {
	s := FromItems(row{1, "a"}, row{1, "b"}, row{2, "c"})
	assert.Equal(t, []row{{1, "a"}, {2, "c"}}, s.Items())
	assert.False(t, s.IsEmpty())
	assert.True(t, Set[row]{}.IsEmpty())
}
