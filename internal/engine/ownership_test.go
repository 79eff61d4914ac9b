package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmylchreest/notchd/internal/model"
)

func TestOwnership_SetHover(t *testing.T) {
	var o Ownership

	assert.True(t, o.setHover("eDP-1", true))
	assert.False(t, o.setHover("eDP-1", true), "repeat enter is a no-op")

	// A display cannot clear hover it never had.
	assert.False(t, o.setHover("DP-2", false))
	owner, ok := o.HoverOwner()
	assert.True(t, ok)
	assert.Equal(t, model.DisplayID("eDP-1"), owner)

	// Last writer wins.
	assert.True(t, o.setHover("DP-2", true))
	assert.True(t, o.IsHovered("DP-2"))
	assert.False(t, o.IsHovered("eDP-1"))

	assert.True(t, o.setHover("DP-2", false))
	_, ok = o.HoverOwner()
	assert.False(t, ok)
}

func TestOwnership_Forget(t *testing.T) {
	var o Ownership
	o.setExpanded("eDP-1")
	o.setHover("eDP-1", true)

	assert.False(t, o.forget("DP-2"))
	assert.True(t, o.IsExpanded("eDP-1"))

	assert.True(t, o.forget("eDP-1"))
	_, expanded := o.ExpandedOwner()
	_, hovered := o.HoverOwner()
	assert.False(t, expanded)
	assert.False(t, hovered)
}

func TestOwnership_EmptyIDNeverOwns(t *testing.T) {
	var o Ownership
	assert.False(t, o.IsExpanded(""))
	assert.False(t, o.IsHovered(""))
	assert.False(t, o.setHover("", false))
}

// Random interleavings across several displays must leave each field
// pointing at the most recent claimant.
func TestOwnership_ExclusivityUnderRandomSequences(t *testing.T) {
	displays := []model.DisplayID{"eDP-1", "DP-1", "DP-2", "HDMI-A-1"}
	rng := rand.New(rand.NewSource(42))

	var o Ownership
	var wantExpanded, wantHover model.DisplayID

	for i := 0; i < 2000; i++ {
		d := displays[rng.Intn(len(displays))]
		switch rng.Intn(4) {
		case 0:
			o.setExpanded(d)
			wantExpanded = d
		case 1:
			o.setHover(d, true)
			wantHover = d
		case 2:
			o.setHover(d, false)
			if wantHover == d {
				wantHover = ""
			}
		case 3:
			o.clearExpanded()
			o.clearHover()
			wantExpanded, wantHover = "", ""
		}

		gotExpanded, _ := o.ExpandedOwner()
		gotHover, _ := o.HoverOwner()
		assert.Equal(t, wantExpanded, gotExpanded, "step %d", i)
		assert.Equal(t, wantHover, gotHover, "step %d", i)

		n := 0
		for _, other := range displays {
			if o.IsExpanded(other) {
				n++
			}
		}
		assert.LessOrEqual(t, n, 1, "step %d", i)
	}
}
