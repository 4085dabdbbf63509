package room_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomstudio/internal/material"
	"roomstudio/internal/room"
	"roomstudio/internal/scenegraph"
)

type boxGeom struct{ bounds scenegraph.Box }

func (g boxGeom) Bounds() scenegraph.Box { return g.bounds }
func (g boxGeom) Release()               {}

type stubShaper struct{}

func (stubShaper) Box(w, h, d float32) scenegraph.Geometry {
	return boxGeom{bounds: scenegraph.NewBox(w, h, d)}
}

func (stubShaper) Cylinder(r, h float32, slices int) scenegraph.Geometry {
	return boxGeom{bounds: scenegraph.NewBox(2*r, h, 2*r)}
}

type stubMat struct{ id string }

func (stubMat) Release() {}

type stubFactory struct{}

func (stubFactory) Create(def material.Definition) (scenegraph.Material, error) {
	return stubMat{id: def.ID}, nil
}

func TestBuildClosedShell(t *testing.T) {
	shell := room.Build(stubShaper{}, room.DefaultOptions())

	assert.Empty(t, shell.Tag, "the shell is scenery, not a model")
	require.Len(t, shell.Parts, 5, "floor plus four walls")
	require.Len(t, shell.Slots, 2)
	assert.Equal(t, "floor", shell.Slots[0].Name)
	assert.Equal(t, "walls", shell.Slots[1].Name)

	floor := shell.Parts[0]
	assert.Equal(t, 0, floor.Slot)
	assert.Equal(t, float32(-0.05), floor.Offset[1], "floor top sits at Y=0")

	for _, wall := range shell.Parts[1:] {
		assert.Equal(t, 1, wall.Slot)
		assert.Equal(t, float32(1.3), wall.Offset[1], "walls stand on the floor")
	}
}

func TestOpenSideDropsOneWall(t *testing.T) {
	opts := room.DefaultOptions()
	opts.OpenSide = "south"
	shell := room.Build(stubShaper{}, opts)

	require.Len(t, shell.Parts, 4)
	for _, p := range shell.Parts {
		assert.LessOrEqual(t, p.Offset[2], float32(0), "no wall on the +Z side")
	}
}

func TestZeroOptionsGetDefaults(t *testing.T) {
	shell := room.Build(stubShaper{}, room.Options{})
	want := room.Build(stubShaper{}, room.DefaultOptions())
	require.Len(t, shell.Parts, len(want.Parts))
	for i := range shell.Parts {
		assert.Equal(t, want.Parts[i].Offset, shell.Parts[i].Offset)
		assert.Equal(t, want.Parts[i].Geometry.Bounds(), shell.Parts[i].Geometry.Bounds())
	}
}

func TestRealizeFallsBack(t *testing.T) {
	mats, err := material.NewRegistry(stubFactory{}, nil)
	require.NoError(t, err)

	opts := room.DefaultOptions()
	opts.FloorMaterial = "carpet-shag"
	shell := room.Build(stubShaper{}, opts)
	require.NoError(t, room.Realize(shell, mats))

	assert.Equal(t, material.FallbackID, shell.Slots[0].MaterialID)
	assert.Equal(t, "paint-white", shell.Slots[1].MaterialID)
	for _, s := range shell.Slots {
		assert.NotNil(t, s.Material)
	}
}

func TestGridCoversRoom(t *testing.T) {
	opts := room.DefaultOptions()
	slices, spacing := room.GridSpec(opts)
	assert.GreaterOrEqual(t, float32(slices)*spacing, opts.Width+2)
	assert.GreaterOrEqual(t, float32(slices)*spacing, opts.Depth+2)
}
