package prototype

import (
	"roomstudio/internal/material"
	"roomstudio/internal/scenegraph"
)

// registerBuiltins installs the furniture prototypes that ship with the tool.
// Slot tables are fixed per prototype regardless of parameters, so surface
// indices stay stable across rebuilds and saved face overrides keep meaning.
func registerBuiltins(r *Registry) {
	defs := []Definition{
		{
			ID:       "desk-basic",
			Name:     "Desk",
			Category: "desk",
			Params: []ParamField{
				{ID: "width", Name: "Width", Type: TypeNumber, Default: 1.4, Min: 0.8, Max: 2.4, Step: 0.05},
				{ID: "depth", Name: "Depth", Type: TypeNumber, Default: 0.7, Min: 0.5, Max: 1.2, Step: 0.05},
				{ID: "height", Name: "Height", Type: TypeNumber, Default: 0.75, Min: 0.62, Max: 1.1, Step: 0.01},
				{ID: "legStyle", Name: "Leg style", Type: TypeSelect, Default: "post", Options: []string{"post", "panel"}},
				{ID: "modestyPanel", Name: "Modesty panel", Type: TypeBoolean, Default: false},
			},
			Build: buildDesk,
		},
		{
			ID:       "bookshelf",
			Name:     "Bookshelf",
			Category: "storage",
			Params: []ParamField{
				{ID: "width", Name: "Width", Type: TypeNumber, Default: 0.9, Min: 0.4, Max: 1.6, Step: 0.05},
				{ID: "height", Name: "Height", Type: TypeNumber, Default: 1.8, Min: 0.8, Max: 2.4, Step: 0.05},
				{ID: "depth", Name: "Depth", Type: TypeNumber, Default: 0.3, Min: 0.2, Max: 0.5, Step: 0.02},
				{ID: "shelves", Name: "Shelves", Type: TypeNumber, Default: 4.0, Min: 1, Max: 8, Step: 1},
				{ID: "backPanel", Name: "Back panel", Type: TypeBoolean, Default: true},
			},
			Build: buildBookshelf,
		},
		{
			ID:       "cabinet",
			Name:     "Cabinet",
			Category: "storage",
			Params: []ParamField{
				{ID: "width", Name: "Width", Type: TypeNumber, Default: 0.8, Min: 0.3, Max: 1.6, Step: 0.05},
				{ID: "height", Name: "Height", Type: TypeNumber, Default: 0.9, Min: 0.4, Max: 2.2, Step: 0.05},
				{ID: "depth", Name: "Depth", Type: TypeNumber, Default: 0.45, Min: 0.3, Max: 0.7, Step: 0.02},
				{ID: "doors", Name: "Doors", Type: TypeSelect, Default: "double", Options: []string{"none", "single", "double"}},
				{ID: "plinth", Name: "Plinth", Type: TypeBoolean, Default: true},
			},
			Build: buildCabinet,
		},
		{
			ID:       "elevator-cabin",
			Name:     "Elevator Cabin",
			Category: "structure",
			Params: []ParamField{
				{ID: "width", Name: "Width", Type: TypeNumber, Default: 1.1, Min: 0.9, Max: 2.0, Step: 0.05},
				{ID: "depth", Name: "Depth", Type: TypeNumber, Default: 1.4, Min: 1.0, Max: 2.5, Step: 0.05},
				{ID: "height", Name: "Height", Type: TypeNumber, Default: 2.2, Min: 2.0, Max: 2.8, Step: 0.05},
				{ID: "doorStyle", Name: "Door style", Type: TypeSelect, Default: "center", Options: []string{"center", "side"}},
				{ID: "ceilingLight", Name: "Ceiling light", Type: TypeBoolean, Default: true},
				{ID: "lightColor", Name: "Light color", Type: TypeColor, Default: "#fff3dd"},
			},
			Build: buildElevatorCabin,
		},
		{
			ID:              "office-set",
			Name:            "Office Set",
			Category:        "set",
			Description:     "Desk with a drawer unit on each side.",
			ParentPrototype: "desk-basic",
			ParentParams: map[string]any{
				"width":        1.6,
				"legStyle":     "panel",
				"modestyPanel": true,
			},
			Members: []Member{
				{
					PrototypeID: "cabinet",
					Name:        "Drawer Unit L",
					Offset:      [3]float32{-0.55, 0, 0.05},
					Params:      map[string]any{"width": 0.42, "height": 0.6, "depth": 0.55, "doors": "single", "plinth": false},
				},
				{
					PrototypeID: "cabinet",
					Name:        "Drawer Unit R",
					Offset:      [3]float32{0.55, 0, 0.05},
					Params:      map[string]any{"width": 0.42, "height": 0.6, "depth": 0.55, "doors": "single", "plinth": false},
				},
			},
		},
	}
	for _, def := range defs {
		// Builtins are authored here; duplicate ids cannot happen.
		_ = r.Register(def)
	}
}

// slot builds an unrealized surface slot: the reconciler turns DefaultID (or an
// instance override) into a live material.
func slot(name, defaultMaterial string) scenegraph.Slot {
	return scenegraph.Slot{Name: name, DefaultID: defaultMaterial}
}

// Desk proportions that are not worth exposing as parameters.
const (
	deskTopThickness     = 0.04
	deskLegRadius        = 0.025
	deskLegInset         = 0.06
	deskPanelThickness   = 0.04
	deskModestyHeight    = 0.35
	deskModestyThickness = 0.018
)

// buildDesk realizes a rectangular work desk. The node origin is the floor
// point under the center of the top.
func buildDesk(ctx BuildContext, params map[string]any) (*scenegraph.Node, error) {
	w := Number(params, "width", 1.4)
	d := Number(params, "depth", 0.7)
	h := Number(params, "height", 0.75)
	legStyle := String(params, "legStyle", "post")

	n := scenegraph.NewNode("desk-basic")
	n.Slots = []scenegraph.Slot{
		slot("top", "wood-oak"),
		slot("legs", "metal-black"),
		slot("panel", "laminate-white"),
	}

	n.Parts = append(n.Parts, scenegraph.Part{
		Geometry: ctx.Shapes.Box(w, deskTopThickness, d),
		Slot:     0,
		Offset:   [3]float32{0, h - deskTopThickness/2, 0},
	})

	legH := h - deskTopThickness
	switch legStyle {
	case "panel":
		for _, sx := range []float32{-1, 1} {
			n.Parts = append(n.Parts, scenegraph.Part{
				Geometry: ctx.Shapes.Box(deskPanelThickness, legH, d-0.04),
				Slot:     1,
				Offset:   [3]float32{sx * (w - deskPanelThickness) / 2, legH / 2, 0},
			})
		}
	default: // post
		for _, sx := range []float32{-1, 1} {
			for _, sz := range []float32{-1, 1} {
				n.Parts = append(n.Parts, scenegraph.Part{
					Geometry: ctx.Shapes.Cylinder(deskLegRadius, legH, 12),
					Slot:     1,
					Offset:   [3]float32{sx * (w/2 - deskLegInset), legH / 2, sz * (d/2 - deskLegInset)},
				})
			}
		}
	}

	if Boolean(params, "modestyPanel", false) {
		n.Parts = append(n.Parts, scenegraph.Part{
			Geometry: ctx.Shapes.Box(w*0.85, deskModestyHeight, deskModestyThickness),
			Slot:     2,
			Offset:   [3]float32{0, h - deskTopThickness - deskModestyHeight/2, -(d/2 - 0.05)},
		})
	}
	return n, nil
}

const (
	shelfSideThickness  = 0.02
	shelfBoardThickness = 0.02
	shelfBackThickness  = 0.01
)

// buildBookshelf realizes an open shelf unit. Shelf boards live on an untagged
// child group whose parts index the root's slot table, so face picking on a
// board still resolves against the model's surfaces.
func buildBookshelf(ctx BuildContext, params map[string]any) (*scenegraph.Node, error) {
	w := Number(params, "width", 0.9)
	h := Number(params, "height", 1.8)
	d := Number(params, "depth", 0.3)
	count := int(Number(params, "shelves", 4) + 0.5)
	if count < 1 {
		count = 1
	}
	if count > 8 {
		count = 8
	}

	n := scenegraph.NewNode("bookshelf")
	n.Slots = []scenegraph.Slot{
		slot("frame", "wood-walnut"),
		slot("boards", "wood-birch"),
		slot("back", "laminate-white"),
	}

	inner := w - 2*shelfSideThickness
	for _, sx := range []float32{-1, 1} {
		n.Parts = append(n.Parts, scenegraph.Part{
			Geometry: ctx.Shapes.Box(shelfSideThickness, h, d),
			Slot:     0,
			Offset:   [3]float32{sx * (w - shelfSideThickness) / 2, h / 2, 0},
		})
	}
	for _, y := range []float32{h - shelfBoardThickness/2, shelfBoardThickness / 2} {
		n.Parts = append(n.Parts, scenegraph.Part{
			Geometry: ctx.Shapes.Box(inner, shelfBoardThickness, d),
			Slot:     0,
			Offset:   [3]float32{0, y, 0},
		})
	}

	boards := scenegraph.NewNode("shelf-boards")
	interior := h - 2*shelfBoardThickness
	spacing := interior / float32(count+1)
	for i := 1; i <= count; i++ {
		boards.Parts = append(boards.Parts, scenegraph.Part{
			Geometry: ctx.Shapes.Box(inner, shelfBoardThickness, d-0.02),
			Slot:     1,
			Offset:   [3]float32{0, shelfBoardThickness + spacing*float32(i), 0},
		})
	}
	n.AddChild(boards)

	if Boolean(params, "backPanel", true) {
		n.Parts = append(n.Parts, scenegraph.Part{
			Geometry: ctx.Shapes.Box(w, h, shelfBackThickness),
			Slot:     2,
			Offset:   [3]float32{0, h / 2, -(d - shelfBackThickness) / 2},
		})
	}
	return n, nil
}

const (
	cabinetDoorThickness = 0.018
	cabinetPlinthHeight  = 0.08
	cabinetHandleRadius  = 0.008
	cabinetHandleHeight  = 0.12
)

// buildCabinet realizes a closed storage cabinet with optional doors and
// plinth.
func buildCabinet(ctx BuildContext, params map[string]any) (*scenegraph.Node, error) {
	w := Number(params, "width", 0.8)
	h := Number(params, "height", 0.9)
	d := Number(params, "depth", 0.45)
	doors := String(params, "doors", "double")
	plinth := Boolean(params, "plinth", true)

	n := scenegraph.NewNode("cabinet")
	n.Slots = []scenegraph.Slot{
		slot("body", "laminate-white"),
		slot("doors", "wood-birch"),
		slot("handles", "metal-brass"),
		slot("plinth", "metal-black"),
	}

	plinthH := float32(0)
	if plinth {
		plinthH = cabinetPlinthHeight
	}
	bodyH := h - plinthH
	bodyD := d - cabinetDoorThickness
	bodyY := plinthH + bodyH/2

	n.Parts = append(n.Parts, scenegraph.Part{
		Geometry: ctx.Shapes.Box(w, bodyH, bodyD),
		Slot:     0,
		Offset:   [3]float32{0, bodyY, -cabinetDoorThickness / 2},
	})

	frontZ := (d - cabinetDoorThickness) / 2
	switch doors {
	case "single":
		n.Parts = append(n.Parts, scenegraph.Part{
			Geometry: ctx.Shapes.Box(w-0.02, bodyH-0.02, cabinetDoorThickness),
			Slot:     1,
			Offset:   [3]float32{0, bodyY, frontZ},
		})
		n.Parts = append(n.Parts, scenegraph.Part{
			Geometry: ctx.Shapes.Cylinder(cabinetHandleRadius, cabinetHandleHeight, 8),
			Slot:     2,
			Offset:   [3]float32{w/2 - 0.05, bodyY, frontZ + 0.02},
		})
	case "double":
		dw := (w - 0.03) / 2
		for _, sx := range []float32{-1, 1} {
			n.Parts = append(n.Parts, scenegraph.Part{
				Geometry: ctx.Shapes.Box(dw, bodyH-0.02, cabinetDoorThickness),
				Slot:     1,
				Offset:   [3]float32{sx * (dw + 0.01) / 2, bodyY, frontZ},
			})
			n.Parts = append(n.Parts, scenegraph.Part{
				Geometry: ctx.Shapes.Cylinder(cabinetHandleRadius, cabinetHandleHeight, 8),
				Slot:     2,
				Offset:   [3]float32{sx * 0.035, bodyY, frontZ + 0.02},
			})
		}
	}

	if plinth {
		n.Parts = append(n.Parts, scenegraph.Part{
			Geometry: ctx.Shapes.Box(w-0.04, plinthH, bodyD-0.04),
			Slot:     3,
			Offset:   [3]float32{0, plinthH / 2, -cabinetDoorThickness / 2},
		})
	}
	return n, nil
}

const (
	cabinWallThickness  = 0.05
	cabinFloorThickness = 0.06
	cabinDoorThickness  = 0.04
	cabinDoorGap        = 0.012
	cabinRailHeight     = 0.9
)

// buildElevatorCabin realizes a walk-in elevator cab: floor, ceiling, three
// walls, front door panels, a handrail, and an optional tinted ceiling light.
func buildElevatorCabin(ctx BuildContext, params map[string]any) (*scenegraph.Node, error) {
	w := Number(params, "width", 1.1)
	d := Number(params, "depth", 1.4)
	h := Number(params, "height", 2.2)
	doorStyle := String(params, "doorStyle", "center")

	n := scenegraph.NewNode("elevator-cabin")
	n.Slots = []scenegraph.Slot{
		slot("walls", "metal-steel"),
		slot("floor", "metal-black"),
		slot("ceiling", "paint-white"),
		slot("doors", "metal-steel"),
		slot("rail", "metal-brass"),
		slot("light", "paint-white"),
	}

	n.Parts = append(n.Parts, scenegraph.Part{
		Geometry: ctx.Shapes.Box(w, cabinFloorThickness, d),
		Slot:     1,
		Offset:   [3]float32{0, cabinFloorThickness / 2, 0},
	})
	n.Parts = append(n.Parts, scenegraph.Part{
		Geometry: ctx.Shapes.Box(w, cabinWallThickness, d),
		Slot:     2,
		Offset:   [3]float32{0, h - cabinWallThickness/2, 0},
	})

	wallH := h - cabinFloorThickness - cabinWallThickness
	wallY := cabinFloorThickness + wallH/2
	n.Parts = append(n.Parts, scenegraph.Part{
		Geometry: ctx.Shapes.Box(w, wallH, cabinWallThickness),
		Slot:     0,
		Offset:   [3]float32{0, wallY, -(d - cabinWallThickness) / 2},
	})
	for _, sx := range []float32{-1, 1} {
		n.Parts = append(n.Parts, scenegraph.Part{
			Geometry: ctx.Shapes.Box(cabinWallThickness, wallH, d - 2*cabinWallThickness),
			Slot:     0,
			Offset:   [3]float32{sx * (w - cabinWallThickness) / 2, wallY, 0},
		})
	}

	frontZ := (d - cabinDoorThickness) / 2
	switch doorStyle {
	case "side":
		// Telescoping pair stacked on the right half, one behind the other.
		for _, z := range []float32{frontZ, frontZ - cabinDoorThickness} {
			n.Parts = append(n.Parts, scenegraph.Part{
				Geometry: ctx.Shapes.Box(w/2-cabinDoorGap, wallH, cabinDoorThickness),
				Slot:     3,
				Offset:   [3]float32{w / 4, wallY, z},
			})
		}
	default: // center
		dw := (w - cabinDoorGap) / 2
		for _, sx := range []float32{-1, 1} {
			n.Parts = append(n.Parts, scenegraph.Part{
				Geometry: ctx.Shapes.Box(dw, wallH, cabinDoorThickness),
				Slot:     3,
				Offset:   [3]float32{sx * (dw + cabinDoorGap) / 2, wallY, frontZ},
			})
		}
	}

	n.Parts = append(n.Parts, scenegraph.Part{
		Geometry: ctx.Shapes.Box(w-2*cabinWallThickness-0.05, 0.035, 0.035),
		Slot:     4,
		Offset:   [3]float32{0, cabinRailHeight, -(d/2 - cabinWallThickness - 0.04)},
	})

	if Boolean(params, "ceilingLight", true) {
		tint, err := material.ParseHexColor(String(params, "lightColor", "#fff3dd"))
		if err != nil {
			tint = [4]uint8{255, 243, 221, 255}
		}
		n.Parts = append(n.Parts, scenegraph.Part{
			Geometry: ctx.Shapes.Box(w*0.5, 0.02, d*0.5),
			Slot:     5,
			Offset:   [3]float32{0, h - cabinWallThickness - 0.012, 0},
			Tint:     tint,
		})
	}
	return n, nil
}
