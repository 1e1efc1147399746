package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkv-git/openttd/core/linkgraph"
	"github.com/mkv-git/openttd/core/model"
)

const refitLoop = `
name: refit-loop
allow_merge: true
stations: [1, 2]
links:
  - {from: 1, to: 2, cargo: 5, capacity: 10}
vehicles:
  - id: train-1
    kind: train
    last_loading_station: 2
    current_order: 1
    units:
      - cargo: 1
        capacity: 100
        refit_capacity: 60
        refits:
          5: {primary: 80}
    orders:
      - {type: station, destination: 1, refit: 5}
      - {type: station, destination: 2, load: none, unload: unload}
      - {type: conditional, condition: load_percentage, skip_to: 0}
      - {type: depot, halt: true, auto_refit: true}
expected:
  - {from: 1, to: 2, cargo: 5, capacity: 80}
`

func TestDecodeAndBuild(t *testing.T) {
	sc, err := Decode(strings.NewReader(refitLoop))
	require.NoError(t, err)
	assert.Equal(t, "refit-loop", sc.Name)

	w, err := sc.Build()
	require.NoError(t, err)
	assert.True(t, w.AllowMerge)
	assert.True(t, w.Graph.IsValidStation(1))
	e, ok := w.Graph.Edge(1, 2, 5)
	require.True(t, ok)
	assert.Equal(t, uint(10), e.Capacity)

	require.Len(t, w.Vehicles, 1)
	v := w.Vehicles[0]
	assert.Equal(t, model.KindTrain, v.Kind())
	assert.Equal(t, model.StationID(2), v.LastLoadingStation())
	assert.Equal(t, 1, v.CurImplicitOrderIndex())
	require.Len(t, v.Parts, 1)
	assert.Equal(t, uint(60), v.Parts[0].RefitCap)
	assert.Equal(t, uint(80), v.Parts[0].Refits[5].Primary)

	orders := v.OrderList.Orders()
	require.Len(t, orders, 4)
	assert.True(t, orders[0].Refit)
	assert.Equal(t, model.CargoID(5), orders[0].RefitCargo)
	assert.Equal(t, model.LoadNoLoad, orders[1].Load)
	assert.Equal(t, model.UnloadUnload, orders[1].Unload)
	assert.Equal(t, model.ConditionLoadPercentage, orders[2].Condition)
	assert.Equal(t, model.DepotHalt, orders[3].DepotAction)
	assert.True(t, orders[3].IsAutoRefit())

	assert.Equal(t, []linkgraph.Update{{From: 1, To: 2, Cargo: 5, Capacity: 80, Mode: linkgraph.Unrestricted}}, w.Expected)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(refitLoop), 0o644))
	sc, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, sc.Vehicles, 1)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	_, err := Decode(strings.NewReader("name: x\nstatoins: [1]\n"))
	assert.Error(t, err)
}

func TestBuildErrors(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want error
	}{
		{"link to unknown station", "stations: [1]\nlinks: [{from: 1, to: 2, cargo: 0}]\n", ErrUnknownStation},
		{"order to unknown station", `
stations: [1]
vehicles:
  - id: v
    units: [{cargo: 0, capacity: 1}]
    orders: [{type: station, destination: 3}]
`, ErrUnknownStation},
		{"unknown order type", `
stations: [1]
vehicles:
  - id: v
    units: [{cargo: 0, capacity: 1}]
    orders: [{type: teleport}]
`, ErrInvalidValue},
		{"skip target out of range", `
stations: [1]
vehicles:
  - id: v
    units: [{cargo: 0, capacity: 1}]
    orders: [{type: conditional, condition: age, skip_to: 4}]
`, ErrInvalidValue},
		{"conditional without condition", `
stations: [1]
vehicles:
  - id: v
    units: [{cargo: 0, capacity: 1}]
    orders: [{type: station, destination: 1}, {type: conditional, skip_to: 0}]
`, ErrInvalidValue},
		{"current order out of range", `
stations: [1]
vehicles:
  - id: v
    current_order: 2
    units: [{cargo: 0, capacity: 1}]
    orders: [{type: station, destination: 1}]
`, ErrInvalidValue},
		{"bad mode", "expected: [{from: 1, to: 2, mode: sideways}]\n", ErrInvalidValue},
		{"bad kind", "vehicles: [{id: v, kind: zeppelin}]\n", ErrInvalidValue},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			sc, err := Decode(strings.NewReader(c.doc))
			require.NoError(t, err)
			_, err = sc.Build()
			assert.True(t, errors.Is(err, c.want), "got %v", err)
		})
	}
}

func TestBuildRejectsDuplicateVehicles(t *testing.T) {
	sc := &Scenario{Vehicles: []Vehicle{
		{ID: "v", Units: []Unit{{Cargo: 0, Capacity: 1}}},
		{ID: "v", Units: []Unit{{Cargo: 0, Capacity: 1}}},
	}}
	_, err := sc.Build()
	assert.Error(t, err)
}

func TestMissing(t *testing.T) {
	a := linkgraph.Update{From: 1, To: 2, Capacity: 5}
	b := linkgraph.Update{From: 2, To: 1, Capacity: 5}
	w := &World{Expected: []linkgraph.Update{a, b, a}}
	assert.Equal(t, []linkgraph.Update{b, a}, w.Missing([]linkgraph.Update{a}))
	assert.Empty(t, w.Missing([]linkgraph.Update{b, a, a}))
}
