package depthmap

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestRepairSingleHole(t *testing.T) {
	dm := NewEmptyDepthMap(5, 5)
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			dm.Set(x, y, 0.4+0.02*float64(x))
		}
	}
	dm.Set(2, 2, math.NaN())

	repaired, holes := repairHoles(dm)
	test.That(t, holes.Count(), test.ShouldEqual, 1)
	test.That(t, holes.On(2, 2), test.ShouldBeTrue)

	// the fill lands inside the range of the valid readings
	min, max := dm.MinMax()
	v := repaired.At(2, 2)
	test.That(t, math.IsNaN(v), test.ShouldBeFalse)
	test.That(t, v, test.ShouldBeGreaterThanOrEqualTo, min)
	test.That(t, v, test.ShouldBeLessThanOrEqualTo, max)

	// non-hole readings pass through untouched
	test.That(t, repaired.At(1, 1), test.ShouldEqual, dm.At(1, 1))
	test.That(t, repaired.At(4, 4), test.ShouldEqual, dm.At(4, 4))
}

func TestRepairEdgeAndCornerHoles(t *testing.T) {
	dm := NewEmptyDepthMap(4, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			dm.Set(x, y, 0.6)
		}
	}
	dm.Set(0, 0, math.NaN())
	dm.Set(3, 1, math.NaN())
	dm.Set(2, 3, math.NaN())

	repaired, holes := repairHoles(dm)
	test.That(t, holes.Count(), test.ShouldEqual, 3)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			test.That(t, repaired.At(x, y), test.ShouldAlmostEqual, 0.6, 1e-9)
		}
	}
}

func TestRepairNoHoles(t *testing.T) {
	dm, err := NewDepthMap(3, 3, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9})
	test.That(t, err, test.ShouldBeNil)
	repaired, holes := repairHoles(dm)
	test.That(t, holes.Count(), test.ShouldEqual, 0)
	test.That(t, repaired.Data(), test.ShouldResemble, dm.Data())
}

func TestRepairAllHoles(t *testing.T) {
	dm := NewEmptyDepthMap(3, 3)
	repaired, holes := repairHoles(dm)
	test.That(t, holes.Count(), test.ShouldEqual, 9)
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			test.That(t, repaired.At(x, y), test.ShouldEqual, 0)
		}
	}
}

func TestRepairGradientHole(t *testing.T) {
	// a hole inside a left-right gradient should take an in-between value
	dm := NewEmptyDepthMap(7, 3)
	for y := 0; y < 3; y++ {
		for x := 0; x < 7; x++ {
			dm.Set(x, y, 0.3+0.1*float64(x))
		}
	}
	dm.Set(3, 1, math.NaN())

	repaired, _ := repairHoles(dm)
	v := repaired.At(3, 1)
	test.That(t, v, test.ShouldBeGreaterThan, 0.5)
	test.That(t, v, test.ShouldBeLessThan, 0.7)
}
