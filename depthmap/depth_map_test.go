package depthmap

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestNewDepthMap(t *testing.T) {
	_, err := NewDepthMap(3, 2, []float64{1, 2, 3})
	test.That(t, err, test.ShouldNotBeNil)

	dm, err := NewDepthMap(3, 2, []float64{1, 2, 3, 4, 5, 6})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dm.Width(), test.ShouldEqual, 3)
	test.That(t, dm.Height(), test.ShouldEqual, 2)
	test.That(t, dm.At(2, 1), test.ShouldEqual, 6)
	test.That(t, dm.At(1, 0), test.ShouldEqual, 2)

	dm.Set(1, 0, 9)
	test.That(t, dm.At(1, 0), test.ShouldEqual, 9)
	test.That(t, dm.Contains(2, 1), test.ShouldBeTrue)
	test.That(t, dm.Contains(3, 0), test.ShouldBeFalse)
}

func TestEmptyDepthMapIsAllHoles(t *testing.T) {
	dm := NewEmptyDepthMap(4, 3)
	holeCount := 0
	for y := 0; y < dm.Height(); y++ {
		for x := 0; x < dm.Width(); x++ {
			if dm.IsHole(x, y) {
				holeCount++
			}
		}
	}
	test.That(t, holeCount, test.ShouldEqual, 12)
}

func TestMinMaxSkipsHoles(t *testing.T) {
	dm, err := NewDepthMap(2, 2, []float64{0.5, math.NaN(), 0.7, 0.3})
	test.That(t, err, test.ShouldBeNil)
	min, max := dm.MinMax()
	test.That(t, min, test.ShouldEqual, 0.3)
	test.That(t, max, test.ShouldEqual, 0.7)

	empty := NewEmptyDepthMap(2, 2)
	min, max = empty.MinMax()
	test.That(t, math.IsNaN(min), test.ShouldBeTrue)
	test.That(t, math.IsNaN(max), test.ShouldBeTrue)
}

func TestCloneIsIndependent(t *testing.T) {
	dm, err := NewDepthMap(2, 1, []float64{1, 2})
	test.That(t, err, test.ShouldBeNil)
	clone := dm.Clone()
	clone.Set(0, 0, 42)
	test.That(t, dm.At(0, 0), test.ShouldEqual, 1)
	test.That(t, clone.At(0, 0), test.ShouldEqual, 42)
}
