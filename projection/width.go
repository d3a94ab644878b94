package projection

import (
	"math"

	"go.viam.com/grasp/depthmap"
	"go.viam.com/grasp/utils"
)

// WidthToMeters converts a gripper width expressed in output-grid pixels into
// meters. The camera's vertical field of view is scaled down to the part the
// crop window covers, and the pixel fraction of that view spans an arc whose
// chord at the grasp depth is the physical width.
func WidthToMeters(widthPx, depthM float64, geom depthmap.CropGeometry, fovDeg float64) float64 {
	cropFOV := utils.DegToRad(fovDeg * float64(geom.CropSize) / float64(geom.ImageHeight))
	return widthPx / float64(geom.OutputSize) * 2.0 * depthM * math.Tan(cropFOV/2)
}
