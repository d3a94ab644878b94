package utils

import (
	"image"
	"math"
	"runtime"
	"sync"

	goutils "go.viam.com/utils"
)

// ParallelForEachPixel loops over every [x, y] position of the given size and
// calls f for each one. The area is divided into N x N blocks, where N is the
// number of available processor threads, and each block runs on its own
// goroutine. f must be safe to call concurrently for distinct positions.
func ParallelForEachPixel(size image.Point, f func(x, y int)) {
	procs := runtime.GOMAXPROCS(0)
	var waitGroup sync.WaitGroup
	waitGroup.Add(procs * procs)
	for i := 0; i < procs; i++ {
		startX := i * int(math.Floor(float64(size.X)/float64(procs)))
		var endX int
		if i < procs-1 {
			endX = (i + 1) * int(math.Floor(float64(size.X)/float64(procs)))
		} else {
			endX = size.X
		}
		for j := 0; j < procs; j++ {
			startY := j * int(math.Floor(float64(size.Y)/float64(procs)))
			var endY int
			if j < procs-1 {
				endY = (j + 1) * int(math.Floor(float64(size.Y)/float64(procs)))
			} else {
				endY = size.Y
			}
			sX, eX, sY, eY := startX, endX, startY, endY
			goutils.PanicCapturingGo(func() {
				defer waitGroup.Done()
				for x := sX; x < eX; x++ {
					for y := sY; y < eY; y++ {
						f(x, y)
					}
				}
			})
		}
	}
	waitGroup.Wait()
}
