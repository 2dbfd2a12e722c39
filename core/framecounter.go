package core

import "time"

// FrameCounter counts drawn frames and publishes the rate once per second.
type FrameCounter struct {
	frames    int
	elapsed   time.Duration
	frameRate int
}

// Update accumulates elapsed time and rolls the counter over each second.
func (fc *FrameCounter) Update(dt time.Duration) {
	fc.elapsed += dt
	if fc.elapsed >= time.Second {
		fc.elapsed %= time.Second
		fc.frameRate = fc.frames
		fc.frames = 0
	}
}

// Frame marks one frame as drawn.
func (fc *FrameCounter) Frame() {
	fc.frames++
}

// FrameRate is the number of frames drawn during the last full second.
func (fc *FrameCounter) FrameRate() int {
	return fc.frameRate
}
