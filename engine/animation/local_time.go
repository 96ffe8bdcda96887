// Package animation holds the animation backend: clip playback timing, keyframe evaluation,
// channel-to-property mappings and the aspect that drives running clip animators.
package animation

import "math"

// LocalTimeFromGlobalTime converts a global clock time into a time local to a clip.
//
// The elapsed global time is scaled by playbackRate. With loopCount 1 the result is clamped
// to [0, duration]. With loopCount > 1 the time wraps once per loop and clamps at the end
// of the final loop, so the last loop ends exactly at duration. With loopCount 0 the time
// wraps indefinitely. Negative local times are clamped to 0 and a non-positive duration
// yields (0, 0).
//
// Parameters:
//   - globalTime: the current global time, in seconds
//   - globalStartTime: the global time at which playback started
//   - playbackRate: the clock rate; 1 is real time
//   - duration: the clip duration, in seconds
//   - loopCount: the number of loops to play, or 0 for infinite
//
// Returns:
//   - float64: the local time within the current loop, in [0, duration]
//   - int: the zero-based index of the current loop
func LocalTimeFromGlobalTime(globalTime, globalStartTime, playbackRate, duration float64, loopCount int) (float64, int) {
	if duration <= 0 {
		return 0, 0
	}
	local := max(playbackRate*(globalTime-globalStartTime), 0)

	switch {
	case loopCount == 1:
		return min(local, duration), 0
	case loopCount <= 0:
		loop, _ := math.Modf(local / duration)
		return math.Mod(local, duration), int(loop)
	}

	local = min(local, float64(loopCount)*duration)
	loop, _ := math.Modf(local / duration)
	local = math.Mod(local, duration)
	if int(loop) >= loopCount {
		return duration, loopCount - 1
	}
	return local, int(loop)
}

// NormalizedTime returns the progress of the whole playback in [0, 1].
//
// Parameters:
//   - localTime: the local time within the current loop
//   - currentLoop: the current loop index
//   - duration: the clip duration
//   - loopCount: the loop count, 0 for infinite
//
// Returns:
//   - float64: the fraction played; for infinite playback the fraction of the current loop
func NormalizedTime(localTime float64, currentLoop int, duration float64, loopCount int) float64 {
	if duration <= 0 {
		return 0
	}
	if loopCount <= 0 {
		return localTime / duration
	}
	return min((float64(currentLoop)*duration+localTime)/(float64(loopCount)*duration), 1)
}
