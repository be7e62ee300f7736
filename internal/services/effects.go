package services

import (
	"fmt"
	"math"
	"strconv"
)

// ---------------------------------------------------------------------------
// Visual effects — each scene clip gets one effect applied to its still image
// ---------------------------------------------------------------------------

const (
	EffectZoomIn  = "zoom_in"
	EffectZoomOut = "zoom_out"
	EffectFade    = "fade"
	EffectBlurIn  = "blur_in"
	EffectRotate  = "rotate"
	EffectStatic  = "static"

	// DefaultEffect is applied to blocks with no configured effect.
	DefaultEffect = EffectZoomIn
)

// Output / rendering constants — 1080p landscape at 25fps
const (
	outputWidth  = 1920
	outputHeight = 1080
	videoFPS     = 25

	// Zoom effects step by 0.0015 per frame between 1.0 and the 1.5 cap.
	zoomStep = "0.0015"
	zoomCap  = "1.5"

	fadeSeconds = 1.0
)

// letterboxFilter scales into 1920x1080 preserving aspect ratio and pads
// the rest — the base for fade/static and the fallback for effects with
// no motion of their own.
const letterboxFilter = "scale=1920:1080:force_original_aspect_ratio=decrease,pad=1920:1080:(ow-iw)/2:(oh-ih)/2"

// fillCropFilter scales to fill 1080 height then crops to 1920x1080 so
// zoompan always works on a full frame.
const fillCropFilter = "scale=-2:1080,crop=1920:1080"

// EffectSpec is a compiled filter graph for one clip. Pure data; derived
// entirely from (effect name, duration).
type EffectSpec struct {
	Name       string  // canonical effect name after fallback
	Filter     string  // ffmpeg -vf chain
	Duration   float64 // seconds, rounded to 2 decimals
	FrameCount int     // zoompan frame count at 25fps (0 for frame-less effects)
}

// CompileEffect maps an effect name and clip duration to its filter
// graph. Unknown names never fail — they compile to the static
// letterboxed frame. The duration is rounded to 2 decimals before any
// computation so floating noise can't leak into filter syntax.
//
// blur_in and rotate currently compile to the static frame as well:
// the motion variants were never wired up and the flat frame is the
// established behavior.
func CompileEffect(name string, duration float64) EffectSpec {
	d := round2(duration)
	frames := int(math.Round(d * videoFPS))

	switch name {
	case EffectZoomIn:
		return EffectSpec{
			Name:       name,
			Duration:   d,
			FrameCount: frames,
			Filter: fmt.Sprintf("%s,zoompan=z='min(zoom+%s,%s)':d=%d:s=%dx%d",
				fillCropFilter, zoomStep, zoomCap, frames, outputWidth, outputHeight),
		}

	case EffectZoomOut:
		// Starts at the cap on frame one, then eases back toward 1.0.
		return EffectSpec{
			Name:       name,
			Duration:   d,
			FrameCount: frames,
			Filter: fmt.Sprintf("%s,zoompan=z='if(lte(zoom,1.0),%s,max(1.0,zoom-%s))':d=%d:s=%dx%d",
				fillCropFilter, zoomCap, zoomStep, frames, outputWidth, outputHeight),
		}

	case EffectFade:
		// Fade-out start is clamped at 0 for clips shorter than 2s so the
		// filter never gets a negative timestamp.
		fadeOutStart := d - fadeSeconds
		if fadeOutStart < 0 {
			fadeOutStart = 0
		}
		return EffectSpec{
			Name:     name,
			Duration: d,
			Filter: fmt.Sprintf("%s,fade=t=in:st=0:d=%g,fade=t=out:st=%s:d=%g",
				letterboxFilter, fadeSeconds, formatSeconds(fadeOutStart), fadeSeconds),
		}

	case EffectBlurIn, EffectRotate:
		return EffectSpec{Name: name, Duration: d, Filter: letterboxFilter}

	case EffectStatic:
		return EffectSpec{Name: name, Duration: d, Filter: letterboxFilter}

	default:
		return EffectSpec{Name: EffectStatic, Duration: d, Filter: letterboxFilter}
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// formatSeconds renders a duration for filter syntax without exponent
// notation or trailing zeros (6.5, 3, 0.75).
func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
