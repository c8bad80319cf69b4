package mediarecorder

import (
	"context"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/voicerecorder/pkg/voicerecorder/types"
)

func (r *MediaRecorder) startMeteringLocked() {
	r.stopMeteringLocked()
	if !r.config.Options.VolumeMetering {
		return
	}

	r.meter.Reset()
	r.meteringGeneration++
	generation := r.meteringGeneration
	ctx, cancelFn := context.WithCancel(r.ctx)
	r.meteringCancel = cancelFn

	r.meteringWG.Add(1)
	observability.Go(ctx, func() {
		defer r.meteringWG.Done()
		r.meteringLoop(ctx, generation, r.config.MeteringInterval)
	})
}

// stopMeteringLocked guarantees no sample is taken afterwards; a callback
// already in flight may still complete.
func (r *MediaRecorder) stopMeteringLocked() {
	if r.meteringCancel == nil {
		return
	}
	r.meteringCancel()
	r.meteringCancel = nil
	r.meteringGeneration++
}

func (r *MediaRecorder) meteringLoop(
	ctx context.Context,
	generation uint64,
	interval time.Duration,
) {
	logger.Tracef(ctx, "meteringLoop")
	defer func() { logger.Tracef(ctx, "/meteringLoop") }()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		level, callback, ok := r.sampleVolume(generation)
		if !ok {
			return
		}
		if callback != nil {
			callback(level)
		}
	}
}

func (r *MediaRecorder) sampleVolume(generation uint64) (float64, func(float64), bool) {
	r.locker.Lock()
	defer r.locker.Unlock()

	if generation != r.meteringGeneration || r.status != types.RecordingStatusRecording {
		return 0, nil, false
	}
	sample := r.meter.Sample(r.device.MaxAmplitude())
	return sample.VisualLevel, r.callbacks.OnVolumeChanged, true
}

// waitMetering blocks until every sampling loop has exited.
func (r *MediaRecorder) waitMetering() {
	r.meteringWG.Wait()
}
