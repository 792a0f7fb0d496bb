package perplexity

// Rebuild describes one completed probability rebuild. It is handed to
// every registered hook in registration order.
type Rebuild struct {
	// Input is the freshly built probability matrix.
	Input *Probabilities
	// Pass is the rebuild ordinal, starting at 1.
	Pass int
}

// Patch is the partial state update produced by a rebuild hook. Nil fields
// leave the corresponding state untouched. When several hooks set the same
// field, the later-registered hook wins.
type Patch struct {
	// OutputBeta replaces the output-kernel precisions.
	OutputBeta []float64
	// Exaggeration replaces the input-probability exaggeration factor.
	Exaggeration *float64
	// StepScale replaces the global step-size scale.
	StepScale *float64
}

func (p *Patch) merge(next Patch) {
	if next.OutputBeta != nil {
		p.OutputBeta = next.OutputBeta
	}
	if next.Exaggeration != nil {
		p.Exaggeration = next.Exaggeration
	}
	if next.StepScale != nil {
		p.StepScale = next.StepScale
	}
}

// Hook derives a partial patch from a completed rebuild. Hooks must be pure
// with respect to the rebuild event and tolerate being replayed across
// multiple rebuilds.
type Hook func(ev *Rebuild) Patch

// Registry is an ordered list of rebuild hooks. Hooks are registered once
// per configuration and replayed, in registration order, after every
// probability rebuild. Overlapping writes resolve last-write-wins; the
// convention is deliberate, rebuilds are rare enough that conflict
// detection is not worth its complexity.
type Registry struct {
	hooks []Hook
}

// Register appends a hook. Registration order is replay order.
func (r *Registry) Register(h Hook) {
	r.hooks = append(r.hooks, h)
}

// Len returns the number of registered hooks.
func (r *Registry) Len() int {
	return len(r.hooks)
}

// Replay runs every hook against ev and folds their patches left to right.
func (r *Registry) Replay(ev *Rebuild) Patch {
	var merged Patch
	for _, h := range r.hooks {
		merged.merge(h(ev))
	}
	return merged
}

// MirrorPrecisions returns a hook transferring the calibrated input
// precisions, scaled by scale, to the output kernel. This keeps the output
// bandwidths in step with the input calibration across multiscale rebuilds.
func MirrorPrecisions(scale float64) Hook {
	return func(ev *Rebuild) Patch {
		beta := make([]float64, len(ev.Input.Beta))
		for i, b := range ev.Input.Beta {
			beta[i] = b * scale
		}
		return Patch{OutputBeta: beta}
	}
}
