// ABOUTME: Simple linear resampler for converting audio sample rates
// ABOUTME: Streams mono float32 audio, carrying interpolation state across calls
package resample

// Resampler performs linear interpolation to convert between sample rates
type Resampler struct {
	inputRate  int
	outputRate int
	ratio      float64
	// position in units of 1/outputRate input samples
	position   int64
	lastSample float32
	hasLast    bool
}

// New creates a new resampler
func New(inputRate, outputRate int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		ratio:      float64(inputRate) / float64(outputRate),
	}
}

// InputRate returns the source sample rate
func (r *Resampler) InputRate() int {
	return r.inputRate
}

// OutputRate returns the target sample rate
func (r *Resampler) OutputRate() int {
	return r.outputRate
}

// Resample converts input samples to the output rate using linear interpolation.
// The final input sample is held back so the next call interpolates across the
// chunk boundary.
func (r *Resampler) Resample(input []float32) []float32 {
	if r.inputRate == r.outputRate {
		out := make([]float32, len(input))
		copy(out, input)
		return out
	}
	if len(input) == 0 {
		return nil
	}

	// Virtual buffer: the held sample (if any) followed by input
	offset := 0
	if r.hasLast {
		offset = 1
	}
	total := len(input) + offset
	at := func(i int) float32 {
		if i < offset {
			return r.lastSample
		}
		return input[i-offset]
	}

	output := make([]float32, 0, r.OutputSamplesNeeded(len(input))+1)
	step := int64(r.inputRate)
	unit := int64(r.outputRate)
	for {
		idx := int(r.position / unit)
		if idx+1 >= total {
			break
		}
		frac := float32(r.position%unit) / float32(unit)
		s1 := at(idx)
		s2 := at(idx + 1)
		output = append(output, s1*(1-frac)+s2*frac)
		r.position += step
	}

	// Rebase position onto the held sample
	r.position -= int64(total-1) * unit
	r.lastSample = input[len(input)-1]
	r.hasLast = true

	return output
}

// Reset resets the resampler state
func (r *Resampler) Reset() {
	r.position = 0
	r.lastSample = 0
	r.hasLast = false
}

// OutputSamplesNeeded estimates how many output samples inputSamples produce
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	return int(float64(inputSamples) / r.ratio)
}
