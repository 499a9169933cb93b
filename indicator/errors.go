package indicator

import "errors"

var (
	// ErrSamplerFailure wraps every failed or invalid sample. The worker
	// recovers from it by reusing the previous good sample.
	ErrSamplerFailure = errors.New("indicator: sampler failure")

	// ErrInvalidSample is returned by Sample.Validate.
	ErrInvalidSample = errors.New("invalid sample")

	// ErrRenderFailure wraps a render pass that did not reach Present.
	ErrRenderFailure = errors.New("indicator: render failure")

	// ErrInvalidCapacity is returned for histories smaller than one sample.
	ErrInvalidCapacity = errors.New("indicator: history capacity must be at least 1")

	// ErrInvalidConfig is returned by NewWorker for unusable configuration.
	ErrInvalidConfig = errors.New("indicator: invalid worker config")

	// ErrUnknownIndicator is returned for kinds the supervisor does not own.
	ErrUnknownIndicator = errors.New("indicator: unknown indicator")
)
