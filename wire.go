package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gitlab.com/tinyland/lab/menu-meters/collectors/retry"
	"gitlab.com/tinyland/lab/menu-meters/collectors/sysmetrics"
	"gitlab.com/tinyland/lab/menu-meters/config"
	"gitlab.com/tinyland/lab/menu-meters/display/render"
	"gitlab.com/tinyland/lab/menu-meters/indicator"
)

// samplerSet holds one sampler per indicator.
type samplerSet struct {
	processor indicator.Sampler[indicator.ProcessorSample]
	memory    indicator.Sampler[indicator.MemorySample]
	network   indicator.Sampler[indicator.NetworkSample]
	disk      indicator.Sampler[indicator.DiskSample]
}

// systemSamplers builds the gopsutil samplers, each behind a circuit
// breaker so a failing source backs off instead of being hammered.
func systemSamplers(cfg *config.Config, logger *slog.Logger) samplerSet {
	bcfg := retry.DefaultConfig()
	bcfg.MaxFailures = cfg.Breaker.MaxFailures
	bcfg.ResetTimeout = cfg.Breaker.ResetTimeout.Duration
	bcfg.Logger = logger

	ind := cfg.Indicators
	return samplerSet{
		processor: retry.New[indicator.ProcessorSample]("processor",
			sysmetrics.NewProcessorSampler(window(ind.Processor.Interval.Duration), logger), bcfg),
		memory: retry.New[indicator.MemorySample]("memory",
			sysmetrics.NewMemorySampler(logger), bcfg),
		network: retry.New[indicator.NetworkSample]("network",
			sysmetrics.NewNetworkSampler(window(ind.Network.Interval.Duration), logger), bcfg),
		disk: retry.New[indicator.DiskSample]("disk",
			sysmetrics.NewDiskSampler(ind.Disk.Mount, logger), bcfg),
	}
}

// window is the measurement span of delta-based samplers: the default,
// shortened so a sample never takes more than half the tick interval.
func window(interval time.Duration) time.Duration {
	if half := interval / 2; half > 0 && half < sysmetrics.DefaultWindow {
		return half
	}
	return sysmetrics.DefaultWindow
}

// meters is the running engine: a raster, the workers drawing into it and
// the supervisor controlling them.
type meters struct {
	cfg     *config.Config
	raster  *render.Raster
	sup     *indicator.Supervisor
	updates chan indicator.Update
	enabled map[indicator.Kind]bool
}

// newMeters creates a worker per indicator, registers its surface on a new
// raster and hands all of them to a supervisor. Settings are checked up
// front, so a palette with missing keys fails here.
func newMeters(ctx context.Context, cfg *config.Config, settings indicator.Settings, samplers samplerSet, logger *slog.Logger) (*meters, error) {
	raster, err := render.NewRaster(cfg.Render.Scale)
	if err != nil {
		return nil, err
	}
	m := &meters{
		cfg:     cfg,
		raster:  raster,
		updates: make(chan indicator.Update, 4*len(indicator.Kinds)),
		enabled: make(map[indicator.Kind]bool),
	}

	ind := cfg.Indicators
	var controllers []indicator.Controller
	add := func(c indicator.Controller, ic config.IndicatorConfig, err error) error {
		if err != nil {
			return err
		}
		if err := raster.Add(c.Surface()); err != nil {
			return err
		}
		m.enabled[c.Kind()] = ic.Enabled
		controllers = append(controllers, c)
		return nil
	}

	c1, err := newWorker(m, indicator.Processor{}, samplers.processor, settings, ind.Processor, logger)
	if err := add(c1, ind.Processor, err); err != nil {
		return nil, err
	}
	c2, err := newWorker(m, indicator.Memory{}, samplers.memory, settings, ind.Memory, logger)
	if err := add(c2, ind.Memory, err); err != nil {
		return nil, err
	}
	c3, err := newWorker(m, indicator.Network{}, samplers.network, settings, ind.Network, logger)
	if err := add(c3, ind.Network, err); err != nil {
		return nil, err
	}
	c4, err := newWorker(m, indicator.Disk{}, samplers.disk, settings, ind.Disk.Indicator(), logger)
	if err := add(c4, ind.Disk.Indicator(), err); err != nil {
		return nil, err
	}

	sup, err := indicator.NewSupervisor(ctx, logger, controllers...)
	if err != nil {
		return nil, err
	}
	m.sup = sup
	return m, nil
}

func newWorker[S indicator.Sample](m *meters, ind indicator.Indicator[S], s indicator.Sampler[S], settings indicator.Settings, ic config.IndicatorConfig, logger *slog.Logger) (indicator.Controller, error) {
	w, err := indicator.NewWorker(indicator.WorkerConfig[S]{
		Indicator: ind,
		Sampler:   s,
		Settings:  settings,
		Canvas:    m.raster,
		Width:     ic.Width,
		Height:    ic.Height,
		Interval:  ic.Interval.Duration,
		Logger:    logger,
		Updates:   m.updates,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ind.Kind(), err)
	}
	return w, nil
}

// start enables every indicator the configuration marks enabled.
func (m *meters) start() error {
	for _, k := range m.sup.Kinds() {
		if !m.enabled[k] {
			continue
		}
		if err := m.sup.Enable(k); err != nil {
			return err
		}
	}
	return nil
}

// close stops every worker and releases the raster.
func (m *meters) close() {
	m.sup.Close()
	_ = m.raster.Close()
}
