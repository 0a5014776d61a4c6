package manager

import (
	"context"

	"modelrepomgr/internal/lifecycle"
	"modelrepomgr/internal/poller"
)

// Defaults applied when the corresponding ManagerConfig field is unset.
const (
	defaultSchedulerConcurrency = 4
	defaultMinComputeCapability = 0
)

// ManagerConfig encapsulates all tunables for Manager construction,
// fixed at construction time and immutable thereafter.
type ManagerConfig struct {
	Poller    poller.RepositoryPoller
	Lifecycle lifecycle.ModelLifecycle
	Publisher EventPublisher

	// StartupModels are loaded at construction time when ModelControlEnabled.
	StartupModels []string
	// StrictModelConfig is accepted but not read: the manager does not
	// store it, and the filesystem poller takes no strictness setting.
	StrictModelConfig bool
	// PollingEnabled enables PollAndUpdate; mutually exclusive with
	// ModelControlEnabled.
	PollingEnabled bool
	// ModelControlEnabled enables LoadUnloadModel/RegisterModelRepository/
	// UnregisterModelRepository.
	ModelControlEnabled bool
	// EnableModelNamespacing keys models by (namespace, name) and enables
	// fuzzy upstream resolution across namespaces.
	EnableModelNamespacing bool
	// MinComputeCapability is stored on the Manager; no check in this
	// repository compares it against anything.
	MinComputeCapability int
	// SchedulerConcurrency bounds how many lifecycle Load/Unload calls run
	// concurrently within one scheduler iteration.
	SchedulerConcurrency int
}

// NewWithConfig constructs a Manager from ManagerConfig, applying package
// defaults for anything left at its zero value.
func NewWithConfig(cfg ManagerConfig) (*Manager, error) {
	if cfg.PollingEnabled && cfg.ModelControlEnabled {
		return nil, ErrInvalidArg("polling_enabled and model_control_enabled are mutually exclusive")
	}
	if cfg.Poller == nil {
		return nil, ErrInvalidArg("poller is required")
	}
	if cfg.Lifecycle == nil {
		return nil, ErrInvalidArg("lifecycle is required")
	}

	m := newManager(cfg)

	if cfg.ModelControlEnabled && len(cfg.StartupModels) > 0 {
		if _, err := m.LoadUnloadModel(context.Background(), cfg.StartupModels, ActionLoad, false); err != nil {
			return m, err
		}
	}
	return m, nil
}
