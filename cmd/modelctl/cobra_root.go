package main

import (
	"github.com/spf13/cobra"
)

// buildRootCmd constructs the modelctl command tree, wired to the fn*
// action functions via a shared client built from --server.
func buildRootCmd() *cobra.Command {
	var serverAddr string

	root := &cobra.Command{
		Use:           "modelctl",
		Short:         "Explicit-control client for the model repository manager",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&serverAddr, "server", envStr("MODELCTL_SERVER", "http://127.0.0.1:8080"), "modeld base URL")

	newClientFn := func() *client { return newClient(serverAddr) }

	root.AddCommand(buildModelsCmd(newClientFn))
	root.AddCommand(buildLoadCmd(newClientFn))
	root.AddCommand(buildUnloadCmd(newClientFn))
	root.AddCommand(buildIndexCmd(newClientFn))
	root.AddCommand(buildStatusCmd(newClientFn))
	root.AddCommand(buildPollCmd(newClientFn))
	root.AddCommand(buildUnloadAllCmd(newClientFn))
	root.AddCommand(buildDrainCmd(newClientFn))
	root.AddCommand(buildRepositoryCmds(newClientFn))
	return root
}

func buildUnloadAllCmd(newClientFn func() *client) *cobra.Command {
	return &cobra.Command{
		Use:     "unload-all",
		Short:   "Unload every model and clear the dependency graph",
		Example: "  modelctl unload-all",
		RunE: func(cmd *cobra.Command, args []string) error {
			return fnUnloadAll(newClientFn())
		},
	}
}

func buildDrainCmd(newClientFn func() *client) *cobra.Command {
	return &cobra.Command{
		Use:     "drain",
		Short:   "Stop accepting writes and wait for in-flight calls to finish",
		Example: "  modelctl drain",
		RunE: func(cmd *cobra.Command, args []string) error {
			return fnDrain(newClientFn())
		},
	}
}

func buildModelsCmd(newClientFn func() *client) *cobra.Command {
	return &cobra.Command{
		Use:     "models",
		Short:   "List known models",
		Example: "  modelctl models",
		RunE: func(cmd *cobra.Command, args []string) error {
			return fnListModels(newClientFn())
		},
	}
}

func buildLoadCmd(newClientFn func() *client) *cobra.Command {
	var namespace string
	cmd := &cobra.Command{
		Use:     "load <name>",
		Short:   "Load a model (upstreams it references are not loaded with it)",
		Args:    cobra.ExactArgs(1),
		Example: "  modelctl load ensemble-summarize",
		RunE: func(cmd *cobra.Command, args []string) error {
			return fnLoad(newClientFn(), args[0], namespace)
		},
	}
	cmd.Flags().StringVar(&namespace, "namespace", "", "namespace, when namespacing is enabled")
	return cmd
}

func buildUnloadCmd(newClientFn func() *client) *cobra.Command {
	var namespace string
	var unloadDependents bool
	cmd := &cobra.Command{
		Use:     "unload <name>",
		Short:   "Unload a model",
		Args:    cobra.ExactArgs(1),
		Example: "  modelctl unload ensemble-summarize --unload-dependents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return fnUnload(newClientFn(), args[0], namespace, unloadDependents)
		},
	}
	cmd.Flags().StringVar(&namespace, "namespace", "", "namespace, when namespacing is enabled")
	cmd.Flags().BoolVar(&unloadDependents, "unload-dependents", false, "cascade unload to dependency-only upstreams left with no dependents")
	return cmd
}

func buildIndexCmd(newClientFn func() *client) *cobra.Command {
	var readyOnly bool
	cmd := &cobra.Command{
		Use:     "index",
		Short:   "Enumerate the repository index",
		Example: "  modelctl index --ready-only",
		RunE: func(cmd *cobra.Command, args []string) error {
			return fnIndex(newClientFn(), readyOnly)
		},
	}
	cmd.Flags().BoolVar(&readyOnly, "ready-only", false, "restrict to models with at least one ready version")
	return cmd
}

func buildStatusCmd(newClientFn func() *client) *cobra.Command {
	return &cobra.Command{
		Use:     "status <name>",
		Short:   "Show per-version state of one model",
		Args:    cobra.ExactArgs(1),
		Example: "  modelctl status ensemble-summarize",
		RunE: func(cmd *cobra.Command, args []string) error {
			return fnStatus(newClientFn(), args[0])
		},
	}
}

func buildPollCmd(newClientFn func() *client) *cobra.Command {
	return &cobra.Command{
		Use:     "poll",
		Short:   "Trigger an out-of-band repository poll",
		Example: "  modelctl poll",
		RunE: func(cmd *cobra.Command, args []string) error {
			return fnPoll(newClientFn())
		},
	}
}

func buildRepositoryCmds(newClientFn func() *client) *cobra.Command {
	repoCmd := &cobra.Command{
		Use:   "repo",
		Short: "Manage repository roots",
	}

	var mapPairs []string
	registerCmd := &cobra.Command{
		Use:     "register <path>",
		Short:   "Register a repository root",
		Args:    cobra.ExactArgs(1),
		Example: "  modelctl repo register /srv/models/team-a --map served-name=on-disk-dir",
		RunE: func(cmd *cobra.Command, args []string) error {
			return fnRegisterRepo(newClientFn(), args[0], parseKV(mapPairs))
		},
	}
	registerCmd.Flags().StringSliceVar(&mapPairs, "map", nil, "served-name=on-disk-dir override, repeatable")

	unregisterCmd := &cobra.Command{
		Use:     "unregister <path>",
		Short:   "Unregister a repository root",
		Args:    cobra.ExactArgs(1),
		Example: "  modelctl repo unregister /srv/models/team-a",
		RunE: func(cmd *cobra.Command, args []string) error {
			return fnUnregisterRepo(newClientFn(), args[0])
		},
	}

	repoCmd.AddCommand(registerCmd, unregisterCmd)
	return repoCmd
}
