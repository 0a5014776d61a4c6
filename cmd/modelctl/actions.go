package main

import (
	"fmt"
	"strings"

	"modelrepomgr/pkg/types"
)

func fnLoad(c *client, name, namespace string) error {
	result, err := c.load(name, types.LoadRequest{Namespace: namespace})
	if err != nil {
		return err
	}
	printWriteResult(result)
	if result.Overall != "OK" {
		return fmt.Errorf("load did not reach OK: %s", result.Overall)
	}
	return nil
}

func fnUnload(c *client, name, namespace string, unloadDependents bool) error {
	result, err := c.unload(name, types.UnloadRequest{Namespace: namespace, UnloadDependents: unloadDependents})
	if err != nil {
		return err
	}
	printWriteResult(result)
	if result.Overall != "OK" {
		return fmt.Errorf("unload did not reach OK: %s", result.Overall)
	}
	return nil
}

func fnPoll(c *client) error {
	result, err := c.poll()
	if err != nil {
		return err
	}
	printWriteResult(result)
	return nil
}

func fnIndex(c *client, readyOnly bool) error {
	resp, err := c.repositoryIndex(readyOnly)
	if err != nil {
		return err
	}
	if len(resp.Models) == 0 {
		warn("no models in repository index")
		return nil
	}
	for _, m := range resp.Models {
		line := m.Name
		if m.Version != 0 {
			line += fmt.Sprintf("@%d", m.Version)
		}
		if m.State != "" {
			statusColor(m.State).Printf("%-40s %s\n", line, m.State)
		} else {
			statusColor("").Printf("%-40s %s\n", line, "UNKNOWN")
		}
		if m.Reason != "" {
			warn("  %s", m.Reason)
		}
	}
	return nil
}

func fnListModels(c *client) error {
	resp, err := c.listModels()
	if err != nil {
		return err
	}
	for _, m := range resp.Models {
		id := m.Name
		if m.Namespace != "" {
			id = m.Namespace + "/" + m.Name
		}
		ensemble := ""
		if m.Ensemble {
			ensemble = " (ensemble)"
		}
		ok("%-40s %s%s", id, m.Platform, ensemble)
	}
	return nil
}

func fnStatus(c *client, name string) error {
	resp, err := c.modelVersions(name)
	if err != nil {
		return err
	}
	for _, v := range resp.Versions {
		statusColor(v.State).Printf("%-20s v%-6d %s", name, v.Version, v.State)
		if v.Status != "" {
			fmt.Printf(" (%s)", v.Status)
		}
		fmt.Println()
	}
	return nil
}

func fnUnloadAll(c *client) error {
	if err := c.unloadAllModels(); err != nil {
		return err
	}
	ok("unloaded every model and cleared the dependency graph")
	return nil
}

func fnDrain(c *client) error {
	if err := c.drain(); err != nil {
		return err
	}
	ok("drained: stopped accepting writes and waited for in-flight calls to finish")
	return nil
}

func fnRegisterRepo(c *client, path string, mapping map[string]string) error {
	if err := c.registerRepository(types.RegisterRepositoryRequest{Path: path, ModelMapping: mapping}); err != nil {
		return err
	}
	ok("registered repository %s", path)
	return nil
}

func fnUnregisterRepo(c *client, path string) error {
	if err := c.unregisterRepository(path); err != nil {
		return err
	}
	ok("unregistered repository %s", path)
	return nil
}

func printWriteResult(result types.WriteOpResult) {
	statusColor(result.Overall).Printf("overall: %s (operation %s)\n", result.Overall, result.OperationID)
	for name, kind := range result.PerModel {
		statusColor(kind).Printf("  %-40s %s\n", name, kind)
	}
}

// parseKV parses "key=value,key2=value2" into a map, used by --map and
// --param flags that take repeated key=value pairs.
func parseKV(pairs []string) map[string]string {
	if len(pairs) == 0 {
		return nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, found := strings.Cut(p, "=")
		if !found {
			continue
		}
		out[k] = v
	}
	return out
}
