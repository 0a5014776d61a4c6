package poller

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"

	"modelrepomgr/pkg/types"
)

// rawConfig is the on-the-wire shape shared by the YAML/JSON/TOML
// decoders; VersionPolicy travels as a plain string here and is resolved
// into types.VersionPolicy afterwards.
type rawConfig struct {
	Platform      string                     `json:"platform" yaml:"platform" toml:"platform"`
	Path          string                     `json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty"`
	VersionPolicy string                     `json:"version_policy,omitempty" yaml:"version_policy,omitempty" toml:"version_policy,omitempty"`
	Versions      []int64                    `json:"versions,omitempty" yaml:"versions,omitempty" toml:"versions,omitempty"`
	Parameters    map[string]string          `json:"parameters,omitempty" yaml:"parameters,omitempty" toml:"parameters,omitempty"`
	Upstreams     []types.UpstreamReference  `json:"upstreams,omitempty" yaml:"upstreams,omitempty" toml:"upstreams,omitempty"`
}

// hclConfig mirrors rawConfig but in the block-oriented shape HCL favors:
// upstream references are repeated `upstream "name" { ... }` blocks rather
// than a list, matching how the terraform-cost example models nested HCL
// blocks with gohcl.
// hclConfig's Path may interpolate ${model_dir} or ${repo_root}, resolved
// against the EvalContext decodeHCLConfig builds from the model's own
// directory.
type hclConfig struct {
	Platform      string            `hcl:"platform,optional"`
	Path          string            `hcl:"path,optional"`
	VersionPolicy string            `hcl:"version_policy,optional"`
	Versions      []int64           `hcl:"versions,optional"`
	Parameters    map[string]string `hcl:"parameters,optional"`
	Upstreams     []hclUpstream     `hcl:"upstream,block"`
}

type hclUpstream struct {
	Name      string  `hcl:"name,label"`
	Namespace string  `hcl:"namespace,optional"`
	Versions  []int64 `hcl:"versions,optional"`
}

// supportedConfigNames lists the config file basenames the filesystem
// poller looks for, in preference order, inside each model directory.
var supportedConfigNames = []string{
	"config.yaml", "config.yml", "config.json", "config.toml", "config.hcl",
}

// decodeConfigFile dispatches on file extension, the same way
// internal/config picks a decoder for the daemon's own config file.
// modelDir/repoPath are only consulted by the HCL decoder, which exposes
// them as ${model_dir}/${repo_root} interpolation variables so a config's
// path field can be written relative to its own directory.
func decodeConfigFile(path string, data []byte, modelDir, repoPath string) (types.ModelConfig, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		var rc rawConfig
		if err := yaml.Unmarshal(data, &rc); err != nil {
			return types.ModelConfig{}, fmt.Errorf("decode yaml: %w", err)
		}
		return rawToModelConfig(rc)
	case ".json":
		var rc rawConfig
		if err := json.Unmarshal(data, &rc); err != nil {
			return types.ModelConfig{}, fmt.Errorf("decode json: %w", err)
		}
		return rawToModelConfig(rc)
	case ".toml":
		var rc rawConfig
		if err := toml.Unmarshal(data, &rc); err != nil {
			return types.ModelConfig{}, fmt.Errorf("decode toml: %w", err)
		}
		return rawToModelConfig(rc)
	case ".hcl":
		return decodeHCLConfig(path, data, modelDir, repoPath)
	default:
		return types.ModelConfig{}, fmt.Errorf("unsupported model config extension: %s", ext)
	}
}

func decodeHCLConfig(path string, data []byte, modelDir, repoPath string) (types.ModelConfig, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(data, path)
	if diags.HasErrors() {
		return types.ModelConfig{}, fmt.Errorf("parse hcl: %s", diags.Error())
	}
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"model_dir": cty.StringVal(modelDir),
			"repo_root": cty.StringVal(repoPath),
		},
	}
	var hc hclConfig
	if diags := gohcl.DecodeBody(f.Body, evalCtx, &hc); diags.HasErrors() {
		return types.ModelConfig{}, fmt.Errorf("decode hcl: %s", diags.Error())
	}
	upstreams := make([]types.UpstreamReference, 0, len(hc.Upstreams))
	for _, u := range hc.Upstreams {
		upstreams = append(upstreams, types.UpstreamReference{
			Namespace: u.Namespace,
			Name:      u.Name,
			Versions:  u.Versions,
		})
	}
	rc := rawConfig{
		Platform:      hc.Platform,
		Path:          hc.Path,
		VersionPolicy: hc.VersionPolicy,
		Versions:      hc.Versions,
		Parameters:    hc.Parameters,
		Upstreams:     upstreams,
	}
	return rawToModelConfig(rc)
}

func rawToModelConfig(rc rawConfig) (types.ModelConfig, error) {
	policy, err := parseVersionPolicy(rc.VersionPolicy, rc.Versions)
	if err != nil {
		return types.ModelConfig{}, err
	}
	return types.ModelConfig{
		Platform:      rc.Platform,
		Path:          rc.Path,
		VersionPolicy: policy,
		Parameters:    rc.Parameters,
		Upstreams:     rc.Upstreams,
	}, nil
}

func parseVersionPolicy(kind string, versions []int64) (types.VersionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "latest":
		return types.VersionPolicy{Kind: types.VersionPolicyLatest}, nil
	case "all":
		return types.VersionPolicy{Kind: types.VersionPolicyAll}, nil
	case "specific":
		if len(versions) == 0 {
			return types.VersionPolicy{}, fmt.Errorf("version_policy=specific requires a non-empty versions list")
		}
		return types.VersionPolicy{Kind: types.VersionPolicySpecific, Versions: versions}, nil
	default:
		return types.VersionPolicy{}, fmt.Errorf("unknown version_policy %q", kind)
	}
}

