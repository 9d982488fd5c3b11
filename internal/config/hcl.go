package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// hclFile is the decoding shape of lambila.hcl:
//
//	verbosity = "debug"
//
//	library "work" {
//	  files   = ["rtl/**/*.vhd"]
//	  exclude = ["rtl/legacy/*.vhd"]
//	}
//
//	lint {
//	  rules      = { entity_without_architecture = "off" }
//	  ignore     = ["sim/*"]
//	  policy_dir = "policies"
//	}
//
//	analysis {
//	  timing = true
//	  cache {
//	    dir = ".lambila_cache"
//	  }
//	}
type hclFile struct {
	Verbosity string        `hcl:"verbosity,optional"`
	Libraries []*hclLibrary `hcl:"library,block"`
	Lint      *hclLint      `hcl:"lint,block"`
	Analysis  *hclAnalysis  `hcl:"analysis,block"`
}

type hclLibrary struct {
	Name    string   `hcl:"name,label"`
	Files   []string `hcl:"files"`
	Exclude []string `hcl:"exclude,optional"`
}

type hclLint struct {
	Rules     map[string]string `hcl:"rules,optional"`
	Ignore    []string          `hcl:"ignore,optional"`
	PolicyDir string            `hcl:"policy_dir,optional"`
}

type hclAnalysis struct {
	Timing     bool      `hcl:"timing,optional"`
	TimingPath string    `hcl:"timing_path,optional"`
	Policy     *bool     `hcl:"policy,optional"`
	Cache      *hclCache `hcl:"cache,block"`
}

type hclCache struct {
	Enabled *bool  `hcl:"enabled,optional"`
	Dir     string `hcl:"dir,optional"`
}

func parseHCL(path string, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	var parsed hclFile
	diags = gohcl.DecodeBody(file.Body, nil, &parsed)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}

	cfg := &Config{Verbosity: parsed.Verbosity}
	if len(parsed.Libraries) > 0 {
		cfg.Libraries = make(map[string]LibraryConfig, len(parsed.Libraries))
		for _, lib := range parsed.Libraries {
			if _, dup := cfg.Libraries[lib.Name]; dup {
				return nil, fmt.Errorf("HCL file %s: library %q declared twice", path, lib.Name)
			}
			cfg.Libraries[lib.Name] = LibraryConfig{Files: lib.Files, Exclude: lib.Exclude}
		}
	}
	if parsed.Lint != nil {
		cfg.Lint = LintConfig{
			Rules:          parsed.Lint.Rules,
			IgnorePatterns: parsed.Lint.Ignore,
			PolicyDir:      parsed.Lint.PolicyDir,
		}
	}
	if a := parsed.Analysis; a != nil {
		cfg.Analysis.Timing = a.Timing
		cfg.Analysis.TimingPath = a.TimingPath
		cfg.Analysis.Policy = a.Policy
		if a.Cache != nil {
			cfg.Analysis.Cache = CacheConfig{Enabled: a.Cache.Enabled, Dir: a.Cache.Dir}
		}
	}
	return cfg, nil
}
