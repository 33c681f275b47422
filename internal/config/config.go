package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the symkeep configuration.
type Config struct {
	Obfuscation ObfuscationConfig `yaml:"obfuscation"`
	Signatures  SignatureConfig   `yaml:"signatures"`
	Verify      VerifyConfig      `yaml:"verify"`
	MappingFile string            `yaml:"mapping_file"`
}

// ObfuscationConfig describes the shape of mangled identifiers produced by the
// target's build-time obfuscator.
type ObfuscationConfig struct {
	MinLength int `yaml:"min_length"`
	MaxLength int `yaml:"max_length"`
}

// SignatureConfig tunes signature generation.
type SignatureConfig struct {
	BytePatternLength int `yaml:"byte_pattern_length"`
	MaxFieldSegments  int `yaml:"max_field_segments"`
	MaxMethodGroups   int `yaml:"max_method_groups"`
	MaxPropertyGroups int `yaml:"max_property_groups"`
}

// VerifyConfig tunes the re-verification sweep.
type VerifyConfig struct {
	// SimilarityThreshold is the minimum structural similarity at which a
	// mapping is still trusted after a rebuild. Below it, the mapping is
	// flagged for human review instead of being auto-corrected.
	SimilarityThreshold float64 `yaml:"similarity_threshold"`

	// SkipNamespaces lists namespace prefixes that are never obfuscated
	// (engine and framework code) and can be skipped when re-discovering
	// symbols by signature.
	SkipNamespaces []string `yaml:"skip_namespaces"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Obfuscation: ObfuscationConfig{
			MinLength: 8,
			MaxLength: 15,
		},
		Signatures: SignatureConfig{
			BytePatternLength: 48,
			MaxFieldSegments:  10,
			MaxMethodGroups:   5,
			MaxPropertyGroups: 5,
		},
		Verify: VerifyConfig{
			SimilarityThreshold: 0.8,
			SkipNamespaces: []string{
				"System",
				"Mono",
				"Unity",
				"UnityEngine",
				"Microsoft",
				"Newtonsoft",
			},
		},
		MappingFile: "mappings.json",
	}
}

// Load reads configuration from file, falling back to defaults.
// If configPath is empty, it looks for symkeep.yaml in the current directory.
// Values in the config file replace defaults entirely (no merging).
func Load(configPath string) (*Config, error) {
	defaults := Default()

	if configPath == "" {
		configPath = "symkeep.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// No config file, use defaults
			return defaults, nil
		}
		return nil, err
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, err
	}

	defaults.Merge(&fileCfg)
	return defaults, nil
}

// LoadFromDir loads configuration from the specified directory.
func LoadFromDir(dir string) (*Config, error) {
	return Load(filepath.Join(dir, "symkeep.yaml"))
}

// Merge combines another config into this one, with other taking precedence.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Obfuscation.MinLength > 0 {
		c.Obfuscation.MinLength = other.Obfuscation.MinLength
	}
	if other.Obfuscation.MaxLength > 0 {
		c.Obfuscation.MaxLength = other.Obfuscation.MaxLength
	}
	if other.Signatures.BytePatternLength > 0 {
		c.Signatures.BytePatternLength = other.Signatures.BytePatternLength
	}
	if other.Signatures.MaxFieldSegments > 0 {
		c.Signatures.MaxFieldSegments = other.Signatures.MaxFieldSegments
	}
	if other.Signatures.MaxMethodGroups > 0 {
		c.Signatures.MaxMethodGroups = other.Signatures.MaxMethodGroups
	}
	if other.Signatures.MaxPropertyGroups > 0 {
		c.Signatures.MaxPropertyGroups = other.Signatures.MaxPropertyGroups
	}
	if other.Verify.SimilarityThreshold > 0 {
		c.Verify.SimilarityThreshold = other.Verify.SimilarityThreshold
	}
	if len(other.Verify.SkipNamespaces) > 0 {
		c.Verify.SkipNamespaces = other.Verify.SkipNamespaces
	}
	if other.MappingFile != "" {
		c.MappingFile = other.MappingFile
	}
}

// IsSkippedNamespace checks if a namespace belongs to engine/framework code
// that the obfuscator leaves alone.
func (c *Config) IsSkippedNamespace(ns string) bool {
	for _, prefix := range c.Verify.SkipNamespaces {
		if ns == prefix || strings.HasPrefix(ns, prefix+".") {
			return true
		}
	}
	return false
}
