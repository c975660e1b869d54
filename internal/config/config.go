// Package config loads tc's config.yml and the environment variables
// listed in spec.md §6, following the precedence rules of spec.md §4.1's
// load_config operation: explicit path > $TC_CONFIG_PATH > discovered
// <git-root>/infrastructure/tc/config.yml > defaults.
package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"
)

// CompilerConfig is the `compiler:` section of config.yml.
type CompilerConfig struct {
	Verify            bool   `yaml:"verify"`
	GraphDepth        int    `yaml:"graph_depth"`
	DefaultInfraPath  string `yaml:"default_infra_path"`
}

// ResolverConfig is the `resolver:` section of config.yml.
type ResolverConfig struct {
	Incremental     bool     `yaml:"incremental"`
	Cache           bool     `yaml:"cache"`
	LayerPromotions bool     `yaml:"layer_promotions"`
	StableSandbox   string   `yaml:"stable_sandbox"`
}

// DeployerConfig is the `deployer:` section of config.yml.
type DeployerConfig struct {
	GuardStableUpdates bool `yaml:"guard_stable_updates"`
	Rolling            bool `yaml:"rolling"`
	Fallback           bool `yaml:"fallback"`
}

// NetworkConfig names a profile's subnets/security-groups for EFS/VPC
// placement.
type NetworkConfig struct {
	Subnets        []string `yaml:"subnets"`
	SecurityGroups []string `yaml:"security_groups"`
}

// EFSConfig is the `aws.efs:` section of config.yml.
type EFSConfig struct {
	Network       map[string]NetworkConfig `yaml:"network"`
	FS            string                   `yaml:"fs"`
	DevAP         string                   `yaml:"dev_ap"`
	StableAP      string                   `yaml:"stable_ap"`
	DefaultRegion string                   `yaml:"default_region"`
}

// ECSConfig is the `aws.ecs:` section of config.yml.
type ECSConfig struct {
	Subnets []string `yaml:"subnets"`
	Cluster string   `yaml:"cluster"`
}

// ECRConfig is the `aws.ecr:` section of config.yml.
type ECRConfig struct {
	Repo    string `yaml:"repo"`
	Profile string `yaml:"profile"`
}

// EventBridgeConfig is the `aws.eventbridge:` section of config.yml.
type EventBridgeConfig struct {
	Bus           string `yaml:"bus"`
	RulePrefix    string `yaml:"rule_prefix"`
	DefaultRole   string `yaml:"default_role"`
	DefaultRegion string `yaml:"default_region"`
}

// StepFunctionConfig is the `aws.stepfunction:` section of config.yml.
type StepFunctionConfig struct {
	DefaultRole   string `yaml:"default_role"`
	DefaultRegion string `yaml:"default_region"`
}

// LambdaConfig is the `aws.lambda:` section of config.yml.
type LambdaConfig struct {
	DefaultTimeout   int    `yaml:"default_timeout"`
	DefaultRole      string `yaml:"default_role"`
	DefaultRegion    string `yaml:"default_region"`
	LayersProfile    string `yaml:"layers_profile"`
	FSMountPoint     string `yaml:"fs_mountpoint"`
	DefaultImageRepo string `yaml:"default_image_repo"`
}

// APIGatewayConfig is the `aws.api_gateway:` section of config.yml.
type APIGatewayConfig struct {
	APIName       string `yaml:"api_name"`
	DefaultRegion string `yaml:"default_region"`
}

// CognitoConfig is the `aws.cognito:` section of config.yml.
type CognitoConfig struct {
	FromEmailAddress string `yaml:"from_email_address"`
}

// AWSConfig groups the per-service `aws.*` sections.
type AWSConfig struct {
	EventBridge EventBridgeConfig  `yaml:"eventbridge"`
	EFS         EFSConfig          `yaml:"efs"`
	ECS         ECSConfig          `yaml:"ecs"`
	ECR         ECRConfig          `yaml:"ecr"`
	StepFunction StepFunctionConfig `yaml:"stepfunction"`
	Lambda      LambdaConfig       `yaml:"lambda"`
	APIGateway  APIGatewayConfig   `yaml:"api_gateway"`
	Cognito     CognitoConfig      `yaml:"cognito"`
}

// NotifierConfig is the `notifier:` section of config.yml.
type NotifierConfig struct {
	Webhooks map[string]string `yaml:"webhooks"`
}

// CIConfig is the `ci:` section of config.yml.
type CIConfig struct {
	Provider       string            `yaml:"provider"`
	AssumeRole     bool              `yaml:"assume_role"`
	UpdateMetadata bool              `yaml:"update_metadata"`
	Roles          map[string]string `yaml:"roles"`
}

// ConfigSpec is the full parsed contents of config.yml.
type ConfigSpec struct {
	Compiler CompilerConfig `yaml:"compiler"`
	Resolver ResolverConfig `yaml:"resolver"`
	Deployer DeployerConfig `yaml:"deployer"`
	AWS      AWSConfig      `yaml:"aws"`
	Notifier NotifierConfig `yaml:"notifier"`
	CI       CIConfig       `yaml:"ci"`

	// Env carries the environment variables recognized by spec.md §6,
	// snapshotted at load time so the rest of the pipeline doesn't read
	// os.Getenv ad hoc.
	Env Environment `yaml:"-"`
}

// Default returns the hard-coded fallback configuration used when no
// config.yml can be found anywhere in the search path.
func Default() *ConfigSpec {
	return &ConfigSpec{
		Compiler: CompilerConfig{GraphDepth: 4},
		Resolver: ResolverConfig{Cache: true, StableSandbox: "stable"},
		Deployer: DeployerConfig{},
		AWS: AWSConfig{
			Lambda: LambdaConfig{DefaultTimeout: 300},
		},
	}
}

// Load implements spec.md §4.1's load_config precedence: explicit path,
// then $TC_CONFIG_PATH, then <git-root>/infrastructure/tc/config.yml, then
// defaults.
func Load(explicitPath string) (*ConfigSpec, error) {
	env := LoadEnvironment()

	candidates := []string{explicitPath}
	if env.ConfigPath != "" {
		candidates = append(candidates, os.ExpandEnv(env.ConfigPath))
	}
	if root, err := gitRoot("."); err == nil && root != "" {
		candidates = append(candidates, filepath.Join(root, "infrastructure", "tc", "config.yml"))
	}

	for _, path := range candidates {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		var spec ConfigSpec
		if err := yaml.Unmarshal(data, &spec); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		klog.V(2).Infof("loaded config from %s", path)
		spec.Env = env
		return &spec, nil
	}

	klog.V(2).Infoln("no config.yml found, using defaults")
	spec := Default()
	spec.Env = env
	return spec, nil
}

// gitRoot shells out to `git rev-parse --show-toplevel`, mirroring the
// compiler's use of git for {{version}} substitution (spec.md §4.1).
func gitRoot(dir string) (string, error) {
	cmd := exec.Command("git", "-C", dir, "rev-parse", "--show-toplevel")
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// ParseBoolEnv mirrors the teacher's envOrDefault-plus-strconv pattern for
// the handful of env vars that are booleans.
func ParseBoolEnv(key string) bool {
	v := os.Getenv(key)
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		klog.Warningf("invalid boolean for %s=%q, treating as false", key, v)
		return false
	}
	return b
}
