package config

import "os"

// Environment is a snapshot of the env vars recognized by spec.md §6,
// taken once per process so the rest of the pipeline doesn't call
// os.Getenv ad hoc (spec.md §9's "global mutable state" note, generalized
// to environment variables as well as cwd/git-root).
type Environment struct {
	ConfigPath              string
	Dir                     string
	AssumeRole              string
	CentralizedAssumeRole   string
	Region                  string
	EFSAccessPoint          string
	UseStableLayers         bool
	NoRubyWrapper           bool
	LambdaRuntimeVersion    string
	VersionImages           bool
	LegacyRoles             bool
	SyncCreate              bool
	SFNLogLevel             string
	Trace                   bool
	DeleteRoot              bool
	PagesBucket             string
	InspectBuild            bool
	Sandbox                 string
	TCSandbox               string
}

// LoadEnvironment reads every variable named in spec.md §6 into a typed
// struct.
func LoadEnvironment() Environment {
	return Environment{
		ConfigPath:            os.Getenv("TC_CONFIG_PATH"),
		Dir:                   os.Getenv("TC_DIR"),
		AssumeRole:            os.Getenv("TC_ASSUME_ROLE"),
		CentralizedAssumeRole: os.Getenv("TC_CENTRALIZED_ASSUME_ROLE"),
		Region:                os.Getenv("AWS_REGION"),
		EFSAccessPoint:        os.Getenv("TC_EFS_AP"),
		UseStableLayers:       ParseBoolEnv("TC_USE_STABLE_LAYERS"),
		NoRubyWrapper:         ParseBoolEnv("NO_RUBY_WRAPPER"),
		LambdaRuntimeVersion:  os.Getenv("TC_LAMBDA_RUNTIME_VERSION"),
		VersionImages:         ParseBoolEnv("TC_VERSION_IMAGES"),
		LegacyRoles:           ParseBoolEnv("TC_LEGACY_ROLES"),
		SyncCreate:            ParseBoolEnv("TC_SYNC_CREATE"),
		SFNLogLevel:           os.Getenv("TC_SFN_LOG_LEVEL"),
		Trace:                 ParseBoolEnv("TC_TRACE"),
		DeleteRoot:            ParseBoolEnv("TC_DELETE_ROOT"),
		PagesBucket:           os.Getenv("TC_PAGES_BUCKET"),
		InspectBuild:          ParseBoolEnv("TC_INSPECT_BUILD"),
		Sandbox:               os.Getenv("SANDBOX"),
		TCSandbox:             os.Getenv("TC_SANDBOX"),
	}
}

// ResolveSandbox implements spec.md §4.4's sandbox-resolution rule: caller
// override, else $SANDBOX, else $TC_SANDBOX, else "stable".
func (e Environment) ResolveSandbox(override string) string {
	if override != "" {
		return override
	}
	if e.Sandbox != "" {
		return e.Sandbox
	}
	if e.TCSandbox != "" {
		return e.TCSandbox
	}
	return "stable"
}
