package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix marks the environment variables the loader binds.
	EnvPrefix = "ADKIT_"
	// EnvConfigPath overrides the config file search.
	EnvConfigPath = "ADKIT_CONFIG_PATH"
)

// FileSystem abstracts the file probes the loader performs, so tests can
// resolve against a fake tree.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem implements FileSystem against the host filesystem.
type RealFileSystem struct{}

func (rfs *RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (rfs *RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// Resolver finds the config and .env files for a service.
type Resolver struct {
	FileSystem FileSystem
}

// ResolvedFiles contains the resolved config and env file paths. Empty
// fields mean no file was found; loading proceeds from environment
// variables alone.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles returns explicit paths when provided, then the
// ADKIT_CONFIG_PATH override, then the search-path results.
func (cr *Resolver) ResolveFiles(serviceName string, opts LoaderConfig) ResolvedFiles {
	resolved := ResolvedFiles{
		ConfigFile: opts.ConfigFile,
		EnvFile:    opts.EnvFile,
	}

	if resolved.ConfigFile == "" {
		resolved.ConfigFile = os.Getenv(EnvConfigPath)
	}
	if resolved.ConfigFile == "" {
		resolved.ConfigFile = cr.findConfigFile(serviceName)
	}
	if resolved.EnvFile == "" {
		resolved.EnvFile = cr.findEnvFile(serviceName)
	}

	return resolved
}

// findConfigFile searches the standard locations for config.yml or
// config.yaml. A service named "adkit-monitor" also matches its short
// name "monitor".
func (cr *Resolver) findConfigFile(serviceName string) string {
	shortName := serviceName
	if idx := strings.LastIndex(serviceName, "-"); idx != -1 {
		shortName = serviceName[idx+1:]
	}

	var searchPaths []string
	for _, name := range []string{"config.yml", "config.yaml"} {
		searchPaths = append(searchPaths,
			fmt.Sprintf("./cmd/%s/%s", serviceName, name),
			fmt.Sprintf("./cmd/%s/%s", shortName, name),
			fmt.Sprintf("../cmd/%s/%s", serviceName, name),
			fmt.Sprintf("../cmd/%s/%s", shortName, name),
			fmt.Sprintf("../../cmd/%s/%s", serviceName, name),
			fmt.Sprintf("../../cmd/%s/%s", shortName, name),
			fmt.Sprintf("./config/%s", name),
			fmt.Sprintf("../config/%s", name),
			fmt.Sprintf("./%s", name),
			fmt.Sprintf("/etc/%s/%s", serviceName, name),
		)
	}

	for _, path := range searchPaths {
		if cr.FileSystem.Exists(path) {
			return path
		}
	}
	return ""
}

// findEnvFile searches for .env.<service> then .env near the usual
// config locations.
func (cr *Resolver) findEnvFile(serviceName string) string {
	shortName := serviceName
	if idx := strings.LastIndex(serviceName, "-"); idx != -1 {
		shortName = serviceName[idx+1:]
	}

	dirs := envSearchDirs(serviceName)
	if shortName != serviceName {
		dirs = append(dirs, envSearchDirs(shortName)...)
	}

	for _, name := range []string{".env." + serviceName, ".env"} {
		for _, dir := range dirs {
			path := dir + "/" + name
			if cr.FileSystem.Exists(path) {
				return path
			}
		}
	}
	return ""
}

// envSearchDirs lists the directories probed for .env files, nearest
// first.
func envSearchDirs(serviceName string) []string {
	prefixes := []string{
		"cmd/" + serviceName,
		"config/" + serviceName,
		"config",
		"",
	}

	var dirs []string
	for _, prefix := range prefixes {
		for _, rel := range []string{".", "..", "../.."} {
			if prefix == "" {
				dirs = append(dirs, rel)
			} else {
				dirs = append(dirs, rel+"/"+prefix)
			}
		}
	}
	return dirs
}

// LoaderConfig holds loader dependencies and optional file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
}

// LoaderOption is a functional option for LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// LoadConfig loads layered configuration for a service into cfg. The
// base YAML file is read first, then the .env file enters the process
// environment, then ADKIT_-prefixed variables are bound (they win over
// file values), and finally an environment overlay file is merged when
// one sits next to the base file.
func LoadConfig(serviceName string, cfg any, opts ...LoaderOption) error {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = &RealFileSystem{}
	}

	resolver := &Resolver{FileSystem: lc.FileSystem}
	files := resolver.ResolveFiles(serviceName, lc)

	return loadFromResolvedFiles(serviceName, cfg, files, lc.FileSystem)
}

func loadFromResolvedFiles(serviceName string, cfg any, files ResolvedFiles, fs FileSystem) error {
	v := viper.New()

	if files.ConfigFile != "" && fs.Exists(files.ConfigFile) {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			fmt.Printf("[config] warning: failed to load config file %s: %v\n", files.ConfigFile, err)
		}
	}

	if files.EnvFile != "" && fs.Exists(files.EnvFile) {
		if err := fs.LoadEnv(files.EnvFile); err != nil {
			fmt.Printf("[config] warning: failed to load .env file %s: %v\n", files.EnvFile, err)
		}
	}

	v.SetEnvPrefix("adkit")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindPrefixedEnv(v)

	// Merge config.<environment>.yml from the base file's directory.
	// The environment may come from the base file or from the
	// environment variables bound above.
	if env := v.GetString("service.environment"); env != "" && files.ConfigFile != "" {
		overlay := overlayPath(files.ConfigFile, env)
		if fs.Exists(overlay) {
			v.SetConfigFile(overlay)
			if err := v.MergeInConfig(); err != nil {
				fmt.Printf("[config] warning: failed to merge overlay %s: %v\n", overlay, err)
			}
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config for service %s: %w", serviceName, err)
	}

	return nil
}

// overlayPath derives the environment overlay filename:
// cmd/svc/config.yml + "production" -> cmd/svc/config.production.yml.
func overlayPath(configFile, env string) string {
	ext := filepath.Ext(configFile)
	return strings.TrimSuffix(configFile, ext) + "." + env + ext
}

// bindPrefixedEnv sets every ADKIT_-prefixed environment variable on
// Viper under each nested-key spelling it could address. Viper's
// AutomaticEnv only resolves keys it already knows from a file, so
// explicit Set calls are what make env-only keys reach Unmarshal.
func bindPrefixedEnv(v *viper.Viper) {
	for _, env := range os.Environ() {
		pair := strings.SplitN(env, "=", 2)
		if len(pair) != 2 || !strings.HasPrefix(pair[0], EnvPrefix) {
			continue
		}

		key := strings.TrimPrefix(pair[0], EnvPrefix)
		if key == "" || pair[0] == EnvConfigPath {
			continue
		}
		for _, variant := range envKeyVariants(key) {
			v.Set(variant, pair[1])
		}
	}
}

// envKeyVariants lists the nested keys an underscored variable can
// spell. Every underscore can be a nesting boundary, so
// MONITOR_AUTH_SECRET yields monitor_auth_secret, monitor.auth.secret
// and monitor.auth_secret.
func envKeyVariants(envKey string) []string {
	lowerKey := strings.ToLower(envKey)
	parts := strings.Split(lowerKey, "_")
	if len(parts) <= 1 {
		return []string{lowerKey}
	}

	variants := []string{
		lowerKey,
		strings.ReplaceAll(lowerKey, "_", "."),
	}
	for i := 1; i < len(parts); i++ {
		variants = append(variants, strings.Join(parts[:i], ".")+"."+strings.Join(parts[i:], "_"))
	}
	return removeDuplicates(variants)
}

func removeDuplicates(items []string) []string {
	seen := make(map[string]bool, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}
	return result
}
