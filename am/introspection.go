package am

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// ConfigSource represents where a configuration value came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceSystem      ConfigSource = "system"      // /etc/homepage/config.toml
	SourceUser        ConfigSource = "user"        // ~/.homepage/am.toml
	SourceProject     ConfigSource = "project"     // am.toml found from the working directory up
	SourceEnvironment ConfigSource = "environment" // HOMEPAGE_* env vars
)

// SettingInfo contains metadata about a configuration setting
type SettingInfo struct {
	Key        string       `json:"key"`
	Value      interface{}  `json:"value"`
	Source     ConfigSource `json:"source"`
	SourcePath string       `json:"source_path,omitempty"` // File path or env var name
}

// Introspect reports every effective setting together with the source that set it
func Introspect() []SettingInfo {
	v := initViper()
	return introspect(v, Sources(), os.LookupEnv)
}

func introspect(v *viper.Viper, files []string, lookupEnv func(string) (string, bool)) []SettingInfo {
	// Later files win, so remember the last one that sets each key
	fromFile := make(map[string]string)
	for _, path := range files {
		fv := viper.New()
		fv.SetConfigFile(path)
		fv.SetConfigType("toml")
		if err := fv.ReadInConfig(); err != nil {
			continue
		}
		for _, key := range fv.AllKeys() {
			fromFile[key] = path
		}
	}

	keys := v.AllKeys()
	sort.Strings(keys)

	settings := make([]SettingInfo, 0, len(keys))
	for _, key := range keys {
		info := SettingInfo{Key: key, Value: v.Get(key), Source: SourceDefault}
		if path, ok := fromFile[key]; ok {
			info.Source = classifyFile(path)
			info.SourcePath = path
		}
		envKey := EnvVar(key)
		if _, ok := lookupEnv(envKey); ok {
			info.Source = SourceEnvironment
			info.SourcePath = envKey
		}
		settings = append(settings, info)
	}
	return settings
}

// EnvVar returns the environment variable that overrides key
func EnvVar(key string) string {
	return "HOMEPAGE_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func classifyFile(path string) ConfigSource {
	if strings.HasPrefix(path, "/etc/") {
		return SourceSystem
	}
	if home, err := os.UserHomeDir(); err == nil && strings.HasPrefix(path, filepath.Join(home, ".homepage")+string(filepath.Separator)) {
		return SourceUser
	}
	return SourceProject
}
