package commands

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var sampleSettings = map[string]interface{}{
	"server": map[string]interface{}{"port": 3000, "workers": 4},
	"lastfm": map[string]interface{}{"api_key": "super-secret", "user": "someone"},
	"ratelimit": map[string]interface{}{
		"backend": "redis",
		"redis":   map[string]interface{}{"password": "", "addr": "localhost:6379"},
	},
}

func TestWriteConfig(t *testing.T) {
	decoders := map[string]func([]byte, any) error{
		"json": json.Unmarshal,
		"yaml": yaml.Unmarshal,
		"toml": toml.Unmarshal,
	}
	for format, decode := range decoders {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, writeConfig(&buf, sampleSettings, format))
			assert.NotContains(t, buf.String(), "super-secret")

			var got map[string]interface{}
			require.NoError(t, decode(buf.Bytes(), &got))
			lastfm := got["lastfm"].(map[string]interface{})
			assert.Equal(t, "********", lastfm["api_key"])
			assert.Equal(t, "someone", lastfm["user"])

			redis := got["ratelimit"].(map[string]interface{})["redis"].(map[string]interface{})
			assert.Equal(t, "", redis["password"], "empty secrets stay empty")
		})
	}

	assert.Error(t, writeConfig(&bytes.Buffer{}, sampleSettings, "ini"))
}

func TestMaskSecretsCopies(t *testing.T) {
	maskSecrets(sampleSettings, "")
	assert.Equal(t, "super-secret", sampleSettings["lastfm"].(map[string]interface{})["api_key"])
}

func TestAmGet(t *testing.T) {
	t.Setenv("HOMEPAGE_WEATHER_LOCATION", "Utrecht")

	out, err := execute(t, AmCmd, "get", "weather.location")
	require.NoError(t, err)
	assert.Equal(t, "Utrecht\n", out)

	_, err = execute(t, AmCmd, "get", "no.such.key")
	assert.ErrorContains(t, err, "not found")
}

func TestAmShow(t *testing.T) {
	t.Setenv("HOMEPAGE_LASTFM_API_KEY", "from-env-secret")

	out, err := execute(t, AmCmd, "show", "--format", "json")
	require.NoError(t, err)
	assert.NotContains(t, out, "from-env-secret")

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Contains(t, got, "server")
	assert.Equal(t, "********", got["lastfm"].(map[string]interface{})["api_key"])
}

func TestAmValidate(t *testing.T) {
	out, err := execute(t, AmCmd, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid")

	t.Setenv("HOMEPAGE_SERVER_WORKERS", "0")
	_, err = execute(t, AmCmd, "validate")
	assert.ErrorContains(t, err, "server.workers")
}

func TestAmWhere(t *testing.T) {
	t.Setenv("HOMEPAGE_WEATHER_LOCATION", "Utrecht")
	t.Setenv("HOMEPAGE_LASTFM_API_KEY", "where-secret")

	out, err := execute(t, AmCmd, "where")
	require.NoError(t, err)
	assert.Contains(t, out, "weather.location")
	assert.Contains(t, out, "environment (HOMEPAGE_WEATHER_LOCATION)")
	assert.NotContains(t, out, "where-secret")
}
