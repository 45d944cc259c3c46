package app

import (
	"testing"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLoaderConfig() aconfig.Config {
	return aconfig.Config{
		EnvPrefix: "ORDER",
		SkipFlags: true,
		SkipFiles: true,
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("PORT", "")

	cfg, err := loadConfig(testLoaderConfig())
	require.NoError(t, err)

	assert.Equal(t, defaultAddr, cfg.Addr)
	assert.Equal(t, int64(1<<20), cfg.MaxBodyBytes)
	assert.Equal(t, []string{"TWD:0", "USD:2"}, cfg.Pipeline.Currencies)
	assert.Equal(t, "2000", cfg.Pipeline.MaxPrice)
	assert.Empty(t, cfg.Pipeline.ConvertTo)
	assert.Equal(t, 100, cfg.RateLimit.Max)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 15*time.Second, cfg.Graceful.ShutdownTimeout)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ORDER_ADDR", "127.0.0.1:9000")
	t.Setenv("ORDER_PIPELINE_CURRENCIES", "TWD:0,USD:2,EUR:2")
	t.Setenv("ORDER_PIPELINE_MAX_PRICE", "500")

	cfg, err := loadConfig(testLoaderConfig())
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, []string{"TWD:0", "USD:2", "EUR:2"}, cfg.Pipeline.Currencies)
	assert.Equal(t, "500", cfg.Pipeline.MaxPrice)
}

func TestLoadConfig_PlatformPort(t *testing.T) {
	t.Setenv("PORT", "3000")

	cfg, err := loadConfig(testLoaderConfig())
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:3000", cfg.Addr)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "non-numeric max price", env: map[string]string{"ORDER_PIPELINE_MAX_PRICE": "lots"}},
		{name: "zero body limit", env: map[string]string{"ORDER_MAX_BODY_BYTES": "0"}},
		{name: "conversion without rates", env: map[string]string{"ORDER_PIPELINE_CONVERT_TO": "TWD"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PORT", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := loadConfig(testLoaderConfig())
			require.Error(t, err)
		})
	}
}

func TestPipelineConfig_Order(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c := PipelineConfig{Currencies: []string{"TWD:0", "USD:2"}, MaxPrice: "2000"}
		cfg, err := c.Order()
		require.NoError(t, err)

		assert.Equal(t, []string{"TWD", "USD"}, cfg.Rules.Codes())
		assert.True(t, cfg.MaxPrice.Equal(decimal.NewFromInt(2000)))
		assert.Nil(t, cfg.Converter)
	})

	t.Run("conversion", func(t *testing.T) {
		c := PipelineConfig{
			Currencies: []string{"TWD:0", "USD:2"},
			MaxPrice:   "2000",
			ConvertTo:  "TWD",
			Rates:      []string{"USD:31"},
		}
		cfg, err := c.Order()
		require.NoError(t, err)
		require.NotNil(t, cfg.Converter)
		assert.Equal(t, "TWD", cfg.Converter.Target().Code)
	})

	t.Run("bad rules", func(t *testing.T) {
		c := PipelineConfig{Currencies: []string{"TWD"}, MaxPrice: "2000"}
		_, err := c.Order()
		require.Error(t, err)
	})

	t.Run("unknown conversion target", func(t *testing.T) {
		c := PipelineConfig{
			Currencies: []string{"USD:2"},
			MaxPrice:   "2000",
			ConvertTo:  "TWD",
			Rates:      []string{"USD:31"},
		}
		_, err := c.Order()
		require.Error(t, err)
	})
}
