package sdk

// Config carries the vendor SDK settings an adapter needs at
// construction time.
type Config struct {
	AppID    string `yaml:"app_id" mapstructure:"app_id" validate:"required"`
	APIKey   string `yaml:"api_key" mapstructure:"api_key"`
	TestMode bool   `yaml:"test_mode" mapstructure:"test_mode"`
}
