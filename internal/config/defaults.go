package config

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BaseDir: DefaultBaseDir(),

		Salesforce: SalesforceConfig{
			LoginURL:     "https://login.salesforce.com",
			APIVersion:   "60.0",
			RateLimit:    20,
			CacheSeconds: 60,
		},

		Search: DefaultSearchConfig(),
	}
}

// DefaultSearchConfig returns the aggregator limits.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		MaxResults:        50,
		MaxMatchesPerItem: 10,
		BatchLimit:        50,
		FlowBatchLimit:    30,
		Concurrency:       8,
	}
}
