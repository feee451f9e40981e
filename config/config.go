package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "SOLRQ"

// LoadConfig reads a YAML file and applies SOLRQ_* environment overrides, e.g.
// SOLRQ_SOLR_BASEURL. Keys missing from the file keep their defaults.
func LoadConfig(filename string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(filename)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, GetDefaultConfig())

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("cannot read the file %w", err)
	}
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error reading the config file %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func GetDefaultConfig() *Config {
	return &Config{
		Solr: SolrConfig{
			BaseURL:      "http://localhost:8983/solr",
			Core:         "collection1",
			Timeout:      10 * time.Second,
			MaxIdleConns: 10,
		},
		Redis: RedisConfig{
			Prefix: "solrq:",
		},
		Mongo: MongoConfig{
			DBName:    "solr_query",
			QueryColl: "saved_queries",
		},
		History: HistoryConfig{
			PoolSize: 4,
		},
		Cache: CacheConfig{
			Enabled:   true,
			LocalSize: 1000,
			TTL:       5 * time.Minute,
		},
		Query: QueryEngineConfig{
			NormalizeText:   true,
			DefaultPageSize: 10,
			MaxPageSize:     100,
		},
		Search: SearchAPIConfig{
			HTTPAddr:     ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
	}
}

func (c *Config) Validate() error {
	if c.Solr.BaseURL == "" {
		return fmt.Errorf("solr.baseurl is empty in config")
	}
	if c.Solr.Core == "" {
		return fmt.Errorf("solr.core is empty in config")
	}
	if c.Query.DefaultPageSize <= 0 || c.Query.MaxPageSize < c.Query.DefaultPageSize {
		return fmt.Errorf("query page sizes are invalid: default %d, max %d", c.Query.DefaultPageSize, c.Query.MaxPageSize)
	}
	if c.Cache.Enabled && c.Cache.LocalSize <= 0 {
		return fmt.Errorf("cache.localsize must be positive when the cache is enabled")
	}
	return nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("solr.baseurl", d.Solr.BaseURL)
	v.SetDefault("solr.core", d.Solr.Core)
	v.SetDefault("solr.timeout", d.Solr.Timeout)
	v.SetDefault("solr.maxidleconns", d.Solr.MaxIdleConns)
	v.SetDefault("solr.proxyurl", d.Solr.ProxyUrl)
	v.SetDefault("solr.proxyenabled", d.Solr.ProxyEnabled)
	v.SetDefault("redis.host", d.Redis.Host)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)
	v.SetDefault("redis.prefix", d.Redis.Prefix)
	v.SetDefault("mongo.uri", d.Mongo.URI)
	v.SetDefault("mongo.dbname", d.Mongo.DBName)
	v.SetDefault("mongo.querycoll", d.Mongo.QueryColl)
	v.SetDefault("history.dburl", d.History.DBURL)
	v.SetDefault("history.poolsize", d.History.PoolSize)
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.localsize", d.Cache.LocalSize)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("query.normalizetext", d.Query.NormalizeText)
	v.SetDefault("query.defaultpagesize", d.Query.DefaultPageSize)
	v.SetDefault("query.maxpagesize", d.Query.MaxPageSize)
	v.SetDefault("search.httpaddr", d.Search.HTTPAddr)
	v.SetDefault("search.readtimeout", d.Search.ReadTimeout)
	v.SetDefault("search.writetimeout", d.Search.WriteTimeout)
}
