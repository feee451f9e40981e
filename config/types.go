package config

import "time"

type Config struct {
	Solr    SolrConfig
	Redis   RedisConfig
	Mongo   MongoConfig
	History HistoryConfig
	Cache   CacheConfig
	Query   QueryEngineConfig
	Search  SearchAPIConfig
}

type SolrConfig struct {
	BaseURL      string
	Core         string
	Timeout      time.Duration
	MaxIdleConns int
	ProxyUrl     string
	ProxyEnabled bool
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
	Prefix   string
}

type MongoConfig struct {
	URI       string
	DBName    string
	QueryColl string
}

type HistoryConfig struct {
	DBURL    string
	PoolSize int
}

type CacheConfig struct {
	Enabled   bool
	LocalSize int
	TTL       time.Duration
}

type QueryEngineConfig struct {
	NormalizeText   bool
	DefaultPageSize int
	MaxPageSize     int
}

type SearchAPIConfig struct {
	HTTPAddr     string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}
