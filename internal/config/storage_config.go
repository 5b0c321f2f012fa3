package config

const (
	storeBackendVar  = "STORE_BACKEND"
	redisAddrVar     = "REDIS_ADDR"
	redisPasswordVar = "REDIS_PASSWORD"
	redisDBVar       = "REDIS_DB"
	redisPrefixVar   = "REDIS_PREFIX"

	StoreBackendMemory = "memory"
	StoreBackendRedis  = "redis"
)

type Storage struct {
	Backend       string `yaml:"backend"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDB"`
	RedisPrefix   string `yaml:"redisPrefix"`
}

var _ StorageConfig = Storage{}

func (s Storage) GetStoreBackend() string {
	return GetEnv(storeBackendVar, orDefault(s.Backend, StoreBackendMemory))
}

func (s Storage) GetRedisAddr() string {
	return GetEnv(redisAddrVar, orDefault(s.RedisAddr, "localhost:6379"))
}

func (s Storage) GetRedisPassword() string {
	return GetEnv(redisPasswordVar, s.RedisPassword)
}

func (s Storage) GetRedisDB() int {
	return getInt(redisDBVar, s.RedisDB)
}

func (s Storage) GetRedisPrefix() string {
	return GetEnv(redisPrefixVar, orDefault(s.RedisPrefix, "storefront"))
}
