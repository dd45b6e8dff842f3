// Package testtypes defines small types used as dependencies in tests.
package testtypes

import "reflect"

var (
	TypeConfig      = reflect.TypeFor[*Config]()
	TypeDatabase    = reflect.TypeFor[*Database]()
	TypeCache       = reflect.TypeFor[Cache]()
	TypeMemoryCache = reflect.TypeFor[*MemoryCache]()
	TypeUserStore   = reflect.TypeFor[*UserStore]()
	TypeMailer      = reflect.TypeFor[*Mailer]()
)

type Config struct {
	Name string
}

func NewConfig() *Config {
	return &Config{Name: "default"}
}

type Database struct {
	URL string
}

func NewDatabase(cfg *Config) *Database {
	return &Database{URL: "db://" + cfg.Name}
}

type Cache interface {
	Get(key string) (string, bool)
}

type MemoryCache struct {
	Values map[string]string
}

func (c *MemoryCache) Get(key string) (string, bool) {
	v, ok := c.Values[key]
	return v, ok
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{Values: map[string]string{}}
}

type UserStore struct {
	DB    *Database
	Cache Cache
}

func NewUserStore(db *Database, cache Cache) *UserStore {
	return &UserStore{DB: db, Cache: cache}
}

type Mailer struct {
	From string
}
