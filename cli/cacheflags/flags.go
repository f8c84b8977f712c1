package cacheflags

import (
	"flag"

	"github.com/brimdata/iql/config"
	"github.com/brimdata/iql/resultcache"
	"github.com/prometheus/client_golang/prometheus"
)

type Flags struct {
	Config config.Cache
}

// SetFlags binds the result cache flags to f.Config.  The current values
// of f.Config are the flag defaults.
func (f *Flags) SetFlags(fs *flag.FlagSet) {
	fs.Var(&f.Config.Kind, "resultcache.kind", "kind of result cache (values: none, local, redis)")
	fs.IntVar(&f.Config.LocalEntries, "resultcache.local.entries", f.Config.LocalEntries, "number of results to keep in the local cache")
	fs.Var(&f.Config.LocalMaxEntrySize, "resultcache.local.maxentry", "largest compressed result kept in the local cache, as '16MiB' or '512KiB'")
	fs.StringVar(&f.Config.RedisAddr, "resultcache.redis.addr", f.Config.RedisAddr, "address of the redis server")
	fs.DurationVar(&f.Config.RedisKeyExpiration, "resultcache.redis.keyexpiry", f.Config.RedisKeyExpiration, "expiration duration of cached results")
}

func (f *Flags) Open(reg prometheus.Registerer) (resultcache.Cache, error) {
	return f.Config.Open(reg)
}
