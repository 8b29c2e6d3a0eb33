package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/pprof"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"

	"github.com/IvanBrykalov/artifactcache/cache"
	"github.com/IvanBrykalov/artifactcache/config"
	pmet "github.com/IvanBrykalov/artifactcache/metrics/prom"
	"github.com/IvanBrykalov/artifactcache/policy/lru"
	"github.com/IvanBrykalov/artifactcache/sizer"
)

type benchParams struct {
	policy   string
	workers  int
	duration time.Duration
	readPct  int
	keys     int
	zipfS    float64
	zipfV    float64
	seed     int64
	preload  int
	pprof    string
}

func benchCommand() *cli.Command {
	return &cli.Command{
		Name:  "bench",
		Usage: "run a synthetic Zipf workload against the cache",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "cap", Usage: "entry capacity (default cache.capacity)"},
			&cli.StringFlag{Name: "policy", Value: "priority", Usage: "eviction policy: priority | lru"},
			&cli.IntFlag{Name: "workers", Value: 2 * runtime.GOMAXPROCS(0), Usage: "worker goroutines"},
			&cli.DurationFlag{Name: "duration", Value: 10 * time.Second, Usage: "benchmark duration"},
			&cli.IntFlag{Name: "reads", Value: 80, Usage: "read percentage [0..100]"},
			&cli.IntFlag{Name: "keys", Value: 1_000_000, Usage: "keyspace size"},
			&cli.FloatFlag{Name: "zipf_s", Value: 1.1, Usage: "Zipf s > 1 (skew)"},
			&cli.FloatFlag{Name: "zipf_v", Value: 1.0, Usage: "Zipf v >= 1"},
			&cli.Int64Flag{Name: "seed", Usage: "random seed (0 = time-based)"},
			&cli.IntFlag{Name: "preload", Usage: "entries to preload (0 = cap/2)"},
			&cli.StringFlag{Name: "pprof", Usage: "serve pprof at addr (e.g. :6060)"},
			&cli.StringFlag{Name: "http", Usage: "serve Prometheus metrics at addr (default metrics.addr)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			if c := cmd.Int("cap"); c > 0 {
				e.cfg.Cache.Capacity = c
			}
			if addr := cmd.String("http"); addr != "" {
				e.cfg.Metrics.Addr = addr
			}
			return runBench(ctx, e, benchParams{
				policy:   cmd.String("policy"),
				workers:  cmd.Int("workers"),
				duration: cmd.Duration("duration"),
				readPct:  cmd.Int("reads"),
				keys:     cmd.Int("keys"),
				zipfS:    cmd.Float("zipf_s"),
				zipfV:    cmd.Float("zipf_v"),
				seed:     cmd.Int64("seed"),
				preload:  cmd.Int("preload"),
				pprof:    cmd.String("pprof"),
			})
		},
	}
}

func runBench(ctx context.Context, e *env, p benchParams) error {
	if p.keys < 1 || p.zipfS <= 1 || p.zipfV < 1 || p.readPct < 0 || p.readPct > 100 {
		return fmt.Errorf("%w: need keys >= 1, zipf_s > 1, zipf_v >= 1, reads in [0,100]", errUsage)
	}
	if p.workers <= 0 {
		p.workers = 1
	}
	if p.seed == 0 {
		p.seed = time.Now().UnixNano()
	}

	// Private registry so repeated runs in one process do not collide.
	reg := prometheus.NewRegistry()
	metrics := pmet.New(reg, e.cfg.Metrics.Namespace, e.cfg.Metrics.Subsystem, prometheus.Labels{"policy": p.policy})

	if p.pprof != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
		stop := serve(ctx, e, "pprof", p.pprof, mux)
		defer stop()
	}
	if e.cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		stop := serve(ctx, e, "metrics", e.cfg.Metrics.Addr, mux)
		defer stop()
	}

	opt := config.CacheOptions[string](e.cfg.Cache, e.log)
	opt.Size = sizer.String
	opt.Metrics = metrics
	switch p.policy {
	case "priority":
		// nil => priority policy by default
	case "lru":
		opt.Policy = lru.New()
	default:
		return fmt.Errorf("%w: unknown policy %q (use priority or lru)", errUsage, p.policy)
	}
	c, err := cache.New[string](opt)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	// Preload half capacity to get a realistic hit-rate.
	pl := p.preload
	if pl == 0 {
		pl = opt.Capacity / 2
	}
	for i := 0; i < pl; i++ {
		c.Put("k:"+strconv.Itoa(i), "v"+strconv.Itoa(i), i%100)
	}

	var reads, writes, hits, total atomic.Uint64
	runCtx, cancel := context.WithTimeout(ctx, p.duration)
	defer cancel()

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(p.workers)
	for w := 0; w < p.workers; w++ {
		go func(id int) {
			defer wg.Done()

			// rand.Rand is not goroutine-safe; one per worker.
			r := rand.New(rand.NewSource(p.seed + int64(id)*9973))
			zipf := rand.NewZipf(r, p.zipfS, p.zipfV, uint64(p.keys-1))

			for runCtx.Err() == nil {
				total.Add(1)
				n := zipf.Uint64()
				k := "k:" + strconv.FormatUint(n, 10)
				if int(r.Int31n(100)) < p.readPct {
					reads.Add(1)
					if _, ok := c.Get(k); ok {
						hits.Add(1)
					}
					continue
				}
				writes.Add(1)
				// Hot (low-rank) keys get higher priority, like ranked artifacts.
				prio := 100 - int(min(n, 100))
				c.Put(k, "v"+strconv.Itoa(r.Int()), prio)
			}
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	ops, readsN, hitsN := total.Load(), reads.Load(), hits.Load()
	hitRate := 0.0
	if readsN > 0 {
		hitRate = float64(hitsN) / float64(readsN) * 100
	}
	st := c.Stats()

	fmt.Fprintf(e.out, "policy=%s cap=%d workers=%d keys=%d dur=%v seed=%d\n",
		p.policy, opt.Capacity, p.workers, p.keys, elapsed.Round(time.Millisecond), p.seed)
	fmt.Fprintf(e.out, "ops=%d (%.0f ops/s)  reads=%d  writes=%d\n",
		ops, float64(ops)/elapsed.Seconds(), readsN, writes.Load())
	fmt.Fprintf(e.out, "hits=%d  misses=%d  hit-rate=%.2f%%\n", hitsN, readsN-hitsN, hitRate)
	fmt.Fprintf(e.out, "entries=%d  evictions=%d  high-priority=%d  frequent=%d\n",
		st.Entries, st.Evictions, st.HighPriority, st.Frequent)
	return nil
}

// serve runs an HTTP server until the returned stop func is called.
func serve(ctx context.Context, e *env, name, addr string, h http.Handler) (stop func()) {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		e.log.Info("serving", "endpoint", name, "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.log.Error("server failed", "endpoint", name, "err", err)
		}
	}()
	return func() {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}
}
