// Command session-loadtest drives many independent session stores against
// one Redis instance and reports login, restore and read latencies.
//
// Each simulated client owns its own store and client key, so the run
// exercises record persistence, limiter counters and the lock-free read path
// the way a fleet of kiosks sharing a Redis would.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/identity"
	"github.com/alicebob/miniredis/v2"
	"github.com/jessevdk/go-flags"
	"github.com/redis/go-redis/v9"
)

type options struct {
	Clients     int    `long:"clients" default:"1000" description:"number of simulated clients"`
	Concurrency int    `long:"concurrency" default:"64" description:"number of concurrent workers"`
	Reads       int    `long:"reads" default:"200000" description:"Current() calls in the read phase"`
	RedisAddr   string `long:"redis-addr" env:"REDIS_ADDR" description:"redis address; an embedded miniredis is used when empty"`
	Prefix      string `long:"prefix" default:"gsload" description:"redis key prefix"`
}

func main() {
	opts := &options{}
	if _, err := flags.Parse(opts); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		os.Exit(2)
	}

	if opts.Clients <= 0 || opts.Concurrency <= 0 || opts.Reads <= 0 {
		fmt.Fprintln(os.Stderr, "clients, concurrency, and reads must be > 0")
		os.Exit(2)
	}

	client, cleanup, err := connect(opts.RedisAddr)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	ctx := context.Background()
	provider := identity.NewStatic(goSession.Identity{UserID: "load-user", Username: "load", Role: "member"})

	stores := make([]*goSession.Store, opts.Clients)
	for i := range stores {
		s, err := buildStore(client, provider, opts.Prefix, i)
		if err != nil {
			log.Fatal(err)
		}
		stores[i] = s
	}

	loginStats := runPhase(opts.Clients, opts.Concurrency, func(i int) error {
		return stores[i].Login(ctx, goSession.Credentials{Identifier: "client-" + strconv.Itoa(i)})
	})

	// A second fleet over the same keys restores what the first one persisted.
	restored := make([]*goSession.Store, opts.Clients)
	for i := range restored {
		s, err := buildStore(client, provider, opts.Prefix, i)
		if err != nil {
			log.Fatal(err)
		}
		restored[i] = s
	}
	restoreStats := runPhase(opts.Clients, opts.Concurrency, func(i int) error {
		if err := restored[i].Restore(ctx); err != nil {
			return err
		}
		if !restored[i].Current().Authenticated() {
			return errors.New("session not restored")
		}
		return nil
	})

	readStats := runPhase(opts.Reads, opts.Concurrency, func(i int) error {
		if !stores[i%len(stores)].Current().Authenticated() {
			return errors.New("unexpected unauthenticated read")
		}
		return nil
	})

	logoutStats := runPhase(opts.Clients, opts.Concurrency, func(i int) error {
		return restored[i].Logout(ctx)
	})

	for i := range stores {
		stores[i].Close()
		restored[i].Close()
	}

	fmt.Println("---- results ----")
	printStats("login", loginStats)
	printStats("restore", restoreStats)
	printStats("current", readStats)
	printStats("logout", logoutStats)
}

func connect(addr string) (redis.UniversalClient, func(), error) {
	if addr != "" {
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		fmt.Printf("using redis at %s\n", addr)
		return client, func() { _ = client.Close() }, nil
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, fmt.Errorf("start miniredis: %w", err)
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	fmt.Printf("using miniredis at %s\n", mr.Addr())
	return client, func() {
		_ = client.Close()
		mr.Close()
	}, nil
}

func buildStore(client redis.UniversalClient, provider goSession.IdentityProvider, prefix string, i int) (*goSession.Store, error) {
	cfg := goSession.DefaultConfig()
	cfg.Session.ClientKey = "client-" + strconv.Itoa(i)
	cfg.Session.RedisPrefix = prefix
	cfg.Metrics.EnableLatencyHistograms = true

	return goSession.New().
		WithConfig(cfg).
		WithRedis(client).
		WithIdentityProvider(provider).
		Build()
}

func runPhase(ops, concurrency int, op func(i int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(i)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
