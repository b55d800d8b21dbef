// Command blogauth-loadtest measures session store throughput against Redis.
//
// It seeds sessions, then runs a resolve phase and a sign-in/sign-out churn
// phase, reporting latency percentiles for each.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"text/tabwriter"
	"time"

	"github.com/MrEthical07/blogauth/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		sessions    = flag.Int("sessions", 100000, "number of sessions to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase (resolve + churn)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "bs", "session key prefix")
		ttl         = flag.Duration("ttl", 24*time.Hour, "session lifetime")
	)
	flag.Parse()

	if *sessions <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "sessions, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	client, label, cleanup, err := connect(*redisAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "redis: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()
	fmt.Printf("using %s\n", label)

	store := session.NewStore(client, *prefix)

	tokens := make([]string, *sessions)
	fmt.Printf("seeding %d sessions...\n", *sessions)
	startSeed := time.Now()
	for i := 0; i < *sessions; i++ {
		token, err := store.Create(ctx, fmt.Sprintf("user-%d", i), *ttl)
		if err != nil {
			fmt.Fprintf(os.Stderr, "create failed: %v\n", err)
			os.Exit(1)
		}
		tokens[i] = token
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	resolveStats := runPhase(*ops, *concurrency, 7919, func(r *rand.Rand) error {
		_, err := store.Resolve(ctx, tokens[r.Intn(len(tokens))])
		return err
	})
	churnStats := runPhase(*ops, *concurrency, 6151, func(r *rand.Rand) error {
		token, err := store.Create(ctx, fmt.Sprintf("user-%d", r.Intn(len(tokens))), *ttl)
		if err != nil {
			return err
		}
		return store.Destroy(ctx, token)
	})

	printReports(map[string]report{"resolve": resolveStats, "churn": churnStats}, "resolve", "churn")
}

// connect dials addr, falling back to REDIS_ADDR and then to an in-process
// miniredis.
func connect(addr string) (redis.UniversalClient, string, func(), error) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr != "" {
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		return client, "redis at " + addr, func() { _ = client.Close() }, nil
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, "", nil, fmt.Errorf("start miniredis: %w", err)
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	cleanup := func() {
		_ = client.Close()
		mr.Close()
	}
	return client, "miniredis at " + mr.Addr(), cleanup, nil
}

// runPhase executes op ops times across concurrency workers. Each worker keeps
// its own samples so the hot loop takes no lock.
func runPhase(ops, concurrency int, seed int64, op func(*rand.Rand) error) report {
	var (
		wg       sync.WaitGroup
		cursor   atomic.Int64
		failures atomic.Int64
	)
	perWorker := make([][]time.Duration, concurrency)

	start := time.Now()
	for w := range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(w)*seed))
			samples := make([]time.Duration, 0, ops/concurrency+1)
			for cursor.Add(1) <= int64(ops) {
				t0 := time.Now()
				if err := op(r); err != nil {
					failures.Add(1)
				}
				samples = append(samples, time.Since(t0))
			}
			perWorker[w] = samples
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	all := make([]time.Duration, 0, ops)
	for _, samples := range perWorker {
		all = append(all, samples...)
	}
	return summarize(elapsed, all, failures.Load())
}

type report struct {
	elapsed  time.Duration
	count    int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	max      time.Duration
}

func summarize(elapsed time.Duration, samples []time.Duration, failures int64) report {
	r := report{elapsed: elapsed, count: len(samples), failures: failures}
	if len(samples) == 0 {
		return r
	}
	slices.Sort(samples)
	at := func(q float64) time.Duration {
		return samples[int(q*float64(len(samples)-1))]
	}
	r.p50, r.p95, r.p99 = at(0.50), at(0.95), at(0.99)
	r.max = samples[len(samples)-1]
	return r
}

func (r report) throughput() float64 {
	if r.elapsed <= 0 {
		return 0
	}
	return float64(r.count) / r.elapsed.Seconds()
}

func printReports(reports map[string]report, order ...string) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "phase\tops\tfailures\telapsed\tops/sec\tp50\tp95\tp99\tmax")
	for _, name := range order {
		r := reports[name]
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%.0f\t%s\t%s\t%s\t%s\n",
			name, r.count, r.failures,
			r.elapsed.Round(time.Millisecond), r.throughput(),
			r.p50.Round(time.Microsecond), r.p95.Round(time.Microsecond),
			r.p99.Round(time.Microsecond), r.max.Round(time.Microsecond),
		)
	}
	_ = tw.Flush()
}
