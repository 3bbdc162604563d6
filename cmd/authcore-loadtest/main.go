package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/authcore/internal"
	"github.com/MrEthical07/authcore/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		sessions    = flag.Int("sessions", 100000, "number of sessions to seed")
		users       = flag.Int("users", 1000, "number of distinct users the sessions belong to")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "validate operations")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "authcore:loadtest", "session key prefix; a random run id is appended")
	)
	flag.Parse()

	if *sessions <= 0 || *users <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "sessions, users, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	runID, err := internal.NewSecretString(6)
	if err != nil {
		fmt.Fprintf(os.Stderr, "run id: %v\n", err)
		os.Exit(1)
	}
	keyPrefix := *prefix + ":" + runID

	svc, err := session.NewService(session.NewRedisStore(client, keyPrefix), session.Options{TTL: time.Hour})
	if err != nil {
		fmt.Fprintf(os.Stderr, "session service: %v\n", err)
		os.Exit(1)
	}

	tokens := make([]string, *sessions)
	fmt.Printf("seeding %d sessions under %s...\n", *sessions, keyPrefix)
	issueStats := runIssuePhase(ctx, svc, tokens, *users, *concurrency)

	validateStats := runValidatePhase(ctx, svc, tokens, *ops, *concurrency)
	revokeStats := runRevokePhase(ctx, svc, tokens, *concurrency)

	fmt.Println("---- results ----")
	printStats("issue", issueStats)
	printStats("validate", validateStats)
	printStats("revoke", revokeStats)
}

func runIssuePhase(ctx context.Context, svc *session.Service, tokens []string, users, concurrency int) phaseStats {
	return runPhase(len(tokens), concurrency, func(_ *rand.Rand, i int) bool {
		s, err := svc.Issue(ctx, fmt.Sprintf("user-%d", i%users))
		if err != nil {
			return false
		}
		tokens[i] = s.Token
		return true
	})
}

func runValidatePhase(ctx context.Context, svc *session.Service, tokens []string, ops, concurrency int) phaseStats {
	return runPhase(ops, concurrency, func(r *rand.Rand, _ int) bool {
		_, err := svc.Validate(ctx, tokens[r.Intn(len(tokens))])
		return err == nil
	})
}

// runRevokePhase revokes every seeded token, then counts replays that still
// validate as failures.
func runRevokePhase(ctx context.Context, svc *session.Service, tokens []string, concurrency int) phaseStats {
	stats := runPhase(len(tokens), concurrency, func(_ *rand.Rand, i int) bool {
		return svc.Revoke(ctx, tokens[i]) == nil
	})

	for _, token := range tokens {
		if _, err := svc.Validate(ctx, token); err == nil {
			stats.failures++
		}
	}
	return stats
}

// runPhase calls op ops times across concurrency workers. op reports success.
func runPhase(ops, concurrency int, op func(r *rand.Rand, i int) bool) phaseStats {
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
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				ok := op(r, i)
				d := time.Since(t0)
				if !ok {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
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
