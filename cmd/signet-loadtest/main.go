package main

import (
	"context"
	"crypto/ed25519"
	crand "crypto/rand"
	"crypto/rsa"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	signet "github.com/signetauth/signet"
	"github.com/signetauth/signet/denylist"
)

func main() {
	var (
		tokens      = flag.Int("tokens", 10000, "number of tokens to pre-sign for the verify phases")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase (sign + verify + denylist)")
		alg         = flag.String("alg", "HS256", "signing algorithm: HS256, RS256, or EdDSA")
		redisAddr   = flag.String("redis-addr", "", "redis address for the denylist phase; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "sd", "denylist key prefix")
	)
	flag.Parse()

	if *tokens <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "tokens, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	baseConfig, err := configFor(*alg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	engine, err := signet.NewEngine(baseConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

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

	fmt.Printf("pre-signing %d %s tokens...\n", *tokens, *alg)
	startSeed := time.Now()
	pool := make([]string, *tokens)
	tokenIDs := make([]string, *tokens)
	for i := range pool {
		token, err := engine.Sign(signet.Claims{"sub": fmt.Sprintf("load-%d", i)})
		if err != nil {
			fmt.Fprintf(os.Stderr, "sign failed: %v\n", err)
			os.Exit(1)
		}
		info, err := signet.Peek(token)
		if err != nil {
			fmt.Fprintf(os.Stderr, "peek failed: %v\n", err)
			os.Exit(1)
		}
		pool[i] = token
		tokenIDs[i] = info.Claims.String("jti")
	}
	fmt.Printf("pre-signed in %s\n", time.Since(startSeed).Round(time.Millisecond))

	signStats := runSignPhase(engine, *ops, *concurrency)
	verifyStats := runVerifyPhase(ctx, engine, pool, *ops, *concurrency)

	// Every eighth token is revoked before the denylist phase. Workers
	// then expect denial on exactly those tokens and success elsewhere.
	store := denylist.NewRedis(client, *prefix)
	until := time.Now().Add(time.Hour)
	for i := 0; i < len(tokenIDs); i += 8 {
		if err := store.Deny(ctx, tokenIDs[i], until); err != nil {
			fmt.Fprintf(os.Stderr, "deny failed: %v\n", err)
			os.Exit(1)
		}
	}

	denyConfig := baseConfig
	denyConfig.Validation.Validators = []signet.ClaimsValidator{denylist.Validator(store)}
	denyEngine, err := signet.NewEngine(denyConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "denylist engine: %v\n", err)
		os.Exit(1)
	}
	defer denyEngine.Close()

	denyStats := runDenylistPhase(ctx, denyEngine, pool, *ops, *concurrency)

	fmt.Println("---- results ----")
	printStats("sign", signStats)
	printStats("verify", verifyStats)
	printStats("denylist (1/8 revoked)", denyStats)

	snapshot := engine.MetricsSnapshot()
	fmt.Printf("engine counters: sign=%d verify_ok=%d verify_fail=%d\n",
		snapshot.Counters[signet.MetricSignSuccess],
		snapshot.Counters[signet.MetricVerifySuccess],
		snapshot.Counters[signet.MetricVerifyFailure],
	)
}

func configFor(alg string) (signet.Config, error) {
	cfg := signet.DefaultConfig()
	cfg.Claims.Issuer = "signet-loadtest"
	cfg.Claims.ExpiresIn = signet.In(time.Hour)
	cfg.Claims.GenerateJTI = true
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	switch alg {
	case "HS256":
		cfg.Keys.Signing = signet.SecretKey([]byte("loadtest-secret-0123456789abcdef"))
	case "RS256":
		priv, err := rsa.GenerateKey(crand.Reader, 2048)
		if err != nil {
			return signet.Config{}, err
		}
		cfg.Keys.Signing, err = signet.PrivateKey(priv)
		if err != nil {
			return signet.Config{}, err
		}
	case "EdDSA":
		_, priv, err := ed25519.GenerateKey(crand.Reader)
		if err != nil {
			return signet.Config{}, err
		}
		cfg.Keys.Signing, err = signet.PrivateKey(priv)
		if err != nil {
			return signet.Config{}, err
		}
	default:
		return signet.Config{}, fmt.Errorf("unknown algorithm %q", alg)
	}
	return cfg, nil
}

func runSignPhase(engine *signet.Engine, ops, concurrency int) phaseStats {
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
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				_, err := engine.Sign(signet.Claims{"sub": fmt.Sprintf("w-%d", worker)})
				d := time.Since(t0)
				if err != nil {
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

func runVerifyPhase(ctx context.Context, engine *signet.Engine, pool []string, ops, concurrency int) phaseStats {
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
				idx := r.Intn(len(pool))
				t0 := time.Now()
				_, err := engine.Verify(ctx, pool[idx])
				d := time.Since(t0)
				if err != nil {
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

func runDenylistPhase(ctx context.Context, engine *signet.Engine, pool []string, ops, concurrency int) phaseStats {
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
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*6151))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				idx := r.Intn(len(pool))
				revoked := idx%8 == 0
				t0 := time.Now()
				_, err := engine.Verify(ctx, pool[idx])
				d := time.Since(t0)
				// A revoked token verifying, or a live one failing,
				// is a harness failure in either direction.
				if revoked == (err == nil) {
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
