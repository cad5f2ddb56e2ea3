// Command splitcast-demo drives a live Splitter with a synthetic
// producer and a configurable number of consumers, printing periodic
// backlog/drop snapshots. It exists purely to exercise pkg/splitcast end
// to end; it has no protocol or persistence of its own.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/twmb/splitcast/pkg/splitcast"
)

type demoOptions struct {
	MaxBuffers  int
	MaxClients  int
	Clients     int
	Rate        time.Duration
	PutTimeout  time.Duration
	GetTimeout  time.Duration
	RunDuration time.Duration
}

func newDemoOptions() *demoOptions {
	return &demoOptions{
		MaxBuffers:  getDefaultServeOptionInt("SPLITCAST_MAX_BUFFERS", 8),
		MaxClients:  getDefaultServeOptionInt("SPLITCAST_MAX_CLIENTS", 16),
		Clients:     getDefaultServeOptionInt("SPLITCAST_CLIENTS", 3),
		Rate:        getDefaultServeOptionDuration("SPLITCAST_RATE", 100*time.Millisecond),
		PutTimeout:  getDefaultServeOptionDuration("SPLITCAST_PUT_TIMEOUT", 50*time.Millisecond),
		GetTimeout:  getDefaultServeOptionDuration("SPLITCAST_GET_TIMEOUT", 500*time.Millisecond),
		RunDuration: getDefaultServeOptionDuration("SPLITCAST_RUN_DURATION", 10*time.Second),
	}
}

func newRootCmd() *cobra.Command {
	opts := newDemoOptions()

	cmd := &cobra.Command{
		Use:     "splitcast-demo",
		Short:   "Drive a live splitcast.Splitter with a synthetic workload.",
		Long:    "Drive a live splitcast.Splitter with a synthetic workload.",
		Example: "splitcast-demo --clients 5 --rate 50ms",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntVar(&opts.MaxBuffers, "max-buffers", opts.MaxBuffers, "per-client FIFO depth")
	cmd.Flags().IntVar(&opts.MaxClients, "max-clients", opts.MaxClients, "maximum registered clients")
	cmd.Flags().IntVar(&opts.Clients, "clients", opts.Clients, "number of synthetic consumers to run")
	cmd.Flags().DurationVar(&opts.Rate, "rate", opts.Rate, "producer frame interval")
	cmd.Flags().DurationVar(&opts.PutTimeout, "put-timeout", opts.PutTimeout, "producer deadline per frame")
	cmd.Flags().DurationVar(&opts.GetTimeout, "get-timeout", opts.GetTimeout, "consumer deadline per Get")
	cmd.Flags().DurationVar(&opts.RunDuration, "run-duration", opts.RunDuration, "how long to run before exiting")

	return cmd
}

func runDemo(ctx context.Context, opts *demoOptions) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	s, err := splitcast.New(splitcast.Config{
		MaxBuffers: opts.MaxBuffers,
		MaxClients: opts.MaxClients,
	})
	if err != nil {
		return err
	}

	ids := make([]splitcast.ClientID, 0, opts.Clients)
	for i := 0; i < opts.Clients; i++ {
		id, ok := s.ClientAdd()
		if !ok {
			log.Error().Msgf("splitcast-demo: client limit reached after %d clients", i)
			break
		}
		ids = append(ids, id)
	}

	runCtx, stop := context.WithTimeout(ctx, opts.RunDuration)
	defer stop()

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go consumeLoop(runCtx, &wg, s, id, opts.GetTimeout)
	}

	go reportLoop(runCtx, s)

	produceLoop(runCtx, s, opts.Rate, opts.PutTimeout)
	wg.Wait()
	s.Close()
	return nil
}

func produceLoop(ctx context.Context, s *splitcast.Splitter, rate, putTimeout time.Duration) {
	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	var seq uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			seq++
			payload := make([]byte, 8)
			for i := range payload {
				payload[i] = byte(rand.Intn(256))
			}
			f := splitcast.NewFrame(payload)
			result := s.Put(ctx, f, putTimeout)
			f.Release()
			log.Debug().Uint64("seq", seq).Stringer("result", result).Msg("splitcast-demo: put")
		}
	}
}

func consumeLoop(ctx context.Context, wg *sync.WaitGroup, s *splitcast.Splitter, id splitcast.ClientID, getTimeout time.Duration) {
	defer wg.Done()
	for {
		f, result := s.Get(ctx, id, getTimeout)
		switch result {
		case splitcast.OK:
			f.Release()
		case splitcast.Eos:
			return
		case splitcast.Timeout:
			select {
			case <-ctx.Done():
				return
			default:
			}
		default:
			return
		}
	}
}

func reportLoop(ctx context.Context, s *splitcast.Splitter) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			it := s.BeginClientsIteration()
			n := it.Count()
			for i := 0; i < n; i++ {
				id, latency, drops, ok := it.ByIndex(i)
				if !ok {
					continue
				}
				fmt.Printf("client %d: latency=%d drops=%d\n", id, latency, drops)
			}
			it.End()
		}
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal().Err(err).Msg("splitcast-demo: fatal error")
	}
}
