package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"

	"github.com/myrrc/ClickHouse"
	"github.com/spf13/cobra"
)

var (
	runCapBytes       int
	runMinChunkSize   int
	runValueAlignment int
	runKeys           int
	runIterations     int
	runValueSize      int
)

func init() {
	cmd := newRunCmd()
	cmd.Flags().IntVar(&runCapBytes, "cap-bytes", 16<<20, "overall mapped-memory cap")
	cmd.Flags().IntVar(&runMinChunkSize, "min-chunk-size", 0, "floor on a single chunk's size (0: package default)")
	cmd.Flags().IntVar(&runValueAlignment, "value-alignment", 0, "value alignment (0: package default)")
	cmd.Flags().IntVar(&runKeys, "keys", 256, "distinct keys in the synthetic workload")
	cmd.Flags().IntVar(&runIterations, "iterations", 10000, "GetOrSet calls to issue")
	cmd.Flags().IntVar(&runValueSize, "value-size", 256, "bytes written by each init call")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Drive a synthetic get-or-set workload and print cache stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkload()
		},
	}
}

func loadRunConfig() (grabcache.Config, error) {
	if configPath != "" {
		cfg, err := grabcache.LoadConfig(configPath)
		if err != nil {
			return grabcache.Config{}, err
		}

		return *cfg, nil
	}

	cfg := grabcache.Config{
		CapBytes:       runCapBytes,
		MinChunkSize:   runMinChunkSize,
		ValueAlignment: runValueAlignment,
	}

	if verbose {
		cfg.Logger = grabcache.NewTextLogger()
	}

	return cfg, nil
}

func runWorkload() error {
	cfg, err := loadRunConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	cache, err := grabcache.New[string, []byte](cfg)
	if err != nil {
		return fmt.Errorf("construct cache: %w", err)
	}

	for i := 0; i < runIterations; i++ {
		key := "key-" + strconv.Itoa(rand.Intn(runKeys))

		h, _, err := cache.GetOrSet(key,
			func() (int, error) { return runValueSize, nil },
			func(payload []byte) ([]byte, error) {
				for j := range payload {
					payload[j] = byte(j)
				}
				return payload, nil
			},
		)
		if err != nil {
			printInfo("iteration %d: %v\n", i, err)
			continue
		}

		if h != nil {
			h.Release()
		}
	}

	stats := cache.Stats()

	if jsonOut {
		enc := json.NewEncoder(rootCmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	printInfo("chunks=%d regions=%d (free=%d unused=%d used=%d)\n",
		stats.Chunks, stats.Regions, stats.FreeRegions, stats.UnusedRegions, stats.UsedRegions)
	printInfo("chunks_size=%d allocated=%d in_use=%d\n",
		stats.ChunksSize, stats.AllocatedSize, stats.InUseSize)
	printInfo("hits=%d misses=%d concurrent_hits=%d allocations=%d evictions=%d (secondary=%d) alloc_failures=%d\n",
		stats.Hits, stats.Misses, stats.ConcurrentHits, stats.Allocations, stats.Evictions, stats.SecondaryEvictions, stats.AllocFailures)

	return nil
}
