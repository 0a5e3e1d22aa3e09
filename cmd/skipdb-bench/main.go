// Benchmarks the skip list core over seeded random workloads and prints a
// summary table per element count.

package main

import (
	"cmp"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/momu/skipdb/pkg/skiplist"
	"github.com/momu/skipdb/pkg/utils"
	"github.com/olekukonko/tablewriter"
)

var (
	sizesFlag    = flag.String("sizes", "1000,10000,100000", "Comma separated element counts to benchmark.")
	runsFlag     = flag.Int("runs", 5, "How many times to repeat each benchmark.")
	seedFlag     = flag.Int64("seed", time.Now().UnixNano(), "Seed for the workload and the list shape.")
	maxLevelFlag = flag.Int("max_level", 16, "Ceiling on skip list node level indexes.")
)

// buildWorkload generates `n` random key-value pairs from `rnd`.
func buildWorkload(n int, rnd *rand.Rand) []utils.Pair[int64, string] {
	pairs := make([]utils.Pair[int64, string], n)
	for i := range pairs {
		pairs[i] = utils.Pair[int64, string]{Key: rnd.Int63(), Value: "val-" + strconv.Itoa(i)}
	}
	return pairs
}

// benchOnce runs one set/get/delete pass of `n` elements and returns the
// phase durations.
func benchOnce(n int, seed int64) (setTime, getTime, deleteTime time.Duration) {
	rnd := rand.New(rand.NewSource(seed))
	pairs := buildWorkload(n, rnd)
	list := skiplist.New[int64, string](cmp.Compare,
		skiplist.WithMaxLevel(*maxLevelFlag), skiplist.WithSeed(seed))
	defer func() { _ = list.Close() }()

	start := time.Now()
	for _, pair := range pairs {
		if _, err := list.Set(pair.Key, pair.Value); err != nil {
			slog.Error("Benchmark set failed.", "error", err)
			os.Exit(1)
		}
	}
	setTime = time.Since(start)

	start = time.Now()
	for _, pair := range pairs {
		// Random keys may collide, so a miss is only possible for dup keys.
		_, _ = list.Get(pair.Key)
	}
	getTime = time.Since(start)

	start = time.Now()
	for _, pair := range pairs {
		_ = list.Delete(pair.Key)
	}
	deleteTime = time.Since(start)
	return setTime, getTime, deleteTime
}

// opsPerSecond converts an average per-pass duration into ops/s.
func opsPerSecond(n int, avg time.Duration) float64 {
	if avg <= 0 {
		return 0
	}
	return float64(n) / avg.Seconds()
}

func main() {
	flag.Parse()
	utils.InitLogging()

	var sizes []int
	for _, field := range strings.Split(*sizesFlag, ",") {
		size, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil || size <= 0 {
			slog.Error("Invalid -sizes entry.", "entry", field)
			os.Exit(2)
		}
		sizes = append(sizes, size)
	}

	var rows [][]string
	for _, n := range sizes {
		var setTotal, getTotal, deleteTotal time.Duration
		for run := 0; run < *runsFlag; run++ {
			setTime, getTime, deleteTime := benchOnce(n, *seedFlag+int64(run))
			setTotal += setTime
			getTotal += getTime
			deleteTotal += deleteTime
		}
		runs := time.Duration(*runsFlag)
		setAvg, getAvg, deleteAvg := setTotal/runs, getTotal/runs, deleteTotal/runs
		rows = append(rows, []string{
			strconv.Itoa(n),
			strconv.Itoa(*runsFlag),
			fmt.Sprintf("%.2f", float64(setAvg.Microseconds())/1000.0),
			fmt.Sprintf("%.2f", float64(getAvg.Microseconds())/1000.0),
			fmt.Sprintf("%.2f", float64(deleteAvg.Microseconds())/1000.0),
			fmt.Sprintf("%.0f", opsPerSecond(n, getAvg)),
		})
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"N", "Runs", "Set Avg(ms)", "Get Avg(ms)", "Del Avg(ms)", "Get Ops/s"})
	table.SetAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoWrapText(false)
	table.AppendBulk(rows)
	table.Render()
}
