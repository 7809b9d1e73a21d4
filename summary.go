package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"docbench/benchmark"
	"docbench/util"
	"docbench/worker"

	"github.com/olekukonko/tablewriter"
)

type ProcessedResult struct {
	name  string
	rt    float64
	ct    float64
	tps   float64
	ar    float64
	rtP95 float64
}

// Computes the average value of a list of results
func avgMetric(results []ProcessedResult, metric string) float64 {
	var total float64

	for _, r := range results {
		switch metric {
		case "rt":
			total += r.rt
		case "ct":
			total += r.ct
		case "tps":
			total += r.tps
		case "ar":
			total += r.ar
		case "rtP95":
			total += r.rtP95
		}
	}

	return total / float64(len(results))
}

func ratio(a float64, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// Combines the results of every run of a scenario.
// Both the throughput (tps) and response time (rt) consider only the completed operations
func aggregateResults(allResults [][]*worker.BenchmarkResults) map[string]ProcessedResult {
	// metric -> values of each run
	processedResults := map[string][]ProcessedResult{}

	// process the results of all runs
	for _, results := range allResults {
		rts := map[string][]float64{}
		totalRts := map[string]float64{}
		completeCounts := map[string]int{}
		abortCounts := map[string]int{}
		tps := map[string]float64{}
		totalCompleted := 0
		totalAborted := 0
		totalRt := 0.
		totalTps := 0.
		allRts := []float64{}

		// combine the results of all workers
		for _, result := range results {
			for operation, value := range result.Operations {
				rts[operation] = append(rts[operation], value.Rts...)
				totalRts[operation] += value.TotalRt
				completeCounts[operation] += value.CompleteCount
				abortCounts[operation] += value.AbortCount
				tps[operation] += ratio(float64(value.CompleteCount), result.RealDuration)
				totalCompleted += value.CompleteCount
				totalAborted += value.AbortCount
				totalRt += value.TotalRt
				totalTps += ratio(float64(value.CompleteCount), result.RealDuration)
				allRts = append(allRts, value.Rts...)
			}
		}

		// add the run averages to all averages
		for k := range rts {
			processedResults[k] = append(processedResults[k], ProcessedResult{
				name:  k,
				rt:    ratio(totalRts[k], float64(completeCounts[k])),
				ct:    float64(completeCounts[k]),
				tps:   tps[k],
				ar:    ratio(float64(abortCounts[k]), float64(abortCounts[k]+completeCounts[k])),
				rtP95: util.Percentile(rts[k], 95),
			})
		}

		// average of all operations
		processedResults["total"] = append(processedResults["total"], ProcessedResult{
			name:  "total",
			rt:    ratio(totalRt, float64(totalCompleted)),
			ct:    float64(totalCompleted),
			tps:   totalTps,
			ar:    ratio(float64(totalAborted), float64(totalAborted+totalCompleted)),
			rtP95: util.Percentile(allRts, 95),
		})
	}

	aggregated := map[string]ProcessedResult{}
	for k, v := range processedResults {
		aggregated[k] = ProcessedResult{
			name:  k,
			rt:    avgMetric(v, "rt"),
			tps:   avgMetric(v, "tps"),
			ar:    avgMetric(v, "ar"),
			ct:    avgMetric(v, "ct"),
			rtP95: avgMetric(v, "rtP95"),
		}
	}

	return aggregated
}

func printSummary(out io.Writer,
	aggregated map[string]ProcessedResult,
	args *BenchmarkArgs,
	scenario benchmark.Scenario,
	nWorkers int,
	benchmarkConfigs map[string]string,
	benchmarkMetrics map[string]string,
	firstLine bool,
) {
	sortedConfigs := util.SortedKeys(benchmarkConfigs)
	sortedMetrics := util.SortedKeys(benchmarkMetrics)

	// CSV header
	if firstLine {
		header := "benchmark,scenario,phase,kind,time,transactions,runs,workers"
		if len(sortedConfigs) > 0 {
			header += "," + strings.Join(sortedConfigs, ",")
		}
		if len(sortedMetrics) > 0 {
			fmt.Fprintln(out, "Csv:"+header+","+strings.Join(sortedMetrics, ",")+",rt,tps,ct,ar,rtP95")
		} else {
			fmt.Fprintln(out, "Csv:"+header+",rt,tps,ct,ar,rtP95")
		}
		fmt.Fprintln(out, "CsvOps:"+header+",operation,rt,tps,ct,ar,rtP95")
	}

	common := fmt.Sprintf("%s,%s,%s,%s,%d,%d,%d,%d", args.Benchmark, scenario.Name(), scenario.Phase,
		scenario.Kind, args.Time, args.Transactions, args.Runs, nWorkers)
	// string for the benchmark specific metrics ("Csv:" prefix)
	csv := "Csv:" + common
	// string for the operations ("CsvOps:" prefix)
	csvOps := "CsvOps:" + common
	// string with metrics in a key-value format to ease reading
	kv := fmt.Sprintf("benchmark: %s\nscenario: %s\ntime: %d\ntransactions: %d\nruns: %d\nworkers: %d",
		args.Benchmark, scenario.Name(), args.Time, args.Transactions, args.Runs, nWorkers)

	// write benchmark-specific configs
	for _, config := range sortedConfigs {
		csv += fmt.Sprintf(",%s", benchmarkConfigs[config])
		csvOps += fmt.Sprintf(",%s", benchmarkConfigs[config])
		kv += fmt.Sprintf("\n%s: %s", config, benchmarkConfigs[config])
	}

	// write benchmark-specific metrics
	for _, metric := range sortedMetrics {
		csv += fmt.Sprintf(",%s", benchmarkMetrics[metric])
		kv += fmt.Sprintf("\n%s: %s", metric, benchmarkMetrics[metric])
	}

	// write the results of each operation
	for _, metric := range util.SortedKeys(aggregated) {
		result := aggregated[metric]
		if metric == "total" {
			kv += fmt.Sprintf("\nrt: %.6f", result.rt)
			kv += fmt.Sprintf("\ntps: %.6f", result.tps)
			kv += fmt.Sprintf("\nct: %.6f", result.ct)
			kv += fmt.Sprintf("\nar: %.6f", result.ar)
			kv += fmt.Sprintf("\nrtP95: %.6f", result.rtP95)
			csv += fmt.Sprintf(",%.6f,%.3f,%.0f,%.6f,%.6f", result.rt, result.tps, result.ct, result.ar, result.rtP95)
		}
		fmt.Fprintln(out, csvOps+fmt.Sprintf(",%s,%.6f,%.3f,%.0f,%.6f,%.6f", metric, result.rt, result.tps, result.ct, result.ar, result.rtP95))
	}

	fmt.Fprintln(out, csv)
	fmt.Fprintln(out, kv)
}

// summaryTable collects one row per scenario and worker count and prints
// them together at the end of the benchmark
type summaryTable struct {
	table *tablewriter.Table
	rows  int
}

func newSummaryTable(out io.Writer) *summaryTable {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Scenario", "Workers", "Mean (ms)", "P95 (ms)", "Ops/s", "Completed", "Abort rate"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	return &summaryTable{table: table}
}

func (s *summaryTable) add(scenario benchmark.Scenario, nWorkers int, result ProcessedResult) {
	s.table.Append([]string{
		scenario.Name(),
		strconv.Itoa(nWorkers),
		strconv.FormatFloat(result.rt*1000, 'f', 3, 64),
		strconv.FormatFloat(result.rtP95*1000, 'f', 3, 64),
		strconv.FormatFloat(result.tps, 'f', 1, 64),
		strconv.FormatFloat(result.ct, 'f', 0, 64),
		strconv.FormatFloat(result.ar, 'f', 4, 64),
	})
	s.rows++
}

func (s *summaryTable) render() {
	if s.rows > 0 {
		s.table.Render()
	}
}
