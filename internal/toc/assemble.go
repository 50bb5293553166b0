package toc

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/jessemcg/Dog-Ear/internal/match"
	"github.com/jessemcg/Dog-Ear/internal/pattern"
)

// Assembler fans page matching out across a bounded worker pool and
// merges the results into one ordered entry sequence. The zero value
// runs serially with no logging.
type Assembler struct {
	Concurrency int
	Stats       *match.Stats
	Log         *slog.Logger
}

type scanTask struct {
	groupIdx int
	pageIdx  int
}

type scanResult struct {
	groupIdx int
	pageIdx  int
	records  []match.Record
}

// Assemble matches every group against every page and returns entries
// sorted by (group rank, page index, match offset), with sequential
// ids. Within one group a repeated (label, page) pair is dropped,
// first occurrence wins. Re-running on unchanged inputs produces an
// identical sequence.
func (a *Assembler) Assemble(ctx context.Context, pages []string, groups []pattern.Group) ([]Entry, error) {
	start := time.Now()

	tasks := make([]scanTask, 0, len(groups)*len(pages))
	for g := range groups {
		for p := range pages {
			tasks = append(tasks, scanTask{groupIdx: g, pageIdx: p})
		}
	}

	concurrency := a.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	// Fan out matcher invocations, fan in before the sort barrier.
	results := make(chan scanResult, len(tasks))
	sem := make(chan struct{}, concurrency)
	for _, task := range tasks {
		sem <- struct{}{}
		go func(task scanTask) {
			defer func() { <-sem }()
			records := match.Scan(groups[task.groupIdx], task.pageIdx, pages[task.pageIdx])
			results <- scanResult{groupIdx: task.groupIdx, pageIdx: task.pageIdx, records: records}
		}(task)
	}

	// collected[g][p] holds the records for page p of group g.
	collected := make([]map[int][]match.Record, len(groups))
	for g := range collected {
		collected[g] = make(map[int][]match.Record)
	}
	for range tasks {
		select {
		case r := <-results:
			if len(r.records) > 0 {
				collected[r.groupIdx][r.pageIdx] = r.records
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	var entries []Entry
	nextID := 0
	for g, group := range groups {
		pageIdxs := make([]int, 0, len(collected[g]))
		for p := range collected[g] {
			pageIdxs = append(pageIdxs, p)
		}
		sort.Ints(pageIdxs)

		seen := make(map[string]bool)
		seq := 0
		for _, p := range pageIdxs {
			records := collected[g][p]
			// Records for one page arrive in pattern order; the
			// stable sort by offset keeps the earlier pattern
			// first when two patterns hit the same position.
			sort.SliceStable(records, func(i, j int) bool {
				return records[i].Offset < records[j].Offset
			})
			for _, r := range records {
				dedupKey := fmt.Sprintf("%s\x00%d", r.Label, r.PageIndex)
				if seen[dedupKey] {
					continue
				}
				seen[dedupKey] = true
				nextID++
				entries = append(entries, Entry{
					ID:        fmt.Sprintf("e%04d", nextID),
					GroupName: group.Name,
					Label:     r.Label,
					PageIndex: r.PageIndex,
					Offset:    r.Offset,
					Key:       Key{Rank: g, Seq: seq},
				})
				seq++
			}
		}
	}

	if a.Stats != nil {
		a.Stats.Record(time.Since(start).Milliseconds(), len(pages), len(entries))
	}
	if a.Log != nil {
		a.Log.Debug("assembly complete",
			"pages", len(pages),
			"groups", len(groups),
			"entries", len(entries),
			"duration_ms", time.Since(start).Milliseconds())
	}
	return entries, nil
}
