package pager

import "github.com/ysakurai/bojstat-go/pkg/boj"

const maxChunkSize = 250

// PlanCodeChunks builds the Chunk Plan for a getDataCode request.
//
//   - strict_api: the plan is the singleton original list, unsplit,
//     even past the server's documented ceiling — the server's own
//     rejection (e.g. M181007E) is the intended signal in that mode.
//   - auto_split_codes: codes are partitioned by inferred frequency
//     first (frequency-unknown codes all share one partition group,
//     like any other frequency), partitions appear in first-seen
//     order, and each partition is then sliced into sub-lists of at
//     most 250, preserving relative order within the partition.
//   - neither flag: a plain size-only split into sub-lists of at most
//     250, preserving input order throughout.
func PlanCodeChunks(req boj.Request) ([][]string, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.StrictAPI {
		plan := make([]string, len(req.Codes))
		copy(plan, req.Codes)
		return [][]string{plan}, nil
	}
	if req.AutoSplitCodes {
		return splitByFrequencyAndSize(req.Codes, maxChunkSize), nil
	}
	return splitBySize(req.Codes, maxChunkSize), nil
}

func splitBySize(codes []string, size int) [][]string {
	if len(codes) == 0 {
		return [][]string{{}}
	}
	var out [][]string
	for i := 0; i < len(codes); i += size {
		end := i + size
		if end > len(codes) {
			end = len(codes)
		}
		out = append(out, append([]string(nil), codes[i:end]...))
	}
	return out
}

func splitByFrequencyAndSize(codes []string, size int) [][]string {
	order := make([]boj.Frequency, 0)
	groups := make(map[boj.Frequency][]string)
	for _, code := range codes {
		f := GuessFrequencyFromCode(code)
		if _, seen := groups[f]; !seen {
			order = append(order, f)
		}
		groups[f] = append(groups[f], code)
	}

	var out [][]string
	for _, f := range order {
		out = append(out, splitBySize(groups[f], size)...)
	}
	if len(out) == 0 {
		return [][]string{{}}
	}
	return out
}
