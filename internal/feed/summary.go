package feed

import "sort"

const displayTop = 3

type SummaryEntry struct {
	Kind  ReactionKind
	Count int
}

type DisplaySummary struct {
	Top   []SummaryEntry
	All   []SummaryEntry
	Total int
}

// Summarize orders kinds by count, highest first, breaking ties by declaration order.
// Top holds at most three entries for the compact view, All is used by the tooltip.
func Summarize(state ReactionState) DisplaySummary {
	all := make([]SummaryEntry, 0, len(state.Summary))
	for _, kind := range ReactionKinds {
		if count := state.Summary[kind]; count > 0 {
			all = append(all, SummaryEntry{Kind: kind, Count: count})
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Count > all[j].Count
	})

	top := all
	if len(top) > displayTop {
		top = top[:displayTop]
	}

	return DisplaySummary{
		Top:   append([]SummaryEntry(nil), top...),
		All:   all,
		Total: state.Total,
	}
}
