package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"graduation-scanner/internal/domain"
)

const (
	formatAuto  = "auto"
	formatTable = "table"
	formatJSON  = "json"
)

func render(w io.Writer, format string, candidates []domain.Candidate) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(candidates)
	case formatTable:
		return writeTable(w, candidates)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeTable(w io.Writer, candidates []domain.Candidate) error {
	if len(candidates) == 0 {
		_, err := fmt.Fprintln(w, "no new candidates")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCORE\tSYMBOL\tMINT\tLIQUIDITY\tVOL 24H\tHOLDERS\tTOP10 %\tAGE\tSTATUS")
	for _, c := range candidates {
		m := c.Metrics
		fmt.Fprintf(tw, "%.1f\t%s\t%s\t$%.0f\t$%.0f\t%s\t%s\t%.1fh\t%s\n",
			c.Score,
			m.Symbol,
			shortMint(m.Mint),
			m.Liquidity,
			m.Volume24h,
			enrichedInt(m.Holders),
			enrichedPercent(m.TopHolderConcentration),
			m.TokenAgeHours,
			status(c),
		)
	}
	return tw.Flush()
}

func renderPresets(w io.Writer, format string) error {
	names := domain.PresetNames()
	if format == formatJSON {
		presets := make(map[string]domain.GraduationFilter, len(names))
		for _, n := range names {
			presets[n], _ = domain.FilterPreset(n)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(presets)
	}

	for _, n := range names {
		if _, err := fmt.Fprintln(w, n); err != nil {
			return err
		}
	}
	return nil
}

func passingOnly(candidates []domain.Candidate) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Passes {
			out = append(out, c)
		}
	}
	return out
}

func status(c domain.Candidate) string {
	if c.Passes {
		return "PASS"
	}
	return "FAIL: " + strings.Join(c.Failures, "; ")
}

func shortMint(mint string) string {
	if len(mint) <= 12 {
		return mint
	}
	return mint[:4] + ".." + mint[len(mint)-4:]
}

func enrichedInt(e domain.Enriched[int]) string {
	if !e.Known {
		return "?"
	}
	return strconv.Itoa(e.Value)
}

func enrichedPercent(e domain.Enriched[float64]) string {
	if !e.Known {
		return "?"
	}
	return strconv.FormatFloat(e.Value, 'f', 1, 64)
}
