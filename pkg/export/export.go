// Package export writes the pipeline's output tables in CSV form for the
// downstream reporting collaborators.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/velib-tools/rebalance/core/model"
)

// WriteRecords writes the evaluated-pattern table.
func WriteRecords(w io.Writer, records []model.SimulationRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"station", "sign", "pattern", "feasible", "min_ratio", "max_ratio"}); err != nil {
		return err
	}
	for _, r := range records {
		rec := []string{
			r.Station,
			r.Sign.String(),
			r.Pattern.String(),
			strconv.FormatBool(r.Feasible),
			strconv.FormatFloat(r.MinRatio, 'f', -1, 64),
			strconv.FormatFloat(r.MaxRatio, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFrontiers writes the frontier table. Pattern lists are "|"-joined.
func WriteFrontiers(w io.Writer, frontiers []model.Frontier) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"station", "sign", "frontier_low", "frontier_high"}); err != nil {
		return err
	}
	for _, f := range frontiers {
		rec := []string{
			f.Station,
			f.Sign.String(),
			joinPatterns(f.Low),
			joinPatterns(f.High),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteVisitPlans writes the theoretical visit-plan table.
func WriteVisitPlans(w io.Writer, plans []model.VisitPlan) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"station", "sign", "pattern", "success", "score"}); err != nil {
		return err
	}
	for _, p := range plans {
		rec := []string{
			p.Station,
			p.Sign.String(),
			p.Pattern.String(),
			strconv.FormatBool(p.Success),
			strconv.FormatFloat(p.Score, 'f', 4, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRoutePlans writes the final per-station routing outcome.
func WriteRoutePlans(w io.Writer, plans []model.RoutePlan) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"station", "sign", "pattern", "success", "score"}); err != nil {
		return err
	}
	for _, p := range plans {
		rec := []string{
			p.Station,
			p.Sign.String(),
			p.Pattern.String(),
			strconv.FormatBool(p.Success),
			strconv.FormatFloat(p.Score, 'f', 4, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTours writes the ordered per-truck per-day station sequences.
func WriteTours(w io.Writer, tours []model.Tour) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"day", "truck", "stations"}); err != nil {
		return err
	}
	for _, t := range tours {
		rec := []string{
			strconv.Itoa(t.Day),
			strconv.Itoa(t.Truck),
			strings.Join(t.Stations, "|"),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func joinPatterns(ps []model.Pattern) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = p.String()
	}
	return strings.Join(parts, "|")
}
