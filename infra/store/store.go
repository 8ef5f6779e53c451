// Package store reads the CSV artifacts exchanged at the pipeline's stage
// boundaries: upstream demand reconstructions and geographic attributes, and
// the intermediate tables earlier stages emitted. Missing or malformed files
// are precondition failures; callers abort the stage.
package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/velib-tools/rebalance/core/geo"
	"github.com/velib-tools/rebalance/core/model"
)

// StationSeries is one station's flat time series, sorted by time.
type StationSeries struct {
	ID        string
	Capacity  float64
	Stock     []float64
	Demand    []float64
	Regulated []bool
}

// regulatedThreshold turns the fractional regulated column into an event
// flag.
const regulatedThreshold = 0.1

// LoadSeries reads a per-station time-series file with columns
// station,stock,capacity,latent_demand,regulated, sorted by station then
// time. Every station must carry exactly steps rows.
func LoadSeries(path string, steps int) ([]StationSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open series file: %w", err)
	}
	defer f.Close()
	return parseSeries(f, path, steps)
}

func parseSeries(r io.Reader, path string, steps int) ([]StationSeries, error) {
	cr := csv.NewReader(r)
	head, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	col, err := columns(head, "station", "stock", "capacity", "latent_demand", "regulated")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var out []StationSeries
	var cur *StationSeries
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		line++
		id := rec[col["station"]]
		if cur == nil || cur.ID != id {
			out = append(out, StationSeries{ID: id})
			cur = &out[len(out)-1]
		}
		stock, err := strconv.ParseFloat(rec[col["stock"]], 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: bad stock: %w", path, line, err)
		}
		capa, err := strconv.ParseFloat(rec[col["capacity"]], 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: bad capacity: %w", path, line, err)
		}
		dem, err := strconv.ParseFloat(rec[col["latent_demand"]], 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: bad latent_demand: %w", path, line, err)
		}
		reg, err := strconv.ParseFloat(rec[col["regulated"]], 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: bad regulated: %w", path, line, err)
		}
		cur.Stock = append(cur.Stock, stock)
		cur.Demand = append(cur.Demand, dem)
		cur.Regulated = append(cur.Regulated, reg >= regulatedThreshold)
		if capa > cur.Capacity {
			cur.Capacity = capa
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: no station rows", path)
	}
	for _, s := range out {
		if len(s.Stock) != steps {
			return nil, fmt.Errorf("%s: station %s has %d rows, want %d", path, s.ID, len(s.Stock), steps)
		}
	}
	return out, nil
}

// LoadCoordinates reads the geographic attribute file with columns
// station_code,latitude,longitude.
func LoadCoordinates(path string) ([]string, []geo.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open attributes file: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	head, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	col, err := columns(head, "station_code", "latitude", "longitude")
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	var ids []string
	var pts []geo.Point
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", path, err)
		}
		lat, err := strconv.ParseFloat(rec[col["latitude"]], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: bad latitude for %s: %w", path, rec[col["station_code"]], err)
		}
		lon, err := strconv.ParseFloat(rec[col["longitude"]], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: bad longitude for %s: %w", path, rec[col["station_code"]], err)
		}
		ids = append(ids, rec[col["station_code"]])
		pts = append(pts, geo.Point{Lat: lat, Lon: lon})
	}
	return ids, pts, nil
}

func columns(head []string, want ...string) (map[string]int, error) {
	col := make(map[string]int, len(head))
	for i, h := range head {
		col[h] = i
	}
	for _, w := range want {
		if _, ok := col[w]; !ok {
			return nil, fmt.Errorf("missing column %q", w)
		}
	}
	return col, nil
}

// LoadRecords reads an evaluated-pattern table written by the evaluation
// stage. Pattern strings are validated against the horizon and fail fast
// when malformed.
func LoadRecords(path string, horizon int) ([]model.SimulationRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open evaluated patterns: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	head, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	col, err := columns(head, "station", "sign", "pattern", "feasible", "min_ratio", "max_ratio")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var out []model.SimulationRecord
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		sign, ok := model.ParseSign(rec[col["sign"]])
		if !ok {
			return nil, fmt.Errorf("%s: unknown sign %q", path, rec[col["sign"]])
		}
		pat, err := model.ParsePattern(rec[col["pattern"]], horizon)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		feas, err := strconv.ParseBool(rec[col["feasible"]])
		if err != nil {
			return nil, fmt.Errorf("%s: bad feasible flag: %w", path, err)
		}
		minR, err := strconv.ParseFloat(rec[col["min_ratio"]], 64)
		if err != nil {
			return nil, fmt.Errorf("%s: bad min_ratio: %w", path, err)
		}
		maxR, err := strconv.ParseFloat(rec[col["max_ratio"]], 64)
		if err != nil {
			return nil, fmt.Errorf("%s: bad max_ratio: %w", path, err)
		}
		out = append(out, model.SimulationRecord{
			Station:  rec[col["station"]],
			Sign:     sign,
			Pattern:  pat,
			Feasible: feas,
			MinRatio: minR,
			MaxRatio: maxR,
		})
	}
	return out, nil
}

// LoadFrontiers reads a frontier table written by the filtering stage.
// Frontier lists are "|"-joined pattern strings.
func LoadFrontiers(path string, horizon int) ([]model.Frontier, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open frontiers: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	head, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	col, err := columns(head, "station", "sign", "frontier_low", "frontier_high")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var out []model.Frontier
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		sign, ok := model.ParseSign(rec[col["sign"]])
		if !ok {
			return nil, fmt.Errorf("%s: unknown sign %q", path, rec[col["sign"]])
		}
		low, err := parsePatternList(rec[col["frontier_low"]], horizon)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		high, err := parsePatternList(rec[col["frontier_high"]], horizon)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		out = append(out, model.Frontier{
			Station: rec[col["station"]],
			Sign:    sign,
			Low:     low,
			High:    high,
		})
	}
	return out, nil
}

func parsePatternList(s string, horizon int) ([]model.Pattern, error) {
	if s == "" {
		return nil, nil
	}
	var out []model.Pattern
	for _, part := range strings.Split(s, "|") {
		p, err := model.ParsePattern(part, horizon)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
