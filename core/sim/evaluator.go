package sim

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/velib-tools/rebalance/core/logger"
	"github.com/velib-tools/rebalance/core/model"
)

// Evaluator enumerates every binary day-pattern over the remaining horizon
// for each station and regime, batch-simulates them and records feasibility
// together with the weekly fill-ratio bounds.
type Evaluator struct {
	// Horizon is the number of remaining planning days. Kept small: the
	// enumeration is exhaustive over 2^Horizon patterns.
	Horizon int
	// Magnitude is the stock adjustment of one regulation event.
	Magnitude float64
	// Tolerance and Band parameterize the simulator.
	Tolerance float64
	Band      float64
	// ServiceHours are the per-day trajectory indices at which the service
	// level is measured.
	ServiceHours []int
	// TotalDays is the full week length the fill ratio averages over,
	// including already elapsed days.
	TotalDays int
	// Workers bounds the simulation worker pool; zero or negative means
	// GOMAXPROCS. Station batches are independent, so evaluation
	// parallelizes freely.
	Workers int

	Log logger.Logger
}

// Evaluate returns one SimulationRecord per (sign, station, pattern), grouped
// by sign then station in input order.
func (e Evaluator) Evaluate(stations []model.Station) ([]model.SimulationRecord, error) {
	if e.Horizon <= 0 || e.Horizon > 16 {
		return nil, fmt.Errorf("evaluator: horizon %d out of range", e.Horizon)
	}
	if len(stations) == 0 {
		return nil, fmt.Errorf("evaluator: no stations to evaluate")
	}
	nPat := 1 << e.Horizon
	patterns := make([]model.Pattern, nPat)
	for i := 0; i < nPat; i++ {
		patterns[i] = model.PatternFromIndex(i, e.Horizon)
	}

	workers := e.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if e.Log != nil {
		e.Log.Infof("simulating %d patterns for %d stations across %d workers", nPat, len(stations), workers)
	}

	// One result slot per (sign, station) keeps output deterministic.
	groups := make([][]model.SimulationRecord, len(model.Signs)*len(stations))
	type job struct {
		slot    int
		sign    model.Sign
		station model.Station
	}
	jobs := make(chan job)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				groups[j.slot] = e.evaluateStation(j.station, j.sign, patterns)
			}
		}()
	}
	slot := 0
	for _, sign := range model.Signs {
		for _, st := range stations {
			jobs <- job{slot: slot, sign: sign, station: st}
			slot++
		}
	}
	close(jobs)
	wg.Wait()

	records := make([]model.SimulationRecord, 0, len(groups)*nPat)
	for _, g := range groups {
		records = append(records, g...)
	}
	return records, nil
}

func (e Evaluator) evaluateStation(st model.Station, sign model.Sign, patterns []model.Pattern) []model.SimulationRecord {
	delta := sign.Delta(e.Magnitude)
	regs := make([][]float64, len(patterns))
	for p, pat := range patterns {
		row := make([]float64, e.Horizon)
		for d, bit := range pat {
			row[d] = float64(bit) * delta
		}
		regs[p] = row
	}

	s := Simulator{Capacity: st.Capacity, Tolerance: e.Tolerance, Band: e.Band}
	res := s.Run(st.Start, regs, st.Demand, st.HistStock, st.HistReg)

	recs := make([]model.SimulationRecord, len(patterns))
	for p, pat := range patterns {
		feasible := true
		for _, ok := range res.Feasible[p] {
			feasible = feasible && ok
		}
		minR, maxR := e.ratioBounds(st, res.Traj[p])
		recs[p] = model.SimulationRecord{
			Station:  st.ID,
			Sign:     sign,
			Pattern:  pat,
			Feasible: feasible,
			MinRatio: minR,
			MaxRatio: maxR,
		}
	}
	return recs
}

// ratioBounds computes the weekly-averaged fill ratio at each service hour,
// blending past-day observations with the simulated future days, and returns
// its extremes.
func (e Evaluator) ratioBounds(st model.Station, traj [][]float64) (minR, maxR float64) {
	totalDays := e.TotalDays
	if totalDays <= 0 {
		totalDays = 7
	}
	first := true
	for hi, h := range e.ServiceHours {
		sum := 0.0
		if len(st.PastServiceSums) > hi {
			sum = st.PastServiceSums[hi]
		}
		for d := range traj {
			idx := h
			if idx >= len(traj[d]) {
				idx = len(traj[d]) - 1
			}
			sum += traj[d][idx]
		}
		ratio := sum / float64(totalDays) / st.Capacity
		if first {
			minR, maxR = ratio, ratio
			first = false
			continue
		}
		if ratio < minR {
			minR = ratio
		}
		if ratio > maxR {
			maxR = ratio
		}
	}
	return minR, maxR
}
