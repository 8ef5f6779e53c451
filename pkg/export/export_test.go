package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/velib-tools/rebalance/core/model"
)

func TestWriteVisitPlans(t *testing.T) {
	var buf bytes.Buffer
	plans := []model.VisitPlan{
		{Station: "s1", Sign: model.SignDeficit, Pattern: model.Pattern{1, 0}, Score: 1, Success: true},
		{Station: "s2", Sign: model.SignSurplus, Pattern: model.Pattern{0, 0}, Score: 0, Success: false},
	}
	if err := WriteVisitPlans(&buf, plans); err != nil {
		t.Fatalf("write: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines", len(lines))
	}
	if lines[0] != "station,sign,pattern,success,score" {
		t.Fatalf("header: %s", lines[0])
	}
	if lines[1] != "s1,deficit,10,true,1.0000" {
		t.Fatalf("row: %s", lines[1])
	}
	if lines[2] != "s2,surplus,00,false,0.0000" {
		t.Fatalf("row: %s", lines[2])
	}
}

func TestWriteFrontiersJoinsPatterns(t *testing.T) {
	var buf bytes.Buffer
	fr := []model.Frontier{{
		Station: "s1", Sign: model.SignDeficit,
		Low:  []model.Pattern{{0, 1}, {1, 0}},
		High: []model.Pattern{{1, 1}},
	}}
	if err := WriteFrontiers(&buf, fr); err != nil {
		t.Fatalf("write: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[1] != "s1,deficit,01|10,11" {
		t.Fatalf("row: %s", lines[1])
	}
}

func TestWriteTours(t *testing.T) {
	var buf bytes.Buffer
	tours := []model.Tour{
		{Day: 0, Truck: 0, Stations: []string{"s1", "s2"}},
		{Day: 1, Truck: 0, Stations: []string{"s2"}},
	}
	if err := WriteTours(&buf, tours); err != nil {
		t.Fatalf("write: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "day,truck,stations" {
		t.Fatalf("header: %s", lines[0])
	}
	if lines[1] != "0,0,s1|s2" {
		t.Fatalf("row: %s", lines[1])
	}
	if lines[2] != "1,0,s2" {
		t.Fatalf("row: %s", lines[2])
	}
}
