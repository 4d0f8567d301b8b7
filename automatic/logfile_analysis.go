package automatic

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/aybabtme/uniplot/histogram"

	"github.com/domino14/yonmoku/solver"
	"github.com/domino14/yonmoku/stats"
)

// AnalyzeLogFile analyzes the given game CSV file and spits out a bunch of
// statistics.
func AnalyzeLogFile(filepath string) (string, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return "", err
	}
	defer file.Close()
	return AnalyzeLog(file)
}

// AnalyzeLog is AnalyzeLogFile for any reader.
func AnalyzeLog(in io.Reader) (string, error) {
	r := csv.NewReader(in)

	// Record looks like:
	// gameID,width,height,opening,moves,winner,turns,openingValue,nodes
	whiteWins := stats.Proportion{}
	blackWins := stats.Proportion{}
	draws := stats.Proportion{}
	// games where the side that was winning after the opening went on to
	// win, i.e. perfect play held.
	valueHeld := stats.Proportion{}
	turns := stats.NewSampledStatistic()
	nodes := stats.NewSampledStatistic()
	openingValues := map[solver.Score]int{}

	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		if record[0] == "gameID" {
			// this is the header line
			continue
		}
		if len(record) < 9 {
			return "", fmt.Errorf("short record: %v", record)
		}
		nturns, err := strconv.Atoi(record[6])
		if err != nil {
			return "", err
		}
		nnodes, err := strconv.ParseUint(record[8], 10, 64)
		if err != nil {
			return "", err
		}
		ov, err := solver.ParseScore(record[7])
		if err != nil {
			return "", err
		}
		winner := record[5]
		whiteWins.Add(winner == "W")
		blackWins.Add(winner == "B")
		draws.Add(winner == "draw")
		switch ov {
		case solver.Win:
			valueHeld.Add(winner == "W")
		case solver.Lose:
			valueHeld.Add(winner == "B")
		case solver.Draw:
			valueHeld.Add(winner == "draw")
		}
		openingValues[ov]++
		turns.Push(float64(nturns))
		nodes.Push(float64(nnodes))
	}
	if turns.Iterations() == 0 {
		return "", errors.New("no games in log")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Games played: %d\n", turns.Iterations())
	for _, p := range []struct {
		name string
		prop stats.Proportion
	}{{"White wins", whiteWins}, {"Black wins", blackWins}, {"Draws", draws}} {
		lo, hi := p.prop.WilsonInterval(95)
		fmt.Fprintf(&sb, "%s: %d (%.3f%%, 95%% CI %.3f%% - %.3f%%)\n",
			p.name, p.prop.Successes, 100*p.prop.Value(), 100*lo, 100*hi)
	}
	fmt.Fprintf(&sb, "Opening values (White): win %d, draw %d, lose %d\n",
		openingValues[solver.Win], openingValues[solver.Draw], openingValues[solver.Lose])
	if valueHeld.Trials > 0 {
		fmt.Fprintf(&sb, "Result matched opening value: %d of %d\n",
			valueHeld.Successes, valueHeld.Trials)
	}
	fmt.Fprintf(&sb, "Game length: mean %.3f  stdev %.3f  min %.0f  median %.0f  max %.0f\n",
		turns.Mean(), turns.Stdev(), turns.Min(), turns.Quantile(0.5), turns.Max())
	fmt.Fprintf(&sb, "Nodes per game: mean %.1f  stdev %.1f  p90 %.0f\n",
		nodes.Mean(), nodes.Stdev(), nodes.Quantile(0.9))

	bins := 10
	if n := int(turns.Max()-turns.Min()) + 1; n < bins {
		bins = n
	}
	sb.WriteString("Game length histogram:\n")
	hist := histogram.Hist(bins, turns.Samples())
	if err := histogram.Fprint(&sb, hist, histogram.Linear(40)); err != nil {
		return "", err
	}
	return sb.String(), nil
}
