package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
)

// precision is the big.Float mantissa size used by the oracle.
const precision = 256

// GoldenCurve is one parameter set and its cumulative values.
type GoldenCurve struct {
	P      float64       `json:"p"`
	Q      float64       `json:"q"`
	M      float64       `json:"m"`
	Values []GoldenValue `json:"values"`
}

// GoldenValue is F(t) at a single time index.
type GoldenValue struct {
	T          float64 `json:"t"`
	Cumulative float64 `json:"cumulative"`
}

func main() {
	outputDir := flag.String("out", "internal/bass/testdata", "Output directory for the golden file")
	maxT := flag.Int("t", 30, "Largest time index to evaluate")
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	filename := filepath.Join(*outputDir, "bass_golden.json")
	file, err := os.Create(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	// A textbook curve, a slow-start curve, the fitted UPI curve and a
	// curve with q < p that never peaks.
	params := [][3]float64{
		{0.03, 0.38, 100},
		{0.01, 0.4, 700},
		{0.0083, 0.4772, 666.1},
		{0.2, 0.05, 1},
	}

	var data []GoldenCurve

	fmt.Println("Generating golden data...")

	for _, pqm := range params {
		curve := GoldenCurve{P: pqm[0], Q: pqm[1], M: pqm[2]}
		for t := 0; t <= *maxT; t++ {
			v, _ := cumulativeBig(pqm[0], pqm[1], pqm[2], t).Float64()
			curve.Values = append(curve.Values, GoldenValue{T: float64(t), Cumulative: v})
		}
		data = append(data, curve)
		fmt.Printf("Generated p=%g q=%g m=%g\n", pqm[0], pqm[1], pqm[2])
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully generated golden file at %s\n", filename)
}

// cumulativeBig evaluates m(1 - e^{-(p+q)t}) / (1 + (q/p)e^{-(p+q)t}) in
// extended precision. It serves as the oracle for the float64 model.
func cumulativeBig(p, q, m float64, t int) *big.Float {
	bp := newFloat().SetFloat64(p)
	bq := newFloat().SetFloat64(q)
	bm := newFloat().SetFloat64(m)

	x := newFloat().Add(bp, bq)
	x.Mul(x, newFloat().SetInt64(int64(t)))
	e := newFloat().Quo(newFloat().SetInt64(1), expBig(x))

	num := newFloat().Sub(newFloat().SetInt64(1), e)
	num.Mul(num, bm)
	den := newFloat().Quo(bq, bp)
	den.Mul(den, e)
	den.Add(den, newFloat().SetInt64(1))
	return num.Quo(num, den)
}

// expBig sums the Taylor series of e^x for x >= 0 until the next term no
// longer changes the sum.
func expBig(x *big.Float) *big.Float {
	sum := newFloat().SetInt64(1)
	term := newFloat().SetInt64(1)
	for k := int64(1); ; k++ {
		term.Mul(term, x)
		term.Quo(term, newFloat().SetInt64(k))
		next := newFloat().Add(sum, term)
		if next.Cmp(sum) == 0 {
			return sum
		}
		sum = next
	}
}

func newFloat() *big.Float {
	return new(big.Float).SetPrec(precision)
}
