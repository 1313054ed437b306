package blockreduce

// Kind selects the reduction applied across the layer dimension of each
// cell. Every kind shares the same missing-value policy: NaN layers are
// excluded from the combine and from any denominator, and a cell with no
// non-missing layers reduces to NaN.
type Kind int

// Reduction kinds.
const (
	Sum Kind = iota
	Mean
	Count
	Min
	Max
)

var kindNames = map[Kind]string{
	Sum:   "sum",
	Mean:  "mean",
	Count: "count",
	Min:   "min",
	Max:   "max",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

func (k Kind) valid() bool {
	_, ok := kindNames[k]
	return ok
}

// reduceBlock reduces a rows x cols x layers block to rows x cols.
func reduceBlock(k Kind, in *Block) *Block {
	out := NewBlock(in.Rows, in.Cols, 1)
	cell := reducers[k]
	for r := 0; r < in.Rows; r++ {
		for c := 0; c < in.Cols; c++ {
			out.Data[r*in.Cols+c] = cell(in.cell(r, c))
		}
	}
	return out
}

var reducers = map[Kind]func([]float64) float64{
	Sum:   cellSum,
	Mean:  cellMean,
	Count: cellCount,
	Min:   cellMin,
	Max:   cellMax,
}

// Accumulation is in layer order. Order across blocks never matters because
// blocks do not interact.

func cellSum(layers []float64) float64 {
	var acc float64
	n := 0
	for _, v := range layers {
		if IsMissing(v) {
			continue
		}
		acc += v
		n++
	}
	if n == 0 {
		return Missing()
	}
	return acc
}

func cellMean(layers []float64) float64 {
	var acc float64
	n := 0
	for _, v := range layers {
		if IsMissing(v) {
			continue
		}
		acc += v
		n++
	}
	if n == 0 {
		return Missing()
	}
	// Divide by the non-missing count, never by the layer count.
	return acc / float64(n)
}

func cellCount(layers []float64) float64 {
	n := 0
	for _, v := range layers {
		if !IsMissing(v) {
			n++
		}
	}
	if n == 0 {
		return Missing()
	}
	return float64(n)
}

func cellMin(layers []float64) float64 {
	best := Missing()
	for _, v := range layers {
		if IsMissing(v) {
			continue
		}
		if IsMissing(best) || v < best {
			best = v
		}
	}
	return best
}

func cellMax(layers []float64) float64 {
	best := Missing()
	for _, v := range layers {
		if IsMissing(v) {
			continue
		}
		if IsMissing(best) || v > best {
			best = v
		}
	}
	return best
}
