package pdfresample

import (
	"math"
	"runtime"
	"sync"
)

type resampleWeights struct {
	coeffs       []float32
	start        []int
	filterLength int
}

type kernelDef struct {
	method Method
	taps   int
	kernel func(float64) float64
}

type weightsKey struct {
	src    int
	dst    int
	method Method
}

var weightsCache sync.Map

var float32Pool = sync.Pool{
	New: func() any {
		buf := make([]float32, 0)
		return &buf
	},
}

var (
	maxParallelWorkers = 0
	workerSemOnce      sync.Once
	workerSem          chan struct{}
)

func kernelForMethod(m Method) (kernelDef, bool) {
	switch m {
	case MethodLinear:
		return kernelDef{method: MethodLinear, taps: 2, kernel: linearKernel}, true
	case MethodBicubic:
		return kernelDef{method: MethodBicubic, taps: 4, kernel: cubicKernel}, true
	default:
		return kernelDef{}, false
	}
}

// resampleNearest8 maps every destination sample to src[y*srcH/dstH][x*srcW/dstW].
func resampleNearest8(src []uint8, srcW, srcH, srcStride, comps, dstW, dstH int) []uint8 {
	out := make([]uint8, dstW*dstH*comps)
	rowSize := dstW * comps
	parallelFor(dstH, func(start, end int) {
		for y := start; y < end; y++ {
			sy := y * srcH / dstH
			row := src[sy*srcStride:]
			outRow := out[y*rowSize : (y+1)*rowSize]
			for x := 0; x < dstW; x++ {
				sx := x * srcW / dstW
				copy(outRow[x*comps:(x+1)*comps], row[sx*comps:(sx+1)*comps])
			}
		}
	})
	return out
}

// resampleInterleaved8 runs a separable filter over interleaved 8-bit samples:
// a horizontal pass into a float buffer, then a vertical pass with rounding.
func resampleInterleaved8(src []uint8, srcW, srcH, srcStride, comps, dstW, dstH int, def kernelDef) []uint8 {
	scaleX := float64(srcW) / float64(dstW)
	scaleY := float64(srcH) / float64(dstH)
	wx := getWeights(srcW, dstW, def, scaleX)
	wy := getWeights(srcH, dstH, def, scaleY)

	rowSize := dstW * comps
	temp := getFloat32(rowSize * srcH)
	parallelFor(srcH, func(start, end int) {
		acc := make([]float32, comps)
		for y := start; y < end; y++ {
			row := src[y*srcStride:]
			outRow := temp[y*rowSize:]
			for x := 0; x < dstW; x++ {
				s := wx.start[x]
				base := x * wx.filterLength
				for c := range acc {
					acc[c] = 0
				}
				for i := 0; i < wx.filterLength; i++ {
					xi := clampIndex(s+i, srcW)
					w := wx.coeffs[base+i]
					off := xi * comps
					for c := 0; c < comps; c++ {
						acc[c] += float32(row[off+c]) * w
					}
				}
				copy(outRow[x*comps:(x+1)*comps], acc)
			}
		}
	})

	out := make([]uint8, rowSize*dstH)
	parallelFor(dstH, func(start, end int) {
		acc := make([]float32, rowSize)
		for y := start; y < end; y++ {
			s := wy.start[y]
			base := y * wy.filterLength
			for i := range acc {
				acc[i] = 0
			}
			for i := 0; i < wy.filterLength; i++ {
				yi := clampIndex(s+i, srcH)
				w := wy.coeffs[base+i]
				tempRow := temp[yi*rowSize : (yi+1)*rowSize]
				for x, v := range tempRow {
					acc[x] += v * w
				}
			}
			outRow := out[y*rowSize : (y+1)*rowSize]
			for x, v := range acc {
				outRow[x] = clampToByte(v)
			}
		}
	})

	putFloat32(temp)
	return out
}

func getWeights(src, dst int, def kernelDef, scale float64) resampleWeights {
	if src <= 0 || dst <= 0 {
		return resampleWeights{}
	}
	key := weightsKey{src: src, dst: dst, method: def.method}
	if cached, ok := weightsCache.Load(key); ok {
		return cached.(resampleWeights)
	}
	filterLength := def.taps * int(math.Max(math.Ceil(scale), 1))
	filterFactor := math.Min(1.0/scale, 1.0)
	coeffs := make([]float32, dst*filterLength)
	start := make([]int, dst)
	for y := 0; y < dst; y++ {
		interpX := scale*(float64(y)+0.5) - 0.5
		start[y] = int(interpX) - filterLength/2 + 1
		interpX -= float64(start[y])
		base := y * filterLength
		var sum float64
		for i := 0; i < filterLength; i++ {
			in := (interpX - float64(i)) * filterFactor
			w := def.kernel(in)
			coeffs[base+i] = float32(w)
			sum += w
		}
		if sum != 0 {
			inv := float32(1.0 / sum)
			for i := 0; i < filterLength; i++ {
				coeffs[base+i] *= inv
			}
		}
	}
	weights := resampleWeights{coeffs: coeffs, start: start, filterLength: filterLength}
	weightsCache.Store(key, weights)
	return weights
}

func parallelFor(total int, fn func(start, end int)) {
	if total <= 0 {
		return
	}
	capacity := runtime.GOMAXPROCS(0)
	if maxParallelWorkers > 0 && capacity > maxParallelWorkers {
		capacity = maxParallelWorkers
	}
	if capacity < 1 {
		capacity = 1
	}
	workerSemOnce.Do(func() {
		workerSem = make(chan struct{}, capacity)
	})
	if cap(workerSem) < capacity {
		capacity = cap(workerSem)
		if capacity < 1 {
			capacity = 1
		}
	}
	workers := capacity
	if workers > total {
		workers = total
	}
	if workers <= 1 {
		fn(0, total)
		return
	}
	step := (total + workers - 1) / workers
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		start := i * step
		end := start + step
		if end > total {
			end = total
		}
		if start >= end {
			break
		}
		workerSem <- struct{}{}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			defer func() { <-workerSem }()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

func getFloat32(n int) []float32 {
	bufPtr := float32Pool.Get().(*[]float32)
	buf := *bufPtr
	if cap(buf) < n {
		return make([]float32, n)
	}
	return buf[:n]
}

func putFloat32(buf []float32) {
	if buf == nil {
		return
	}
	for i := range buf {
		buf[i] = 0
	}
	buf = buf[:0]
	float32Pool.Put(&buf)
}

func linearKernel(in float64) float64 {
	in = math.Abs(in)
	if in <= 1 {
		return 1 - in
	}
	return 0
}

func cubicKernel(in float64) float64 {
	in = math.Abs(in)
	if in <= 1 {
		return in*in*(1.5*in-2.5) + 1.0
	}
	if in <= 2 {
		return in*(in*(2.5-0.5*in)-4.0) + 2.0
	}
	return 0
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func clampToByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
