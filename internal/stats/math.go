package stats

import "slices"

// CalculateMedianDiscrete finds the median value in a slice of integers.
func CalculateMedianDiscrete(values []int) float64 {
	if len(values) == 0 {
		return 0
	}

	// Work on a copy to avoid mutating the original
	temp := make([]int, len(values))
	copy(temp, values)
	slices.Sort(temp)

	n := len(temp)
	if n%2 == 1 {
		return float64(temp[n/2])
	}
	return float64(temp[n/2-1]+temp[n/2]) / 2.0
}

// MedianOf returns the median of values, or nil when there are none.
func MedianOf(values []int) *float64 {
	if len(values) == 0 {
		return nil
	}
	m := CalculateMedianDiscrete(values)
	return &m
}

// MeanInts returns the arithmetic mean of values, or nil when there are none.
func MeanInts(values []int) *float64 {
	if len(values) == 0 {
		return nil
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	m := float64(sum) / float64(len(values))
	return &m
}

// Mean returns the arithmetic mean of values, or nil when there are none.
func Mean(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	m := sum / float64(len(values))
	return &m
}

// MeanOf averages the non-nil values. Nil entries are skipped, never counted as zero.
func MeanOf(values []*float64) *float64 {
	var present []float64
	for _, v := range values {
		if v != nil {
			present = append(present, *v)
		}
	}
	return Mean(present)
}

// Percent returns 100*num/den, or nil when den is zero.
func Percent(num, den float64) *float64 {
	if den == 0 {
		return nil
	}
	p := num / den * 100
	return &p
}
