package rng

import "math"

var lanczos = [6]float64{
	76.18009172947146,
	-86.50532032941677,
	24.01409824083091,
	-1.231739572450155,
	0.1208650973866179e-2,
	-0.5395239384953e-5,
}

// LogGamma returns ln(Γ(xx)) for xx > 0 using a six-term Lanczos series.
func LogGamma(xx float32) float32 {
	x := float64(xx)
	y := x

	tmp := x + 5.5
	tmp -= float64((x + 0.5) * math.Log(tmp))

	ser := 1.000000000190015
	for _, c := range lanczos {
		y++
		ser += c / y
	}

	return float32(-tmp + math.Log(2.5066282746310005*ser/x))
}

// Factorial returns k! as a float64. Non-positive k gives 1.
func Factorial(k int) float64 {
	val := 1.0
	for i := 1; i <= k; i++ {
		val *= float64(i)
	}

	return val
}

// PoissonPMF returns the probability of exactly k events under a Poisson
// distribution with mean l.
func PoissonPMF(l float64, k int) float64 {
	return math.Pow(l, float64(k)) * math.Exp(-l) / Factorial(k)
}
