package estimator

// legendreCoeffs returns the power-series coefficients of the Legendre
// polynomial of degree ell, lowest power first.
func legendreCoeffs(ell int) []float64 {
	prev := []float64{1}
	if ell == 0 {
		return prev
	}
	cur := []float64{0, 1}
	for n := 1; n < ell; n++ {
		next := make([]float64, n+2)
		for i, c := range cur {
			next[i+1] += float64(2*n+1) * c
		}
		for i, c := range prev {
			next[i] -= float64(n) * c
		}
		for i := range next {
			next[i] /= float64(n + 1)
		}
		prev, cur = cur, next
	}
	return cur
}

// legendre evaluates the Legendre polynomial of degree ell at mu.
func legendre(ell int, mu float64) float64 {
	coeffs := legendreCoeffs(ell)
	v := 0.0
	for i := len(coeffs) - 1; i >= 0; i-- {
		v = v*mu + coeffs[i]
	}
	return v
}

// moment is one monomial a^pow[0] b^pow[1] c^pow[2] in the expansion of
// L_ell(u.v) over the Cartesian components of unit vectors u and v.
type moment struct {
	pow   [3]int
	coeff float64
}

// moments expands L_ell(u.v) = sum_m coeff_m u^pow_m v^pow_m, using
// (u.v)^n = sum_{|a|=n} n!/(a0! a1! a2!) u^a v^a.
func moments(ell int) []moment {
	var out []moment
	for n, a := range legendreCoeffs(ell) {
		if a == 0 {
			continue
		}
		for i := 0; i <= n; i++ {
			for j := 0; j <= n-i; j++ {
				k := n - i - j
				out = append(out, moment{
					pow:   [3]int{i, j, k},
					coeff: a * multinomial(n, i, j, k),
				})
			}
		}
	}
	return out
}

func multinomial(n, i, j, k int) float64 {
	return factorial(n) / (factorial(i) * factorial(j) * factorial(k))
}

func factorial(n int) float64 {
	f := 1.0
	for i := 2; i <= n; i++ {
		f *= float64(i)
	}
	return f
}

func ipow(x float64, n int) float64 {
	v := 1.0
	for ; n > 0; n-- {
		v *= x
	}
	return v
}

func (m moment) eval(v [3]float64) float64 {
	return ipow(v[0], m.pow[0]) * ipow(v[1], m.pow[1]) * ipow(v[2], m.pow[2])
}
