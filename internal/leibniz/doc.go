// Package leibniz approximates π with the Leibniz series.
//
// The series π/4 = 1 - 1/3 + 1/5 - 1/7 + ... converges slowly and
// alternates around π, so every additional term moves the estimate to the
// other side of the true value.
//
// The package has no state. [Compute] and [Format] are safe to call from any
// number of goroutines.
package leibniz
