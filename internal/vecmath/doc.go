// Package vecmath provides the float32 kernels used by retrieval and scoring.
//
// Two kernel sets exist: a plain scalar loop and a 4-way unrolled loop that
// the compiler turns into wide loads on CPUs with AVX2 or ASIMD. The set is
// chosen once at init from the detected CPU features and can be forced with
// RECGO_KERNEL=generic|unrolled.
package vecmath
