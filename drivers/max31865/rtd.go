package max31865

import "math"

// Resistance returns the RTD resistance at celsius (Callendar–Van Dusen).
func Resistance(t RTDType, celsius float32) float32 {
	c := float64(celsius)
	r := 1 + cvdA*c + cvdB*c*c
	if c < 0 {
		r += cvdC * (c - 100) * c * c * c
	}
	return float32(float64(t.R0()) * r)
}

// Temperature converts an RTD resistance to °C. At or above 0 °C the
// quadratic is solved exactly; below it a fifth-order fit is used.
func Temperature(t RTDType, ohms float32) float32 {
	r0 := float64(t.R0())
	rt := float64(ohms)
	z1 := -cvdA
	z2 := cvdA*cvdA - 4*cvdB
	z3 := 4 * cvdB / r0
	z4 := 2 * cvdB

	temp := (z1 + math.Sqrt(z2+z3*rt)) / z4
	if temp >= 0 {
		return float32(temp)
	}

	// Normalise to a PT100 scale for the fit.
	rp := rt / r0 * 100
	temp = -242.02
	temp += 2.2228 * rp
	rp2 := rp * rp
	temp += 2.5859e-3 * rp2
	temp -= 4.8260e-6 * rp2 * rp
	temp -= 2.8183e-8 * rp2 * rp2
	temp += 1.5243e-10 * rp2 * rp2 * rp
	return float32(temp)
}
