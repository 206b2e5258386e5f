package regression

import "math"

// Family selects the error distribution and its canonical link.
type Family int

const (
	// Binomial with logit link; y in [0,1].
	Binomial Family = iota
	// Poisson with log link; y >= 0.
	Poisson
	// Gaussian with identity link.
	Gaussian
)

// String returns the family name.
func (f Family) String() string {
	switch f {
	case Binomial:
		return "binomial"
	case Poisson:
		return "poisson"
	case Gaussian:
		return "gaussian"
	default:
		return "unknown"
	}
}

// ParseFamily maps a family name to a Family; "" is Binomial.
func ParseFamily(s string) (Family, bool) {
	switch s {
	case "", "binomial":
		return Binomial, true
	case "poisson":
		return Poisson, true
	case "gaussian":
		return Gaussian, true
	default:
		return 0, false
	}
}

func (f Family) valid() bool { return f >= Binomial && f <= Gaussian }

// probability bounds keep the logit link finite under separation.
const (
	muFloor = 1e-10
	muCeil  = 1 - 1e-10
)

// inRange reports whether y is admissible for the family.
func (f Family) inRange(y float64) bool {
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return false
	}
	switch f {
	case Binomial:
		return y >= 0 && y <= 1
	case Poisson:
		return y >= 0
	default:
		return true
	}
}

// start returns the initial mean for observation y.
func (f Family) start(y float64) float64 {
	switch f {
	case Binomial:
		return (y + 0.5) / 2
	case Poisson:
		return y + 0.1
	default:
		return y
	}
}

func (f Family) link(mu float64) float64 {
	switch f {
	case Binomial:
		return math.Log(mu / (1 - mu))
	case Poisson:
		return math.Log(mu)
	default:
		return mu
	}
}

func (f Family) inverse(eta float64) float64 {
	switch f {
	case Binomial:
		var p float64
		if eta >= 0 {
			p = 1 / (1 + math.Exp(-eta))
		} else {
			e := math.Exp(eta)
			p = e / (1 + e)
		}
		return math.Min(math.Max(p, muFloor), muCeil)
	case Poisson:
		return math.Exp(eta)
	default:
		return eta
	}
}

// deriv returns dmu/deta at mu.
func (f Family) deriv(mu float64) float64 {
	switch f {
	case Binomial:
		return mu * (1 - mu)
	case Poisson:
		return mu
	default:
		return 1
	}
}

// variance returns V(mu).
func (f Family) variance(mu float64) float64 {
	switch f {
	case Binomial:
		return mu * (1 - mu)
	case Poisson:
		return mu
	default:
		return 1
	}
}

// unitDeviance returns the deviance contribution of one observation.
func (f Family) unitDeviance(y, mu float64) float64 {
	switch f {
	case Binomial:
		return 2 * (xlogy(y, y/mu) + xlogy(1-y, (1-y)/(1-mu)))
	case Poisson:
		return 2 * (xlogy(y, y/mu) - (y - mu))
	default:
		return (y - mu) * (y - mu)
	}
}

// xlogy returns x·ln(y) with 0·ln(0) = 0.
func xlogy(x, y float64) float64 {
	if x == 0 {
		return 0
	}
	return x * math.Log(y)
}
