package domain

import (
	"fmt"
	"time"
)

// Regime es el régimen de mercado activo de un activo.
type Regime int

const (
	RegimeCash Regime = iota
	RegimeTrend
	RegimeMeanRevert
)

func (r Regime) String() string {
	switch r {
	case RegimeTrend:
		return "TREND"
	case RegimeMeanRevert:
		return "MEANREV"
	default:
		return "CASH"
	}
}

// ParseRegime es la inversa de String.
func ParseRegime(s string) (Regime, error) {
	switch s {
	case "CASH":
		return RegimeCash, nil
	case "TREND":
		return RegimeTrend, nil
	case "MEANREV", "MEAN_REVERT":
		return RegimeMeanRevert, nil
	}
	return RegimeCash, fmt.Errorf("unknown regime %q", s)
}

// Select devuelve el raw return de la estrategia que el régimen activa. CASH → 0.
func (r Regime) Select(trendRet, meanrevRet float64) float64 {
	switch r {
	case RegimeTrend:
		return trendRet
	case RegimeMeanRevert:
		return meanrevRet
	default:
		return 0
	}
}

// RegimeFeatures son las features de régimen de un día.
type RegimeFeatures struct {
	Date     time.Time
	MomShort Value // momentum 20d
	MomLong  Value // momentum 60d
	Vol      Value // vol realizada 20d anualizada
	Drawdown Value // drawdown sobre el máximo de 60d (<= 0)
}

// Complete es true si todas las features están definidas.
func (f RegimeFeatures) Complete() bool {
	return f.MomShort.Valid && f.MomLong.Valid && f.Vol.Valid && f.Drawdown.Valid
}

// HysteresisThresholds son los umbrales de entrada/salida de cada régimen.
// Los de entrada son más estrictos que los de salida: la zona muerta entre
// ambos evita el chattering cerca de una frontera.
type HysteresisThresholds struct {
	TrendEnterMomLong  float64 `yaml:"trend_enter_mom_long"`
	TrendEnterMomShort float64 `yaml:"trend_enter_mom_short"`
	TrendExitMomLong   float64 `yaml:"trend_exit_mom_long"`
	TrendExitMomShort  float64 `yaml:"trend_exit_mom_short"`

	MREnterMomShort float64 `yaml:"mr_enter_mom_short"`
	MREnterDrawdown float64 `yaml:"mr_enter_drawdown"`
	MREnterVolMax   float64 `yaml:"mr_enter_vol_max"`

	MRExitMomShort float64 `yaml:"mr_exit_mom_short"`
	MRExitDrawdown float64 `yaml:"mr_exit_drawdown"`
	MRExitVolMax   float64 `yaml:"mr_exit_vol_max"`
}

// DefaultHysteresis devuelve los umbrales calibrados por defecto.
func DefaultHysteresis() HysteresisThresholds {
	return HysteresisThresholds{
		TrendEnterMomLong:  0.00,
		TrendEnterMomShort: -0.005,
		TrendExitMomLong:   -0.02,
		TrendExitMomShort:  -0.02,

		MREnterMomShort: -0.025,
		MREnterDrawdown: -0.03,
		MREnterVolMax:   0.40,

		MRExitMomShort: -0.005,
		MRExitDrawdown: -0.01,
		MRExitVolMax:   0.45,
	}
}

// Validate exige que cada umbral de salida sea más laxo que el de entrada.
func (h HysteresisThresholds) Validate() error {
	switch {
	case h.TrendExitMomLong > h.TrendEnterMomLong:
		return fmt.Errorf("hysteresis: trend exit mom_long %g above enter %g", h.TrendExitMomLong, h.TrendEnterMomLong)
	case h.TrendExitMomShort > h.TrendEnterMomShort:
		return fmt.Errorf("hysteresis: trend exit mom_short %g above enter %g", h.TrendExitMomShort, h.TrendEnterMomShort)
	case h.MRExitMomShort < h.MREnterMomShort:
		return fmt.Errorf("hysteresis: mr exit mom_short %g below enter %g", h.MRExitMomShort, h.MREnterMomShort)
	case h.MRExitDrawdown < h.MREnterDrawdown:
		return fmt.Errorf("hysteresis: mr exit drawdown %g below enter %g", h.MRExitDrawdown, h.MREnterDrawdown)
	case h.MRExitVolMax < h.MREnterVolMax:
		return fmt.Errorf("hysteresis: mr exit vol %g below enter %g", h.MRExitVolMax, h.MREnterVolMax)
	}
	return nil
}

func (h HysteresisThresholds) trendEnter(momShort, momLong float64) bool {
	return momLong > h.TrendEnterMomLong && momShort > h.TrendEnterMomShort
}

func (h HysteresisThresholds) trendExit(momShort, momLong float64) bool {
	return momLong < h.TrendExitMomLong || momShort < h.TrendExitMomShort
}

func (h HysteresisThresholds) mrEnter(momShort, dd, vol float64) bool {
	return momShort < h.MREnterMomShort && dd < h.MREnterDrawdown && vol < h.MREnterVolMax
}

func (h HysteresisThresholds) mrExit(momShort, dd, vol float64) bool {
	return momShort > h.MRExitMomShort || dd > h.MRExitDrawdown || vol > h.MRExitVolMax
}

// NextRegime es la función de transición de la máquina de estados con histéresis.
// Sin features completas devuelve CASH sea cual sea el estado previo.
func NextRegime(f RegimeFeatures, prev Regime, th HysteresisThresholds) Regime {
	if !f.Complete() {
		return RegimeCash
	}
	ms, ml, vol, dd := f.MomShort.V, f.MomLong.V, f.Vol.V, f.Drawdown.V

	trendEnter := th.trendEnter(ms, ml)
	mrEnter := th.mrEnter(ms, dd, vol)

	switch prev {
	case RegimeTrend:
		if !th.trendExit(ms, ml) {
			return RegimeTrend
		}
		if mrEnter {
			return RegimeMeanRevert
		}
		return RegimeCash

	case RegimeMeanRevert:
		if !th.mrExit(ms, dd, vol) {
			return RegimeMeanRevert
		}
		if trendEnter {
			return RegimeTrend
		}
		return RegimeCash
	}

	switch {
	case trendEnter:
		return RegimeTrend
	case mrEnter:
		return RegimeMeanRevert
	default:
		return RegimeCash
	}
}

// ClassifyHysteresis recorre las filas en orden de fecha arrastrando el estado
// previo, empezando en CASH. Cada activo tiene su propio fold.
func ClassifyHysteresis(rows []RegimeFeatures, th HysteresisThresholds) []Regime {
	out := make([]Regime, len(rows))
	prev := RegimeCash
	for i, f := range rows {
		prev = NextRegime(f, prev, th)
		out[i] = prev
	}
	return out
}

// SimpleRules es la regla de régimen sin memoria (v1). Sirve de referencia para
// medir el chattering que elimina la histéresis.
type SimpleRules struct {
	TrendMomLong  float64 `yaml:"trend_mom_long"`
	TrendMomShort float64 `yaml:"trend_mom_short"`
	MRMomShort    float64 `yaml:"mr_mom_short"`
	MRDrawdown    float64 `yaml:"mr_drawdown"`
	MRVolMax      float64 `yaml:"mr_vol_max"`
}

// DefaultSimpleRules devuelve los umbrales de la regla v1.
func DefaultSimpleRules() SimpleRules {
	return SimpleRules{
		TrendMomLong:  0.0,
		TrendMomShort: -0.01,
		MRMomShort:    -0.02,
		MRDrawdown:    -0.03,
		MRVolMax:      0.40,
	}
}

// ChooseRegime clasifica un día sin mirar el estado previo.
func ChooseRegime(f RegimeFeatures, r SimpleRules) Regime {
	if !f.Complete() {
		return RegimeCash
	}
	if f.MomLong.V > r.TrendMomLong && f.MomShort.V > r.TrendMomShort {
		return RegimeTrend
	}
	if f.MomShort.V < r.MRMomShort && f.Drawdown.V < r.MRDrawdown && f.Vol.V < r.MRVolMax {
		return RegimeMeanRevert
	}
	return RegimeCash
}

// ClassifySimple aplica ChooseRegime día a día.
func ClassifySimple(rows []RegimeFeatures, r SimpleRules) []Regime {
	out := make([]Regime, len(rows))
	for i, f := range rows {
		out[i] = ChooseRegime(f, r)
	}
	return out
}

// Switches cuenta los cambios de régimen en una secuencia.
func Switches(states []Regime) int {
	n := 0
	for i := 1; i < len(states); i++ {
		if states[i] != states[i-1] {
			n++
		}
	}
	return n
}
