// Package units converts between the metric values stored by the service and
// the unit system a user has chosen for display and input.
package units

import (
	"fmt"
	"math"
	"strings"
)

type System string

const (
	Metric   System = "metric"
	Imperial System = "imperial"
)

const (
	lbsPerKg      = 2.20462
	cmPerInch     = 2.54
	milesPerMeter = 0.000621371
	inchesPerFoot = 12
)

// ParseSystem defaults to metric for anything it does not recognise.
func ParseSystem(s string) System {
	if strings.EqualFold(strings.TrimSpace(s), string(Imperial)) {
		return Imperial
	}
	return Metric
}

func (s System) Valid() bool {
	return s == Metric || s == Imperial
}

func KgToLbs(kg float64) float64 {
	return kg * lbsPerKg
}

func LbsToKg(lbs float64) float64 {
	return lbs / lbsPerKg
}

func CmToIn(cm float64) float64 {
	return cm / cmPerInch
}

func InToCm(in float64) float64 {
	return in * cmPerInch
}

func MetersToMiles(m float64) float64 {
	return m * milesPerMeter
}

func MilesToMeters(mi float64) float64 {
	return mi / milesPerMeter
}

func MetersToKm(m float64) float64 {
	return m / 1000
}

func KmToMeters(km float64) float64 {
	return km * 1000
}

// WeightToMetric converts a weight entered in the given system to kg.
func WeightToMetric(v float64, system System) float64 {
	if system == Imperial {
		return LbsToKg(v)
	}
	return v
}

// WeightFromMetric converts a stored kg value to the given system.
func WeightFromMetric(kg float64, system System) float64 {
	if system == Imperial {
		return KgToLbs(kg)
	}
	return kg
}

// LengthToMetric converts a body measurement or height entered in the given system to cm.
func LengthToMetric(v float64, system System) float64 {
	if system == Imperial {
		return InToCm(v)
	}
	return v
}

func LengthFromMetric(cm float64, system System) float64 {
	if system == Imperial {
		return CmToIn(cm)
	}
	return cm
}

// DistanceToMetric converts miles (imperial) or meters (metric) to meters.
func DistanceToMetric(v float64, system System) float64 {
	if system == Imperial {
		return MilesToMeters(v)
	}
	return v
}

func DistanceFromMetric(meters float64, system System) float64 {
	if system == Imperial {
		return MetersToMiles(meters)
	}
	return meters
}

func FormatWeight(kg float64, system System) string {
	if system == Imperial {
		return fmt.Sprintf("%.1f lbs", KgToLbs(kg))
	}
	return fmt.Sprintf("%.1f kg", kg)
}

// FormatHeight renders 180.3 cm as 5'11" in imperial.
func FormatHeight(cm float64, system System) string {
	if system != Imperial {
		return fmt.Sprintf("%.0f cm", cm)
	}
	totalInches := int(math.Round(CmToIn(cm)))
	return fmt.Sprintf(`%d'%d"`, totalInches/inchesPerFoot, totalInches%inchesPerFoot)
}

func FormatLength(cm float64, system System) string {
	if system == Imperial {
		return fmt.Sprintf("%.1f in", CmToIn(cm))
	}
	return fmt.Sprintf("%.1f cm", cm)
}

func FormatDistance(meters float64, system System) string {
	if system == Imperial {
		return fmt.Sprintf("%.2f mi", MetersToMiles(meters))
	}
	if meters >= 1000 {
		return fmt.Sprintf("%.2f km", MetersToKm(meters))
	}
	return fmt.Sprintf("%.0f m", meters)
}

func WeightUnit(system System) string {
	if system == Imperial {
		return "lbs"
	}
	return "kg"
}

func LengthUnit(system System) string {
	if system == Imperial {
		return "in"
	}
	return "cm"
}

func DistanceUnit(system System) string {
	if system == Imperial {
		return "mi"
	}
	return "m"
}
