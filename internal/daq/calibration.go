package daq

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/ini.v1"

	"annealer_control/internal/faults"
)

// calibrationSegment is one piecewise polynomial: valid over [LowMV, HighMV],
// coefficients in ascending order (C0 + C1*mv + C2*mv^2 + ...).
type calibrationSegment struct {
	LowMV, HighMV float64
	Coeffs        []float64
}

// Calibration converts thermocouple millivolts to degrees Celsius using
// piecewise polynomials loaded from an ini file whose section names are the
// comma-separated millivolt ranges. Safe for concurrent use; Reload swaps the
// table atomically so a file watcher can refresh it mid-run.
type Calibration struct {
	mu       sync.RWMutex
	path     string
	segments []calibrationSegment
}

// LoadCalibration reads and parses the calibration file at path.
func LoadCalibration(path string) (*Calibration, error) {
	c := &Calibration{path: path}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the calibration file. On parse failure the previous table
// is kept.
func (c *Calibration) Reload() error {
	segments, err := parseCalibrationFile(c.path)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.segments = segments
	c.mu.Unlock()
	return nil
}

// Convert returns the temperature for the given thermocouple voltage.
// A voltage outside all calibrated ranges is a RangeError.
func (c *Calibration) Convert(mv float64) (float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, seg := range c.segments {
		if mv >= seg.LowMV && mv <= seg.HighMV {
			return evalPolynomial(seg.Coeffs, mv), nil
		}
	}
	return 0, &faults.RangeError{VoltageMV: mv}
}

// evalPolynomial applies Horner's rule.
func evalPolynomial(coeffs []float64, x float64) float64 {
	out := 0.0
	for i := len(coeffs) - 1; i >= 0; i-- {
		out = out*x + coeffs[i]
	}
	return out
}

func parseCalibrationFile(path string) ([]calibrationSegment, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, &faults.FormatError{Detail: "read calibration file " + path, Err: err}
	}

	var segments []calibrationSegment
	for _, sec := range file.Sections() {
		if sec.Name() == ini.DefaultSection {
			continue
		}
		seg, err := parseSegment(sec)
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}
	if len(segments) == 0 {
		return nil, &faults.FormatError{Detail: "calibration file " + path + " defines no ranges"}
	}
	sort.Slice(segments, func(i, j int) bool { return segments[i].LowMV < segments[j].LowMV })
	return segments, nil
}

// parseSegment parses one "low,high" section with keys C0..Cn.
func parseSegment(sec *ini.Section) (calibrationSegment, error) {
	parts := strings.Split(sec.Name(), ",")
	if len(parts) != 2 {
		return calibrationSegment{}, &faults.FormatError{
			Detail: fmt.Sprintf("calibration section %q is not a low,high range", sec.Name()),
		}
	}
	low, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	high, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil || high <= low {
		return calibrationSegment{}, &faults.FormatError{
			Detail: fmt.Sprintf("calibration section %q has an invalid range", sec.Name()),
		}
	}

	var coeffs []float64
	for i := 0; ; i++ {
		name := "C" + strconv.Itoa(i)
		if !sec.HasKey(name) {
			break
		}
		coeff, err := sec.Key(name).Float64()
		if err != nil {
			return calibrationSegment{}, &faults.FormatError{
				Detail: fmt.Sprintf("calibration section %q coefficient %s", sec.Name(), name),
				Err:    err,
			}
		}
		coeffs = append(coeffs, coeff)
	}
	if len(coeffs) == 0 {
		return calibrationSegment{}, &faults.FormatError{
			Detail: fmt.Sprintf("calibration section %q has no C0 coefficient", sec.Name()),
		}
	}
	return calibrationSegment{LowMV: low, HighMV: high, Coeffs: coeffs}, nil
}
