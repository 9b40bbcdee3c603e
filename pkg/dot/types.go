// Package dot defines the driver contract for DataFeel Dot devices sharing a
// half-duplex bus, plus a serial reference implementation. The bridge only
// talks to hardware through the Driver interface.
package dot

// Address identifies one device on the shared bus. Address 0 is reserved.
type Address = uint8

// Target is the full actuation state written to a device in one bus
// transaction: LED color, vibration intensity, and vibration frequency.
type Target struct {
	// Color holds the RGB channel values.
	Color [3]uint8

	// Intensity is the normalized vibration strength, 0.0-1.0.
	Intensity float64

	// Frequency is the vibration frequency in Hz, 0-250.
	Frequency float64
}

// Telemetry is the optional read-back a device returns after a write.
type Telemetry struct {
	// SkinTempC is the on-skin temperature sensor reading in °C.
	SkinTempC float64
}

// Frequency bounds supported by the actuator firmware.
const (
	MinFrequencyHz = 0
	MaxFrequencyHz = 250
)

// ClampFrequency bounds f to the supported actuator range.
func ClampFrequency(f float64) float64 {
	if f < MinFrequencyHz {
		return MinFrequencyHz
	}
	if f > MaxFrequencyHz {
		return MaxFrequencyHz
	}
	return f
}

// ClampIntensity bounds v to the normalized 0.0-1.0 range.
func ClampIntensity(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// intensityByte converts normalized intensity to the wire byte.
func intensityByte(v float64) uint8 {
	return uint8(ClampIntensity(v)*255 + 0.5)
}

// frequencyWord converts Hz to the wire representation (0.1Hz units).
func frequencyWord(f float64) uint16 {
	return uint16(ClampFrequency(f)*10 + 0.5)
}
