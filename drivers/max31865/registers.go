package max31865

// Register addresses (read form; writes set bit 7).
const (
	regConfig    = 0x00
	regRTDMSB    = 0x01
	regRTDLSB    = 0x02
	regHFaultMSB = 0x03
	regHFaultLSB = 0x04
	regLFaultMSB = 0x05
	regLFaultLSB = 0x06
	regFault     = 0x07

	writeBit = 0x80
)

// Configuration register bits.
const (
	cfgBias       = 0x80
	cfgAutoConv   = 0x40
	cfgOneShot    = 0x20
	cfg3Wire      = 0x10
	cfgFaultCycle = 0x0C
	cfgFaultClear = 0x02
	cfgFilter50Hz = 0x01
)

// Fault status bits (register 0x07).
const (
	FaultHighThreshold uint8 = 0x80 // RTD above high threshold
	FaultLowThreshold  uint8 = 0x40 // RTD below low threshold
	FaultRefInHigh     uint8 = 0x20 // REFIN- > 0.85 x VBIAS
	FaultRefInLowOpen  uint8 = 0x10 // REFIN- < 0.85 x VBIAS, FORCE- open
	FaultRTDInLowOpen  uint8 = 0x08 // RTDIN- < 0.85 x VBIAS, FORCE- open
	FaultVoltageOOR    uint8 = 0x04 // over/under voltage
)

// Callendar–Van Dusen coefficients (IEC 60751).
const (
	cvdA = 3.9083e-3
	cvdB = -5.775e-7
	cvdC = -4.183e-12
)

// codeFullScale is 2^15: RTD codes are 15-bit ratios of Rref.
const codeFullScale = 32768
