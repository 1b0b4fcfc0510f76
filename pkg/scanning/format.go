package scanning

// Format - optical code symbology name as reported by the decoder
type Format string

// supported symbologies, 2D matrix codes first, then 1D retail/logistics codes
const (
	QRCode     Format = "QR_CODE"
	DataMatrix Format = "DATA_MATRIX"
	Code128    Format = "CODE_128"
	EAN13      Format = "EAN_13"
	EAN8       Format = "EAN_8"
	Code39     Format = "CODE_39"
	UPCA       Format = "UPC_A"
	UPCE       Format = "UPC_E"
	ITF        Format = "ITF"
)

// SupportedFormats - the fixed whitelist handed to the decoder
var SupportedFormats = []Format{
	QRCode,
	DataMatrix,
	Code128,
	EAN13,
	EAN8,
	Code39,
	UPCA,
	UPCE,
	ITF,
}

func (f Format) String() string {
	return string(f)
}

// Supported - reports whether the format is on the whitelist
func (f Format) Supported() bool {
	for _, s := range SupportedFormats {
		if s == f {
			return true
		}
	}
	return false
}
