package catalog

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/erp/barcode/internal/domain/shared"
)

// Symbology identifies a barcode encoding standard
type Symbology string

const (
	SymbologyEAN13      Symbology = "EAN13"
	SymbologyEAN8       Symbology = "EAN8"
	SymbologyUPCA       Symbology = "UPCA"
	SymbologyUPCE       Symbology = "UPCE"
	SymbologyCode128    Symbology = "CODE128"
	SymbologyCode39     Symbology = "CODE39"
	SymbologyITF14      Symbology = "ITF14"
	SymbologyQR         Symbology = "QR"
	SymbologyDataMatrix Symbology = "DATAMATRIX"
	SymbologyCustom     Symbology = "CUSTOM"
)

// MaxCode128Length is the longest value accepted as CODE128
const MaxCode128Length = 80

// code128Prefix is prepended to every generated CODE128 value
const code128Prefix = "PRD"

// numericLayout describes how a fixed-length numeric symbology is built
type numericLayout struct {
	prefix  string
	payload int
	// evenWeight is the multiplier for digits at even 0-based positions;
	// odd positions get the other one of {1, 3}.
	evenWeight int
}

func (l numericLayout) length() int {
	return len(l.prefix) + l.payload + 1
}

var (
	ean13Layout = numericLayout{prefix: "200", payload: 9, evenWeight: 1}
	ean8Layout  = numericLayout{prefix: "20", payload: 5, evenWeight: 3}
	upcaLayout  = numericLayout{prefix: "0", payload: 10, evenWeight: 3}
	itf14Layout = numericLayout{prefix: "1", payload: 12, evenWeight: 3}
)

// Symbologies returns every supported symbology
func Symbologies() []Symbology {
	return []Symbology{
		SymbologyEAN13,
		SymbologyEAN8,
		SymbologyUPCA,
		SymbologyUPCE,
		SymbologyCode128,
		SymbologyCode39,
		SymbologyITF14,
		SymbologyQR,
		SymbologyDataMatrix,
		SymbologyCustom,
	}
}

var symbologyAliases = map[string]Symbology{
	"EAN-13":      SymbologyEAN13,
	"EAN-8":       SymbologyEAN8,
	"UPC-A":       SymbologyUPCA,
	"UPC-E":       SymbologyUPCE,
	"CODE-128":    SymbologyCode128,
	"CODE-39":     SymbologyCode39,
	"ITF-14":      SymbologyITF14,
	"QRCODE":      SymbologyQR,
	"QR_CODE":     SymbologyQR,
	"DATA_MATRIX": SymbologyDataMatrix,
}

// ParseSymbology parses a symbology name, case-insensitively
func ParseSymbology(name string) (Symbology, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	if s := Symbology(upper); s.IsValid() {
		return s, nil
	}
	if s, ok := symbologyAliases[upper]; ok {
		return s, nil
	}
	return "", shared.NewDomainError("INVALID_SYMBOLOGY", "Unsupported barcode symbology: "+name)
}

// IsValid reports whether s is one of the supported symbologies
func (s Symbology) IsValid() bool {
	switch s {
	case SymbologyEAN13, SymbologyEAN8, SymbologyUPCA, SymbologyUPCE, SymbologyCode128,
		SymbologyCode39, SymbologyITF14, SymbologyQR, SymbologyDataMatrix, SymbologyCustom:
		return true
	}
	return false
}

// IsNumeric reports whether s is a fixed-length symbology with a check digit
func (s Symbology) IsNumeric() bool {
	_, ok := s.layout()
	return ok
}

// Length returns the total length of s, or 0 for variable-length symbologies
func (s Symbology) Length() int {
	if l, ok := s.layout(); ok {
		return l.length()
	}
	return 0
}

// String implements fmt.Stringer
func (s Symbology) String() string {
	return string(s)
}

func (s Symbology) layout() (numericLayout, bool) {
	switch s {
	case SymbologyEAN13:
		return ean13Layout, true
	case SymbologyEAN8:
		return ean8Layout, true
	case SymbologyUPCA:
		return upcaLayout, true
	case SymbologyITF14:
		return itf14Layout, true
	case SymbologyUPCE, SymbologyCode128, SymbologyCode39, SymbologyQR, SymbologyDataMatrix, SymbologyCustom:
		return numericLayout{}, false
	}
	return numericLayout{}, false
}

// NormalizeSeed reduces an arbitrary identifier to a non-empty digit string.
// Seeds without any ASCII digit are replaced by a 32-bit rolling hash of
// their UTF-16 code units.
func NormalizeSeed(seed string) string {
	digits := keepDigits(seed)
	if digits != "" {
		return digits
	}
	return strconv.FormatInt(abs32(seedHash(seed)), 10)
}

// seedHash computes hash = hash*31 + unit with int32 wraparound
func seedHash(seed string) int32 {
	var hash int32
	for _, unit := range utf16.Encode([]rune(seed)) {
		hash = hash*31 + int32(unit)
	}
	return hash
}

// abs32 widens before negating so that MinInt32 stays positive
func abs32(v int32) int64 {
	wide := int64(v)
	if wide < 0 {
		return -wide
	}
	return wide
}

// GenerateBarcode derives a complete barcode for seed. The result is
// deterministic and, for numeric symbologies, always carries a valid check
// digit. Symbologies without a generation rule fall back to EAN13.
func GenerateBarcode(seed string, symbology Symbology) string {
	switch symbology {
	case SymbologyCode128:
		return code128Prefix + keepAlphanumeric(strings.ToUpper(seed))
	case SymbologyEAN13, SymbologyEAN8, SymbologyUPCA, SymbologyITF14:
		layout, _ := symbology.layout()
		return generateNumeric(seed, layout)
	case SymbologyUPCE, SymbologyCode39, SymbologyQR, SymbologyDataMatrix, SymbologyCustom:
		return generateNumeric(seed, ean13Layout)
	}
	return generateNumeric(seed, ean13Layout)
}

func generateNumeric(seed string, layout numericLayout) string {
	payload := NormalizeSeed(seed)
	if len(payload) < layout.payload {
		payload = strings.Repeat("0", layout.payload-len(payload)) + payload
	}
	base := layout.prefix + payload[:layout.payload]
	return base + strconv.Itoa(checkDigit(base, layout.evenWeight))
}

// CheckDigit computes the check digit of base under the weighting rule of
// symbology. Non-numeric symbologies use the EAN13 rule. base must consist of
// ASCII digits.
func CheckDigit(base string, symbology Symbology) int {
	layout, ok := symbology.layout()
	if !ok {
		layout = ean13Layout
	}
	return checkDigit(base, layout.evenWeight)
}

func checkDigit(base string, evenWeight int) int {
	oddWeight := 4 - evenWeight
	sum := 0
	for i := 0; i < len(base); i++ {
		d := int(base[i] - '0')
		if i%2 == 0 {
			sum += d * evenWeight
		} else {
			sum += d * oddWeight
		}
	}
	return (10 - sum%10) % 10
}

// ValidateBarcode reports whether code is well formed for symbology and, for
// numeric symbologies, carries the correct check digit. UPCE, CODE39, CUSTOM
// and unknown symbologies have no structural rule and are always accepted.
func ValidateBarcode(code string, symbology Symbology) bool {
	switch symbology {
	case SymbologyEAN13, SymbologyEAN8, SymbologyUPCA, SymbologyITF14:
		layout, _ := symbology.layout()
		return validateNumeric(code, layout)
	case SymbologyCode128:
		n := codeUnits(code)
		return n >= 1 && n <= MaxCode128Length
	case SymbologyQR, SymbologyDataMatrix:
		return code != ""
	case SymbologyUPCE, SymbologyCode39, SymbologyCustom:
		return true
	}
	return true
}

func validateNumeric(code string, layout numericLayout) bool {
	if len(code) != layout.length() || !isDigits(code) {
		return false
	}
	last := len(code) - 1
	return checkDigit(code[:last], layout.evenWeight) == int(code[last]-'0')
}

// DetectSymbology guesses the symbology of code from its length and
// character class alone. The check digit is not verified.
func DetectSymbology(code string) Symbology {
	if isDigits(code) {
		switch len(code) {
		case ean13Layout.length():
			return SymbologyEAN13
		case ean8Layout.length():
			return SymbologyEAN8
		case upcaLayout.length():
			return SymbologyUPCA
		case itf14Layout.length():
			return SymbologyITF14
		}
	}
	if code != "" && len(code) <= MaxCode128Length && isCode128Shape(code) {
		return SymbologyCode128
	}
	return SymbologyCustom
}

// FormatBarcodeForDisplay inserts the conventional human-readable spacing.
// Values of other symbologies, or of unexpected length, are returned as is.
func FormatBarcodeForDisplay(code string, symbology Symbology) string {
	switch symbology {
	case SymbologyEAN13:
		if len(code) == 13 {
			return code[:1] + " " + code[1:7] + " " + code[7:]
		}
	case SymbologyUPCA:
		if len(code) == 12 {
			return code[:1] + " " + code[1:6] + " " + code[6:11] + " " + code[11:]
		}
	case SymbologyEAN8:
		if len(code) == 8 {
			return code[:4] + " " + code[4:]
		}
	case SymbologyUPCE, SymbologyCode128, SymbologyCode39, SymbologyITF14, SymbologyQR,
		SymbologyDataMatrix, SymbologyCustom:
	}
	return code
}

func keepDigits(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func keepAlphanumeric(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if c := s[i]; (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// isCode128Shape matches [A-Za-z0-9-]+
func isCode128Shape(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-':
		default:
			return false
		}
	}
	return true
}

// codeUnits returns the length of s in UTF-16 code units
func codeUnits(s string) int {
	n := 0
	for _, r := range s {
		if r > math.MaxUint16 {
			n += 2
		} else {
			n++
		}
	}
	return n
}
