package usecase

import (
	"regexp"
	"strconv"
	"strings"
)

// Compiled regex patterns for name normalization
var (
	// Decimal comma: "2,25" -> "2.25", applied before punctuation stripping
	decimalCommaPattern = regexp.MustCompile(`(\d),(\d)`)

	// Matches a quantity with unit: "900ml", "1.5 l", "170 g", "2.25lt"
	sizePattern = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(kg|gr?s?|lt?s?|ml|cc)\b`)

	// Matches pack quantities: "6 x 1.5l", "pack 6 x 500ml"
	packSizePattern = regexp.MustCompile(`(?i)\b(\d+)\s*x\s*(\d+(?:\.\d+)?)\s*(kg|gr?s?|lt?s?|ml|cc)\b`)

	// Matches unit counts without a size: "pack x 6", "12 unidades", "x6"
	unitCountPattern = regexp.MustCompile(`(?i)\bpack\s*x?\s*(\d+)\b|\b(\d+)\s*unidades\b|\bx\s*(\d+)\b`)

	// Anything that is not a letter, digit, dot or whitespace becomes a space
	punctPattern = regexp.MustCompile(`[^a-z0-9ñ.\s]+`)

	// Glues a number to its unit so the pair survives tokenization:
	// "900 ml" -> "900ml"
	attachUnitPattern = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s+(kg|gr?s?|lt?s?|ml|cc)\b`)

	multiSpacePattern = regexp.MustCompile(`\s+`)
)

// spanishStopWords are grocery-domain noise tokens dropped during
// normalization. Quantity tokens (900ml, x6) are retained because they
// disambiguate variants.
var spanishStopWords = map[string]bool{
	"de": true, "la": true, "el": true, "en": true, "con": true,
	"sin": true, "al": true, "del": true, "los": true, "las": true,
	"por": true, "para": true, "un": true, "una": true,
	"pack": true, "unidades": true, "unidad": true, "bolsa": true,
	"caja": true, "paquete": true, "lata": true, "botella": true,
	"envase": true, "sachet": true, "pote": true, "frasco": true,
	"x": true,
}

// knownBrands are grocery brands recognized during attribute extraction.
// Multi-word brands come first so they win over their single-word suffixes.
var knownBrands = []string{
	"la campagnola", "la serenisima", "la paulina", "granja del sol",
	"coca cola", "stella artois", "club social", "don vicente",
	"seven up", "head shoulders", "mr musculo", "muy bien",
	"campagnola", "serenisima", "paulina", "natura", "cocinero", "lira",
	"morixe", "patito", "mazola", "hellmanns", "danica", "canuelas",
	"pepsi", "sprite", "fanta", "schweppes", "quilmes", "andes",
	"brahma", "heineken", "corona", "oreo", "milka", "tofi",
	"terrabusi", "bagley", "arcor", "georgalos", "criollitas",
	"sancor", "ilolay", "tregar", "milkaut", "gallo", "molinos",
	"marolio", "lucchetti", "matarazzo", "favorita", "swift",
	"paladini", "carrefour", "cif", "magistral", "ala", "skip",
	"procenex", "ayudin", "lysoform", "blem", "dove", "sedal",
	"pantene", "nivea", "rexona", "axe", "plusbelle",
}

// knownVariants are flavor/style qualifiers that distinguish otherwise
// identical products (Oreo Clasica vs Oreo Mini).
var knownVariants = []string{
	"clasica", "original", "mini", "family", "maxi", "grande", "chico",
	"light", "diet", "zero", "integral", "premium", "suave", "extra",
	"plus", "max", "ultra", "descremada", "entera",
}

// ProductAttributes holds the structured signals extracted from a raw
// product name, consumed by the match scorer.
type ProductAttributes struct {
	CleanName    string
	Brand        string
	Size         float64
	SizeUnit     string
	BaseQuantity float64 // size normalized to grams or milliliters
	UnitCount    int
	Variant      string
}

// HasSize reports whether a parseable package size was found
func (a ProductAttributes) HasSize() bool {
	return a.BaseQuantity > 0
}

// NormalizeName canonicalizes a product name for indexing and retrieval:
// lowercase, accents stripped, punctuation removed, decimal commas unified,
// number+unit pairs glued into a single token, whitespace collapsed.
func NormalizeName(name string) string {
	if name == "" {
		return ""
	}
	s := strings.ToLower(name)
	s = stripAccents(s)
	s = strings.ReplaceAll(s, "'", "") // Hellmann's -> hellmanns
	s = decimalCommaPattern.ReplaceAllString(s, "$1.$2")
	s = punctPattern.ReplaceAllString(s, " ")
	s = attachUnitPattern.ReplaceAllString(s, "$1$2")
	s = multiSpacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NormalizeTokens splits a product name (and optional brand) into
// comparable tokens. Stop words and single-character tokens are dropped;
// quantity tokens are retained. Pure and deterministic. An empty result
// means the input carried no usable signal.
func NormalizeTokens(name, brand string) []string {
	normalized := NormalizeName(name)
	if brand != "" {
		brandNorm := NormalizeName(brand)
		if brandNorm != "" && !strings.Contains(normalized, brandNorm) {
			normalized = normalized + " " + brandNorm
		}
	}

	var tokens []string
	seen := make(map[string]bool)
	for _, word := range strings.Fields(normalized) {
		word = strings.Trim(word, ".")
		if len(word) <= 1 {
			continue
		}
		if spanishStopWords[word] {
			continue
		}
		if seen[word] {
			continue
		}
		seen[word] = true
		tokens = append(tokens, word)
	}
	return tokens
}

// ExtractAttributes parses structured attributes out of a raw product
// name: package size (including "6 x 1.5l" packs), unit count, known
// brand, variant, and the residual clean name.
func ExtractAttributes(name string) ProductAttributes {
	attrs := ProductAttributes{}
	if name == "" {
		return attrs
	}

	normalized := NormalizeName(name)
	working := normalized

	// Pack sizes first so "6 x 1.5l" is not read as a bare "1.5l"
	if m := packSizePattern.FindStringSubmatch(working); m != nil {
		count, _ := strconv.Atoi(m[1])
		size, _ := strconv.ParseFloat(m[2], 64)
		attrs.UnitCount = count
		attrs.Size = size
		attrs.SizeUnit = strings.ToLower(m[3])
		working = strings.Replace(working, m[0], " ", 1)
	} else if m := sizePattern.FindStringSubmatch(working); m != nil {
		size, _ := strconv.ParseFloat(m[1], 64)
		attrs.Size = size
		attrs.SizeUnit = strings.ToLower(m[2])
		working = strings.Replace(working, m[0], " ", 1)
	}

	attrs.BaseQuantity = normalizeQuantity(attrs.Size, attrs.SizeUnit)

	if attrs.UnitCount == 0 {
		if m := unitCountPattern.FindStringSubmatch(working); m != nil {
			for _, g := range m[1:] {
				if g != "" {
					attrs.UnitCount, _ = strconv.Atoi(g)
					break
				}
			}
			working = strings.Replace(working, m[0], " ", 1)
		}
	}

	for _, brand := range knownBrands {
		if strings.Contains(working, brand) {
			attrs.Brand = brand
			working = strings.Replace(working, brand, " ", 1)
			break
		}
	}

	for _, variant := range knownVariants {
		if containsToken(working, variant) {
			attrs.Variant = variant
			break
		}
	}

	var kept []string
	for _, word := range strings.Fields(working) {
		if spanishStopWords[word] || len(word) <= 2 {
			continue
		}
		kept = append(kept, word)
	}
	attrs.CleanName = strings.Join(kept, " ")

	return attrs
}

// normalizeQuantity converts a size to its base unit: weights to grams,
// volumes to milliliters. Returns 0 when the unit is unknown.
func normalizeQuantity(size float64, unit string) float64 {
	if size <= 0 {
		return 0
	}
	switch unit {
	case "kg":
		return size * 1000
	case "g", "gr", "grs":
		return size
	case "l", "lt", "lts":
		return size * 1000
	case "ml", "cc":
		return size
	}
	return 0
}

// containsToken reports whether s contains word as a whole token
func containsToken(s, word string) bool {
	for _, t := range strings.Fields(s) {
		if t == word {
			return true
		}
	}
	return false
}

// accentReplacer folds the Spanish accented letters used in catalog names
var accentReplacer = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u",
	"Á", "a", "É", "e", "Í", "i", "Ó", "o", "Ú", "u", "Ü", "u",
)

func stripAccents(s string) string {
	return accentReplacer.Replace(s)
}
