package ocr

import (
	"golang.org/x/text/language"
)

// tessSpecial maps language/script combinations whose Tesseract traineddata
// name does not follow the plain ISO 639-3 convention.
var tessSpecial = map[string]string{
	"zho":      "chi_sim",
	"zho-Hans": "chi_sim",
	"zho-Hant": "chi_tra",
	"srp-Latn": "srp_latn",
	"aze-Cyrl": "aze_cyrl",
	"uzb-Cyrl": "uzb_cyrl",
}

// TesseractLanguage converts a BCP-47 language hint into the corresponding
// Tesseract traineddata name. Hints that already look like traineddata
// names ("eng", "chi_sim") pass through unchanged; hints that cannot be
// parsed are returned as-is so callers keep whatever the user typed.
func TesseractLanguage(hint string) string {
	if hint == "" {
		return ""
	}
	tag, err := language.Parse(hint)
	if err != nil {
		return hint
	}
	base, conf := tag.Base()
	if conf == language.No {
		return hint
	}
	iso3 := base.ISO3()
	if iso3 == "" {
		return hint
	}
	if script, conf := tag.Script(); conf >= language.High {
		if name, ok := tessSpecial[iso3+"-"+script.String()]; ok {
			return name
		}
	}
	if name, ok := tessSpecial[iso3]; ok {
		return name
	}
	return iso3
}

// TesseractLanguages converts a list of hints, dropping empties.
func TesseractLanguages(hints []string) []string {
	out := make([]string, 0, len(hints))
	for _, h := range hints {
		if name := TesseractLanguage(h); name != "" {
			out = append(out, name)
		}
	}
	return out
}
