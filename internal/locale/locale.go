// Package locale maps the host language onto the locale set served by
// Data Dragon, so champion text arrives in the user's language.
package locale

import (
	"os"
	"strings"

	"golang.org/x/text/language"
)

const Default = "en_US"

// Locales supported by Data Dragon, paired with their BCP 47 form.
// The matcher order mirrors ddragonLocales: the first entry wins ties.
var ddragonLocales = []struct {
	ddragon string
	tag     language.Tag
}{
	{"en_US", language.AmericanEnglish},
	{"en_GB", language.BritishEnglish},
	{"es_ES", language.EuropeanSpanish},
	{"es_MX", language.LatinAmericanSpanish},
	{"fr_FR", language.French},
	{"de_DE", language.German},
	{"it_IT", language.Italian},
	{"pt_BR", language.BrazilianPortuguese},
	{"pl_PL", language.Polish},
	{"ru_RU", language.Russian},
	{"tr_TR", language.Turkish},
	{"ja_JP", language.Japanese},
	{"ko_KR", language.Korean},
	{"zh_CN", language.SimplifiedChinese},
	{"zh_TW", language.TraditionalChinese},
	{"vi_VN", language.Vietnamese},
	{"th_TH", language.Thai},
}

var matcher = newMatcher()

func newMatcher() language.Matcher {
	tags := make([]language.Tag, len(ddragonLocales))
	for i, l := range ddragonLocales {
		tags[i] = l.tag
	}
	return language.NewMatcher(tags)
}

// Resolve picks the best Data Dragon locale for the preferred languages,
// falling back to Default when nothing matches.
func Resolve(preferred ...string) string {
	cleaned := make([]string, 0, len(preferred))
	for _, p := range preferred {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) == 0 {
		return Default
	}

	tags, _, err := language.ParseAcceptLanguage(strings.Join(cleaned, ","))
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return Default
	}
	return ddragonLocales[index].ddragon
}

// System resolves the locale from the process environment (LC_ALL, then
// LANG), e.g. "pt_BR.UTF-8" resolves to "pt_BR".
func System() string {
	for _, key := range []string{"LC_ALL", "LANG"} {
		raw := strings.TrimSpace(os.Getenv(key))
		if raw == "" || raw == "C" || raw == "POSIX" {
			continue
		}
		// Strip the charset suffix and normalize to a BCP 47 tag.
		if idx := strings.IndexByte(raw, '.'); idx > 0 {
			raw = raw[:idx]
		}
		return Resolve(strings.ReplaceAll(raw, "_", "-"))
	}
	return Default
}
