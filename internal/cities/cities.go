// Package cities holds the static city-to-hashtag table used for
// registration and per-recipient broadcast tagging.
package cities

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// hashtags maps city keys to their display hashtags. Keys use underscores
// instead of spaces and are stored lower-case.
var hashtags = map[string]string{
	"київ":       "#Київ",
	"харків":     "#Харків",
	"одеса":      "#Одеса",
	"дніпро":     "#Дніпро",
	"донецьк":    "#Донецьк",
	"запоріжжя":  "#Запоріжжя",
	"львів":      "#Львів",
	"кривий_ріг": "#КривийРіг",
	"миколаїв":   "#Миколаїв",
	"маріуполь":  "#Маріуполь",
	// Kyiv Oblast towns
	"біла_церква": "#БілаЦерква",
	"бровари":     "#Бровари",
	"бориспіль":   "#Бориспіль",
	"ірпінь":      "#Ірпінь",
	"буча":        "#Буча",
	"фастів":      "#Фастів",
	"обухів":      "#Обухів",
	"вишневе":     "#Вишневе",
	"переяслав":   "#Переяслав",
	"васильків":   "#Васильків",
	"вишгород":    "#Вишгород",
	"славутич":    "#Славутич",
	"яготин":      "#Яготин",
	"боярка":      "#Боярка",
	"тараща":      "#Тараща",
	"українка":    "#Українка",
	"сквира":      "#Сквира",
	"кагарлик":    "#Кагарлик",
	"тетіїв":      "#Тетіїв",
	"березань":    "#Березань",
	"ржищів":      "#Ржищів",
	"чорнобиль":   "#Чорнобиль",
	"прип'ять":    "#Припять",
}

var titler = cases.Title(language.Ukrainian)

// Display turns a city key into its human-readable form: underscores become
// spaces and each word is title-cased ("кривий_ріг" -> "Кривий Ріг").
func Display(key string) string {
	return titler.String(strings.ReplaceAll(key, "_", " "))
}

// Hashtag returns the hashtag for a city key. Unknown cities get a tag
// synthesized from the display form with spaces removed.
func Hashtag(key string) string {
	if tag, ok := hashtags[key]; ok {
		return tag
	}
	return "#" + strings.ReplaceAll(Display(key), " ", "")
}

// Known reports whether the city key is in the static table.
func Known(key string) bool {
	_, ok := hashtags[key]
	return ok
}

// Keys returns all city keys sorted for stable keyboard layouts.
func Keys() []string {
	keys := make([]string, 0, len(hashtags))
	for k := range hashtags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
