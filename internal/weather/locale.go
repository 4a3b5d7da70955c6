package weather

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/text/language"
)

// DefaultLanguage is used when no valid locale is known.
const DefaultLanguage = "en"

// NormalizeLanguage reduces a locale such as "en-US" or "pt_BR" to its base
// language code.
func NormalizeLanguage(locale string) string {
	locale = strings.TrimSpace(locale)
	if i := strings.IndexAny(locale, ".@"); i >= 0 {
		locale = locale[:i]
	}
	locale = strings.ReplaceAll(locale, "_", "-")
	if locale == "" {
		return DefaultLanguage
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return DefaultLanguage
	}
	base, _ := tag.Base()
	return base.String()
}

// ChangeLanguage switches the UI language. The displayed city no longer
// matches it and is resolved again, exactly like a stale one.
func (s *Service) ChangeLanguage(ctx context.Context, locale string) (State, error) {
	lang := NormalizeLanguage(locale)
	var cur *CityItem
	s.view.update(0, func(st *State) {
		st.Lang = lang
		cur = st.Current
	})
	s.logger.InfoContext(ctx, "Language changed", slog.String("method", "ChangeLanguage"), slog.String("lang", lang))

	if cur == nil {
		return s.State(), nil
	}
	item := *cur
	return s.Resolve(ctx, Request{Item: &item, Persist: s.isSaved(item.CityID)})
}
