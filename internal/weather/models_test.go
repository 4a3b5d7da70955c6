package weather

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRequiresUpdate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		age  time.Duration
		lang string
		want bool
	}{
		{"fresh", 30 * time.Minute, "en", false},
		{"just under an hour", time.Hour - time.Second, "en", false},
		{"exactly an hour", time.Hour, "en", true},
		{"older", 3 * time.Hour, "en", true},
		{"fresh but other language", time.Minute, "de", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := CityItem{CityID: 1, Lang: "en", LastUpdated: now.Add(-tt.age)}
			assert.Equal(t, tt.want, item.RequiresUpdate(now, tt.lang))
		})
	}
}

func TestPlaceLocalName(t *testing.T) {
	p := Place{Name: "Munich", LocalNames: map[string]string{"de": "München", "fr": ""}}

	assert.Equal(t, "München", p.LocalName("de"))
	assert.Equal(t, "Munich", p.LocalName("fr"))
	assert.Equal(t, "Munich", p.LocalName("it"))
}

func TestNormalizeLanguage(t *testing.T) {
	tests := map[string]string{
		"en":          "en",
		"en-US":       "en",
		"pt_BR":       "pt",
		"de_DE.UTF-8": "de",
		"fr_FR@euro":  "fr",
		"":            DefaultLanguage,
		"!!":          DefaultLanguage,
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeLanguage(in), "locale %q", in)
	}
}

func TestStatusKindText(t *testing.T) {
	b, err := StatusInProgress.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "in_progress", string(b))
	assert.Equal(t, "status(42)", StatusKind(42).String())

	st := statusError(errors.New("boom"))
	assert.Equal(t, StatusError, st.Kind)
	assert.Equal(t, "boom", st.Message)
}

func TestPresenterDropsOlderTickets(t *testing.T) {
	p := newPresenter("en")
	assert.Equal(t, StatusIdle, p.get().Status.Kind)
	assert.True(t, p.get().NetworkOn)

	first := p.begin()
	second := p.begin()

	assert.False(t, p.update(first, func(s *State) { s.Status = statusOf(StatusError) }))
	assert.Equal(t, StatusIdle, p.get().Status.Kind)

	assert.True(t, p.update(second, func(s *State) { s.Status = statusOf(StatusSuccess) }))
	assert.Equal(t, StatusSuccess, p.get().Status.Kind)

	assert.True(t, p.update(0, func(s *State) { s.Lang = "de" }), "ticket 0 always applies")
	assert.Equal(t, "de", p.get().Lang)
}
