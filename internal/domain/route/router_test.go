package route

import "testing"

func TestRoute(t *testing.T) {
	r := NewRouter()

	tests := []struct {
		question string
		want     Mode
	}{
		{"¿Cómo va Microsoft hoy?", ModePrices},
		{"¿Qué noticias hay sobre Boeing?", ModeDocs},
		{"precio de cierre de IBM", ModePrices},
		{"volumen negociado ayer", ModePrices},
		{"¿por qué cae Intel?", ModeDocs},
		{"riesgo regulatorio de Visa", ModeDocs},
		{"¿subió un 2% hoy?", ModePrices},
		{"háblame de Chevron", ModeDocs}, // no keyword: default docs
	}

	for _, tt := range tests {
		if got := r.Route(tt.question); got != tt.want {
			t.Errorf("Route(%q): got %s, want %s", tt.question, got, tt.want)
		}
	}
}

func TestRoute_DocsBeatsPrices(t *testing.T) {
	r := NewRouter()

	// Both intents present: document rules are evaluated first and win.
	if got := r.Route("noticias sobre el precio de cierre de Apple hoy"); got != ModeDocs {
		t.Errorf("got %s, want %s", got, ModeDocs)
	}
}
