package search

import (
	"strings"
	"testing"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		query string
		want  QueryType
	}{
		{"+79001234567", TypePhone},
		{"89001234567", TypePhone},
		{"+7 (900) 123-45-67", TypePhone},
		{"user@example.com", TypeEmail},
		{"А123ВС77", TypeCarPlate},
		{"а123вс777", TypeCarPlate},
		{"@someuser", TypeNickname},
		{"some_user42", TypeNickname},
		{"192.168.1.1", TypeIP},
		{"ул Ленина, дом 5", TypeAddress},
		{"Иванов Иван Иванович", TypeFullName},
		{"Иванов Иван", TypeFullName},
		{"как найти человека по нику", TypeGeneral},
	}

	for _, c := range cases {
		if got := Detect(c.query); got != c.want {
			t.Errorf("Detect(%q) = %v (%s), want %v (%s)", c.query, got, got.Code(), c.want, c.want.Code())
		}
	}
}

func TestQueryTypeCodesAreDistinct(t *testing.T) {
	types := []QueryType{
		TypeGeneral, TypePhone, TypeEmail, TypeCarPlate,
		TypeNickname, TypeIP, TypeAddress, TypeFullName,
	}
	seen := make(map[string]QueryType)
	for _, qt := range types {
		code := qt.Code()
		if code == "" {
			t.Errorf("%v has empty code", qt)
		}
		if prev, ok := seen[code]; ok {
			t.Errorf("code %q shared by %v and %v", code, prev, qt)
		}
		seen[code] = qt
	}
}

func TestFormatResultError(t *testing.T) {
	result := &Result{Status: "error", Error: &APIError{Message: "bad token"}}
	got := FormatResult(result, "q", TypeGeneral)
	if got != "❌ <b>Ошибка:</b> bad token" {
		t.Fatalf("got %q", got)
	}
}

func TestFormatResultEmpty(t *testing.T) {
	result := &Result{Status: "success"}
	got := FormatResult(result, "<b>", TypePhone)
	if !contains(got, "&lt;b&gt;") {
		t.Error("query not escaped")
	}
	if !contains(got, "Результатов не найдено") {
		t.Error("missing empty-result notice")
	}
}

func TestFormatResultHits(t *testing.T) {
	result := &Result{
		Status: "success",
		Data: ResultData{
			Count: 2,
			Items: []SourceHits{
				{
					Source: Source{Database: "vk", Collection: "users"},
					Hits: Hits{
						HitsCount: 2,
						Items: []map[string]interface{}{
							{"phone": "+79001234567", "_score": 1.0},
						},
					},
				},
			},
		},
	}
	got := FormatResult(result, "иванов", TypeFullName)
	for _, want := range []string{"🔵 ВКонтакте", "users", "+79001234567", "Найдено:</b> 2"} {
		if !contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if contains(got, "_score") {
		t.Error("internal fields leaked into output")
	}
}

func contains(s, sub string) bool {
	return strings.Contains(s, sub)
}
