package curriculum

import (
	"encoding/json"
	"testing"
)

func TestTechnologiesList_UnmarshalArray(t *testing.T) {
	var techs TechnologiesList
	if err := json.Unmarshal([]byte(`["React","Node.js"]`), &techs); err != nil {
		t.Fatalf("unmarshal array: %v", err)
	}
	if techs.Join() != "React, Node.js" {
		t.Fatalf("got %q", techs.Join())
	}
}

func TestTechnologiesList_UnmarshalDelimitedString(t *testing.T) {
	var techs TechnologiesList
	if err := json.Unmarshal([]byte(`"React, Node.js"`), &techs); err != nil {
		t.Fatalf("unmarshal string: %v", err)
	}
	if techs.Join() != "React, Node.js" {
		t.Fatalf("got %q", techs.Join())
	}
}

func TestTechnologiesList_DropsEmptyEntries(t *testing.T) {
	var techs TechnologiesList
	if err := json.Unmarshal([]byte(`"React,, ,Node.js,"`), &techs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(techs) != 2 {
		t.Fatalf("expected 2 entries, got %v", techs)
	}
}

func TestTechnologiesList_RejectsOtherShapes(t *testing.T) {
	var techs TechnologiesList
	if err := json.Unmarshal([]byte(`42`), &techs); err == nil {
		t.Fatal("expected error for numeric technologies")
	}
}

func TestFileName(t *testing.T) {
	cases := []struct {
		nome string
		want string
	}{
		{"Ana Silva", "Ana_Silva_Curriculo_Oficial.pdf"},
		{"  Ana   Maria  Silva ", "Ana_Maria_Silva_Curriculo_Oficial.pdf"},
		{"", "Curriculo_Oficial.pdf"},
		{"José", "José_Curriculo_Oficial.pdf"},
	}
	for _, tc := range cases {
		if got := FileName(tc.nome); got != tc.want {
			t.Errorf("FileName(%q) = %q, want %q", tc.nome, got, tc.want)
		}
	}
}
