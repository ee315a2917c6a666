package curriculum

import (
	"regexp"
	"strings"
)

const fileNameSuffix = "_Curriculo_Oficial.pdf"

var whitespaceRun = regexp.MustCompile(`\s+`)

// FileName derives the download name from the profile name: whitespace runs
// collapse to underscores, followed by the fixed document label. A nameless
// profile falls back to the bare label.
func FileName(nome string) string {
	nome = strings.TrimSpace(nome)
	if nome == "" {
		return "Curriculo_Oficial.pdf"
	}
	return whitespaceRun.ReplaceAllString(nome, "_") + fileNameSuffix
}
