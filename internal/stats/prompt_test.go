package stats

import (
	"strings"
	"testing"
)

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("RUSHING", numbers("ATT", "YDS", "TD"), "")

	for _, want := range []string{
		"in the RUSHING tables",
		"Name, Team, PlayerNumber, ATT, YDS, TD",
		"- Name: string",
		"- PlayerNumber: number",
		"- TD: number",
		"separate columns with tabs",
		`"LAST First"`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
	if strings.Contains(prompt, "\t") {
		t.Error("prompt should not contain tab indentation")
	}
}

func TestBuildPrompt_ZeroColumns(t *testing.T) {
	prompt := BuildPrompt("PASSING", nil, "")

	if !strings.Contains(prompt, "Name, Team, PlayerNumber\n") {
		t.Errorf("expected fixed columns without trailing comma:\n%s", prompt)
	}
	if strings.Contains(prompt, "PlayerNumber,") {
		t.Error("unexpected stray comma after fixed columns")
	}
}

func TestBuildPrompt_AdditionalContext(t *testing.T) {
	prompt := BuildPrompt("FIELD GOALS & CONVERTS", numbers("FGA"), "Two columns\n\tare labeled MD.")

	if !strings.HasSuffix(prompt, "Two columns are labeled MD.\n") {
		t.Errorf("expected normalized context at end:\n%s", prompt)
	}
}

func TestCategory_Prompt(t *testing.T) {
	r := NewRegistry()
	kicking, ok := r.Get(Kicking)
	if !ok {
		t.Fatal("kicking category missing")
	}
	prompt := kicking.Prompt()
	if !strings.Contains(prompt, "MD_FG") || !strings.Contains(prompt, "leftmost") {
		t.Errorf("expected kicking disambiguation in prompt:\n%s", prompt)
	}
}
